// Package config loads stepgraph's configuration.
//
// Values are resolved in increasing priority: built-in defaults, a YAML file,
// then STEPGRAPH_* environment variables. An environment variable is named
// after the dotted key with dots replaced by underscores, so store.redis_addr
// is STEPGRAPH_STORE_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "STEPGRAPH_"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Tracing TracingConfig `yaml:"tracing"`
	Review  ReviewConfig  `yaml:"review"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type EngineConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
	RedisPrefix   string        `yaml:"redis_prefix"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReviewConfig selects the suggester used by the code review workflow.
type ReviewConfig struct {
	// Provider is heuristic, anthropic, openai or google.
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8000"},
		Engine:  EngineConfig{MaxSteps: 50},
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Driver: "memory", RedisAddr: "localhost:6379"},
		Tracing: TracingConfig{Enabled: false},
		Review:  ReviewConfig{Provider: "heuristic"},
	}
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and the environment apply. A named file that does not exist is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite", "mysql", "redis":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "mysql" && c.Store.DSN == "" {
		return errors.New("store.dsn: required for the mysql driver")
	}

	switch c.Review.Provider {
	case "heuristic", "anthropic", "openai", "google":
	default:
		return fmt.Errorf("review.provider: unknown provider %q", c.Review.Provider)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}

	if c.Engine.MaxSteps < 0 {
		return fmt.Errorf("engine.max_steps: must not be negative, got %d", c.Engine.MaxSteps)
	}
	return nil
}

// binding ties a dotted key to the field it sets.
type binding struct {
	key string
	set func(string) error
}

func (c *Config) bindings() []binding {
	return []binding{
		{"server.addr", setString(&c.Server.Addr)},
		{"engine.max_steps", setInt(&c.Engine.MaxSteps)},
		{"log.level", setString(&c.Log.Level)},
		{"log.format", setString(&c.Log.Format)},
		{"store.driver", setString(&c.Store.Driver)},
		{"store.dsn", setString(&c.Store.DSN)},
		{"store.redis_addr", setString(&c.Store.RedisAddr)},
		{"store.redis_password", setString(&c.Store.RedisPassword)},
		{"store.redis_db", setInt(&c.Store.RedisDB)},
		{"store.redis_ttl", setDuration(&c.Store.RedisTTL)},
		{"store.redis_prefix", setString(&c.Store.RedisPrefix)},
		{"tracing.enabled", setBool(&c.Tracing.Enabled)},
		{"review.provider", setString(&c.Review.Provider)},
		{"review.model", setString(&c.Review.Model)},
		{"review.api_key_env", setString(&c.Review.APIKeyEnv)},
	}
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Keys returns every configurable dotted key.
func Keys() []string {
	var c Config
	bs := c.bindings()
	keys := make([]string, len(bs))
	for i, b := range bs {
		keys[i] = b.key
	}
	return keys
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, b := range c.bindings() {
		value, ok := lookup(EnvName(b.key))
		if !ok || value == "" {
			continue
		}
		if err := b.set(value); err != nil {
			return fmt.Errorf("%s: %w", EnvName(b.key), err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*dst = d
		return nil
	}
}
