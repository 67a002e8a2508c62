package store

import (
	"fmt"
	"time"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Driver string

	// DSN is the SQLite path or the MySQL data source name.
	DSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	RedisPrefix   string
}

// Open returns the backend named by cfg.Driver. An empty driver selects the
// in-memory store.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemStore(), nil
	case DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = "stepgraph.db"
		}
		return NewSQLiteStore(path)
	case DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("mysql store requires a dsn")
		}
		return NewMySQLStore(cfg.DSN)
	case DriverRedis:
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		opts := []RedisOption{WithTTL(cfg.RedisTTL)}
		if cfg.RedisPrefix != "" {
			opts = append(opts, WithPrefix(cfg.RedisPrefix))
		}
		return NewRedisStore(addr, cfg.RedisPassword, cfg.RedisDB, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
