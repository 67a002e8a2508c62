// Package providers builds an llm.ChatModel from a provider name.
package providers

import (
	"fmt"
	"os"

	"github.com/dshills/stepgraph/llm"
	"github.com/dshills/stepgraph/llm/anthropic"
	"github.com/dshills/stepgraph/llm/google"
	"github.com/dshills/stepgraph/llm/openai"
)

// Provider names accepted by New.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Google    = "google"
)

// defaultKeyEnv maps each provider to the environment variable holding its
// API key when the caller does not name one.
var defaultKeyEnv = map[string]string{
	Anthropic: "ANTHROPIC_API_KEY",
	OpenAI:    "OPENAI_API_KEY",
	Google:    "GOOGLE_API_KEY",
}

// Config selects a provider.
type Config struct {
	Provider string
	Model    string

	// APIKeyEnv names the environment variable holding the API key. Empty
	// means the provider's conventional variable.
	APIKeyEnv string
}

// New returns the ChatModel for cfg.Provider. The API key is read from the
// environment and must be non-empty.
func New(cfg Config) (llm.ChatModel, error) {
	envName := cfg.APIKeyEnv
	if envName == "" {
		var ok bool
		envName, ok = defaultKeyEnv[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
		}
	}

	apiKey := os.Getenv(envName)
	if apiKey == "" {
		return nil, fmt.Errorf("llm provider %s: %s is not set", cfg.Provider, envName)
	}

	switch cfg.Provider {
	case Anthropic:
		return anthropic.NewChatModel(apiKey, cfg.Model), nil
	case OpenAI:
		return openai.NewChatModel(apiKey, cfg.Model), nil
	case Google:
		return google.NewChatModel(apiKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
