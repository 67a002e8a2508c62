package providers

import (
	"testing"

	"github.com/dshills/stepgraph/llm/anthropic"
	"github.com/dshills/stepgraph/llm/google"
	"github.com/dshills/stepgraph/llm/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	m, err := New(Config{Provider: Anthropic})
	require.NoError(t, err)
	assert.IsType(t, &anthropic.ChatModel{}, m)

	m, err = New(Config{Provider: OpenAI, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.IsType(t, &openai.ChatModel{}, m)

	m, err = New(Config{Provider: Google})
	require.NoError(t, err)
	assert.IsType(t, &google.ChatModel{}, m)
}

func TestNew_CustomKeyEnv(t *testing.T) {
	t.Setenv("STEPGRAPH_REVIEW_KEY", "secret")

	m, err := New(Config{Provider: OpenAI, APIKeyEnv: "STEPGRAPH_REVIEW_KEY"})
	require.NoError(t, err)
	assert.IsType(t, &openai.ChatModel{}, m)
}

func TestNew_Errors(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := New(Config{Provider: Anthropic})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY is not set")

	_, err = New(Config{Provider: "mistral"})
	assert.ErrorContains(t, err, "unknown llm provider")

	t.Setenv("SOME_KEY", "x")
	_, err = New(Config{Provider: "mistral", APIKeyEnv: "SOME_KEY"})
	assert.ErrorContains(t, err, "unknown llm provider")
}
