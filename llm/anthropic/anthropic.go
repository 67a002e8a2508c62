// Package anthropic adapts Anthropic's Claude API to llm.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/stepgraph/llm"
)

// DefaultModel is used when NewChatModel is given an empty model name.
const DefaultModel = "claude-3-5-sonnet-20241022"

// ChatModel implements llm.ChatModel for Claude.
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "Hi"}})
type ChatModel struct {
	modelName string
	maxTokens int64
	client    messageClient
}

// messageClient is the part of the SDK the adapter calls, so tests can
// substitute it.
type messageClient interface {
	newMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// NewChatModel creates a ChatModel using apiKey.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &ChatModel{
		modelName: modelName,
		maxTokens: 4096,
		client:    newSDKClient(apiKey),
	}
}

// Chat implements llm.ChatModel. System messages are sent as Claude's
// separate system parameter.
func (m *ChatModel) Chat(ctx context.Context, messages []llm.Message) (llm.ChatOut, error) {
	if ctx.Err() != nil {
		return llm.ChatOut{}, ctx.Err()
	}

	system, conversation := llm.SplitSystem(messages)
	if len(conversation) == 0 {
		return llm.ChatOut{}, errors.New("anthropic: at least one non-system message is required")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: m.maxTokens,
		Messages:  convertMessages(conversation),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := m.client.newMessage(ctx, params)
	if err != nil {
		return llm.ChatOut{}, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(message), nil
}

func convertMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func convertResponse(message *anthropic.Message) llm.ChatOut {
	if message == nil {
		return llm.ChatOut{}
	}

	var out llm.ChatOut
	for _, block := range message.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}
	out.TokensUsed = int(message.Usage.InputTokens + message.Usage.OutputTokens)
	return out
}

type sdkClient struct {
	client anthropic.Client
}

func newSDKClient(apiKey string) *sdkClient {
	return &sdkClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (c *sdkClient) newMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return c.client.Messages.New(ctx, params)
}
