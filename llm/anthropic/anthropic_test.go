package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/dshills/stepgraph/llm"
)

type fakeClient struct {
	message *anthropic.Message
	err     error
	calls   int
	params  anthropic.MessageNewParams
}

func (f *fakeClient) newMessage(_ context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	f.calls++
	f.params = params
	return f.message, f.err
}

func TestNewChatModel_DefaultModel(t *testing.T) {
	m := NewChatModel("test-key", "")
	if m.modelName != DefaultModel {
		t.Errorf("modelName = %q, want %q", m.modelName, DefaultModel)
	}

	m = NewChatModel("test-key", "claude-3-haiku-20240307")
	if m.modelName != "claude-3-haiku-20240307" {
		t.Errorf("modelName = %q", m.modelName)
	}
}

func TestChatModel_Chat(t *testing.T) {
	fake := &fakeClient{
		message: &anthropic.Message{
			Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: "Use a table-driven test."},
				{Type: "text", Text: " Also name the helper."},
			},
			Usage: anthropic.Usage{InputTokens: 12, OutputTokens: 8},
		},
	}
	m := &ChatModel{modelName: "claude-test", maxTokens: 256, client: fake}

	out, err := m.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You review Go code."},
		{Role: llm.RoleUser, Content: "func f() {}"},
		{Role: llm.RoleAssistant, Content: "Looks fine."},
		{Role: llm.RoleUser, Content: "Anything else?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Text != "Use a table-driven test. Also name the helper." {
		t.Errorf("Text = %q", out.Text)
	}
	if out.TokensUsed != 20 {
		t.Errorf("TokensUsed = %d, want 20", out.TokensUsed)
	}

	if fake.calls != 1 {
		t.Fatalf("expected 1 call, got %d", fake.calls)
	}
	if string(fake.params.Model) != "claude-test" {
		t.Errorf("Model = %q", fake.params.Model)
	}
	if fake.params.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d", fake.params.MaxTokens)
	}
	if len(fake.params.System) != 1 || fake.params.System[0].Text != "You review Go code." {
		t.Errorf("System = %+v", fake.params.System)
	}
	if len(fake.params.Messages) != 3 {
		t.Fatalf("expected 3 conversation messages, got %d", len(fake.params.Messages))
	}
	if fake.params.Messages[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("second message role = %q, want assistant", fake.params.Messages[1].Role)
	}
}

func TestChatModel_Errors(t *testing.T) {
	t.Run("wraps client error", func(t *testing.T) {
		boom := errors.New("429 rate_limit_error")
		m := &ChatModel{modelName: "x", client: &fakeClient{err: boom}}

		_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})

	t.Run("rejects system-only conversation", func(t *testing.T) {
		fake := &fakeClient{}
		m := &ChatModel{modelName: "x", client: fake}

		_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleSystem, Content: "rules"}})
		if err == nil {
			t.Fatal("expected error")
		}
		if fake.calls != 0 {
			t.Errorf("client should not be called")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fake := &fakeClient{}
		m := &ChatModel{modelName: "x", client: fake}
		if _, err := m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if fake.calls != 0 {
			t.Errorf("client should not be called")
		}
	})
}
