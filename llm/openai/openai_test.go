package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/stepgraph/llm"
	"github.com/openai/openai-go"
)

type fakeClient struct {
	errs       []error
	completion *openai.ChatCompletion
	calls      int
	params     openai.ChatCompletionNewParams
}

func (f *fakeClient) newCompletion(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	f.calls++
	f.params = params
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.completion, nil
}

func completion(text string, tokens int64) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
		Usage: openai.CompletionUsage{TotalTokens: tokens},
	}
}

func newTestModel(fake *fakeClient) *ChatModel {
	return &ChatModel{
		modelName:  "gpt-test",
		client:     fake,
		maxRetries: 2,
		retryDelay: time.Millisecond,
	}
}

func TestNewChatModel_DefaultModel(t *testing.T) {
	m := NewChatModel("test-key", "")
	if m.modelName != DefaultModel {
		t.Errorf("modelName = %q, want %q", m.modelName, DefaultModel)
	}
	if m.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", m.maxRetries)
	}
}

func TestChatModel_Chat(t *testing.T) {
	fake := &fakeClient{completion: completion("Extract the loop into a helper.", 42)}
	m := newTestModel(fake)

	out, err := m.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You review Go code."},
		{Role: llm.RoleUser, Content: "for {}"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "Extract the loop into a helper." {
		t.Errorf("Text = %q", out.Text)
	}
	if out.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", out.TokensUsed)
	}
	if string(fake.params.Model) != "gpt-test" {
		t.Errorf("Model = %q", fake.params.Model)
	}
	if len(fake.params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fake.params.Messages))
	}
	if fake.params.Messages[0].OfSystem == nil {
		t.Error("first message should be a system message")
	}
	if fake.params.Messages[1].OfUser == nil {
		t.Error("second message should be a user message")
	}
}

func TestChatModel_RetriesTransientErrors(t *testing.T) {
	fake := &fakeClient{
		errs:       []error{errors.New("connection reset by peer"), errors.New("request timeout")},
		completion: completion("ok", 1),
	}
	m := newTestModel(fake)

	out, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != "ok" {
		t.Errorf("Text = %q", out.Text)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestChatModel_GivesUpAfterMaxRetries(t *testing.T) {
	transient := errors.New("connection refused")
	fake := &fakeClient{errs: []error{transient, transient, transient, transient}}
	m := newTestModel(fake)

	_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, transient) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestChatModel_NoRetryOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid api key")
	fake := &fakeClient{errs: []error{permanent}}
	m := newTestModel(fake)

	_, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1", fake.calls)
	}
}

func TestChatModel_EmptyChoices(t *testing.T) {
	fake := &fakeClient{completion: &openai.ChatCompletion{}}
	m := newTestModel(fake)

	if _, err := m.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{errors.New("i/o timeout"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("bad request"), false},
	}
	for _, tt := range tests {
		if got := isTransientError(tt.err); got != tt.want {
			t.Errorf("isTransientError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
