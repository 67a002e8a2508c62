package codereview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/stepgraph/llm"
)

// Review is what suggest_improvements knows about the code when it asks for
// a suggestion.
type Review struct {
	Functions  []string
	Complexity int
	Issues     []string
}

// Suggester produces an improvement suggestion for a review pass.
type Suggester interface {
	Suggest(ctx context.Context, review Review) (string, error)
}

// DefaultSuggestion is what HeuristicSuggester returns.
const DefaultSuggestion = "Refactor logic"

// HeuristicSuggester returns DefaultSuggestion without looking at the code.
type HeuristicSuggester struct{}

// Suggest implements Suggester.
func (HeuristicSuggester) Suggest(context.Context, Review) (string, error) {
	return DefaultSuggestion, nil
}

// LLMSuggester asks a chat model for the suggestion.
type LLMSuggester struct {
	Model llm.ChatModel
}

const reviewerPrompt = "You are a senior code reviewer. Reply with one short, concrete improvement suggestion and nothing else."

// Suggest implements Suggester. An empty reply is an error.
func (s LLMSuggester) Suggest(ctx context.Context, review Review) (string, error) {
	if s.Model == nil {
		return "", errors.New("llm suggester has no model")
	}

	out, err := s.Model.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: reviewerPrompt},
		{Role: llm.RoleUser, Content: buildPrompt(review)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get suggestion: %w", err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("model returned an empty suggestion")
	}
	return text, nil
}

func buildPrompt(review Review) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Complexity score: %d\n", review.Complexity)
	if len(review.Issues) > 0 {
		sb.WriteString("Known issues:\n")
		for _, issue := range review.Issues {
			sb.WriteString("- ")
			sb.WriteString(issue)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nFunctions under review:\n")
	for _, fn := range review.Functions {
		sb.WriteString("```\n")
		sb.WriteString(fn)
		sb.WriteString("\n```\n")
	}
	return sb.String()
}
