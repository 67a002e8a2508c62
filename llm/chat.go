// Package llm provides a provider-neutral chat interface used by workflow
// nodes that ask a language model for help.
//
// Adapters for Anthropic, OpenAI and Google live in subpackages; the
// providers package selects one by name.
package llm

import "context"

// ChatModel sends a conversation to a language model and returns its reply.
//
// Implementations must respect context cancellation. The engine forwards its
// context to nodes, so a cancelled run stops waiting on the provider.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is one turn of a conversation.
type Message struct {
	// Role identifies the sender. Use the Role* constants.
	Role string

	// Content is the message text.
	Content string
}

// Standard roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut is a model reply.
type ChatOut struct {
	Text string

	// TokensUsed is the provider-reported token count, or 0 if unknown.
	TokensUsed int
}

// SplitSystem separates system messages from the rest of the conversation.
// Multiple system messages are joined with a blank line. Providers that take
// the system prompt as a separate parameter use this.
func SplitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}
