package stockagent

import "context"

// ChatProvider defines the interface for chat-completion backends.
//
// Chat receives the full message history on every call (the provider keeps
// no hidden state) and returns either a final textual response or one or
// more tool-call requests with stable, referenceable identifiers. Tool
// schemas travel via WithTools; sampling knobs via WithTemperature and
// WithMaxTokens.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}
