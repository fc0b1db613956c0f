package providers

import "context"

// Provider is the single LLM client abstraction the reasoning loop talks
// to. Every backend speaks its own wire dialect internally but exposes
// the same blocking chat operation. Health-check and model listing are
// secondary operations used by an optional readiness probe, not part of
// the reasoning-loop hot path.
type Provider interface {
	// Chat sends messages to the model and returns its full response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier (e.g. "ollama", "lmstudio").
	Name() string

	// DefaultModel returns the model used when ChatRequest.Model is empty.
	DefaultModel() string

	// HealthCheck reports whether the backend is reachable and responsive.
	HealthCheck(ctx context.Context) error

	// ListModels returns the model names the backend currently serves.
	ListModels(ctx context.Context) ([]string, error)
}

// Option keys recognized in ChatRequest.Options. Unknown keys are ignored
// by a given provider rather than rejected, since not every backend
// supports every knob.
const (
	OptTemperature = "temperature"
	OptMaxTokens   = "max_tokens"
	OptStop        = "stop"
)

// ChatRequest is the input to a Chat call.
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  map[string]any
}

// Message is one turn in a conversation. Roles are "system", "user", or
// "assistant" — there is no "tool" role, since tool calls are not a wire
// concept here: the reasoning loop extracts them from parsed assistant
// text and replays the tool's result as a plain user turn.
type Message struct {
	Role    string
	Content string
}

// ChatResponse is a backend's answer to one Chat call.
type ChatResponse struct {
	Content      string
	FinishReason string
	Usage        *Usage
}

// Usage reports token accounting when the backend provides it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
