package llm

import "context"

// Client is the interface the orchestrator uses to reach a model.
type Client interface {
	// Generate sends a single prompt and returns the raw reply text.
	// Errors wrap [ErrUnreachable] or [ErrUnexpected], or are the
	// context's error when ctx ends first.
	Generate(ctx context.Context, prompt string, temperature float64, format Format) (string, error)

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}
