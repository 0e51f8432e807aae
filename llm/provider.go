// Package llm runs the model verification stage: prompt construction, the
// provider transports, and tolerant parsing of model output into field
// candidates.
package llm

import "context"

// Provider is a text-generation backend. Implementations must honor the
// context deadline; the verifier sets one on every call.
type Provider interface {
	// Name returns the provider identifier (e.g. "ollama", "openai").
	Name() string

	// Generate returns the raw model completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
