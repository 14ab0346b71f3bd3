package port

import "context"

// TextGenerator abstracts an LLM text completion endpoint.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Model returns the identifier of the model answering prompts.
	Model() string
}
