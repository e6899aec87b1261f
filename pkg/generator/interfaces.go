package generator

import "context"

// Client sends one prompt and returns the model's raw text answer. schema
// is a JSON schema the answer must follow.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, schema string) (string, error)
}
