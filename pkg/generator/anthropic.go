package generator

import (
	"context"
	"fmt"

	"feedengage/pkg/config"
	errs "feedengage/pkg/errors"
	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// AnthropicClient calls the Anthropic messages API through llmkit with
// structured output
type AnthropicClient struct {
	apiKey   string
	settings types.RequestSettings
}

// NewAnthropicClient creates a client from the generator configuration
func NewAnthropicClient(cfg config.GeneratorConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.ErrorTypeConfig, "ANTHROPIC_API_KEY is not set")
	}
	return &AnthropicClient{
		apiKey: cfg.APIKey,
		settings: types.RequestSettings{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}, nil
}

type completion struct {
	text string
	err  error
}

// Complete sends the prompt and waits for the answer or ctx. llmkit
// requests cannot be cancelled; an abandoned request finishes in the
// background and its answer is dropped.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt, schema string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan completion, 1)
	go func() {
		response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, schema, c.apiKey, c.settings)
		if err != nil {
			done <- completion{err: fmt.Errorf("anthropic request failed: %w", err)}
			return
		}
		if len(response.Content) == 0 {
			done <- completion{err: fmt.Errorf("no content in response")}
			return
		}
		done <- completion{text: response.Content[0].Text}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
