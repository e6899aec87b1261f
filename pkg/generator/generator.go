// Package generator turns an extracted feed item into an engagement
// decision using a language model.
package generator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/logger"
	"feedengage/pkg/models"
	"feedengage/pkg/prompts"
)

// Generator renders the platform prompt, asks the model and decodes its
// structured answer
type Generator struct {
	client     Client
	categories []models.Category
	schema     string
	logger     logger.Logger
}

// New creates a generator restricted to the given reaction catalog
func New(client Client, categories []models.Category, log logger.Logger) (*Generator, error) {
	schema, err := prompts.Schema(categories)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Generator{
		client:     client,
		categories: categories,
		schema:     schema,
		logger:     log.WithField("component", "generator"),
	}, nil
}

// Generate returns the decision for item. Context expiry is returned as
// is; every other failure is a generation error.
func (g *Generator) Generate(ctx context.Context, item models.ExtractedItem, promptTemplate string) (models.EngagementDecision, error) {
	prompt, err := prompts.Render(promptTemplate, item, g.categories)
	if err != nil {
		return models.EngagementDecision{}, errs.GenerationFailure("prompt rendering failed", err)
	}

	text, err := g.client.Complete(ctx, prompts.System(), prompt, g.schema)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			return models.EngagementDecision{}, err
		}
		return models.EngagementDecision{}, errs.GenerationFailure("generator request failed", err)
	}

	decision, err := Decode(text)
	if err != nil {
		g.logger.WithField("output", truncate(text, 200)).Debug("Malformed generator output")
		return models.EngagementDecision{}, errs.GenerationFailure("malformed generator output", err)
	}

	decision.CommentText = SanitizeComment(decision.CommentText)
	g.logger.DebugWithFields("Decision generated", map[string]interface{}{
		"identity": string(item.Identity),
		"category": string(decision.Category),
		"comment":  decision.CommentText,
	})
	return decision, nil
}

type answer struct {
	Category    string `json:"category"`
	Reaction    string `json:"reaction"`
	CommentText string `json:"comment_text"`
	Comment     string `json:"comment"`
}

// Decode parses the model's JSON answer. Code fences and text around the
// object are tolerated; "reaction" and "comment" are accepted as aliases.
func Decode(text string) (models.EngagementDecision, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return models.EngagementDecision{}, fmt.Errorf("no JSON object in output")
	}

	var a answer
	if err := json.Unmarshal([]byte(text[start:end+1]), &a); err != nil {
		return models.EngagementDecision{}, fmt.Errorf("failed to parse output: %w", err)
	}

	category := firstNonEmpty(a.Category, a.Reaction)
	if category == "" {
		return models.EngagementDecision{}, fmt.Errorf("output has no category")
	}
	return models.EngagementDecision{
		Category:    models.Category(strings.ToUpper(strings.TrimSpace(category))),
		CommentText: firstNonEmpty(a.CommentText, a.Comment),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
