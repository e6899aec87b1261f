// Package prompts holds the embedded per-platform prompt templates and the
// structured output schema sent to the content generator.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"feedengage/pkg/models"
)

//go:embed templates/*.tmpl
var templates embed.FS

//go:embed system.md
var systemPrompt string

//go:embed schema.json
var outputSchema []byte

// Data is what a prompt template is rendered with
type Data struct {
	Text       string
	Author     string
	URL        string
	Categories []string
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// System returns the system prompt shared by all platforms
func System() string {
	return systemPrompt
}

// Template returns the embedded prompt template for platform
func Template(platform string) (string, error) {
	data, err := templates.ReadFile("templates/" + strings.ToLower(platform) + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("no prompt template for %q: %w", platform, err)
	}
	return string(data), nil
}

// Render executes tmpl for one extracted item
func Render(tmpl string, item models.ExtractedItem, categories []models.Category) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	author := item.Author.Name
	if author == "" {
		author = "Unknown"
	}
	data := Data{
		Text:       item.Text,
		Author:     author,
		URL:        item.URL,
		Categories: categoryNames(categories),
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Schema returns the output JSON schema with the category restricted to
// the given catalog
func Schema(categories []models.Category) (string, error) {
	var schema map[string]interface{}
	if err := json.Unmarshal(outputSchema, &schema); err != nil {
		return "", fmt.Errorf("embedded schema is invalid: %w", err)
	}

	props, _ := schema["properties"].(map[string]interface{})
	category, _ := props["category"].(map[string]interface{})
	if category == nil {
		return "", fmt.Errorf("embedded schema has no category property")
	}
	if len(categories) > 0 {
		category["enum"] = categoryNames(categories)
	} else {
		delete(category, "enum")
	}

	out, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}
	return string(out), nil
}

func categoryNames(categories []models.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return names
}
