// Package platform is the registry of supported social platforms: their
// URLs, selector tables, reaction catalogs and prompt templates.
package platform

import (
	"fmt"
	"sort"
	"strings"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/models"
	"feedengage/pkg/prompts"
)

// Selectors are the CSS selectors the browser driver uses on one platform.
// Comma separated lists are tried as one selector group.
type Selectors struct {
	LoginUsername string
	LoginPassword string
	LoginSubmit   string
	// LoginError marks a rejected login
	LoginError string
	// RateLimit marks a platform throttling banner or page
	RateLimit string
	// FeedReady is present only on an authenticated feed
	FeedReady string

	PostContainer string
	Sponsored     string
	Content       string
	Author        string
	AuthorLink    string
	Timestamp     string
	// IdentityAttrs are tried in order on the container for a stable id
	IdentityAttrs []string
	PermalinkAttr string

	ReactionButton      string
	ReactionMenuTrigger string
	Reactions           map[models.Category]string

	CommentButton string
	CommentField  string
	CommentSubmit string
}

// Platform describes one social platform
type Platform struct {
	Name            string
	DisplayName     string
	LoginURL        string
	FeedURL         string
	Enabled         bool
	Categories      []models.Category
	DefaultCategory models.Category
	Selectors       Selectors
}

// PromptTemplate returns the platform's embedded prompt template
func (p Platform) PromptTemplate() (string, error) {
	return prompts.Template(p.Name)
}

// HasCategory reports whether c is in the platform's reaction catalog
func (p Platform) HasCategory(c models.Category) bool {
	for _, known := range p.Categories {
		if strings.EqualFold(string(known), string(c)) {
			return true
		}
	}
	return false
}

var registry = map[string]Platform{
	"linkedin":  linkedIn,
	"facebook":  facebook,
	"instagram": instagram,
}

// Lookup returns an enabled platform by name. Unknown and disabled
// platforms yield an unsupported error.
func Lookup(name string) (Platform, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok || !p.Enabled {
		return Platform{}, errs.PlatformNotSupported(name)
	}
	return p, nil
}

// Get returns a registered platform whether or not it is enabled
func Get(name string) (Platform, bool) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// All returns every registered platform sorted by name
func All() []Platform {
	out := make([]Platform, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Enabled returns the names of the enabled platforms
func Enabled() []string {
	var names []string
	for _, p := range All() {
		if p.Enabled {
			names = append(names, p.Name)
		}
	}
	return names
}

// Validate checks that every name is a known, enabled platform
func Validate(names []string) error {
	for _, n := range names {
		if _, err := Lookup(n); err != nil {
			return fmt.Errorf("platform %q: %w", n, err)
		}
	}
	return nil
}
