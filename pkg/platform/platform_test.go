package platform

import (
	"testing"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"linkedin", false},
		{" LinkedIn ", false},
		{"facebook", true},
		{"instagram", true},
		{"myspace", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errs.ErrorTypeUnsupported, errs.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "linkedin", p.Name)
		})
	}
}

func TestGetIncludesDisabled(t *testing.T) {
	p, ok := Get("facebook")
	require.True(t, ok)
	assert.False(t, p.Enabled)

	_, ok = Get("myspace")
	assert.False(t, ok)
}

func TestCatalogs(t *testing.T) {
	tests := []struct {
		platform   string
		categories []models.Category
	}{
		{"linkedin", []models.Category{"LIKE", "CELEBRATE", "SUPPORT", "LOVE", "INSIGHTFUL", "FUNNY"}},
		{"facebook", []models.Category{"LIKE", "LOVE", "CARE", "HAHA", "WOW", "SAD", "ANGRY"}},
		{"instagram", []models.Category{"LIKE", "LOVE"}},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			p, ok := Get(tt.platform)
			require.True(t, ok)
			assert.Equal(t, tt.categories, p.Categories)
			assert.True(t, p.HasCategory(p.DefaultCategory))
			for _, c := range p.Categories {
				assert.NotEmpty(t, p.Selectors.Reactions[c], "no selector for %s", c)
			}

			tmpl, err := p.PromptTemplate()
			require.NoError(t, err)
			assert.NotEmpty(t, tmpl)
		})
	}
}

func TestHasCategory(t *testing.T) {
	p, _ := Get("linkedin")
	assert.True(t, p.HasCategory("celebrate"))
	assert.False(t, p.HasCategory("HAHA"))
}

func TestAllAndEnabled(t *testing.T) {
	var names []string
	for _, p := range All() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"facebook", "instagram", "linkedin"}, names)
	assert.Equal(t, []string{"linkedin"}, Enabled())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]string{"linkedin"}))

	err := Validate([]string{"linkedin", "facebook"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `platform "facebook"`)
	assert.True(t, errs.Is(err, errs.ErrorTypeUnsupported))
}
