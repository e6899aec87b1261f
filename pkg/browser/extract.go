package browser

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/models"
	"feedengage/pkg/platform"
	"feedengage/pkg/retry"
)

// Extract reads an item's fields. Markup reads are retried within the
// caller's deadline; an item with no content yields an empty Text.
func (d *Driver) Extract(ctx context.Context, handle models.ItemHandle) (models.ExtractedItem, error) {
	node, err := nodeOf(handle)
	if err != nil {
		return models.ExtractedItem{}, err
	}

	html, err := retry.DoWithResult(ctx, func(ctx context.Context) (string, error) {
		return d.outerHTML(ctx, node)
	}, &retry.Config{
		MaxAttempts: fieldRetries,
		Backoff:     &retry.ConstantBackoff{Delay: fieldRetryDelay},
		Logger:      d.logger,
	})
	if err != nil {
		return models.ExtractedItem{}, err
	}

	item, err := parseItem(html, d.platform.Selectors)
	if err != nil {
		return models.ExtractedItem{}, err
	}

	item.Identity = d.attributeIdentity(node)
	if item.Identity == "" {
		item.Identity = syntheticIdentity(d.platform.Name, item.Text)
	}
	return item, nil
}

// parseItem reads the fields of one item container's outer HTML
func parseItem(html string, sel platform.Selectors) (models.ExtractedItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ExtractedItem{}, errs.Wrap(errs.ErrorTypeExtractionEmpty, "unparseable item markup", err)
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return models.ExtractedItem{}, nil
	}

	var item models.ExtractedItem
	if sel.Sponsored != "" {
		item.Sponsored = root.Is(sel.Sponsored) || root.Find(sel.Sponsored).Length() > 0
	}
	if sel.Content != "" {
		item.Text = contentText(root.Find(sel.Content).First())
	}
	if sel.Author != "" {
		item.Author.Name = collapse(root.Find(sel.Author).First().Text())
	}
	if sel.AuthorLink != "" {
		if href, ok := root.Find(sel.AuthorLink).First().Attr("href"); ok {
			item.Author.ProfileRef = stripQuery(href)
		}
	}
	if sel.Timestamp != "" {
		item.Timestamp = collapse(root.Find(sel.Timestamp).First().Text())
	}
	if sel.PermalinkAttr != "" {
		if v, ok := root.Attr(sel.PermalinkAttr); ok {
			item.URL = strings.TrimSpace(v)
		}
	}
	return item, nil
}

// contentText renders the content block as single line markdown so links
// and emphasis survive as text
func contentText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	inner, err := s.Html()
	if err != nil {
		return collapse(s.Text())
	}
	text, err := md.NewConverter("", true, nil).ConvertString(inner)
	if err != nil || strings.TrimSpace(text) == "" {
		return collapse(s.Text())
	}
	return collapse(text)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripQuery(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return strings.TrimSpace(href)
}
