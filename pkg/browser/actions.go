package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/models"
)

// React applies category to the item. An already active reaction counts
// as applied.
func (d *Driver) React(ctx context.Context, handle models.ItemHandle, category models.Category) (bool, error) {
	node, err := nodeOf(handle)
	if err != nil {
		return false, err
	}
	if err := d.checkRateLimit(ctx); err != nil {
		return false, err
	}
	s := d.platform.Selectors

	var (
		pressed string
		found   bool
	)
	if err := d.run(ctx, d.config.FieldTimeout,
		chromedp.AttributeValue(s.ReactionButton, "aria-pressed", &pressed, &found, chromedp.ByQuery, chromedp.FromNode(node)),
	); err != nil {
		return false, errs.ActionFailure("reaction button not found", err)
	}
	if found && pressed == "true" {
		d.logger.WithField("category", string(category)).Debug("Reaction already applied")
		return true, nil
	}

	if category == "" || category == d.platform.DefaultCategory {
		if err := d.run(ctx, d.config.FieldTimeout,
			chromedp.Click(s.ReactionButton, chromedp.ByQuery, chromedp.FromNode(node)),
		); err != nil {
			return false, errs.ActionFailure("failed to click reaction button", err)
		}
		return true, nil
	}

	choice, ok := s.Reactions[category]
	if !ok {
		return false, errs.ActionFailure(fmt.Sprintf("no control for reaction %s", category), nil)
	}
	if !d.hasChild(ctx, node, s.ReactionMenuTrigger) {
		return false, errs.ActionFailure("reaction menu unavailable", nil)
	}
	if err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Click(s.ReactionMenuTrigger, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.WaitVisible(choice, chromedp.ByQuery),
		chromedp.Click(choice, chromedp.ByQuery),
	); err != nil {
		return false, errs.ActionFailure(fmt.Sprintf("failed to choose reaction %s", category), err)
	}
	return true, nil
}

// Comment posts text under the item
func (d *Driver) Comment(ctx context.Context, handle models.ItemHandle, text string) (bool, error) {
	node, err := nodeOf(handle)
	if err != nil {
		return false, err
	}
	if err := d.checkRateLimit(ctx); err != nil {
		return false, err
	}
	s := d.platform.Selectors

	if err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Click(s.CommentButton, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.WaitVisible(s.CommentField, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.Click(s.CommentField, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.SendKeys(s.CommentField, text, chromedp.ByQuery, chromedp.FromNode(node)),
		chromedp.Click(s.CommentSubmit, chromedp.ByQuery, chromedp.FromNode(node)),
	); err != nil {
		return false, errs.ActionFailure("failed to post comment", err)
	}
	return true, nil
}

func (d *Driver) checkRateLimit(ctx context.Context) error {
	limited, err := d.rateLimited(ctx)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, "failed to inspect page", err)
	}
	if limited {
		return errs.RateLimitSignal("throttling page shown")
	}
	return nil
}

func (d *Driver) hasChild(ctx context.Context, node *cdp.Node, selector string) bool {
	if selector == "" {
		return false
	}
	var nodes []*cdp.Node
	err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(node)),
	)
	return err == nil && len(nodes) > 0
}
