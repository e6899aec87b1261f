package browser

import (
	"context"
	"fmt"
	"strings"

	errs "feedengage/pkg/errors"
	"feedengage/pkg/models"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// FindVisibleCandidates returns the rendered item containers top to bottom.
// Sponsored items are included; the pipeline decides whether to skip them.
func (d *Driver) FindVisibleCandidates(ctx context.Context) ([]models.ItemHandle, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.config.FieldTimeout,
		chromedp.Nodes(d.platform.Selectors.PostContainer, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "failed to enumerate feed items", err)
	}

	handles := make([]models.ItemHandle, 0, len(nodes))
	for i, node := range nodes {
		handles = append(handles, models.NewItemHandle(node, i))
	}
	return handles, nil
}

// ScrollStep scrolls one step and reports whether new content can appear
func (d *Driver) ScrollStep(ctx context.Context) (models.ScrollResult, error) {
	var (
		state scrollState
		after int64
	)
	err := d.run(ctx, 0,
		chromedp.Evaluate(fmt.Sprintf(scrollScript, scrollStep), &state),
		chromedp.Sleep(d.config.ScrollSettle),
		chromedp.Evaluate(heightScript, &after),
	)
	if err != nil {
		return models.ScrollResult{}, errs.Wrap(errs.ErrorTypeScrollStall, "scroll step failed", err)
	}

	grew := after > state.Before
	d.logger.WithFields(map[string]interface{}{
		"height_before": state.Before,
		"height_after":  after,
		"at_bottom":     state.Bottom,
	}).Debug("Scrolled feed")

	return models.ScrollResult{NewExtent: grew || !state.Bottom}, nil
}

// Identify returns the platform identity attribute of an item, or a
// synthetic identity derived from its text when the platform exposes none
func (d *Driver) Identify(ctx context.Context, handle models.ItemHandle) (models.ItemIdentity, error) {
	node, err := nodeOf(handle)
	if err != nil {
		return "", err
	}
	if id := d.attributeIdentity(node); id != "" {
		return id, nil
	}

	html, err := d.outerHTML(ctx, node)
	if err != nil {
		return "", err
	}
	item, err := parseItem(html, d.platform.Selectors)
	if err != nil {
		return "", err
	}
	return syntheticIdentity(d.platform.Name, item.Text), nil
}

func (d *Driver) attributeIdentity(node *cdp.Node) models.ItemIdentity {
	for _, attr := range d.platform.Selectors.IdentityAttrs {
		if v := strings.TrimSpace(node.AttributeValue(attr)); v != "" {
			return models.ItemIdentity(v)
		}
	}
	return ""
}

func (d *Driver) outerHTML(ctx context.Context, node *cdp.Node) (string, error) {
	var html string
	err := d.run(ctx, d.config.FieldTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "failed to read item markup", err)
	}
	return html, nil
}

// syntheticIdentity is stable for the same platform and normalized text
func syntheticIdentity(platform, text string) models.ItemIdentity {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(platform+":"+normalized))
	return models.ItemIdentity("synthetic:" + id.String())
}

func nodeOf(handle models.ItemHandle) (*cdp.Node, error) {
	node, ok := handle.Ref().(*cdp.Node)
	if !ok || node == nil {
		return nil, errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("handle %d does not reference a browser node", handle.Position))
	}
	return node, nil
}
