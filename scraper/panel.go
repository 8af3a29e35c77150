package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/reviewharvest/harvest"
)

// rodPanel is a review panel rendered in a live page or iframe.
// All lookups are non-waiting: an absent element is "none", not a timeout.
type rodPanel struct {
	root   *rod.Page
	layout harvest.Layout
	marker string
	settle time.Duration
}

func newRodPanel(root *rod.Page, layout harvest.Layout, marker string, settle time.Duration) *rodPanel {
	return &rodPanel{root: root, layout: layout, marker: marker, settle: settle}
}

func (p *rodPanel) Blocks(ctx context.Context) ([]harvest.Block, error) {
	els, err := p.root.Context(ctx).Elements(p.layout.Block)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", p.layout.Block, err)
	}
	blocks := make([]harvest.Block, len(els))
	for i, el := range els {
		blocks[i] = &rodBlock{el: el, panel: p}
	}
	return blocks, nil
}

// LoadMore clicks the load-more control once and waits for the DOM to
// settle. A missing, hidden, disabled or unclickable control reports false.
func (p *rodPanel) LoadMore(ctx context.Context) (bool, error) {
	if p.layout.LoadMore == "" {
		return false, nil
	}
	page := p.root.Context(ctx)

	els, err := page.Elements(p.layout.LoadMore)
	if err != nil {
		return false, fmt.Errorf("query %q: %w", p.layout.LoadMore, err)
	}
	if len(els) == 0 {
		return false, nil
	}
	ctl := els.First()

	if ok, reason := interactable(ctl); !ok {
		slog.Debug("load-more control not interactable", "reason", reason)
		return false, nil
	}
	if err := clickControl(ctl); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.Debug("load-more click failed", "error", err)
		return false, nil
	}

	if err := page.WaitDOMStable(p.settle, 0.1); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.Debug("WaitDOMStable did not converge after load more", "error", err)
	}
	return true, nil
}

// interactable reports whether the control can be clicked.
func interactable(el *rod.Element) (bool, string) {
	visible, err := el.Visible()
	if err != nil {
		return false, err.Error()
	}
	if !visible {
		return false, "hidden"
	}
	if v, err := el.Attribute("disabled"); err == nil && v != nil {
		return false, "disabled"
	}
	if v, err := el.Attribute("aria-disabled"); err == nil && v != nil && strings.EqualFold(*v, "true") {
		return false, "aria-disabled"
	}
	return true, ""
}

type rodBlock struct {
	el    *rod.Element
	panel *rodPanel
}

func (b *rodBlock) Processed(ctx context.Context) (bool, error) {
	v, err := b.el.Context(ctx).Attribute(b.panel.marker)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (b *rodBlock) MarkProcessed(ctx context.Context) error {
	_, err := b.el.Context(ctx).Eval(`(name) => this.setAttribute(name, "1")`, b.panel.marker)
	return err
}

func (b *rodBlock) Items(ctx context.Context) ([]harvest.Item, error) {
	el := b.el.Context(ctx)
	if b.panel.layout.Item == "" {
		return []harvest.Item{rodItem{el}}, nil
	}
	els, err := el.Elements(b.panel.layout.Item)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", b.panel.layout.Item, err)
	}
	items := make([]harvest.Item, len(els))
	for i, e := range els {
		items[i] = rodItem{e}
	}
	return items, nil
}

type rodItem struct{ el *rod.Element }

func (it rodItem) Text(ctx context.Context, f harvest.FieldSelector) (string, error) {
	els, err := it.el.Context(ctx).Elements(f.Selector)
	if err != nil {
		return "", fmt.Errorf("query %q: %w", f.Selector, err)
	}
	if len(els) == 0 {
		return "", fmt.Errorf("%s: %w", f.Selector, harvest.ErrFieldMissing)
	}
	el := els.First()

	if f.Attr == "" {
		return el.Text()
	}
	v, err := el.Attribute(f.Attr)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%s[%s]: %w", f.Selector, f.Attr, harvest.ErrFieldMissing)
	}
	return *v, nil
}
