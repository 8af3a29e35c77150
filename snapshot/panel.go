// Package snapshot replays saved review pages as a harvest.Panel.
//
// The first page is the live document. Each LoadMore moves the next page's
// container blocks into it, after the last rendered block, the way an
// in-page "load more" appends a batch. Markers are real attributes on the
// parsed nodes, so the dump shows exactly which blocks were claimed.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/reviewharvest/harvest"
	"golang.org/x/net/html"
)

// Panel is an offline review panel built from saved HTML pages.
type Panel struct {
	doc    *goquery.Document
	pages  []*goquery.Document
	next   int
	layout harvest.Layout
	marker string
}

// New parses the given pages. The first one is rendered immediately; the
// rest are revealed one per LoadMore.
func New(layout harvest.Layout, marker string, pages ...io.Reader) (*Panel, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("snapshot: no pages")
	}
	docs := make([]*goquery.Document, len(pages))
	for i, r := range pages {
		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: parse page %d: %w", i+1, err)
		}
		docs[i] = doc
	}
	return &Panel{
		doc:    docs[0],
		pages:  docs[1:],
		layout: layout,
		marker: marker,
	}, nil
}

// Open reads pages from files, in order.
func Open(layout harvest.Layout, marker string, paths ...string) (*Panel, error) {
	readers := make([]io.Reader, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		readers = append(readers, bytes.NewReader(data))
	}
	return New(layout, marker, readers...)
}

// Blocks returns every container block currently in the document.
func (p *Panel) Blocks(ctx context.Context) ([]harvest.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blocks []harvest.Block
	p.doc.Find(p.layout.Block).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, &block{sel: s, panel: p})
	})
	return blocks, nil
}

// LoadMore appends the next page's blocks. It reports false once the
// current document has no load-more control or no pages are left.
func (p *Panel) LoadMore(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.layout.LoadMore == "" || p.doc.Find(p.layout.LoadMore).Length() == 0 {
		return false, nil
	}
	if p.next >= len(p.pages) {
		return false, nil
	}

	page := p.pages[p.next]
	p.next++

	incoming := page.Find(p.layout.Block)
	if last := p.doc.Find(p.layout.Block).Last(); last.Length() > 0 {
		last.AfterSelection(incoming)
	} else {
		p.doc.Find("body").AppendSelection(incoming)
	}

	if page.Find(p.layout.LoadMore).Length() == 0 {
		p.doc.Find(p.layout.LoadMore).Remove()
	}
	return true, nil
}

// Render writes the current document, markers included.
func (p *Panel) Render(w io.Writer) error {
	for _, n := range p.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("snapshot: render: %w", err)
		}
	}
	return nil
}

type block struct {
	sel   *goquery.Selection
	panel *Panel
}

func (b *block) Processed(context.Context) (bool, error) {
	_, ok := b.sel.Attr(b.panel.marker)
	return ok, nil
}

func (b *block) MarkProcessed(context.Context) error {
	b.sel.SetAttr(b.panel.marker, "1")
	return nil
}

func (b *block) Items(context.Context) ([]harvest.Item, error) {
	if b.panel.layout.Item == "" {
		return []harvest.Item{item{b.sel}}, nil
	}
	var items []harvest.Item
	b.sel.Find(b.panel.layout.Item).Each(func(_ int, s *goquery.Selection) {
		items = append(items, item{s})
	})
	return items, nil
}

type item struct{ sel *goquery.Selection }

func (it item) Text(_ context.Context, f harvest.FieldSelector) (string, error) {
	s := it.sel.Find(f.Selector).First()
	if s.Length() == 0 {
		return "", fmt.Errorf("%s: %w", f.Selector, harvest.ErrFieldMissing)
	}
	if f.Attr == "" {
		return s.Text(), nil
	}
	v, ok := s.Attr(f.Attr)
	if !ok {
		return "", fmt.Errorf("%s[%s]: %w", f.Selector, f.Attr, harvest.ErrFieldMissing)
	}
	return strings.TrimSpace(v), nil
}
