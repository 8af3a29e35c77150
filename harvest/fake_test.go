package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var testFields = Fields{
	Author:     FieldSelector{Selector: ".author"},
	Score:      FieldSelector{Selector: ".score", Attr: "data-rating"},
	Content:    FieldSelector{Selector: ".content"},
	Date:       FieldSelector{Selector: ".date"},
	DateLayout: "2006.01.02",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeItem maps selectors (or selector@attr) to values.
type fakeItem map[string]string

func (i fakeItem) Text(_ context.Context, sel FieldSelector) (string, error) {
	key := sel.Selector
	if sel.Attr != "" {
		key += "@" + sel.Attr
	}
	v, ok := i[key]
	if !ok {
		return "", ErrFieldMissing
	}
	return v, nil
}

func goodItem(n int) fakeItem {
	return fakeItem{
		".author":            fmt.Sprintf(" user%d ", n),
		".score@data-rating": "5",
		".content":           fmt.Sprintf("review %d", n),
		".date":              fmt.Sprintf("2024.03.%02d", n%28+1),
	}
}

func badItem(n int) fakeItem {
	it := goodItem(n)
	delete(it, ".date")
	return it
}

// blockState is the rendered DOM of one container; the marker lives here so
// it survives the re-wrapping done on every Blocks call.
type blockState struct {
	marked bool
	items  []Item
}

type fakeBlock struct{ state *blockState }

func (b fakeBlock) Processed(context.Context) (bool, error) { return b.state.marked, nil }

func (b fakeBlock) MarkProcessed(context.Context) error {
	b.state.marked = true
	return nil
}

func (b fakeBlock) Items(context.Context) ([]Item, error) { return b.state.items, nil }

// fakePanel reveals one batch of blocks per LoadMore call.
type fakePanel struct {
	rendered []*blockState
	batches  [][]*blockState

	blocksCalls   int
	loadMoreCalls int

	blocksErr   error
	loadMoreErr error

	// endless keeps the control available after the batches run out.
	endless bool

	// onLoadMore runs before each LoadMore returns.
	onLoadMore func()
}

// newFakePanel builds a panel whose first batch is already rendered. Each
// batch is a list of blocks, each block a list of items.
func newFakePanel(batches ...[][]Item) *fakePanel {
	p := &fakePanel{}
	for _, batch := range batches {
		var blocks []*blockState
		for _, items := range batch {
			blocks = append(blocks, &blockState{items: items})
		}
		p.batches = append(p.batches, blocks)
	}
	if len(p.batches) > 0 {
		p.rendered = p.batches[0]
		p.batches = p.batches[1:]
	}
	return p
}

func (p *fakePanel) Blocks(context.Context) ([]Block, error) {
	p.blocksCalls++
	if p.blocksErr != nil {
		return nil, p.blocksErr
	}
	out := make([]Block, len(p.rendered))
	for i, s := range p.rendered {
		out[i] = fakeBlock{state: s}
	}
	return out, nil
}

func (p *fakePanel) LoadMore(context.Context) (bool, error) {
	p.loadMoreCalls++
	if p.onLoadMore != nil {
		p.onLoadMore()
	}
	if p.loadMoreErr != nil {
		return false, p.loadMoreErr
	}
	if len(p.batches) == 0 {
		return p.endless, nil
	}
	p.rendered = append(p.rendered, p.batches[0]...)
	p.batches = p.batches[1:]
	return true, nil
}

func items(ns ...int) []Item {
	out := make([]Item, len(ns))
	for i, n := range ns {
		out[i] = goodItem(n)
	}
	return out
}

func newTestHarvester(p Panel, opts ...Option) *Harvester {
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(p, NewExtractor(testFields, time.UTC), opts...)
}

var errBoom = errors.New("boom")
