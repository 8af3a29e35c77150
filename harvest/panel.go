// Package harvest implements the dedup-aware extraction loop that pulls
// reviews out of a paginated, re-rendering review panel.
//
// The loop never relies on node identity surviving a page advance. A
// container block is claimed by writing a marker attribute onto it; only
// blocks without the marker are scanned, so repeated scans of the same
// panel yield each rendered item at most once.
package harvest

import (
	"context"
	"errors"
)

// ErrFieldMissing is returned by Item.Text when the field's selector (or
// attribute) matches nothing inside the item.
var ErrFieldMissing = errors.New("field not found")

// Panel is a live review panel that re-renders its content on every advance.
type Panel interface {
	// Blocks returns the container blocks currently rendered, in document
	// order, marked or not.
	Blocks(ctx context.Context) ([]Block, error)

	// LoadMore triggers the load-more control once. It reports false when
	// the control is absent or cannot be interacted with.
	LoadMore(ctx context.Context) (bool, error)
}

// Block is a rendered group of review items that can carry the processed marker.
type Block interface {
	Processed(ctx context.Context) (bool, error)
	MarkProcessed(ctx context.Context) error
	Items(ctx context.Context) ([]Item, error)
}

// Item is a single rendered review.
type Item interface {
	// Text returns the raw text (or attribute value) named by the selector.
	Text(ctx context.Context, sel FieldSelector) (string, error)
}

// FieldSelector locates one field inside an item. When Attr is set the
// attribute value is read instead of the element's text.
type FieldSelector struct {
	Selector string `yaml:"selector" json:"selector"`
	Attr     string `yaml:"attr,omitempty" json:"attr,omitempty"`
}

// Layout names the selectors that shape a site's review panel.
type Layout struct {
	// Frame selects the iframe hosting the panel; empty means the panel is
	// part of the top-level document.
	Frame string `yaml:"frame,omitempty" json:"frame,omitempty"`

	// Block selects the container blocks that receive the marker.
	Block string `yaml:"block" json:"block"`

	// Item selects review items inside a block. Empty means each block is
	// a single review.
	Item string `yaml:"item,omitempty" json:"item,omitempty"`

	// LoadMore selects the control that reveals the next batch.
	LoadMore string `yaml:"load_more" json:"load_more"`
}

// Fields names the per-item selectors and how to read the date.
type Fields struct {
	Author     FieldSelector `yaml:"author" json:"author"`
	Score      FieldSelector `yaml:"score" json:"score"`
	Content    FieldSelector `yaml:"content" json:"content"`
	Date       FieldSelector `yaml:"date" json:"date"`
	DateLayout string        `yaml:"date_layout" json:"date_layout"`
	Timezone   string        `yaml:"timezone" json:"timezone"`
}
