package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/reviewharvest/models"
)

// Field names reported in ExtractionError.
const (
	FieldAuthor  = "author"
	FieldScore   = "score"
	FieldContent = "content"
	FieldDate    = "date"
)

// FieldError is the failure of one field of one item.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// ExtractionError lists every field that failed for an item. An item with
// any failed field yields no Review.
type ExtractionError struct {
	Fields []FieldError
}

func (e *ExtractionError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "extract item: " + strings.Join(parts, "; ")
}

func (e *ExtractionError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f.Err
	}
	return errs
}

// FailedFields returns the names of the failed fields in extraction order.
func (e *ExtractionError) FailedFields() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

// fieldResult is the outcome of one sub-extraction.
type fieldResult struct {
	field string
	value string
	err   error
}

// Extractor turns a rendered item into a Review.
type Extractor struct {
	fields   Fields
	location *time.Location
}

// NewExtractor builds an extractor for the given field selectors. Dates are
// interpreted in loc; nil means UTC.
func NewExtractor(fields Fields, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{fields: fields, location: loc}
}

// Extract runs the four sub-extractions and folds their results. Every field
// is attempted even after a failure so the error names all of them.
func (x *Extractor) Extract(ctx context.Context, item Item) (models.Review, error) {
	results := [...]fieldResult{
		x.read(ctx, item, FieldAuthor, x.fields.Author),
		x.read(ctx, item, FieldScore, x.fields.Score),
		x.read(ctx, item, FieldContent, x.fields.Content),
		x.read(ctx, item, FieldDate, x.fields.Date),
	}

	var createdAt time.Time
	if date := &results[3]; date.err == nil {
		t, err := time.ParseInLocation(x.fields.DateLayout, date.value, x.location)
		if err != nil {
			date.err = fmt.Errorf("parse %q with layout %q: %w", date.value, x.fields.DateLayout, err)
		}
		createdAt = t
	}

	var failed []FieldError
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, FieldError{Field: r.field, Err: r.err})
		}
	}
	if len(failed) > 0 {
		return models.Review{}, &ExtractionError{Fields: failed}
	}

	return models.Review{
		Author:    results[0].value,
		Score:     results[1].value,
		Content:   results[2].value,
		CreatedAt: createdAt,
	}, nil
}

func (x *Extractor) read(ctx context.Context, item Item, field string, sel FieldSelector) fieldResult {
	raw, err := item.Text(ctx, sel)
	if err != nil {
		return fieldResult{field: field, err: err}
	}
	return fieldResult{field: field, value: strings.TrimSpace(raw)}
}
