package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/reviewharvest/models"
)

// Result is the outcome of one run. Reviews is never nil.
type Result struct {
	RunID   string
	Reviews []models.Review

	// Passes counts scan passes, Advances counts successful load-more triggers.
	Passes   int
	Advances int

	// Skipped counts items dropped because a field could not be extracted.
	Skipped int

	// Exhausted is set when the run ended because the panel offered no more
	// content before the target was met.
	Exhausted bool

	// Interrupted is set when the context ended the run early.
	Interrupted bool

	Duration time.Duration
}

// Stats converts the run counters to their API form.
func (r *Result) Stats() models.HarvestStats {
	return models.HarvestStats{
		Passes:      r.Passes,
		Advances:    r.Advances,
		Skipped:     r.Skipped,
		Exhausted:   r.Exhausted,
		Interrupted: r.Interrupted,
	}
}

// Harvester alternates scan passes and page advances over one panel.
// It is not safe for concurrent use; a panel belongs to a single run.
type Harvester struct {
	panel     Panel
	extractor *Extractor
	logger    *slog.Logger
	maxStalls int
	runID     string
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithLogger sets the base logger. The run ID is attached to it.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harvester) { h.logger = l }
}

// WithMaxStalls ends the run after n consecutive passes that found no new
// container block, even if the load-more control is still offered. n <= 0
// disables the check.
func WithMaxStalls(n int) Option {
	return func(h *Harvester) { h.maxStalls = n }
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(h *Harvester) { h.runID = id }
}

// New creates a Harvester over panel.
func New(panel Panel, extractor *Extractor, opts ...Option) *Harvester {
	h := &Harvester{
		panel:     panel,
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.runID == "" {
		h.runID = uuid.NewString()
	}
	h.logger = h.logger.With("run_id", h.runID)
	return h
}

// RunID returns the identifier attached to this harvester's logs and result.
func (h *Harvester) RunID() string { return h.runID }

// Run collects up to maxCount reviews. It stops when the collection is full,
// when the panel reports no more content, or when ctx ends. Panel failures
// never abort a run; whatever was collected is returned.
func (h *Harvester) Run(ctx context.Context, maxCount int) *Result {
	start := time.Now()
	res := &Result{RunID: h.runID, Reviews: []models.Review{}}
	if maxCount <= 0 {
		return res
	}

	stalls := 0
	for {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		got, stats := h.scan(ctx, maxCount-len(res.Reviews))
		res.Passes++
		res.Skipped += stats.skipped
		res.Reviews = append(res.Reviews, got...)
		h.logger.Debug("scan pass complete",
			"pass", res.Passes,
			"new_blocks", stats.newBlocks,
			"items", stats.items,
			"collected", len(got),
			"skipped", stats.skipped,
			"total", len(res.Reviews),
		)

		if len(res.Reviews) >= maxCount {
			break
		}
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		if stats.newBlocks == 0 {
			stalls++
		} else {
			stalls = 0
		}
		if h.maxStalls > 0 && stalls >= h.maxStalls {
			h.logger.Warn("panel stopped producing content", "stalled_passes", stalls)
			res.Exhausted = true
			break
		}

		if !h.advance(ctx) {
			if ctx.Err() != nil {
				res.Interrupted = true
			} else {
				res.Exhausted = true
			}
			break
		}
		res.Advances++
	}

	res.Duration = time.Since(start)
	h.logger.Info("harvest finished",
		"reviews", len(res.Reviews),
		"max_count", maxCount,
		"passes", res.Passes,
		"advances", res.Advances,
		"skipped", res.Skipped,
		"exhausted", res.Exhausted,
		"interrupted", res.Interrupted,
		"duration", res.Duration,
	)
	return res
}
