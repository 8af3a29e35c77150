package harvest

import (
	"context"
	"errors"

	"github.com/use-agent/reviewharvest/models"
)

// passStats counts what one scan pass touched.
type passStats struct {
	newBlocks int
	items     int
	skipped   int
}

// scan claims every unmarked block, then extracts reviews from the items of
// the claimed blocks until remaining reviews exist or the items run out.
// Blocks are all marked before any item is read so that a pass cut short by
// a full collection never leaves a half-read block open for the next pass.
func (h *Harvester) scan(ctx context.Context, remaining int) ([]models.Review, passStats) {
	var stats passStats
	if remaining <= 0 {
		return nil, stats
	}

	blocks, err := h.panel.Blocks(ctx)
	if err != nil {
		h.logger.Warn("locate container blocks failed", "error", err)
		return nil, stats
	}

	claimed := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		done, err := b.Processed(ctx)
		if err != nil {
			h.logger.Warn("read block marker failed", "error", err)
			continue
		}
		if done {
			continue
		}
		if err := b.MarkProcessed(ctx); err != nil {
			h.logger.Warn("mark block failed", "error", err)
			continue
		}
		claimed = append(claimed, b)
	}
	stats.newBlocks = len(claimed)

	var reviews []models.Review
	for _, b := range claimed {
		items, err := b.Items(ctx)
		if err != nil {
			h.logger.Warn("list block items failed", "error", err)
			continue
		}
		for _, it := range items {
			if ctx.Err() != nil {
				return reviews, stats
			}
			stats.items++

			review, err := h.extractor.Extract(ctx, it)
			if err != nil {
				stats.skipped++
				var xerr *ExtractionError
				if errors.As(err, &xerr) {
					h.logger.Debug("item skipped", "fields", xerr.FailedFields(), "error", err)
				} else {
					h.logger.Debug("item skipped", "error", err)
				}
				continue
			}

			reviews = append(reviews, review)
			if len(reviews) == remaining {
				return reviews, stats
			}
		}
	}
	return reviews, stats
}
