package harvest

import "context"

// advance asks the panel for the next batch exactly once. Any failure is
// read as "no more content"; there is no retry.
func (h *Harvester) advance(ctx context.Context) bool {
	more, err := h.panel.LoadMore(ctx)
	if err != nil {
		if ctx.Err() == nil {
			h.logger.Warn("load more failed", "error", err)
		}
		return false
	}
	return more
}
