package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/export"
	"github.com/use-agent/reviewharvest/harvest"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/sites"
	"github.com/use-agent/reviewharvest/webhook"
)

// Harvester runs one extraction over a resolved product page.
// *scraper.Scraper satisfies it.
type Harvester interface {
	Harvest(ctx context.Context, m *sites.Match, maxCount int, opts ...harvest.Option) (*harvest.Result, error)
}

// HarvestDeps groups what the harvest handler needs besides the browser.
type HarvestDeps struct {
	Sites     *sites.Registry
	OutputDir string
	Webhook   *webhook.Client // nil disables notifications
}

// Harvest returns a handler for POST /api/v1/harvest.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Resolve the URL to a site profile (no browser work on failure).
//  3. Harvester.Harvest → collection + run stats   (records harvest_ms)
//  4. Export to CSV if requested                   (records export_ms)
//  5. Notify the webhook, fill Timing, return 200.
func Harvest(h Harvester, deps HarvestDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.HarvestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewHarvestError(models.ErrCodeInvalidInput, err.Error(), err), models.TimingInfo{})
			return
		}
		req.Defaults()

		// ── 2. Resolve site ─────────────────────────────────────────
		match, err := deps.Sites.Resolve(req.URL)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}

		// ── 3. Harvest ──────────────────────────────────────────────
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		harvestStart := time.Now()
		res, err := h.Harvest(ctx, match, req.MaxCount)
		harvestMs := time.Since(harvestStart).Milliseconds()
		if err != nil {
			notify(deps.Webhook, webhook.EventHarvestFailed, "", webhook.Summary{
				Site:      match.Profile.Name,
				ProductID: match.ProductID,
				URL:       match.URL,
				MaxCount:  req.MaxCount,
				Error:     asHarvestError(err).ToDetail(),
			})
			respondError(c, err, models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				HarvestMs: harvestMs,
			})
			return
		}

		// ── 4. Export ───────────────────────────────────────────────
		var outputPath string
		var exportMs int64
		if *req.Export {
			exportStart := time.Now()
			outputPath, err = export.NewCSV(deps.OutputDir, match.Profile.Name).Export(res.Reviews)
			exportMs = time.Since(exportStart).Milliseconds()
			if err != nil {
				respondError(c, err, models.TimingInfo{
					TotalMs:   time.Since(totalStart).Milliseconds(),
					HarvestMs: harvestMs,
					ExportMs:  exportMs,
				})
				return
			}
		}

		// ── 5. Notify + respond ─────────────────────────────────────
		notify(deps.Webhook, webhook.EventHarvestCompleted, res.RunID, webhook.Summary{
			Site:       match.Profile.Name,
			ProductID:  match.ProductID,
			URL:        match.URL,
			Count:      len(res.Reviews),
			MaxCount:   req.MaxCount,
			OutputPath: outputPath,
			Stats:      res.Stats(),
		})

		resp := models.HarvestResponse{
			Success:    true,
			RunID:      res.RunID,
			Site:       match.Profile.Name,
			ProductID:  match.ProductID,
			Count:      len(res.Reviews),
			OutputPath: outputPath,
			Stats:      res.Stats(),
			Timing: models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				HarvestMs: harvestMs,
				ExportMs:  exportMs,
			},
		}
		if *req.IncludeReviews {
			resp.Reviews = res.Reviews
		}
		c.JSON(http.StatusOK, resp)
	}
}

func notify(client *webhook.Client, eventType, runID string, summary webhook.Summary) {
	if client == nil {
		return
	}
	client.DeliverAsync(webhook.NewEvent(eventType, runID, summary))
}

// asHarvestError returns err as a HarvestError, wrapping foreign errors as internal.
func asHarvestError(err error) *models.HarvestError {
	var herr *models.HarvestError
	if errors.As(err, &herr) {
		return herr
	}
	slog.Error("untyped harvest error", "error", err)
	return models.NewHarvestError(models.ErrCodeInternal, err.Error(), err)
}

// respondError maps a HarvestError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	herr := asHarvestError(err)
	c.JSON(mapErrorToStatus(herr), models.HarvestResponse{
		Success: false,
		Error:   herr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.HarvestError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodePanelNotFound:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnsupportedSource:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowser:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
