package scraper

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// saveScreenshot writes a full-page PNG named after the site and reason.
// It is best-effort and bounded by screenshotTimeout; failures are only
// logged.
func (s *Scraper) saveScreenshot(p *rod.Page, site, reason string) string {
	if s.screenshotDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.screenshotDir, 0o755); err != nil {
		slog.Warn("screenshot directory unavailable", "dir", s.screenshotDir, "error", err)
		return ""
	}

	shot := p.Timeout(s.screenshotTimeout)
	defer shot.CancelTimeout()

	img, err := shot.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		slog.Warn("screenshot failed", "site", site, "error", err)
		return ""
	}

	name := fmt.Sprintf("%s-%s-%s.png", time.Now().Format("2006-01-02_15-04-05"), site, reason)
	path := filepath.Join(s.screenshotDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		slog.Warn("screenshot write failed", "path", path, "error", err)
		return ""
	}
	slog.Info("screenshot saved", "path", path)
	return path
}
