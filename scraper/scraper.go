package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/models"
)

const defaultScreenshotTimeout = 10 * time.Second

// Scraper manages the global browser lifecycle and the page pool.
// It is safe for concurrent use; every Harvest call gets its own tab.
type Scraper struct {
	browser       *rod.Browser
	pagePool      rod.Pool[rod.Page]
	browserCfg    config.BrowserConfig
	scraperCfg    config.ScraperConfig
	harvestCfg    config.HarvestConfig
	screenshotDir string
	activePages   atomic.Int32
	startTime     time.Time

	// screenshotTimeout bounds the failure screenshot on a possibly hung page.
	screenshotTimeout time.Duration
}

// NewScraper launches the browser and initialises the reusable page pool.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, harvestCfg config.HarvestConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "ko-KR")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeBrowser, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewHarvestError(models.ErrCodeBrowser, "failed to connect to browser", err)
	}

	pool := rod.NewPagePool(browserCfg.MaxPages)
	slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

	return &Scraper{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		harvestCfg: harvestCfg,
		startTime:  time.Now(),

		screenshotTimeout: defaultScreenshotTimeout,
	}, nil
}

// SetScreenshotDir enables failure screenshots written into dir.
// An empty dir disables them.
func (s *Scraper) SetScreenshotDir(dir string) {
	s.screenshotDir = dir
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.browserCfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete", "uptime", time.Since(s.startTime).Round(time.Second))
}
