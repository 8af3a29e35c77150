package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/reviewharvest/harvest"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/sites"
	"github.com/ysmood/gson"
)

// lazyLoadViewports is how far the page is scrolled before the review
// panel is expected to exist.
const lazyLoadViewports = 4

// Harvest opens the product page of m on a pooled tab, enters its review
// panel and runs the extraction loop until maxCount reviews are collected,
// the panel runs out, or ctx ends.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – RunTimeout unless ctx already has a deadline
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup         – about:blank + return to pool
//  4. Stealth injection      – before navigation
//  5. Extra headers          – Accept-Language + search Referer
//  6. Hijack mount           – block images/fonts/media
//  7. Navigate + settle      – bounded by NavigationTimeout
//  8. Enter panel            – scroll, optional iframe, first block
//  9. Extraction loop        – harvest.Harvester over the rod panel
//
// Errors are returned only for failures before step 9. Once the loop runs,
// the result is returned even if the run was cut short.
func (s *Scraper) Harvest(ctx context.Context, m *sites.Match, maxCount int, opts ...harvest.Option) (*harvest.Result, error) {
	profile := m.Profile
	log := slog.With("site", profile.Name, "product_id", m.ProductID)

	// ── 1. Timeout guard ──────────────────────────────────────────────
	if _, ok := ctx.Deadline(); !ok && s.scraperCfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scraperCfg.RunTimeout)
		defer cancel()
	}

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeBrowser, "failed to acquire page from pool", err)
	}

	// ── 3. Cleanup on the original page reference (no run context) ───
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			log.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if s.scraperCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			log.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 5. Extra headers ──────────────────────────────────────────────
	if hdrErr := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(s.extraHeaders(m.URL)),
	}).Call(page); hdrErr != nil {
		log.Debug("setting extra headers failed", "error", hdrErr)
	}

	// ── 6. Mount hijack router ────────────────────────────────────────
	if router := setupHijack(page, s.scraperCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 7. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx)
	nav := p.Timeout(s.scraperCfg.NavigationTimeout)
	navErr := nav.Navigate(m.URL)
	if navErr == nil {
		if stableErr := nav.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
			log.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
		}
	}
	nav.CancelTimeout()
	if navErr != nil {
		return nil, categorizeError(navErr, "navigation to product page failed")
	}
	log.Debug("product page loaded", "url", m.URL)

	// ── 8. Enter the review panel ─────────────────────────────────────
	root, err := s.openPanel(p, profile.Layout)
	if err != nil {
		shot := s.saveScreenshot(page, profile.Name, "panel_not_found")
		log.Warn("review panel not found", "error", err, "screenshot", shot)
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "review panel did not appear")
		}
		return nil, models.NewHarvestError(models.ErrCodePanelNotFound, "review panel did not appear", err)
	}

	// ── 9. Extraction loop ────────────────────────────────────────────
	var panel harvest.Panel = newRodPanel(root, profile.Layout, s.harvestCfg.Marker, s.harvestCfg.SettleDelay)
	panel = harvest.Paced(panel, harvest.NewLimiter(s.harvestCfg.PaceRPS, s.harvestCfg.PaceBurst))

	hopts := append([]harvest.Option{
		harvest.WithLogger(log),
		harvest.WithMaxStalls(s.harvestCfg.MaxStalls),
	}, opts...)
	h := harvest.New(panel, profile.Extractor(), hopts...)

	return h.Run(ctx, maxCount), nil
}

// openPanel scrolls the review section into range, enters the panel's
// iframe when the layout has one, and waits for the first container block.
// The returned page is bound to p's context.
func (s *Scraper) openPanel(p *rod.Page, layout harvest.Layout) (*rod.Page, error) {
	if err := scrollViewports(p, lazyLoadViewports); err != nil {
		slog.Debug("pre-panel scroll failed", "error", err)
	}

	wait := p.Timeout(s.scraperCfg.PanelTimeout)
	defer wait.CancelTimeout()

	root, waitRoot := p, wait
	if layout.Frame != "" {
		iframe, err := wait.Element(layout.Frame)
		if err != nil {
			return nil, err
		}
		frame, err := iframe.Frame()
		if err != nil {
			return nil, err
		}
		root = frame.Context(p.GetContext())
		waitRoot = frame
	}

	if _, err := waitRoot.Element(layout.Block); err != nil {
		return nil, err
	}
	return root, nil
}

// extraHeaders builds the headers sent with every request of a run.
func (s *Scraper) extraHeaders(target string) map[string]string {
	headers := map[string]string{}
	if s.scraperCfg.AcceptLanguage != "" {
		headers["Accept-Language"] = s.scraperCfg.AcceptLanguage
	}
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	return headers
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed HarvestErrors so the API layer
// can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.HarvestError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewHarvestError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewHarvestError(models.ErrCodeTimeout, "run canceled", err)
	default:
		return models.NewHarvestError(models.ErrCodeNavigation, msg, err)
	}
}
