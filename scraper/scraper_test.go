package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/models"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"deadline", fmt.Errorf("navigate: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"other", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "navigation failed")
			assert.Equal(t, tt.code, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Font", "Script", "bogus"})

	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeImage)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)
	assert.Empty(t, blockedSet(nil))
}

func TestExtraHeaders(t *testing.T) {
	s := &Scraper{scraperCfg: config.ScraperConfig{AcceptLanguage: "ko-KR,ko;q=0.9"}}

	got := s.extraHeaders("https://www.coupang.com/vp/products/1")

	assert.Equal(t, "ko-KR,ko;q=0.9", got["Accept-Language"])
	assert.Equal(t, "https://www.google.com/search?q=www.coupang.com", got["Referer"])

	s.scraperCfg.AcceptLanguage = ""
	got = s.extraHeaders("::bad")
	assert.Empty(t, got)
}

func TestToHeadersMap(t *testing.T) {
	got := toHeadersMap(map[string]string{"Accept-Language": "ko-KR"})

	assert.Equal(t, "ko-KR", got["Accept-Language"].Str())
}

func TestStats(t *testing.T) {
	s := &Scraper{browserCfg: config.BrowserConfig{MaxPages: 4}}
	s.activePages.Add(2)

	assert.Equal(t, models.PoolStats{MaxPages: 4, ActivePages: 2}, s.Stats())
}
