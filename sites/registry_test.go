package sites

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reviewharvest/models"
)

func builtin(t *testing.T) *Registry {
	t.Helper()
	r, err := Builtin()
	require.NoError(t, err)
	return r
}

func TestBuiltinProfiles(t *testing.T) {
	r := builtin(t)

	assert.Equal(t, []string{"coupang", "naver"}, r.Names())
	for _, p := range r.Profiles() {
		require.NotNil(t, p.Location(), p.Name)
		assert.Equal(t, "Asia/Seoul", p.Location().String())
		assert.NotEmpty(t, p.Layout.LoadMore, p.Name)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  https://www.coupang.com/vp/products/1  ", "https://www.coupang.com/vp/products/1"},
		{"www.coupang.com/vp/products/1", "https://www.coupang.com/vp/products/1"},
		{"http://shopping.naver.com/product/9", "http://shopping.naver.com/product/9"},
		{"HTTPS://example.com", "HTTPS://example.com"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestResolve(t *testing.T) {
	r := builtin(t)

	tests := []struct {
		name    string
		url     string
		site    string
		product string
	}{
		{"coupang", "https://www.coupang.com/vp/products/7335597976?itemId=1", "coupang", "7335597976"},
		{"coupang no www no scheme", "coupang.com/vp/products/42", "coupang", "42"},
		{"naver product", "https://shopping.naver.com/product/123456", "naver", "123456"},
		{"naver catalog", " shopping.naver.com/catalog/987 ", "naver", "987"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.Resolve(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.site, m.Profile.Name)
			assert.Equal(t, tt.product, m.ProductID)
			assert.Equal(t, Normalize(tt.url), m.URL)
		})
	}
}

func TestResolveRejects(t *testing.T) {
	r := builtin(t)

	tests := []struct {
		name string
		url  string
		code string
	}{
		{"empty", "  ", models.ErrCodeInvalidInput},
		{"unknown shop", "https://www.amazon.com/dp/B000", models.ErrCodeUnsupportedSource},
		{"coupang non product page", "https://www.coupang.com/np/search?q=tv", models.ErrCodeUnsupportedSource},
		{"lookalike host", "https://coupang.com.evil.test/vp/products/1", models.ErrCodeUnsupportedSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.url)
			var herr *models.HarvestError
			require.True(t, errors.As(err, &herr), "want HarvestError, got %v", err)
			assert.Equal(t, tt.code, herr.Code)
		})
	}
}

func TestResolveListsSupportedSites(t *testing.T) {
	_, err := builtin(t).Resolve("https://example.com/item/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coupang, naver")
}

const customProfiles = `
sites:
  - name: demo
    pattern: '^https://shop\.test/p/(\w+)'
    layout:
      frame: iframe#reviews
      block: ul.batch
      item: li.review
      load_more: button.more
    fields:
      author: {selector: .who}
      score: {selector: .stars, attr: data-score}
      content: {selector: .body}
      date: {selector: time, attr: datetime}
      date_layout: "2006-01-02"
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customProfiles), 0o644))

	r, err := Load(path)
	require.NoError(t, err)

	m, err := r.Resolve("https://shop.test/p/abc123")
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Profile.Name)
	assert.Equal(t, "abc123", m.ProductID)
	assert.Equal(t, "UTC", m.Profile.Fields.Timezone)
	assert.True(t, m.Profile.Info().InFrame)
	assert.Equal(t, "data-score", m.Profile.Fields.Score.Attr)

	p, ok := r.Lookup("demo")
	require.True(t, ok)
	assert.Same(t, m.Profile, p)
}

func TestLoadEmptyPathIsBuiltin(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"coupang", "naver"}, r.Names())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no sites", "sites: []", "no sites"},
		{"bad selector", `
sites:
  - name: x
    pattern: '^https://x\.test/(\d+)'
    layout: {block: "div[["}
    fields:
      author: {selector: a}
      score: {selector: b}
      content: {selector: c}
      date: {selector: d}
      date_layout: "2006"
`, "layout.block"},
		{"no capture group", `
sites:
  - name: x
    pattern: '^https://x\.test/\d+'
    layout: {block: div}
    fields:
      author: {selector: a}
      score: {selector: b}
      content: {selector: c}
      date: {selector: d}
      date_layout: "2006"
`, "capture"},
		{"missing field selector", `
sites:
  - name: x
    pattern: '^https://x\.test/(\d+)'
    layout: {block: div}
    fields:
      author: {selector: a}
      score: {selector: b}
      date: {selector: d}
      date_layout: "2006"
`, "fields.content"},
		{"bad timezone", `
sites:
  - name: x
    pattern: '^https://x\.test/(\d+)'
    layout: {block: div}
    fields:
      author: {selector: a}
      score: {selector: b}
      content: {selector: c}
      date: {selector: d}
      date_layout: "2006"
      timezone: Mars/Olympus
`, "timezone"},
		{"duplicate", `
sites:
  - &x
    name: x
    pattern: '^https://x\.test/(\d+)'
    layout: {block: div}
    fields:
      author: {selector: a}
      score: {selector: b}
      content: {selector: c}
      date: {selector: d}
      date_layout: "2006"
  - *x
`, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
