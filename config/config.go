package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Harvest   HarvestConfig
	Export    ExportConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig

	// ProfilesPath points at a YAML file replacing the built-in site
	// profiles. Empty means the embedded profiles are used.
	ProfilesPath string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// ShutdownTimeout is how long in-flight runs get, after a shutdown signal
	// cancels them, to export their partial results and respond.
	ShutdownTimeout time.Duration // default: 30s
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent runs).
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page acquisition and navigation.
type ScraperConfig struct {
	// RunTimeout bounds an entire run when the caller sets no deadline.
	RunTimeout time.Duration // default: 10m

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s

	// PanelTimeout is how long to wait for the review panel to render.
	PanelTimeout time.Duration // default: 20s

	// Stealth injects anti-bot-detection evasions before navigation.
	Stealth bool // default: true

	// AcceptLanguage is sent with every request; both built-in sites are Korean.
	AcceptLanguage string // default: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"

	// BlockedResourceTypes lists resource types to block.
	// Stylesheets stay loaded so visibility checks on the load-more control hold.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// HarvestConfig controls the extraction loop.
type HarvestConfig struct {
	// DefaultMaxCount is used when the CLI is given no count.
	DefaultMaxCount int // default: 100

	// Marker is the attribute written onto processed container blocks.
	Marker string // default: "data-harvested"

	// SettleDelay is the DOM stability window awaited after each advance.
	SettleDelay time.Duration // default: 500ms

	// PaceRPS limits load-more triggers per second. Zero disables pacing.
	PaceRPS float64 // default: 0.5

	// PaceBurst is the token bucket size for load-more triggers.
	PaceBurst int // default: 1

	// MaxStalls stops a run after this many consecutive passes that
	// found no new container block. Zero disables the check.
	MaxStalls int // default: 3
}

// ExportConfig controls CSV output.
type ExportConfig struct {
	// OutputDir is the destination directory, relative to the working directory.
	OutputDir string // default: "output"

	// Screenshots saves a PNG under OutputDir/screenshots when the review
	// panel cannot be entered.
	Screenshots bool // default: false
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls the harvest.completed notification.
type WebhookConfig struct {
	// URL receives the event. Empty disables delivery.
	URL string

	// Secret signs the body with HMAC-SHA256 when non-empty.
	Secret string

	// Timeout bounds a single delivery attempt.
	Timeout time.Duration // default: 10s
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),

			ShutdownTimeout: envDurationOr("HARVEST_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			RunTimeout:        envDurationOr("HARVEST_RUN_TIMEOUT", 10*time.Minute),
			NavigationTimeout: envDurationOr("HARVEST_NAV_TIMEOUT", 30*time.Second),
			PanelTimeout:      envDurationOr("HARVEST_PANEL_TIMEOUT", 20*time.Second),
			Stealth:           envBoolOr("HARVEST_STEALTH", true),
			AcceptLanguage:    envOr("HARVEST_ACCEPT_LANGUAGE", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Harvest: HarvestConfig{
			DefaultMaxCount: envIntOr("HARVEST_DEFAULT_MAX", 100),
			Marker:          envOr("HARVEST_MARKER", "data-harvested"),
			SettleDelay:     envDurationOr("HARVEST_SETTLE_DELAY", 500*time.Millisecond),
			PaceRPS:         envFloatOr("HARVEST_PACE_RPS", 0.5),
			PaceBurst:       envIntOr("HARVEST_PACE_BURST", 1),
			MaxStalls:       envIntOr("HARVEST_MAX_STALLS", 3),
		},
		Export: ExportConfig{
			OutputDir:   envOr("HARVEST_OUTPUT_DIR", "output"),
			Screenshots: envBoolOr("HARVEST_SCREENSHOTS", false),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 0.2),
			Burst:             envIntOr("HARVEST_RATE_BURST", 2),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("HARVEST_WEBHOOK_URL"),
			Secret:  os.Getenv("HARVEST_WEBHOOK_SECRET"),
			Timeout: envDurationOr("HARVEST_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		ProfilesPath: os.Getenv("HARVEST_PROFILES"),
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
