package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/api/handler"
	"github.com/use-agent/reviewharvest/api/middleware"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/sites"
	"github.com/use-agent/reviewharvest/webhook"
)

// Browser is what the router needs from the scraper.
type Browser interface {
	handler.Harvester
	handler.PoolReporter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health is outside auth so monitoring probes always work.
func NewRouter(b Browser, reg *sites.Registry, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(b, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	protected.GET("/sites", handler.Sites(reg))

	var hook *webhook.Client
	if cfg.Webhook.URL != "" {
		hook = webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout)
	}
	protected.POST("/harvest", middleware.RateLimit(cfg.RateLimit), handler.Harvest(b, handler.HarvestDeps{
		Sites:     reg,
		OutputDir: cfg.Export.OutputDir,
		Webhook:   hook,
	}))

	return r
}
