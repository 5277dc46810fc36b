package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/api/handler"
	"github.com/use-agent/pricewatch/api/middleware"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/metrics"
)

// Deps bundles the services the router exposes.
type Deps struct {
	Products  handler.ProductService
	Refresher handler.RefreshRunner
	Store     handler.Pinger
	Metrics   *metrics.Collector

	// RendererName is reported by the health endpoint.
	RendererName string
	StartTime    time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
// ctx bounds background work started by the middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	v1 := r.Group("/api/v1")
	if deps.Metrics != nil {
		metricsHandler := gin.WrapH(deps.Metrics.Handler())
		r.GET("/metrics", metricsHandler)
		v1.GET("/metrics", metricsHandler)
	}

	// Health: no auth required.
	v1.GET("/health", handler.Health(deps.Store, deps.RendererName, deps.StartTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	// Watchlist
	protected.POST("/products", handler.TrackProduct(deps.Products))
	protected.GET("/products", handler.ListProducts(deps.Products))
	protected.GET("/products/:id", handler.GetProduct(deps.Products))
	protected.PATCH("/products/:id", handler.UpdateProduct(deps.Products))
	protected.DELETE("/products/:id", handler.DeleteProduct(deps.Products))

	// Refresh
	protected.POST("/refresh", handler.Refresh(deps.Refresher))

	return r
}
