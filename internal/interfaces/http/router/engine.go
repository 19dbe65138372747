package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers groups the endpoint handlers served by the engine
type Handlers struct {
	Storefront *handler.StorefrontHandler
	Catalog    *handler.CatalogHandler
	Health     *handler.HealthHandler
}

// EngineConfig selects the middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	MaxBodySize    int64
	TrustedProxies []string
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	// Auth guards /api routes; nil leaves them open
	Auth gin.HandlerFunc
	// Swagger serves the API docs under /swagger
	Swagger bool
}

// NewEngine builds the gin engine with the middleware chain and every route.
//
// Middleware order:
//  1. Tracing - root span per request, 5xx marked as errors
//  2. RequestID - generate/propagate request ID
//  3. Recovery - catch panics
//  4. Logger - log requests
//  5. BodyLimit - limit request body size
//
// /api routes then add Auth, span attributes and RateLimit.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger, logger.SkipPaths("/health")))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.Health.Health)
	if cfg.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := NewAPI("v1")
	if cfg.Auth != nil {
		api.Use(cfg.Auth)
	}
	api.Use(middleware.TracingAttributeInjector())
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	api.Mount(StorefrontRoutes(h)...).Install(engine)

	return engine, nil
}

// StorefrontRoutes returns the versioned API route groups
func StorefrontRoutes(h Handlers) []*Group {
	actions := NewGroup("/actions").
		POST("", h.Storefront.HandleAction)

	payments := NewGroup("/payments").
		POST("/pre-checkout", h.Storefront.PreCheckout).
		POST("/successful", h.Storefront.PaymentSucceeded)

	catalog := NewGroup("/catalog").
		GET("/products", h.Catalog.ListProducts).
		GET("/products/:id", h.Catalog.GetProduct).
		GET("/categories", h.Catalog.ListCategories)

	return []*Group{actions, payments, catalog}
}
