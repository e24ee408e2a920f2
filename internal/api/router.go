// Package api wires together all HTTP routes of the ERP admin backend.
//
// Route grouping philosophy:
//   - /api/v1/auth/login and /auth/refresh are public but rate limited
//     aggressively, so credential stuffing is throttled before any DB work.
//   - Everything else under /api/v1/ and /v1/ requires a valid access token.
//   - The audit log viewer lives under /v1/audit-logs; its export endpoint
//     carries its own stricter rate limit because file generation is the most
//     expensive request the backend serves.
package api

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/admin"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/auditlogs"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/audit"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/auth"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/config"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/middleware"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/notify"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	hub          *notify.Hub
	shipper      *audit.MultiShipper
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.hub != nil {
		bg.hub.Close()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Error("failed to close audit shippers", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	authService, err := auth.NewService(auth.Config{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		DevMode:    auth.IsDevMode(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	auditRepo := repositories.NewAuditRepository(db)

	// Audit side effects: shipping to external sinks and pushing live updates
	// to connected viewers. Both are optional.
	var shipper audit.Shipper
	var multiShipper *audit.MultiShipper
	if len(cfg.Audit.Shippers) > 0 {
		multiShipper, err = audit.NewMultiShipper(cfg.Audit.Shippers)
		if err != nil {
			log.Fatalf("Failed to initialize audit shippers: %v", err)
		}
		shipper = multiShipper
	}

	hub := notify.NewHub()

	var recorder admin.Recorder
	if cfg.Audit.Enabled {
		recorder = audit.NewRecorder(auditRepo, shipper, hub)
	} else {
		slog.Warn("audit capture is disabled; mutations will not be recorded")
	}

	detailCache, err := audit.NewDetailCache(cfg.Audit.DetailCacheSize)
	if err != nil {
		log.Fatalf("Failed to initialize audit detail cache: %v", err)
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorrelationMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers := admin.NewAuthHandlers(db, authService)
	customerHandlers := admin.NewCustomerHandlers(db, recorder)
	productHandlers := admin.NewProductHandlers(db, recorder)
	saleHandlers := admin.NewSaleHandlers(db, recorder)
	debtHandlers := admin.NewDebtHandlers(db, recorder)
	auditHandlers := auditlogs.NewHandlers(auditRepo, detailCache, cfg.Audit.ExportRowLimit)

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	exportRateLimiter := middleware.NewRateLimiter(middleware.ExportRateLimitConfig())

	// Admin API endpoints
	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.POST("/refresh", authHandlers.RefreshHandler())
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(authService))
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			authenticatedGroup.GET("/auth/me", authHandlers.MeHandler())

			customersGroup := authenticatedGroup.Group("/customers")
			{
				customersGroup.GET("", customerHandlers.ListHandler())
				customersGroup.GET("/:id", customerHandlers.GetHandler())
				customersGroup.POST("", customerHandlers.CreateHandler())
				customersGroup.PUT("/:id", customerHandlers.UpdateHandler())
				customersGroup.DELETE("/:id", customerHandlers.DeleteHandler())
			}

			productsGroup := authenticatedGroup.Group("/products")
			{
				productsGroup.GET("", productHandlers.ListHandler())
				productsGroup.GET("/:id", productHandlers.GetHandler())
				productsGroup.GET("/:id/movements", productHandlers.MovementsHandler())
				productsGroup.POST("", productHandlers.CreateHandler())
				productsGroup.PUT("/:id", productHandlers.UpdateHandler())
				productsGroup.DELETE("/:id", productHandlers.DeleteHandler())
			}

			salesGroup := authenticatedGroup.Group("/sales")
			{
				salesGroup.GET("", saleHandlers.ListHandler())
				salesGroup.GET("/:id", saleHandlers.GetHandler())
				salesGroup.POST("", saleHandlers.CreateHandler())
			}

			debtsGroup := authenticatedGroup.Group("/debts")
			{
				debtsGroup.GET("", debtHandlers.ListHandler())
				debtsGroup.GET("/:id", debtHandlers.GetHandler())
				debtsGroup.POST("/:id/payments", debtHandlers.CreatePaymentHandler())
			}
		}
	}

	// Audit log viewer endpoints
	auditGroup := router.Group("/v1/audit-logs")
	auditGroup.Use(middleware.AuthMiddleware(authService))
	auditGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	{
		auditGroup.GET("", auditHandlers.ListHandler())
		auditGroup.GET("/grouped", auditHandlers.GroupedHandler())
		auditGroup.GET("/:id/detail", auditHandlers.DetailHandler())
		auditGroup.GET("/entity-types", auditHandlers.EntityTypesHandler())
		auditGroup.GET("/actions", auditHandlers.ActionsHandler())
		auditGroup.GET("/export",
			middleware.RateLimitMiddleware(exportRateLimiter), // File generation is expensive
			auditHandlers.ExportHandler())
	}

	// Live notification stream for connected admin panels
	router.GET("/v1/notifications/ws",
		middleware.AuthMiddleware(authService),
		hub.ServeWS)

	bg := &BackgroundServices{
		hub:          hub,
		shipper:      multiShipper,
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, exportRateLimiter},
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. Kept separate
// from the liveness probe so orchestration can distinguish "restart me" from
// "stop sending traffic".
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Correlation-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
