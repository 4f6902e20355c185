package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advisory/backoffice/internal/bootstrap"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/advisory/backoffice/internal/interfaces/http/handler"
	"github.com/advisory/backoffice/internal/interfaces/http/middleware"
	"github.com/advisory/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/advisory/backoffice/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Advisory Back-Office API
//	@version		1.0
//	@description	Client CRM, portfolio snapshots and justification documents for a pension advisory office

//	@contact.name	Back-office maintainers

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry may replace the logger with one that also exports to OTLP
	tel, log := setupTelemetry(context.Background(), cfg, logCfg, log)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting advisory back-office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	container, err := bootstrap.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()
	tel.attachDatabase(context.Background(), container, log)

	var jobs *bootstrap.Jobs
	if cfg.Scheduler.Enabled {
		jobs = container.NewJobs()
		if err := jobs.Start(context.Background()); err != nil {
			log.Fatal("Failed to start background jobs", zap.Error(err))
		}
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := newEngine(cfg, container, log)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(ctx); err != nil {
			log.Error("Background jobs did not stop in time", zap.Error(err))
		}
	}
	tel.shutdown(ctx, log)

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware stack and every route
func newEngine(cfg *config.Config, container *bootstrap.Container, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing when enabled, so the access log carries trace ids
	// 3. Logger - Log requests, panics included
	// 4. Recovery - Catch panics
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. Metrics, then profiling labels when enabled
	engine.Use(middleware.RequestID())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(middleware.DefaultTracingConfig(cfg.Telemetry.ServiceName))...)
	}
	engine.Use(logger.RequestLogger(log, logger.DefaultRequestLogConfig()))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Middleware())
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	session := middleware.JWTAuthMiddleware(container.Auth, log)

	// Public signing links and login are rate limited
	var signLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		signLimit = middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, container.Clock))
		log.Info("Rate limiting enabled for client-sign routes",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	loginLimit := middleware.AuthRateLimit(middleware.NewRateLimiter(10, time.Minute, container.Clock))

	var adminGuard gin.HandlerFunc
	if cfg.Admin.RequireAuth {
		adminGuard = session
		log.Info("Admin routes require authentication")
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, container.DB)

	// Health check and metrics (outside API versioning)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		protect := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     true,
			RequireAuth: cfg.IsProduction(),
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, session, log)
		engine.GET("/swagger/*any", protect, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	crmHandler := handler.NewCRMHandler(container.Clients, container.Snapshots, container.Notes, container.Reports)
	justificationHandler := handler.NewJustificationHandler(container.Products, container.Documents, container.Signing)
	adminHandler := handler.NewAdminHandler(handler.Imports{
		CRM:           container.CRMImport,
		Gemelnet:      container.GemelnetImport,
		LegacyClients: container.LegacyClientsImport,
	}, container.Migration)
	authHandler := handler.NewAuthHandler(container.Auth)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.CRMRoutes(crmHandler)).
		Register(handler.JustificationRoutes(justificationHandler, signLimit)).
		Register(handler.AdminRoutes(adminHandler, adminGuard)).
		Register(handler.AuthRoutes(authHandler, loginLimit, session)).
		Register(handler.SystemRoutes(systemHandler))
	routes := r.Setup()
	log.Info("API routes registered", zap.String("prefix", r.Prefix()), zap.Int("routes", len(routes)))

	return engine
}
