package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/app"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/config"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/documents"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/folders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/httpapi"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/reports"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer container.Close()

	// Setup Router
	if cfg.Logging.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(httpapi.Recovery(logger), httpapi.ZapLogger(logger.Named("http")), httpapi.CORS(cfg.Server.AllowedOrigins))
	router.MaxMultipartMemory = 32 << 20

	requireAuth := auth.Middleware(container.Tokens, logger.Named("auth"))

	// Register Routes
	api := router.Group("/api/v1")
	{
		auth.NewHandler().RegisterRoutes(api, requireAuth)
		projects.NewHandler(container.Projects, logger).RegisterRoutes(api, requireAuth)
		workorders.NewHandler(container.WorkOrders, logger).RegisterRoutes(api, requireAuth)
		folders.NewHandler(container.Folders, logger).RegisterRoutes(api, requireAuth)
		documents.NewHandler(container.Documents, logger).RegisterRoutes(api, requireAuth)
		reports.NewHandler(container.Reports, logger).RegisterRoutes(api, requireAuth)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := container.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
