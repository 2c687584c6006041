package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"seedling/internal/api"
	"seedling/internal/bootstrap"
	"seedling/internal/config"
	"seedling/internal/logging"
	"seedling/internal/mcp"
	"seedling/internal/seed"
	"seedling/internal/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Parse command line flags
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"store", cfg.Store.Driver,
		"seed_dir", cfg.SeedDir(),
		"seed_active", cfg.Seed.Active,
	)

	logger.Info("Starting Seedling")

	// Initialize storage
	storageReady := make(chan struct{})
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer closeStore()
	close(storageReady)

	seeder := bootstrap.NewSeeder(cfg, store, "", logger)
	svc := services.NewSeedService(seeder)

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(otelecho.Middleware("seedling"))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	apiServer := api.NewServer(svc)
	e.GET("/health", apiServer.HandleHealth)
	api.RegisterHandlers(e.Group("/api/v1"), apiServer)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(svc)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		log.Fatalf("Listen failed: %v", err)
	}
	listening := make(chan struct{})

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", ln.Addr().String())
		close(listening)
		serverErrors <- server.Serve(ln)
	}()

	// Seed once storage is up and the server accepts connections
	hook := seed.NewHook(cfg.Seed.Active, seeder, logger)
	go hook.Initialize(ctx, seed.WaitAll(storageReady, listening), func(result *seed.Result, err error) {
		if result == nil && err == nil {
			logger.Info("Startup seeding skipped")
			return
		}
		svc.Record(result, err)
		if err != nil {
			logger.Error("Startup seeding failed", "error", err)
			return
		}
		logger.Info("Startup seeding complete", "records", result.Records, "associations", len(result.Data))
	})

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		// Create shutdown context with timeout
		shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
		defer stop()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}
