package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"piaxe-console/internal/config"
	"piaxe-console/internal/container"
	"piaxe-console/internal/handler"
	"piaxe-console/internal/middleware"
	"piaxe-console/internal/proxy"
	"piaxe-console/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Stop the session refresh loop, drain logouts, close Redis
	if r.container != nil {
		if r.container.HasRedis() {
			healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
			if err := r.container.GetRedisClient().Health(healthCtx); err != nil {
				r.log.WithError(err).Warn("Redis health check failed before closing")
			}
			healthCancel()
		}

		if err := r.container.Close(); err != nil {
			r.log.WithError(err).Error("Failed to release session resources")
			errors = append(errors, fmt.Errorf("container close: %w", err))
		} else {
			r.log.Info("Session resources released")
		}
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":              cfg.Port,
		"log_level":         cfg.LogLevel,
		"environment":       cfg.Environment,
		"api_base_url":      cfg.APIBaseURL,
		"execution_context": cfg.ExecutionContext.String(),
	}).Info("Starting piaxe-console server")

	// Create dependency injection container
	container, err := container.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Setup router
	router, err := setupRouter(container)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure router")
	}

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Create resources manager for cleanup
	resources := &Resources{
		container: container,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	// Setup cleanup function that will be called regardless of how the program exits
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(container *container.Container) (*chi.Mux, error) {
	cfg := container.GetConfig()
	log := container.GetLogger()

	backendProxy, err := proxy.New(cfg.ProxyPrefix, cfg.APIBaseURL, nil, log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Setup middlewares
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins, cfg.SendDeviceHeaderInBrowser), log))
	r.Use(middleware.RequestID())
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SessionCookies(log))

	// Create handlers
	healthHandler := handler.NewHealthHandler(container)
	sessionHandler := handler.NewSessionHandler(container.CookieOptions(), log)
	authHandler := handler.NewAuthHandler(container, log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	// Cookie session routes
	r.Get("/api/session", sessionHandler.Get)
	r.With(middleware.RequireSession(cfg.LoginPath, log)).Delete("/api/session", sessionHandler.Delete)

	// Sign-in routes; every change is written back as session cookies
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/refresh", authHandler.Refresh)
	r.Post("/api/auth/logout", authHandler.Logout)
	r.Get("/api/auth/me", authHandler.Me)

	// Same-origin backend proxy for browser clients
	backendProxy.Mount(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r, nil
}
