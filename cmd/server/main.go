package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/database"
	"github.com/stwalsh4118/catastro/internal/ficha"
	"github.com/stwalsh4118/catastro/internal/handlers"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/mapview"
	"github.com/stwalsh4118/catastro/internal/middleware"
	"github.com/stwalsh4118/catastro/internal/repository"
	"github.com/stwalsh4118/catastro/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting Catastro API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"registry":    cfg.Registry.Backend,
	})

	ctx := context.Background()

	// The readiness check only pings a database when one is in use.
	var pinger handlers.Pinger
	var registry repository.CadastralRegistry
	switch cfg.Registry.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		if err := db.VerifySchema(ctx); err != nil {
			log.Fatal("Database schema check failed", err, map[string]interface{}{
				"name": cfg.Database.Name,
			})
		}

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		pinger = db
		registry = repository.NewPostgresRegistry(db)
	default:
		registry = repository.NewMockRegistry(repository.MockRegistryConfig{
			SearchLatency:  cfg.Registry.SearchLatency,
			DetailsLatency: cfg.Registry.DetailsLatency,
			MaxTracked:     cfg.Registry.MaxTracked,
		})
	}

	cadastralService := services.NewCadastralService(registry, log)
	sessions := services.NewSessionStore(cfg.Session.TTL, cfg.Session.MaxSessions, func() *services.SearchController {
		return services.NewSearchController(cadastralService, log)
	})
	viewer := mapview.NewViewer(cfg.Map, log)

	renderer, err := ficha.NewRenderer()
	if err != nil {
		log.Fatal("Failed to load ficha template", err, nil)
	}
	var exporter ficha.Exporter = ficha.DisabledExporter{}
	if cfg.PDF.Enabled {
		chrome := ficha.NewChromeExporter(cfg.PDF, log)
		if err := chrome.Start(); err != nil {
			log.Fatal("Failed to start PDF exporter", err, nil)
		}
		defer chrome.Stop()
		exporter = chrome
	}
	fichas := ficha.NewGenerator(renderer, exporter, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Health:   handlers.NewHealthHandler(pinger, registry.Name(), cfg.Server.Env),
		Parcels:  handlers.NewParcelHandler(cadastralService, fichas),
		Sessions: handlers.NewSessionHandler(sessions, viewer, fichas),
		Map:      handlers.NewMapHandler(viewer),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
