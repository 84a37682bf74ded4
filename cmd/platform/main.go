package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/amparo-care/platform/internal/adapters/legacy"
	"github.com/amparo-care/platform/internal/anamnesis"
	"github.com/amparo-care/platform/internal/audit"
	"github.com/amparo-care/platform/internal/link"
	"github.com/amparo-care/platform/internal/person"
	"github.com/amparo-care/platform/internal/pictogram"
	"github.com/amparo-care/platform/internal/relationship"
	"github.com/amparo-care/platform/internal/shared/auth"
	"github.com/amparo-care/platform/internal/shared/config"
	"github.com/amparo-care/platform/internal/shared/database"
	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/metrics"
	secmiddleware "github.com/amparo-care/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// Initialize database (optional - in-memory stores otherwise)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Warning: Database not available: %v\n", err)
		fmt.Println("Running with in-memory stores...")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	// Initialize event bus (optional - skip if not available)
	bus, err := events.NewBus(ctx, cfg.EventStore)
	if err != nil {
		fmt.Printf("Warning: EventStoreDB not available: %v\n", err)
		fmt.Println("Running without event streaming...")
	} else {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("Event bus initialized")
	}

	// Stores: Postgres when the database is up, in-memory otherwise.
	var (
		personStore    person.Store
		vocabStore     pictogram.Store
		relStore       relationship.Store
		linkStore      link.Store
		anamnesisStore anamnesis.Store
		auditStore     audit.Store
	)
	if app.DB != nil {
		personStore = person.NewPostgresStore(app.DB)
		vocabStore = pictogram.NewPostgresStore(app.DB)
		relStore = relationship.NewPostgresStore(app.DB)
		linkStore = link.NewPostgresStore(app.DB)
		anamnesisStore = anamnesis.NewPostgresStore(app.DB)
		auditStore = audit.NewPostgresStore(app.DB)
	} else {
		personStore = person.NewMemoryStore()
		vocabStore = pictogram.NewMemoryStore()
		relStore = relationship.NewMemoryStore()
		linkStore = link.NewMemoryStore()
		anamnesisStore = anamnesis.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
	}

	personSvc := person.NewService(personStore)
	vocabSvc := pictogram.NewService(vocabStore)
	relSvc := relationship.NewService(relStore, personSvc)
	linkSvc := link.NewService(linkStore, vocabStore, personSvc)
	anamnesisSvc := anamnesis.NewService(anamnesisStore, personSvc)

	// Legacy HIS importer
	if cfg.Legacy.Enabled {
		importer := legacy.NewImporter(cfg.Legacy, personSvc)
		if err := importer.Start(ctx); err != nil {
			fmt.Printf("Warning: Legacy importer failed to start: %v\n", err)
		} else {
			defer importer.Stop()
			fmt.Printf("Legacy HIS importer polling %s\n", cfg.Legacy.Host)
		}
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	if cfg.RateLimit.Enabled {
		limiter := secmiddleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		r.Use(limiter.Middleware)
	}

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// No auth in dev mode
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		personHandler := person.NewHandler(personSvc, app.Bus)
		r.Mount("/", personHandler.Routes())

		vocabHandler := pictogram.NewHandler(vocabSvc)
		r.Mount("/categories", vocabHandler.CategoryRoutes())
		r.Mount("/pictograms", vocabHandler.PictogramRoutes())

		relHandler := relationship.NewHandler(relSvc, app.Bus)
		r.Mount("/relationships", relHandler.Routes())

		linkHandler := link.NewHandler(linkSvc, app.Bus)
		r.Mount("/links", linkHandler.Routes())

		anamnesisHandler := anamnesis.NewHandler(anamnesisSvc, app.Bus)
		r.Mount("/anamneses", anamnesisHandler.Routes())

		auditHandler := audit.NewHandler(auditStore)
		r.Mount("/audit", auditHandler.Routes())
	})

	// Audit subscriber feeds the append-only log from domain events.
	if app.Bus != nil {
		auditSubscriber := audit.NewSubscriber(auditStore, app.Bus)
		if err := auditSubscriber.Start(ctx); err != nil {
			fmt.Printf("Warning: Audit subscriber failed to start: %v\n", err)
		} else {
			fmt.Println("Audit subscriber started")
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Amparo Augmentative Care Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment: %s\n", cfg.Server.Env)
	fmt.Printf("Server:      http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:         http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:      http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Amparo Augmentative Care Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
