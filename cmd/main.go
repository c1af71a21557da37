// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"defkeep/internal/config"
	"defkeep/internal/handlers"
	"defkeep/internal/index"
	"defkeep/internal/middleware"
	"defkeep/internal/parser"
	"defkeep/internal/repository"
	"defkeep/internal/service"
	"defkeep/internal/vault"
)

func main() {
	// Temporary logger until the config decides the real handler.
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// Database
	db, err := repository.NewDB(cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// Dependency injection
	store := vault.NewStore(cfg.Vault.Dir)
	fileParser := parser.New(cfg.Parser)
	idx := index.New()
	cardRepo := repository.NewGormFlashcardRepository()
	sessRepo := repository.NewGormSessionRepository()

	defService := service.NewDefinitionService(db, store, fileParser, idx, cardRepo)
	studyService := service.NewStudyService(db, cardRepo, sessRepo, idx, store, cfg)

	defHandler := handlers.NewDefinitionHandler(defService)
	studyHandler := handlers.NewStudyHandler(studyService)

	// Initial index build
	if err := defService.RebuildAll(context.Background()); err != nil {
		slog.Error("Error building definition index", slog.Any("error", err))
		os.Exit(1)
	}

	// Vault watcher keeps the index consistent with external edits.
	watcher, err := vault.NewWatcher(cfg.Vault.Dir)
	if err != nil {
		slog.Error("Error creating vault watcher", slog.Any("error", err))
		os.Exit(1)
	}
	if err := watcher.Start(); err != nil {
		slog.Error("Error starting vault watcher", slog.Any("error", err))
		os.Exit(1)
	}
	go func() {
		for change := range watcher.Changes {
			ctx := context.Background()
			var err error
			switch change.Kind {
			case vault.ChangeRemoved:
				err = defService.RemoveFile(ctx, change.Path)
			default:
				err = defService.ReindexFile(ctx, change.Path)
			}
			if err != nil {
				slog.Error("Error applying vault change", slog.String("path", change.Path), slog.Any("error", err))
			}
		}
	}()

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/definitions", func(r chi.Router) {
			r.Get("/keys", defHandler.GetKeys)
			r.Get("/consolidated", defHandler.GetConsolidated)
			r.Post("/rebuild", defHandler.Rebuild)
			r.Get("/{key}", defHandler.GetDefinition)
		})
		r.Route("/study", func(r chi.Router) {
			r.Get("/queue", studyHandler.GetQueue)
			r.Get("/extra", studyHandler.GetExtraQueue)
			r.Get("/stats", studyHandler.GetStats)
			r.Post("/{key}/grade", studyHandler.PostGrade)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.PingContext(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}

// newLogger builds the application logger from the configured level, using
// tint for readable dev output and JSON elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", cfg.Log.Level))
	}

	var handler slog.Handler
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}
	return slog.New(handler)
}
