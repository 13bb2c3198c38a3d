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
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"lesson_progress_keep/internal/ai"
	"lesson_progress_keep/internal/config"
	"lesson_progress_keep/internal/handlers"
	"lesson_progress_keep/internal/middleware"
	"lesson_progress_keep/internal/repository"
	"lesson_progress_keep/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	// Configを読み込み
	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
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
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	// 開発環境はtint (色付きテキスト)、それ以外はJSON
	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// データベース接続 (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
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

	// 開発環境ではスキーマを自動作成する (本番はマイグレーションツールで管理)
	if strings.ToLower(appEnv) == "dev" {
		if err := repository.AutoMigrate(db); err != nil {
			slog.Error("Error running auto migration", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("Auto migration completed")
	}

	// Dependency Injection
	tenantRepo := repository.NewGormTenantRepository()
	textbookRepo := repository.NewGormTextbookRepository()
	progressRepo := repository.NewGormProgressRepository()

	aiClient := ai.NewClient(&config.Cfg)

	tenantService := service.NewTenantService(db, tenantRepo)
	textbookService := service.NewTextbookService(db, textbookRepo)
	progressService := service.NewProgressService(db, progressRepo)
	extractService := service.NewExtractService(db, progressService, textbookRepo, aiClient, &config.Cfg)
	memoService := service.NewMemoService(aiClient)

	tenantHandler := handlers.NewTenantHandler(tenantService, logger)
	textbookHandler := handlers.NewTextbookHandler(textbookService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, config.Cfg.App.AggregateMonths, logger)
	extractHandler := handlers.NewExtractHandler(extractService, logger)
	learnStepHandler := handlers.NewLearnStepHandler(memoService, logger)

	// Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/tenants", tenantHandler.PostTenant) // テナント作成 (スコープ外)

		// --- Tenant-scoped routes (X-Tenant-ID 必須) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.TenantContextMiddleware)

			// 進捗レコード
			r.Route("/progress", func(r chi.Router) {
				r.Post("/", progressHandler.PostProgress)
				r.Get("/", progressHandler.GetProgressRecords)
				r.Get("/aggregate/monthly", progressHandler.GetMonthlyAggregate)
				r.Get("/{record_id}", progressHandler.GetProgress)
				r.Put("/{record_id}/songs", progressHandler.PutSong)
				r.Post("/{record_id}/songs/complete-up-to", progressHandler.CompleteUpTo)
				r.Delete("/{record_id}", progressHandler.DeleteProgress)
			})

			// レッスンノート抽出
			r.Post("/lesson-notes/extract", extractHandler.PostExtract)

			// 練習ステップ
			r.Route("/learning-steps", func(r chi.Router) {
				r.Get("/", learnStepHandler.GetSteps)
				r.Post("/select", learnStepHandler.SelectStep)
				r.Post("/toggle", learnStepHandler.ToggleSubItem)
				r.Post("/memo", learnStepHandler.ComposeMemo)
			})

			// 教材カタログ
			r.Route("/textbooks", func(r chi.Router) {
				r.Get("/", textbookHandler.GetTextbooks)
				r.Post("/", textbookHandler.PostTextbook)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
