package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kdduha/snap2html/backend/internal/cache"
	"github.com/kdduha/snap2html/backend/internal/config"
	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/handler"
	"github.com/kdduha/snap2html/backend/internal/llm"
	"github.com/kdduha/snap2html/backend/internal/logger"
	"github.com/kdduha/snap2html/backend/internal/metrics"
	"github.com/kdduha/snap2html/backend/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/kdduha/snap2html/backend/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title snap2html API
// @version 1.0
// @description Turns a screenshot into a complete HTML document through multi-chunk AI generation.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	model, err := newModel(ctx, lg, cfg.Model)
	if err != nil {
		lg.Fatal("model client error", zap.Error(err))
	}

	settings, err := cfg.Model.Settings()
	if err != nil {
		lg.Fatal("model settings error", zap.Error(err))
	}
	imageSettings, err := cfg.Model.ImageSettings()
	if err != nil {
		lg.Fatal("image model settings error", zap.Error(err))
	}

	adapter := generation.NewAdapter(lg, model, settings, generation.DefaultPrompts())
	orchestrator := generation.NewOrchestrator(lg, adapter, cfg.Generation.MaxAttempts)

	generateService := service.NewGenerateService(lg, orchestrator, model, service.Options{
		ModelName:         settings.Model,
		ImageSettings:     imageSettings,
		MaxConcurrentRuns: cfg.Generation.MaxConcurrentRuns,
	})

	if cfg.CacheEnable {
		redisCache := cache.NewRedisCache(cfg.RedisConfig)
		defer func() { _ = redisCache.Close() }()
		if err := redisCache.Ping(ctx); err != nil {
			lg.Warn("redis is not reachable yet", zap.String("addr", cfg.RedisConfig.Addr), zap.Error(err))
		}
		generateService.SetCacheClient(redisCache)
		lg.Info("set redis as cache", zap.String("addr", cfg.RedisConfig.Addr))
	}

	h := handler.NewGenerateHandler(generateService, cfg.Server.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Throttle(cfg.Server.ThrottleLimit),
		middleware.Timeout(cfg.Server.Timeout),
		metrics.Middleware,
	}...)

	r.Post("/generate", h.Generate)
	r.Post("/generate/stream", h.GenerateStream)
	r.Post("/recreate", h.Recreate)
	r.Get("/healthz", handler.Healthz)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		lg.Info("server started",
			zap.String("port", cfg.Server.Port),
			zap.String("provider", model.Provider()),
			zap.String("model", settings.Model),
			zap.Int("max_attempts", orchestrator.MaxAttempts()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Fatal("server forced to shutdown", zap.Error(err))
	}
	lg.Info("server stopped")
}

func newModel(ctx context.Context, lg *zap.Logger, cfg config.ModelConfig) (llm.Model, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		return llm.NewOpenAIModel(lg, llm.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
		}), nil
	default:
		return llm.NewGeminiModel(ctx, lg, llm.GeminiOptions{
			APIKey:     cfg.Gemini.APIKey,
			BaseURL:    cfg.Gemini.BaseURL,
			APIVersion: cfg.Gemini.APIVersion,
		})
	}
}
