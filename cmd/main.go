package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/tex-preview/api"
	"github.com/fyerfyer/tex-preview/api/handler"
	"github.com/fyerfyer/tex-preview/api/middleware"
	appconfig "github.com/fyerfyer/tex-preview/config"
	"github.com/fyerfyer/tex-preview/internal/cache"
	"github.com/fyerfyer/tex-preview/internal/database"
	"github.com/fyerfyer/tex-preview/internal/render"
	"github.com/fyerfyer/tex-preview/internal/repository"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// 命令行参数，非零值覆盖配置文件
type flags struct {
	ConfigFile string
	Port       int
	Mode       string
	LogLevel   string
	CacheType  string
}

func main() {
	f := parseFlags()

	cfg, err := appconfig.Load(f.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, f)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	logger := setupLogger(cfg.Log)
	logger.WithField("addr", cfg.Server.Addr()).Info("Starting TeX preview server...")

	var resultCache cache.Cache
	if cfg.Cache.Enable {
		resultCache, err = setupCache(cfg.Cache)
		if err != nil {
			logger.Fatalf("Failed to initialize cache: %v", err)
		}
		defer resultCache.Close()
	}

	dispatcher := render.NewDispatcher(
		render.WithDiagramRenderer(render.NewDiagramRenderer(render.DiagramConfig{
			EngineOrigin: cfg.Render.TikzjaxOrigin,
			FitTimeout:   cfg.Render.FitTimeout,
			PollInterval: cfg.Render.FitPollInterval,
			FitPadding:   cfg.Render.FitPadding,
			Height:       cfg.Render.FrameHeight,
		})),
		render.WithLogger(logger),
	)

	previewService := services.NewPreviewService(dispatcher,
		services.WithCache(resultCache),
		services.WithCacheTTL(cfg.Cache.TTL),
		services.WithMaxSourceBytes(cfg.Render.MaxSourceBytes),
		services.WithPreviewLogger(logger),
	)

	var draftHandler *handler.DraftHandler
	if cfg.Database.Enable {
		if err := database.Setup(&database.Config{
			Type:         cfg.Database.Type,
			DSN:          cfg.Database.DSN,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			MaxLifetime:  time.Hour,
		}, logger); err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.Close()

		draftService := services.NewDraftService(repository.NewDraftRepository(), previewService,
			services.WithDraftLogger(logger),
		)
		draftHandler = handler.NewDraftHandler(draftService)
	}

	if err := api.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	var routerOpts []api.RouterOption
	if cfg.Server.CORS {
		routerOpts = append(routerOpts, api.WithCORS())
	}

	router := api.SetupRouter(
		handler.NewPreviewHandler(previewService),
		draftHandler,
		handler.NewHealthHandler(database.DB, resultCache),
		routerOpts...,
	)

	ui := api.DefaultUIConfig()
	ui.KatexVersion = cfg.Render.KatexVersion
	if err := api.RegisterWebUI(router, ui); err != nil {
		logger.Fatalf("Failed to register web UI: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Server is running on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.ConfigFile, "config", "config.yaml", "Path to config file")
	flag.IntVar(&f.Port, "port", 0, "Server port (overrides config)")
	flag.StringVar(&f.Mode, "mode", "", "Run mode: debug/release (overrides config)")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level: debug/info/warn/error (overrides config)")
	flag.StringVar(&f.CacheType, "cache", "", "Cache type: memory/redis (overrides config)")
	flag.Parse()
	return f
}

func applyFlags(cfg *appconfig.Config, f flags) {
	if f.Port > 0 {
		cfg.Server.Port = f.Port
	}
	if f.Mode != "" {
		cfg.Server.Mode = f.Mode
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.CacheType != "" {
		cfg.Cache.Type = f.CacheType
	}
}

// setupLogger 配置API层共用的logrus实例，可选输出到滚动日志文件
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			logger.WithError(err).Warn("Failed to create log directory, logging to stdout only")
			return logger
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}))
	}
	return logger
}

func setupCache(cfg appconfig.CacheConfig) (cache.Cache, error) {
	return cache.NewCache(cache.Config{
		Type:            cfg.Type,
		RedisAddr:       cfg.Address,
		RedisPassword:   cfg.Password,
		RedisDB:         cfg.DB,
		KeyPrefix:       cfg.KeyPrefix,
		DefaultTTL:      cfg.TTL,
		CleanupInterval: 10 * time.Minute,
	})
}
