package webapp

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/internal/services/lifecycle"
	"github.com/hybridui/suite/pkg/authclient"
	"github.com/hybridui/suite/pkg/logger"
	"github.com/hybridui/suite/pkg/sessioncache"
)

// Serve boots one origin application and blocks until shutdown: config,
// logger, session cache, validation watcher, HTTP server. mount attaches the
// app-specific pages and APIs on top of the shared core.
func Serve(name string, mount func(cfg *config.AppConfig, app *App) fasthttp.RequestHandler) {
	cfg, err := config.LoadApp(name)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("app", name))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	cache, err := sessioncache.Open(cfg.CachePath)
	if err != nil {
		zapLogger.Fatal("session cache open failed", zap.Error(err))
	}
	manager.Register("session_cache", func(ctx context.Context) error {
		return cache.Close()
	})

	auth := authclient.New(cfg.AuthServerURL, cfg.Watch.ProbeTimeout)
	app := New(cfg, cache, auth, zapLogger)

	watcher := NewWatcher(cache, auth, cfg.Watch, zapLogger)
	if err := watcher.Start(); err != nil {
		zapLogger.Fatal("session watcher start failed", zap.Error(err))
	}
	manager.Register("session_watcher", func(ctx context.Context) error {
		watcher.Stop()
		return nil
	})

	server := &fasthttp.Server{
		Handler:      mount(cfg, app),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         name,
	}

	go func() {
		zapLogger.Info("app started",
			zap.String("address", cfg.Address()),
			zap.String("public_url", cfg.PublicURL))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
