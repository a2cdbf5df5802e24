package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/hybridui/suite/api/handler"
	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/internal/config"
	"github.com/hybridui/suite/internal/idp"
	"github.com/hybridui/suite/internal/infrastructure/monitor"
	pgInfra "github.com/hybridui/suite/internal/infrastructure/postgres"
	redisInfra "github.com/hybridui/suite/internal/infrastructure/redis"
	"github.com/hybridui/suite/internal/router"
	"github.com/hybridui/suite/internal/services/lifecycle"
	"github.com/hybridui/suite/pkg/httpcontext"
	"github.com/hybridui/suite/pkg/logger"
	"github.com/hybridui/suite/repository"
	"github.com/hybridui/suite/repository/memory"
	pgRepo "github.com/hybridui/suite/repository/postgres"
	redisRepo "github.com/hybridui/suite/repository/redis"
	authUC "github.com/hybridui/suite/usecase/auth"
)

func main() {
	cfg, err := config.Load()
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

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	credentials := credentialRepository(appCtx, cfg, manager, zapLogger)

	mon := monitor.New(redisClient, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)
	providerTokenRepo := redisRepo.NewProviderTokenRepository(redisClient)

	authUseCase := authUC.New(credentials, sessionRepo, providerTokenRepo, cfg.Session.TTL, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	if cfg.Azure.Enabled() {
		provider := idp.NewAzure(cfg.Azure, zapLogger)
		handlers.Azure = apiHandler.NewAzureHandler(authUseCase, provider, frontdoorURL(cfg), ctxAdapter, zapLogger)
		zapLogger.Info("federated login enabled", zap.String("tenant", cfg.Azure.TenantID))
	}

	server := &fasthttp.Server{
		Handler:      router.New(handlers, cfg.CORSOrigins),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("session service started", zap.String("address", cfg.Address()))
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

// credentialRepository selects the credential backend: Postgres when a
// database is configured, the seeded in-memory demo set otherwise.
func credentialRepository(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repository.CredentialRepository {
	if cfg.Database.URL == "" {
		zapLogger.Info("using in-memory demo credentials", zap.Int("users", len(cfg.Users)))
		return memory.NewCredentialRepository(demoCredentials(cfg.Users))
	}

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})
	return pgRepo.NewCredentialRepository(pool)
}

func demoCredentials(users []config.UserCredential) []domain.Credential {
	creds := make([]domain.Credential, 0, len(users))
	for _, u := range users {
		creds = append(creds, domain.Credential{
			Username: u.Username,
			Password: u.Password,
			Email:    u.Email,
			Role:     u.Role,
		})
	}
	return creds
}

func frontdoorURL(cfg *config.Config) string {
	if len(cfg.CORSOrigins) > 0 {
		return cfg.CORSOrigins[0]
	}
	return "http://localhost:5173"
}
