package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linkaudit/internal/audit"
	"github.com/MrSnakeDoc/linkaudit/internal/config"
	"github.com/MrSnakeDoc/linkaudit/internal/domain"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver"
	"github.com/MrSnakeDoc/linkaudit/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkaudit/internal/logger"
	"github.com/MrSnakeDoc/linkaudit/internal/metrics"
	"github.com/MrSnakeDoc/linkaudit/internal/probe"
	"github.com/MrSnakeDoc/linkaudit/internal/redis"
	"github.com/MrSnakeDoc/linkaudit/internal/scheduler"
	"github.com/MrSnakeDoc/linkaudit/internal/session"
	"github.com/MrSnakeDoc/linkaudit/internal/sources/secrets"
	redisstore "github.com/MrSnakeDoc/linkaudit/internal/store/redis"
	"github.com/MrSnakeDoc/linkaudit/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reloader    *scheduler.CredentialsReloader
	sweeper     *scheduler.SessionSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	m := metrics.New()

	// Sessions live in Redis when configured - fail fast if it is unreachable
	var (
		store       session.Store
		backend     string
		redisClient *goredis.Client
		sweeper     *scheduler.SessionSweeper
	)
	if cfg.RedisEnabled() {
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully, sessions stored in redis")
		redisClient = client
		store = redisstore.NewStore(client)
		backend = "redis"
	} else {
		mem := session.NewMemoryStore()
		store = mem
		backend = "memory"
		sweeper = scheduler.NewSessionSweeper(mem, m, loggerClient, cfg.GCInterval)
		loggerClient.Info("LINKAUDIT_REDIS_ADDR not set, sessions kept in memory")
	}

	// Environment credentials are the fallback; the secrets file wins when set
	holder := secrets.NewHolder(domain.Credentials{APIKey: cfg.APIKey, EngineID: cfg.EngineID})

	var reloader *scheduler.CredentialsReloader
	var reloadTrigger chan struct{}
	if cfg.SecretsFile != "" {
		loggerClient.Info("secrets file configured, initializing credentials reloader",
			logger.String("file", cfg.SecretsFile))
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewCredentialsReloader(
			cfg.SecretsFile,
			holder,
			m,
			loggerClient,
			cfg.SecretsReloadInterval,
			reloadTrigger,
		)
	} else if err := holder.Credentials().Validate(); err != nil {
		loggerClient.Warn("no search credentials configured, searches will be refused",
			logger.Error(err))
	}

	svc := audit.New(audit.Config{
		Store:         store,
		Credentials:   holder,
		Prober:        probe.New(probe.WithTimeout(cfg.ProbeTimeout)),
		Metrics:       m,
		Logger:        loggerClient,
		SearchBaseURL: cfg.SearchBaseURL,
		PageDelay:     cfg.PageDelay,
		SessionTTL:    cfg.SessionTTL,
		ProbeLockTTL:  cfg.RequestTimeout + cfg.ProbeTimeout,
	})

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		Audit:              svc,
		Sessions:           store,
		SessionBackend:     backend,
		Credentials:        holder,
		SecretsFile:        cfg.SecretsFile,
		RedisClient:        redisClient,
		Metrics:            m,
		DefaultCount:       cfg.DefaultCount,
		SearchBurst:        cfg.SearchBurst,
		SearchRefillPerMin: cfg.SearchRefillPerMin,
		ReloadTrigger:      reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		reloader:    reloader,
		sweeper:     sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting linkaudit v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start credentials reloader (loads the secrets file and starts periodic refresh)
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start credentials reloader: %w", err)
		}
		a.logger.Info("credentials reloader started",
			logger.Duration("interval", a.cfg.SecretsReloadInterval))
	}

	// Start session sweeper (in-memory sessions only)
	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start session sweeper: %w", err)
		}
		a.logger.Info("session sweeper started",
			logger.Duration("interval", a.cfg.GCInterval),
			logger.Duration("session_ttl", a.cfg.SessionTTL))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	_ = a.logger.Sync()
	a.logger.Info("✅ linkaudit stopped cleanly")
	return nil
}
