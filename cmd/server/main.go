package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/uptask-api/config"
	"github.com/ErlanBelekov/uptask-api/internal/email"
	"github.com/ErlanBelekov/uptask-api/internal/health"
	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/rabbitmq"
	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/uptask-api/internal/log"
	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/ErlanBelekov/uptask-api/internal/password"
	"github.com/ErlanBelekov/uptask-api/internal/session"
	httptransport "github.com/ErlanBelekov/uptask-api/internal/transport/http"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns:       cfg.DBMaxConns,
		MinConns:       cfg.DBMinConns,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	deps := map[string]health.Pinger{"postgres": pool}

	// Rate limiting is optional; without REDIS_URL the code-issuing
	// endpoints are unlimited.
	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		limiter = redis.NewLimiter(rdb, "uptask:ratelimit", cfg.RateLimit, cfg.RateLimitWindow)
		deps["redis"] = redis.Pinger{Client: rdb}
	}

	var pub email.Publisher
	if cfg.MailDriver == "amqp" {
		mq, err := rabbitmq.New(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			stop()
			log.Fatalf("rabbitmq: %v", err)
		}
		defer mq.Close()
		pub = mq
	}

	sender, err := email.NewSender(email.Config{
		Driver:       cfg.MailDriver,
		From:         cfg.MailFrom,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTP: email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		},
	}, pub, logger)
	if err != nil {
		stop()
		log.Fatalf("mail: %v", err)
	}
	dispatcher := email.NewDispatcher(sender, cfg.MailTimeout, logger)

	composer, err := email.NewComposer(cfg.AppName, cfg.FrontendURL, cfg.TokenTTL)
	if err != nil {
		stop()
		log.Fatalf("mail templates: %v", err)
	}

	hashCfg := password.DevelopmentConfig()
	if cfg.IsProduction() {
		hashCfg = password.ProductionConfig(cfg.HashMemoryMB, cfg.HashTime, cfg.HashParallelism)
	}
	hasher, err := password.New(hashCfg)
	if err != nil {
		stop()
		log.Fatalf("password hasher: %v", err)
	}

	issuer, err := session.NewIssuer(session.Config{
		Secret:          []byte(cfg.JWTSecret),
		AccessTTL:       cfg.AccessTTL,
		RefreshShortTTL: cfg.RefreshTTLShort,
		RefreshLongTTL:  cfg.RefreshTTLLong,
	})
	if err != nil {
		stop()
		log.Fatalf("session issuer: %v", err)
	}

	tx := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)

	// Auth
	authUsecase := usecase.NewAuthUsecase(usecase.AuthDeps{
		Users:    userRepo,
		Tokens:   tokenRepo,
		Tx:       tx,
		Hasher:   hasher,
		Sessions: issuer,
		Mail:     composer,
	}, cfg.TokenTTL, logger)

	// Projects, team, tasks, notes
	handlers := httptransport.Handlers{
		Auth: handler.NewAuthHandler(authUsecase, dispatcher, handler.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		}, logger),
		Project: handler.NewProjectHandler(usecase.NewProjectUsecase(projectRepo, tx), logger),
		Team:    handler.NewTeamHandler(usecase.NewTeamUsecase(userRepo, projectRepo), logger),
		Task:    handler.NewTaskHandler(usecase.NewTaskUsecase(taskRepo, tx), logger),
		Note:    handler.NewNoteHandler(usecase.NewNoteUsecase(noteRepo), logger),
	}

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(httptransport.RouterConfig{
			Logger:         logger,
			Verifier:       issuer,
			Guard:          middleware.NewGuard(projectRepo, taskRepo, noteRepo, logger),
			Limiter:        limiter,
			RequestTimeout: cfg.RequestTimeout,
		}, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "mail_driver", cfg.MailDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Error("mail dispatcher drain", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
