// mailer drains the mail queue filled by the API (MAIL_DRIVER=amqp) and
// delivers each message through MAILER_DRIVER.
package main

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/rabbitmq"
	ctxlog "github.com/ErlanBelekov/uptask-api/internal/log"
	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

const prefetch = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatalf("config: AMQP_URL is required for the mailer")
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mq, err := rabbitmq.New(cfg.AMQPURL, cfg.MailQueue)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer mq.Close()

	sender, err := email.NewSender(email.Config{
		Driver:       cfg.MailerDriver,
		From:         cfg.MailFrom,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTP: email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		},
	}, nil, logger)
	if err != nil {
		log.Fatalf("mail: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(map[string]health.Pinger{}, logger, prometheus.DefaultRegisterer)
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	logger.Info("mailer started", "queue", cfg.MailQueue, "driver", cfg.MailerDriver)
	if err := mq.Consume(ctx, "uptask-mailer", prefetch, deliver(sender, cfg.MailTimeout, logger)); err != nil {
		logger.Error("consume", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

// deliver returns the queue handler. Undecodable bodies and failed sends are
// nacked without requeue; the API never retries mail either.
func deliver(sender email.Sender, timeout time.Duration, logger *slog.Logger) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		msg, err := email.Decode(body)
		if err != nil {
			metrics.MailerConsumedTotal.WithLabelValues("malformed").Inc()
			logger.WarnContext(ctx, "dropping malformed mail message", "error", err)
			return err
		}

		sendCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := sender.Send(sendCtx, msg); err != nil {
			metrics.MailerConsumedTotal.WithLabelValues("failed").Inc()
			logger.ErrorContext(ctx, "deliver mail", "kind", msg.Kind, "error", err)
			return fmt.Errorf("send %s: %w", msg.Kind, err)
		}

		metrics.MailerConsumedTotal.WithLabelValues("sent").Inc()
		return nil
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
