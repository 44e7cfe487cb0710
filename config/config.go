package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	AppName     string `env:"APP_NAME" envDefault:"UpTask"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173" validate:"required,url"`

	DatabaseURL      string        `env:"DATABASE_URL,required" validate:"required"`
	DBMaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1,max=200"`
	DBMinConns       int32         `env:"DB_MIN_CONNS" envDefault:"1" validate:"min=0,ltefield=DBMaxConns"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	JWTSecret       string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	AccessTTL       time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTLShort time.Duration `env:"REFRESH_TTL_SHORT" envDefault:"24h"`
	RefreshTTLLong  time.Duration `env:"REFRESH_TTL_LONG" envDefault:"720h"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`

	HashMemoryMB    uint32 `env:"HASH_MEMORY_MB" envDefault:"64" validate:"min=8"`
	HashTime        uint32 `env:"HASH_TIME" envDefault:"3" validate:"min=1"`
	HashParallelism uint8  `env:"HASH_PARALLELISM" envDefault:"2" validate:"min=1"`

	MailDriver   string        `env:"MAIL_DRIVER" envDefault:"log" validate:"oneof=log resend smtp amqp"`
	MailFrom     string        `env:"MAIL_FROM" envDefault:"UpTask <no-reply@uptask.local>"`
	MailTimeout  time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
	ResendAPIKey string        `env:"RESEND_API_KEY" validate:"required_if=MailDriver resend,required_if=MailerDriver resend"`
	SMTPHost     string        `env:"SMTP_HOST" validate:"required_if=MailDriver smtp,required_if=MailerDriver smtp"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	AMQPURL      string        `env:"AMQP_URL" validate:"required_if=MailDriver amqp"`
	MailQueue    string        `env:"MAIL_QUEUE" envDefault:"uptask.mail"`
	// MailerDriver is the backend cmd/mailer delivers queued mail with.
	MailerDriver string `env:"MAILER_DRIVER" envDefault:"log" validate:"oneof=log resend smtp"`

	RedisURL        string        `env:"REDIS_URL"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"10" validate:"min=1"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	SweepSchedule  string `env:"SWEEP_SCHEDULE" envDefault:"@every 10m" validate:"required"`
	SweepBatchSize int    `env:"SWEEP_BATCH_SIZE" envDefault:"500" validate:"min=1,max=10000"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.AccessTTL <= 0 || cfg.AccessTTL >= cfg.RefreshTTLShort || cfg.RefreshTTLShort > cfg.RefreshTTLLong {
		return nil, fmt.Errorf("invalid config: need 0 < ACCESS_TTL < REFRESH_TTL_SHORT <= REFRESH_TTL_LONG")
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
