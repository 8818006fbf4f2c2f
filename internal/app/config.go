package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	appdb "github.com/rameshiCode/aindependent-backend/internal/data/db"
	"github.com/rameshiCode/aindependent-backend/internal/jobs/sweeps"
	"github.com/rameshiCode/aindependent-backend/internal/modules/notifications"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/envutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
	"github.com/rameshiCode/aindependent-backend/internal/platform/redisx"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port           string
	ServiceName    string
	AllowedOrigins []string
	MetricsEnabled bool

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	DB     appdb.Config
	OpenAI openai.Config
	Redis  redisx.Config
	Otel   observability.OtelConfig

	Notify notifications.SchedulerConfig
	// ContentPath optionally replaces the embedded notification content bank.
	ContentPath   string
	DeliveryBatch int
	Sweeps        sweeps.Config
	SweepsEnabled bool
}

func LoadConfig(log *logger.Logger) (Config, error) {
	tzName := envutil.String("NOTIFY_TIMEZONE", "UTC", log)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("NOTIFY_TIMEZONE %q: %w", tzName, err)
	}

	notify := notifications.DefaultSchedulerConfig()
	notify.DailyCap = envutil.Int("NOTIFY_DAILY_CAP", notify.DailyCap, log)
	notify.WeeklyCap = envutil.Int("NOTIFY_WEEKLY_CAP", notify.WeeklyCap, log)
	notify.Location = loc

	serviceName := envutil.String("OTEL_SERVICE_NAME", "aindependent-backend", log)
	cfg := Config{
		Port:           envutil.String("PORT", "8080", log),
		ServiceName:    serviceName,
		AllowedOrigins: splitList(envutil.String("CORS_ORIGINS", "", log)),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret, nil),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour, log),

		DB: appdb.Config{
			Driver:           envutil.String("DB_DRIVER", appdb.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", nil),
			PostgresName:     envutil.String("POSTGRES_NAME", "aindependent", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "", log),
			LogQueries:       envutil.Bool("DB_LOG_QUERIES", false, log),
		},
		OpenAI: openai.ConfigFromEnv(log),
		Redis:  redisx.ConfigFromEnv(log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: serviceName,
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1, log),
		},

		Notify:        notify,
		ContentPath:   envutil.String("NOTIFY_CONTENT_PATH", "", log),
		DeliveryBatch: envutil.Int("DELIVERY_BATCH_SIZE", notifications.DefaultDeliveryBatch, log),
		Sweeps: sweeps.Config{
			DeliverySpec:   envutil.String("DELIVERY_CRON", sweeps.DefaultDeliverySpec, log),
			SchedulingSpec: envutil.String("SCHEDULING_CRON", sweeps.DefaultSchedulingSpec, log),
			Location:       loc,
		},
		SweepsEnabled: envutil.Bool("SWEEPS_ENABLED", true, log),
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
