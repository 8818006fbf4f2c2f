package app

import (
	apphttp "github.com/rameshiCode/aindependent-backend/internal/http"
	httpH "github.com/rameshiCode/aindependent-backend/internal/http/handlers"
	httpMW "github.com/rameshiCode/aindependent-backend/internal/http/middleware"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, s Services) *apphttp.Server {
	log.Info("Wiring handlers and router...")
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    otelServiceName(cfg),
		AllowedOrigins: cfg.AllowedOrigins,
		MetricsEnabled: cfg.MetricsEnabled,

		AuthHandler:         httpH.NewAuthHandler(s.Auth),
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, s.Auth),
		UserHandler:         httpH.NewUserHandler(s.User),
		ProfileHandler:      httpH.NewProfileHandler(s.Profile),
		GoalHandler:         httpH.NewGoalHandler(s.Goal),
		ChatHandler:         httpH.NewChatHandler(s.Chat),
		NotificationHandler: httpH.NewNotificationHandler(s.Notification),

		HealthHandler: httpH.NewHealthHandler(),
	})
}

// otelServiceName is empty when tracing is off so the router skips otelgin.
func otelServiceName(cfg Config) string {
	if !cfg.Otel.Enabled {
		return ""
	}
	return cfg.ServiceName
}
