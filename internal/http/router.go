package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/rameshiCode/aindependent-backend/internal/http/handlers"
	httpMW "github.com/rameshiCode/aindependent-backend/internal/http/middleware"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	MetricsEnabled bool

	AuthHandler         *httpH.AuthHandler
	AuthMiddleware      *httpMW.AuthMiddleware
	UserHandler         *httpH.UserHandler
	ProfileHandler      *httpH.ProfileHandler
	GoalHandler         *httpH.GoalHandler
	ChatHandler         *httpH.ChatHandler
	NotificationHandler *httpH.NotificationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))
	if cfg.MetricsEnabled {
		r.Use(httpMW.Metrics())
		r.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Profile
		if cfg.ProfileHandler != nil {
			protected.GET("/profile", cfg.ProfileHandler.GetProfile)
			protected.GET("/profile/attributes/:name", cfg.ProfileHandler.GetAttribute)
			protected.PUT("/profile/attributes/:name", cfg.ProfileHandler.SetAttribute)
			protected.POST("/profile/relapse", cfg.ProfileHandler.RecordRelapse)
			protected.GET("/insights", cfg.ProfileHandler.ListInsights)
		}

		// Goals
		if cfg.GoalHandler != nil {
			protected.GET("/goals", cfg.GoalHandler.List)
			protected.POST("/goals", cfg.GoalHandler.Create)
			protected.PATCH("/goals/:id", cfg.GoalHandler.UpdateStatus)
		}

		// Conversations
		if cfg.ChatHandler != nil {
			protected.POST("/conversations", cfg.ChatHandler.Start)
			protected.POST("/conversations/:id/messages", cfg.ChatHandler.Send)
			protected.POST("/conversations/:id/end", cfg.ChatHandler.End)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.POST("/notifications/schedule", cfg.NotificationHandler.ScheduleNow)
			protected.POST("/notifications/:id/open", cfg.NotificationHandler.Open)
			protected.POST("/notifications/:id/dismiss", cfg.NotificationHandler.Dismiss)
		}
	}

	return r
}
