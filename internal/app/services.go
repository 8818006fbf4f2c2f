package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/jobs/sweeps"
	"github.com/rameshiCode/aindependent-backend/internal/modules/insights"
	"github.com/rameshiCode/aindependent-backend/internal/modules/notifications"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/services"
)

// Modules are the domain engines shared by services, sweeps and the CLI.
type Modules struct {
	Risk      *insights.RiskAssessor
	Pipeline  *insights.Pipeline
	Scheduler *notifications.Scheduler
	Runner    *notifications.Runner
	Deliverer *notifications.Deliverer
	Sweeps    *sweeps.Service
}

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Profile      services.ProfileService
	Goal         services.GoalService
	Chat         services.ChatService
	Notification services.NotificationService
}

func wireModules(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Modules, error) {
	log.Info("Wiring modules...")
	loc := cfg.Notify.Location

	scheduler, err := notifications.NewScheduler(notifications.SchedulerDeps{
		Log:       log,
		Profiles:  r.Profile,
		Insights:  r.Insight,
		Goals:     r.Goal,
		Scheduled: r.Scheduled,
		Analyzer:  notifications.NewEngagementAnalyzer(log, r.Engagement, loc),
		Generator: notifications.NewGenerator(log, r.Scheduled, loc),
		Content:   c.Content,
	}, cfg.Notify)
	if err != nil {
		return Modules{}, fmt.Errorf("init scheduler: %w", err)
	}

	var locker notifications.Locker
	pusher := notifications.Pusher(notifications.NewLogPusher(log))
	if c.Redis != nil {
		locker = c.Redis
		pusher = notifications.MultiPusher{pusher, notifications.NewPubSubPusher(c.Redis)}
	}
	runner := notifications.NewRunner(log, scheduler, locker)

	risk := insights.NewRiskAssessor()
	pipeline, err := insights.NewPipeline(insights.PipelineDeps{
		DB:        db,
		Log:       log,
		Profiles:  r.Profile,
		Insights:  r.Insight,
		Goals:     r.Goal,
		Messages:  r.Message,
		Extractor: insights.NewExtractor(nil),
		Risk:      risk,
		Scheduler: runner,
		Location:  loc,
	})
	if err != nil {
		return Modules{}, fmt.Errorf("init insight pipeline: %w", err)
	}

	deliverer, err := notifications.NewDeliverer(notifications.DelivererDeps{
		DB:                db,
		Log:               log,
		Scheduled:         r.Scheduled,
		UserNotifications: r.Inbox,
		Profiles:          r.Profile,
		Insights:          r.Insight,
		Goals:             r.Goal,
		Renderer:          notifications.NewRenderer(log, c.Content, c.LLM),
		Pusher:            pusher,
		BatchSize:         cfg.DeliveryBatch,
	})
	if err != nil {
		return Modules{}, fmt.Errorf("init deliverer: %w", err)
	}

	sw, err := sweeps.New(sweeps.Deps{
		DB:        db,
		Log:       log,
		Profiles:  r.Profile,
		Insights:  r.Insight,
		Risk:      risk,
		Runner:    runner,
		Deliverer: deliverer,
	}, cfg.Sweeps)
	if err != nil {
		return Modules{}, fmt.Errorf("init sweeps: %w", err)
	}

	return Modules{
		Risk:      risk,
		Pipeline:  pipeline,
		Scheduler: scheduler,
		Runner:    runner,
		Deliverer: deliverer,
		Sweeps:    sw,
	}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, m Modules) Services {
	log.Info("Wiring services...")
	return Services{
		Auth: services.NewAuthService(db, log, r.User, r.UserToken, services.AuthConfig{
			JWTSecretKey: cfg.JWTSecretKey,
			AccessTTL:    cfg.AccessTokenTTL,
		}),
		User:         services.NewUserService(log, r.User),
		Profile:      services.NewProfileService(db, log, r.Profile, r.Insight, m.Risk, cfg.Notify.Location),
		Goal:         services.NewGoalService(log, r.Goal),
		Chat:         services.NewChatService(log, r.Conversation, r.Message, c.LLM, m.Pipeline),
		Notification: services.NewNotificationService(db, log, r.Inbox, r.Engagement, m.Runner),
	}
}
