package sweeps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/modules/insights"
	"github.com/rameshiCode/aindependent-backend/internal/modules/notifications"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

const (
	DefaultDeliverySpec   = "@every 15m"
	DefaultSchedulingSpec = "@every 1h"
	defaultPageSize       = 200

	sweepDelivery   = "delivery"
	sweepScheduling = "scheduling"
)

type Config struct {
	DeliverySpec   string
	SchedulingSpec string
	// PageSize bounds how many user ids one query returns.
	PageSize int
	Location *time.Location
}

type Deps struct {
	DB        *gorm.DB
	Log       *logger.Logger
	Profiles  repos.ProfileRepo
	Insights  repos.InsightRepo
	Risk      *insights.RiskAssessor
	Runner    *notifications.Runner
	Deliverer *notifications.Deliverer
	Clock     func() time.Time
}

type SchedulingReport struct {
	Users     int
	Rescored  int
	Scheduled int
	Failed    int
}

// Service runs the periodic delivery and scheduling sweeps.
type Service struct {
	deps Deps
	cfg  Config
	log  *logger.Logger

	mu     sync.Mutex
	cron   *rcron.Cron
	cancel context.CancelFunc
}

func New(deps Deps, cfg Config) (*Service, error) {
	if deps.DB == nil || deps.Log == nil {
		return nil, fmt.Errorf("sweeps: db and logger required")
	}
	if deps.Profiles == nil || deps.Insights == nil || deps.Runner == nil || deps.Deliverer == nil {
		return nil, fmt.Errorf("sweeps: repos, runner and deliverer required")
	}
	if deps.Risk == nil {
		deps.Risk = insights.NewRiskAssessor()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if cfg.DeliverySpec == "" {
		cfg.DeliverySpec = DefaultDeliverySpec
	}
	if cfg.SchedulingSpec == "" {
		cfg.SchedulingSpec = DefaultSchedulingSpec
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{deps: deps, cfg: cfg, log: deps.Log.With("component", "Sweeps")}, nil
}

// Start registers both sweeps. A sweep still running when its next tick fires
// is skipped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("sweeps already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{log: s.log}
	c := rcron.New(
		rcron.WithLocation(s.cfg.Location),
		rcron.WithLogger(cl),
		rcron.WithChain(rcron.Recover(cl), rcron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.cfg.DeliverySpec, func() { _, _ = s.RunDelivery(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register delivery sweep %q: %w", s.cfg.DeliverySpec, err)
	}
	if _, err := c.AddFunc(s.cfg.SchedulingSpec, func() { _, _ = s.RunScheduling(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register scheduling sweep %q: %w", s.cfg.SchedulingSpec, err)
	}
	c.Start()
	s.cron, s.cancel = c, cancel
	s.log.Info("Sweeps started", "delivery", s.cfg.DeliverySpec, "scheduling", s.cfg.SchedulingSpec)

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits up to five seconds for running sweeps.
func (s *Service) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	select {
	case <-c.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("Sweeps stop timed out waiting for running jobs")
	}
	s.log.Info("Sweeps stopped")
}

func (s *Service) RunDelivery(ctx context.Context) (notifications.DeliveryReport, error) {
	start := time.Now()
	report, err := s.deps.Deliverer.DeliverDue(ctx, s.deps.Clock())
	observability.ObserveSweep(sweepDelivery, status(err), time.Since(start))
	if err != nil {
		s.log.Error("Delivery sweep failed", "error", err)
	}
	return report, err
}

// RunScheduling rescores every profile and then runs a scheduling pass for
// its user. Per-user failures are counted, never fatal.
func (s *Service) RunScheduling(ctx context.Context) (SchedulingReport, error) {
	start := time.Now()
	report, err := s.runScheduling(ctx)
	observability.ObserveSweep(sweepScheduling, status(err), time.Since(start))
	if err != nil {
		s.log.Error("Scheduling sweep failed", "error", err)
		return report, err
	}
	s.log.Info("Scheduling sweep finished",
		"users", report.Users,
		"rescored", report.Rescored,
		"scheduled", report.Scheduled,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *Service) runScheduling(ctx context.Context) (SchedulingReport, error) {
	var report SchedulingReport
	for offset := 0; ; offset += s.cfg.PageSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := s.deps.Profiles.ListUserIDs(dbctx.Context{Ctx: ctx}, s.cfg.PageSize, offset)
		if err != nil {
			return report, fmt.Errorf("list profiles: %w", err)
		}
		for _, userID := range ids {
			report.Users++
			if err := s.Rescore(ctx, userID); err != nil {
				s.log.Warn("Risk rescore failed", "user_id", userID, "error", err)
			} else {
				report.Rescored++
			}
			res, err := s.deps.Runner.Run(ctx, userID)
			if err != nil {
				report.Failed++
				s.log.Warn("Scheduling failed", "user_id", userID, "error", err)
				continue
			}
			if res.Outcome == notifications.OutcomeScheduled {
				report.Scheduled++
			}
		}
		if len(ids) < s.cfg.PageSize {
			return report, nil
		}
	}
}

// Rescore refreshes the day count and relapse risk of one profile.
func (s *Service) Rescore(ctx context.Context, userID uuid.UUID) error {
	now := s.deps.Clock()
	return s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.deps.Profiles.GetByUserID(dbc, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if p == nil {
			return nil
		}
		p.RefreshAbstinence(now)
		recent, err := s.deps.Insights.ListSince(dbc, userID, now.Add(-insights.RiskWindow))
		if err != nil {
			return fmt.Errorf("load recent insights: %w", err)
		}
		score := s.deps.Risk.Score(insights.RiskInput{
			Profile:  p,
			Insights: recent,
			Now:      now,
			Location: s.cfg.Location,
		})
		p.RelapseRiskScore = &score
		return s.deps.Profiles.Save(dbc, p)
	})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
