package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// Scheduling outcomes, also used as metric labels.
const (
	OutcomeScheduled = "scheduled"
	OutcomeCapped    = "capped"
	OutcomeNoProfile = "no_profile"
	OutcomeError     = "error"
	OutcomeLocked    = "locked"
)

const schedulerInsightLimit = 50

type SchedulerConfig struct {
	DailyCap  int
	WeeklyCap int
	// UrgentPriority and above are placed UrgentDelay from now.
	UrgentPriority int
	UrgentDelay    time.Duration
	Location       *time.Location
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DailyCap:       3,
		WeeklyCap:      12,
		UrgentPriority: 8,
		UrgentDelay:    30 * time.Minute,
		Location:       time.UTC,
	}
}

type ScheduleResult struct {
	Outcome    string
	TodayCount int
	WeekCount  int
	Candidates []Candidate
	Scheduled  []*types.ScheduledNotification
	// Discarded candidates are not kept; a later run regenerates them.
	Discarded []Candidate
}

type SchedulerDeps struct {
	Log       *logger.Logger
	Profiles  repos.ProfileRepo
	Insights  repos.InsightRepo
	Goals     repos.GoalRepo
	Scheduled repos.ScheduledNotificationRepo
	Analyzer  *EngagementAnalyzer
	Generator *Generator
	Content   *ContentBank
	Clock     func() time.Time
}

type Scheduler struct {
	deps SchedulerDeps
	cfg  SchedulerConfig
	log  *logger.Logger
}

func NewScheduler(deps SchedulerDeps, cfg SchedulerConfig) (*Scheduler, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("scheduler: logger required")
	}
	if deps.Profiles == nil || deps.Insights == nil || deps.Goals == nil || deps.Scheduled == nil {
		return nil, fmt.Errorf("scheduler: repos required")
	}
	if deps.Analyzer == nil || deps.Generator == nil {
		return nil, fmt.Errorf("scheduler: analyzer and generator required")
	}
	if deps.Content == nil {
		deps.Content = DefaultContentBank()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	def := DefaultSchedulerConfig()
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = def.DailyCap
	}
	if cfg.WeeklyCap <= 0 {
		cfg.WeeklyCap = def.WeeklyCap
	}
	if cfg.UrgentPriority <= 0 {
		cfg.UrgentPriority = def.UrgentPriority
	}
	if cfg.UrgentDelay <= 0 {
		cfg.UrgentDelay = def.UrgentDelay
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &Scheduler{deps: deps, cfg: cfg, log: deps.Log.With("component", "NotificationScheduler")}, nil
}

// Schedule runs one scheduling pass for a user. A missing profile is not an
// error.
func (s *Scheduler) Schedule(ctx context.Context, userID uuid.UUID) (ScheduleResult, error) {
	res, err := s.schedule(ctx, userID)
	if err != nil {
		res.Outcome = OutcomeError
	}
	observability.IncSchedulingRun(res.Outcome)
	return res, err
}

func (s *Scheduler) schedule(ctx context.Context, userID uuid.UUID) (ScheduleResult, error) {
	var res ScheduleResult
	now := s.deps.Clock()
	dbc := dbctx.Context{Ctx: ctx}

	profile, err := s.deps.Profiles.GetByUserID(dbc, userID)
	if err != nil {
		return res, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		s.log.Info("No recovery profile, skipping scheduling", "user_id", userID)
		res.Outcome = OutcomeNoProfile
		return res, nil
	}
	profile.RefreshAbstinence(now)

	dayStart, dayEnd := dayBounds(now, s.cfg.Location)
	weekStart, weekEnd := weekBounds(now, s.cfg.Location)
	today, err := s.deps.Scheduled.CountUnsentBetween(dbc, userID, dayStart, dayEnd)
	if err != nil {
		return res, fmt.Errorf("count today: %w", err)
	}
	week, err := s.deps.Scheduled.CountUnsentBetween(dbc, userID, weekStart, weekEnd)
	if err != nil {
		return res, fmt.Errorf("count week: %w", err)
	}
	res.TodayCount, res.WeekCount = int(today), int(week)
	if res.TodayCount >= s.cfg.DailyCap || res.WeekCount >= s.cfg.WeeklyCap {
		s.log.Debug("Notification cap reached", "user_id", userID, "today", today, "week", week)
		res.Outcome = OutcomeCapped
		return res, nil
	}
	remaining := s.cfg.DailyCap - res.TodayCount
	if weekLeft := s.cfg.WeeklyCap - res.WeekCount; weekLeft < remaining {
		remaining = weekLeft
	}

	insights, err := s.deps.Insights.ListForUser(dbc, userID, nil, schedulerInsightLimit)
	if err != nil {
		return res, fmt.Errorf("load insights: %w", err)
	}
	goals, err := s.deps.Goals.ListActive(dbc, userID)
	if err != nil {
		return res, fmt.Errorf("load goals: %w", err)
	}
	candidates, err := s.deps.Generator.Generate(ctx, GenerateInput{
		UserID:   userID,
		Profile:  profile,
		Insights: insights,
		Goals:    goals,
		Now:      now,
	})
	if err != nil {
		return res, err
	}
	res.Candidates = candidates

	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Priority > ranked[j].Priority })
	selected := ranked
	if len(ranked) > remaining {
		selected, res.Discarded = ranked[:remaining], ranked[remaining:]
	}

	engagement, err := s.deps.Analyzer.Analyze(ctx, userID)
	if err != nil {
		s.log.Warn("Engagement analysis failed, using defaults", "user_id", userID, "error", err)
		engagement = DefaultEngagementProfile()
	}

	times := Place(selected, engagement.OptimalHours, now, s.cfg)
	rows := make([]*types.ScheduledNotification, 0, len(selected))
	for i, c := range selected {
		row, err := s.toRow(userID, c, times[i])
		if err != nil {
			return res, err
		}
		rows = append(rows, row)
	}
	if res.Scheduled, err = s.deps.Scheduled.CreateBatch(dbc, rows); err != nil {
		return res, fmt.Errorf("persist scheduled notifications: %w", err)
	}

	for _, c := range selected {
		observability.IncCandidate(string(c.Kind), true)
	}
	for _, c := range res.Discarded {
		observability.IncCandidate(string(c.Kind), false)
	}
	res.Outcome = OutcomeScheduled
	s.log.Info("Scheduled notifications",
		"user_id", userID,
		"candidates", len(candidates),
		"scheduled", len(res.Scheduled),
		"discarded", len(res.Discarded),
	)
	return res, nil
}

func (s *Scheduler) toRow(userID uuid.UUID, c Candidate, at time.Time) (*types.ScheduledNotification, error) {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata for %s: %w", c.Kind, err)
	}
	generic := s.deps.Content.Generic(c.Kind)
	return &types.ScheduledNotification{
		UserID:          userID,
		Kind:            c.Kind,
		Title:           generic.Title,
		Body:            generic.Body,
		TemplateKey:     string(c.Kind),
		ScheduledFor:    at.UTC(),
		RelatedEntityID: c.RelatedEntityID,
		Priority:        c.Priority,
		Metadata:        datatypes.JSON(meta),
	}, nil
}

// Place assigns a send time to each selected candidate. Urgent ones go out
// after cfg.UrgentDelay; the rest cycle through the optimal hours, landing
// today if the hour is still ahead, otherwise tomorrow.
func Place(selected []Candidate, hours []int, now time.Time, cfg SchedulerConfig) []time.Time {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if len(hours) == 0 {
		hours = defaultHours
	}
	local := now.In(loc)
	out := make([]time.Time, len(selected))
	next := 0
	for i, c := range selected {
		if c.Priority >= cfg.UrgentPriority {
			out[i] = now.Add(cfg.UrgentDelay)
			continue
		}
		hour := hours[next%len(hours)]
		next++
		at := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
		if !at.After(local) {
			at = at.AddDate(0, 0, 1)
		}
		out[i] = at
	}
	return out
}

func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// weekBounds returns the Monday-based week containing now.
func weekBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	start, _ := dayBounds(now, loc)
	offset := (int(start.Weekday()) + 6) % 7
	start = start.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
