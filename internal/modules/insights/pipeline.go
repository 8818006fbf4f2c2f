package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// UserScheduler runs a scheduling pass for one user.
type UserScheduler interface {
	ScheduleUser(ctx context.Context, userID uuid.UUID) error
}

type PipelineDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Profiles repos.ProfileRepo
	Insights repos.InsightRepo
	Goals    repos.GoalRepo
	Messages repos.MessageRepo

	Extractor *Extractor
	Risk      *RiskAssessor
	// Scheduler is optional; when nil no scheduling pass follows extraction.
	Scheduler UserScheduler
	Location  *time.Location
	Clock     func() time.Time
}

type ApplyInput struct {
	UserID         uuid.UUID
	ConversationID uuid.UUID
	// Finalize runs first inside the write transaction; an error rolls back
	// every insight, goal and profile change.
	Finalize func(dbc dbctx.Context) error
}

type ApplyResult struct {
	Insights        []*types.Insight
	Goals           []*types.Goal
	RelapseDetected bool
	RiskScore       int
	Scheduled       bool
}

// Pipeline turns an ended conversation into insights, goals and profile
// updates, then reschedules the user's notifications.
type Pipeline struct {
	deps PipelineDeps
	log  *logger.Logger
}

func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.DB == nil || deps.Log == nil {
		return nil, fmt.Errorf("insights pipeline: db and logger required")
	}
	if deps.Profiles == nil || deps.Insights == nil || deps.Goals == nil || deps.Messages == nil {
		return nil, fmt.Errorf("insights pipeline: repos required")
	}
	if deps.Extractor == nil {
		deps.Extractor = NewExtractor(nil)
	}
	if deps.Risk == nil {
		deps.Risk = NewRiskAssessor()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Pipeline{deps: deps, log: deps.Log.With("component", "InsightPipeline")}, nil
}

func (p *Pipeline) Apply(ctx context.Context, in ApplyInput) (ApplyResult, error) {
	var res ApplyResult
	now := p.deps.Clock()

	msgs, err := p.deps.Messages.ListByConversation(dbctx.Context{Ctx: ctx}, in.ConversationID, 0)
	if err != nil {
		return res, fmt.Errorf("load messages: %w", err)
	}
	extraction := p.deps.Extractor.Extract(msgs, now, p.deps.Location)
	res.RelapseDetected = extraction.RelapseDetected

	err = p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if in.Finalize != nil {
			if err := in.Finalize(dbc); err != nil {
				return err
			}
		}
		profile, err := p.deps.Profiles.GetOrCreate(dbc, in.UserID, now)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile.RefreshAbstinence(now)

		convID := in.ConversationID
		rows := make([]*types.Insight, 0, len(extraction.Insights))
		for _, d := range extraction.Insights {
			rows = append(rows, &types.Insight{
				UserID:                in.UserID,
				ProfileID:             profile.ID,
				ConversationID:        &convID,
				Type:                  d.Type,
				Value:                 d.Value,
				DayOfWeek:             d.DayOfWeek,
				TimeOfDay:             d.TimeOfDay,
				EmotionalSignificance: d.EmotionalSignificance,
				Confidence:            d.Confidence,
				ExtractedAt:           now.UTC(),
			})
		}
		if res.Insights, err = p.deps.Insights.Create(dbc, rows); err != nil {
			return fmt.Errorf("save insights: %w", err)
		}

		goals := make([]*types.Goal, 0, len(extraction.Goals))
		for _, g := range extraction.Goals {
			goals = append(goals, &types.Goal{
				UserID:         in.UserID,
				ConversationID: &convID,
				Description:    g.Description,
				TargetDate:     g.TargetDate,
				Status:         recovery.GoalActive,
			})
		}
		if res.Goals, err = p.deps.Goals.Create(dbc, goals); err != nil {
			return fmt.Errorf("save goals: %w", err)
		}

		applyExtraction(profile, extraction, now)

		recent, err := p.deps.Insights.ListSince(dbc, in.UserID, now.Add(-RiskWindow))
		if err != nil {
			return fmt.Errorf("load recent insights: %w", err)
		}
		score := p.deps.Risk.Score(RiskInput{
			Profile:       profile,
			Insights:      recent,
			RecentRelapse: extraction.RelapseDetected,
			Now:           now,
			Location:      p.deps.Location,
		})
		profile.RelapseRiskScore = &score
		profile.LastUpdated = now.UTC()
		res.RiskScore = score
		return p.deps.Profiles.Save(dbc, profile)
	})
	if err != nil {
		return res, err
	}

	for _, ins := range res.Insights {
		observability.IncInsightExtracted(ins.Type)
	}
	p.log.Info("Conversation insights applied",
		"user_id", in.UserID,
		"conversation_id", in.ConversationID,
		"insights", len(res.Insights),
		"goals", len(res.Goals),
		"relapse", res.RelapseDetected,
		"risk_score", res.RiskScore,
	)

	if p.deps.Scheduler != nil {
		if err := p.deps.Scheduler.ScheduleUser(ctx, in.UserID); err != nil {
			p.log.Warn("Scheduling after extraction failed", "user_id", in.UserID, "error", err)
		} else {
			res.Scheduled = true
		}
	}
	return res, nil
}

func applyExtraction(profile *recovery.Profile, x Extraction, now time.Time) {
	if x.MotivationLevel != nil {
		profile.MotivationLevel = recovery.ClampMotivation(*x.MotivationLevel)
	}
	switch {
	case x.RelapseDetected:
		profile.RecordRelapse(now)
		return
	case x.AbstinenceDays != nil && profile.AbstinenceStartDate == nil:
		start := now.UTC().AddDate(0, 0, -*x.AbstinenceDays)
		profile.AbstinenceStartDate = &start
		profile.RefreshAbstinence(now)
	}
	profile.RecoveryStage = profile.ProgressedStage()
}
