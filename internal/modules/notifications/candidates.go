package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

const (
	RiskCriticalThreshold = 80
	RiskHighThreshold     = 60
	// GoalDeadlineWindowDays is the furthest target date, in calendar days,
	// that produces a deadline reminder.
	GoalDeadlineWindowDays = 2
	// ApproachingMilestoneDays is how close the next milestone must be.
	ApproachingMilestoneDays = 2
	// PendingReminderTTL bounds how old an unsent reminder can be and still
	// suppress a new one for the same goal.
	PendingReminderTTL = 24 * time.Hour
)

var priorities = map[notification.Kind]int{
	notification.KindRelapseRiskCritical:  10,
	notification.KindRelapseRiskHigh:      9,
	notification.KindAbstinenceMilestone:  8,
	notification.KindHighRiskTime:         7,
	notification.KindApproachingMilestone: 7,
	notification.KindGoalDeadline:         6,
	notification.KindMotivationBoost:      5,
	notification.KindCopingStrategy:       4,
	notification.KindCheckIn:              3,
}

// PriorityOf returns the fixed priority of a kind.
func PriorityOf(k notification.Kind) int { return priorities[k] }

// Milestones are the celebrated abstinence day counts, ascending.
var Milestones = []int{1, 3, 7, 14, 30, 60, 90, 180, 365}

type Candidate struct {
	Kind            notification.Kind
	Priority        int
	RelatedEntityID *uuid.UUID
	Metadata        map[string]any
}

// PendingLookup reports existing unsent notifications for an entity.
type PendingLookup interface {
	HasUnsentForEntity(dbc dbctx.Context, userID, entityID uuid.UUID, kind notification.Kind, notBefore time.Time) (bool, error)
}

type GenerateInput struct {
	UserID  uuid.UUID
	Profile *recovery.Profile
	// Insights are expected in significance order.
	Insights []*recovery.Insight
	Goals    []*recovery.Goal
	Now      time.Time
}

type Generator struct {
	pending PendingLookup
	loc     *time.Location
	log     *logger.Logger
}

func NewGenerator(log *logger.Logger, pending PendingLookup, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{pending: pending, loc: loc, log: log.With("component", "CandidateGenerator")}
}

// Generate applies every rule in precedence order. All firing rules produce a
// candidate; selection is left to the scheduler.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) ([]Candidate, error) {
	if in.Profile == nil {
		return nil, fmt.Errorf("generate candidates: profile required")
	}
	now := in.Now.In(g.loc)
	var out []Candidate

	out = append(out, riskCandidates(in.Profile)...)
	out = append(out, temporalCandidates(in.Insights, now)...)

	goals, err := g.goalCandidates(ctx, in.UserID, in.Goals, in.Now)
	if err != nil {
		return nil, err
	}
	out = append(out, goals...)
	if in.Profile.AbstinenceStartDate != nil || in.Profile.AbstinenceDays > 0 {
		out = append(out, milestoneCandidates(in.Profile.AbstinenceDays)...)
	}
	out = append(out, supportCandidates(in.Profile, in.Insights)...)
	return out, nil
}

func newCandidate(kind notification.Kind, meta map[string]any) Candidate {
	if meta == nil {
		meta = map[string]any{}
	}
	return Candidate{Kind: kind, Priority: PriorityOf(kind), Metadata: meta}
}

func riskCandidates(p *recovery.Profile) []Candidate {
	score, ok := p.RiskScore()
	if !ok {
		return nil
	}
	meta := map[string]any{notification.MetaRiskScore: score}
	switch {
	case score >= RiskCriticalThreshold:
		return []Candidate{newCandidate(notification.KindRelapseRiskCritical, meta)}
	case score >= RiskHighThreshold:
		return []Candidate{newCandidate(notification.KindRelapseRiskHigh, meta)}
	}
	return nil
}

func temporalCandidates(insights []*recovery.Insight, now time.Time) []Candidate {
	var out []Candidate
	for _, ins := range insights {
		if ins == nil || ins.Type != recovery.InsightTriggerTemporal || !ins.MatchesWeekday(now.Weekday()) {
			continue
		}
		hour, ok := recovery.HourForTimeOfDay(ins.TimeOfDay)
		if !ok || hour <= now.Hour() {
			continue
		}
		id := ins.ID
		c := newCandidate(notification.KindHighRiskTime, map[string]any{
			notification.MetaHighRiskPeriod: ins.TimeOfDay,
			notification.MetaInsightValue:   ins.Value,
		})
		c.RelatedEntityID = &id
		out = append(out, c)
	}
	return out
}

func (g *Generator) goalCandidates(ctx context.Context, userID uuid.UUID, goals []*recovery.Goal, now time.Time) ([]Candidate, error) {
	var out []Candidate
	for _, goal := range goals {
		if goal == nil || goal.Status != recovery.GoalActive {
			continue
		}
		days, ok := goal.DaysUntil(now, g.loc)
		if !ok || days < 0 || days > GoalDeadlineWindowDays {
			continue
		}
		if g.pending != nil {
			exists, err := g.pending.HasUnsentForEntity(dbctx.Context{Ctx: ctx}, userID, goal.ID, notification.KindGoalDeadline, now.Add(-PendingReminderTTL))
			if err != nil {
				return nil, fmt.Errorf("check pending goal reminder: %w", err)
			}
			if exists {
				g.log.Debug("Goal reminder already pending", "user_id", userID, "goal_id", goal.ID)
				continue
			}
		}
		id := goal.ID
		c := newCandidate(notification.KindGoalDeadline, map[string]any{
			notification.MetaDaysToGo:        days,
			notification.MetaGoalDescription: goal.Description,
		})
		c.RelatedEntityID = &id
		out = append(out, c)
	}
	return out, nil
}

func milestoneCandidates(days int) []Candidate {
	var out []Candidate
	for _, m := range Milestones {
		if m == days {
			out = append(out, newCandidate(notification.KindAbstinenceMilestone, map[string]any{
				notification.MetaMilestone: m,
			}))
			break
		}
	}
	for _, m := range Milestones {
		if m <= days {
			continue
		}
		if m-days <= ApproachingMilestoneDays {
			out = append(out, newCandidate(notification.KindApproachingMilestone, map[string]any{
				notification.MetaApproachingMilestone: m,
				notification.MetaDaysToGo:             m - days,
			}))
		}
		break
	}
	return out
}

func supportCandidates(p *recovery.Profile, insights []*recovery.Insight) []Candidate {
	var out []Candidate
	if p.MotivationLevel < recovery.DefaultMotivation {
		meta := map[string]any{}
		if top := topInsight(insights, recovery.InsightMotivation); top != nil {
			meta[notification.MetaInsightValue] = top.Value
		}
		out = append(out, newCandidate(notification.KindMotivationBoost, meta))
	}
	if top := topInsight(insights, recovery.InsightCopingStrategy); top != nil {
		c := newCandidate(notification.KindCopingStrategy, map[string]any{
			notification.MetaInsightValue: top.Value,
		})
		id := top.ID
		c.RelatedEntityID = &id
		out = append(out, c)
	}
	return append(out, newCandidate(notification.KindCheckIn, nil))
}

// topInsight returns the most emotionally significant insight of typ, keeping
// the earliest on ties.
func topInsight(insights []*recovery.Insight, typ string) *recovery.Insight {
	var best *recovery.Insight
	for _, ins := range insights {
		if ins == nil || ins.Type != typ {
			continue
		}
		if best == nil || ins.EmotionalSignificance > best.EmotionalSignificance {
			best = ins
		}
	}
	return best
}
