package insights

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

// RiskWindow bounds how far back trigger and coping evidence counts.
const RiskWindow = 14 * 24 * time.Hour

type RiskInput struct {
	Profile *recovery.Profile
	// Insights should cover at least RiskWindow; older rows are ignored.
	Insights []*recovery.Insight
	// RecentRelapse forces the relapse weight. A Profile.LastRelapseAt
	// inside RiskWindow counts the same without it.
	RecentRelapse bool
	Now           time.Time
	Location      *time.Location
}

// RiskAssessor scores relapse risk on a 0..100 scale.
type RiskAssessor struct {
	base float64
}

func NewRiskAssessor() *RiskAssessor {
	return &RiskAssessor{base: 20}
}

func (a *RiskAssessor) Score(in RiskInput) int {
	if in.Profile == nil {
		return 0
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := in.Now
	score := a.base

	var triggerWeights []float64
	coping := 0
	temporalToday := false
	for _, ins := range in.Insights {
		if ins == nil {
			continue
		}
		age := now.Sub(ins.ExtractedAt)
		if age < 0 {
			age = 0
		}
		if age > RiskWindow {
			continue
		}
		switch ins.Type {
		case recovery.InsightTrigger, recovery.InsightTriggerTemporal:
			recency := 1 - float64(age)/float64(RiskWindow)
			triggerWeights = append(triggerWeights, ins.EmotionalSignificance*ins.Confidence*recency)
			if ins.Type == recovery.InsightTriggerTemporal && ins.MatchesWeekday(now.In(loc).Weekday()) {
				temporalToday = true
			}
		case recovery.InsightCopingStrategy:
			coping++
		}
	}

	if len(triggerWeights) > 0 {
		evidence, _ := stats.Sum(triggerWeights)
		score += math.Min(40, evidence*20)
	}
	if temporalToday {
		score += 10
	}

	switch m := in.Profile.MotivationLevel; {
	case m < recovery.DefaultMotivation:
		score += float64(recovery.DefaultMotivation-m) * 5
	case m >= 8:
		score -= 10
	}

	if in.Profile.AbstinenceStartDate != nil {
		switch days := in.Profile.AbstinenceDays; {
		case days < 7:
			score += 15
		case days < 30:
			score += 10
		case days < 90:
			score += 5
		}
	}
	if in.RecentRelapse || in.Profile.RelapsedWithin(now, RiskWindow) {
		score += 20
	}
	score -= math.Min(15, float64(coping)*5)

	out := clampScore(int(math.Round(score)))
	if reported, ok := in.Profile.ReportedRisk(now, RiskWindow); ok && reported > out {
		out = reported
	}
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
