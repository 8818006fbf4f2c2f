package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type fakePending struct {
	pending map[uuid.UUID]bool
	calls   int
}

func (f *fakePending) HasUnsentForEntity(_ dbctx.Context, _, entityID uuid.UUID, _ notification.Kind, _ time.Time) (bool, error) {
	f.calls++
	return f.pending[entityID], nil
}

// Wednesday morning.
var genNow = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func profileWith(mutate func(p *recovery.Profile)) *recovery.Profile {
	p := recovery.NewProfile(uuid.New(), genNow)
	if mutate != nil {
		mutate(p)
	}
	return p
}

func generate(t *testing.T, g *Generator, in GenerateInput) []Candidate {
	t.Helper()
	if in.Now.IsZero() {
		in.Now = genNow
	}
	out, err := g.Generate(context.Background(), in)
	require.NoError(t, err)
	return out
}

func kindsOf(cs []Candidate) []notification.Kind {
	out := make([]notification.Kind, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Kind)
	}
	return out
}

func countKind(cs []Candidate, k notification.Kind) int {
	n := 0
	for _, c := range cs {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func TestRiskThresholds(t *testing.T) {
	g := NewGenerator(logger.NewNop(), nil, time.UTC)
	withScore := func(score int) *recovery.Profile {
		return profileWith(func(p *recovery.Profile) { p.RelapseRiskScore = &score })
	}

	c79 := generate(t, g, GenerateInput{Profile: withScore(79)})
	require.Zero(t, countKind(c79, notification.KindRelapseRiskCritical))
	require.Equal(t, 1, countKind(c79, notification.KindRelapseRiskHigh))

	c80 := generate(t, g, GenerateInput{Profile: withScore(80)})
	require.Equal(t, 1, countKind(c80, notification.KindRelapseRiskCritical))
	require.Zero(t, countKind(c80, notification.KindRelapseRiskHigh))
	require.Equal(t, 10, c80[0].Priority)
	require.Equal(t, 80, c80[0].Metadata[notification.MetaRiskScore])

	c60 := generate(t, g, GenerateInput{Profile: withScore(60)})
	require.Equal(t, notification.KindRelapseRiskHigh, c60[0].Kind)
	require.Equal(t, 9, c60[0].Priority)

	c59 := generate(t, g, GenerateInput{Profile: withScore(59)})
	require.Zero(t, countKind(c59, notification.KindRelapseRiskHigh))

	unscored := generate(t, g, GenerateInput{Profile: profileWith(nil)})
	require.Equal(t, []notification.Kind{notification.KindCheckIn}, kindsOf(unscored))
}

func TestMilestoneExactMatchIsExclusive(t *testing.T) {
	g := NewGenerator(logger.NewNop(), nil, time.UTC)
	days := func(n int) *recovery.Profile {
		return profileWith(func(p *recovery.Profile) { p.AbstinenceDays = n })
	}

	c30 := generate(t, g, GenerateInput{Profile: days(30)})
	require.Equal(t, 1, countKind(c30, notification.KindAbstinenceMilestone))
	require.Zero(t, countKind(c30, notification.KindApproachingMilestone))
	for _, c := range c30 {
		if c.Kind == notification.KindAbstinenceMilestone {
			require.Equal(t, 30, c.Metadata[notification.MetaMilestone])
			require.Equal(t, 8, c.Priority)
		}
	}

	c12 := generate(t, g, GenerateInput{Profile: days(12)})
	require.Zero(t, countKind(c12, notification.KindAbstinenceMilestone))
	require.Equal(t, 1, countKind(c12, notification.KindApproachingMilestone))
	for _, c := range c12 {
		if c.Kind == notification.KindApproachingMilestone {
			require.Equal(t, 14, c.Metadata[notification.MetaApproachingMilestone])
			require.Equal(t, 2, c.Metadata[notification.MetaDaysToGo])
			require.Equal(t, 7, c.Priority)
		}
	}

	c1 := generate(t, g, GenerateInput{Profile: days(1)})
	require.Equal(t, 1, countKind(c1, notification.KindAbstinenceMilestone))
	require.Equal(t, 1, countKind(c1, notification.KindApproachingMilestone), "day 1 is also two days from 3")

	c11 := generate(t, g, GenerateInput{Profile: days(11)})
	require.Zero(t, countKind(c11, notification.KindApproachingMilestone))
}

func TestTemporalCandidatesNeedFutureHourToday(t *testing.T) {
	g := NewGenerator(logger.NewNop(), nil, time.UTC)
	wed, thu := int(time.Wednesday), int(time.Thursday)
	insights := []*recovery.Insight{
		{ID: uuid.New(), Type: recovery.InsightTriggerTemporal, DayOfWeek: &wed, TimeOfDay: recovery.TimeEvening, Value: "wednesday evenings"},
		{ID: uuid.New(), Type: recovery.InsightTriggerTemporal, DayOfWeek: &wed, TimeOfDay: recovery.TimeMorning, Value: "wednesday mornings"},
		{ID: uuid.New(), Type: recovery.InsightTriggerTemporal, DayOfWeek: &thu, TimeOfDay: recovery.TimeNight, Value: "thursday nights"},
		{ID: uuid.New(), Type: recovery.InsightTriggerTemporal, DayOfWeek: &wed, Value: "no period"},
	}
	out := generate(t, g, GenerateInput{Profile: profileWith(nil), Insights: insights})
	require.Equal(t, 1, countKind(out, notification.KindHighRiskTime))
	require.Equal(t, recovery.TimeEvening, out[0].Metadata[notification.MetaHighRiskPeriod])
	require.Equal(t, 7, out[0].Priority)
}

func TestGoalDeadlineWindowAndDedup(t *testing.T) {
	day := func(n int) *time.Time {
		d := time.Date(2025, 6, 4, 23, 30, 0, 0, time.UTC).AddDate(0, 0, n)
		return &d
	}
	due0 := &recovery.Goal{ID: uuid.New(), Description: "today", TargetDate: day(0), Status: recovery.GoalActive}
	due2 := &recovery.Goal{ID: uuid.New(), Description: "in two", TargetDate: day(2), Status: recovery.GoalActive}
	due3 := &recovery.Goal{ID: uuid.New(), Description: "in three", TargetDate: day(3), Status: recovery.GoalActive}
	past := &recovery.Goal{ID: uuid.New(), Description: "past", TargetDate: day(-1), Status: recovery.GoalActive}
	done := &recovery.Goal{ID: uuid.New(), Description: "done", TargetDate: day(1), Status: recovery.GoalCompleted}
	undated := &recovery.Goal{ID: uuid.New(), Description: "someday", Status: recovery.GoalActive}
	pendingDue := &recovery.Goal{ID: uuid.New(), Description: "pending", TargetDate: day(1), Status: recovery.GoalActive}

	pending := &fakePending{pending: map[uuid.UUID]bool{pendingDue.ID: true}}
	g := NewGenerator(logger.NewNop(), pending, time.UTC)
	out := generate(t, g, GenerateInput{
		Profile: profileWith(nil),
		Goals:   []*recovery.Goal{due0, due2, due3, past, done, undated, pendingDue},
	})

	var goals []Candidate
	for _, c := range out {
		if c.Kind == notification.KindGoalDeadline {
			goals = append(goals, c)
		}
	}
	require.Len(t, goals, 2)
	require.Equal(t, due0.ID, *goals[0].RelatedEntityID)
	require.Equal(t, 0, goals[0].Metadata[notification.MetaDaysToGo])
	require.Equal(t, due2.ID, *goals[1].RelatedEntityID)
	require.Equal(t, 2, goals[1].Metadata[notification.MetaDaysToGo])
	require.Equal(t, "in two", goals[1].Metadata[notification.MetaGoalDescription])
	require.Equal(t, 3, pending.calls)
}

func TestSupportCandidates(t *testing.T) {
	g := NewGenerator(logger.NewNop(), nil, time.UTC)
	insights := []*recovery.Insight{
		{ID: uuid.New(), Type: recovery.InsightMotivation, Value: "my kids", EmotionalSignificance: 0.6},
		{ID: uuid.New(), Type: recovery.InsightMotivation, Value: "my health", EmotionalSignificance: 0.9},
		{ID: uuid.New(), Type: recovery.InsightCopingStrategy, Value: "walks", EmotionalSignificance: 0.4},
		{ID: uuid.New(), Type: recovery.InsightCopingStrategy, Value: "calling my sponsor", EmotionalSignificance: 0.8},
	}
	low := profileWith(func(p *recovery.Profile) { p.MotivationLevel = 4 })
	out := generate(t, g, GenerateInput{Profile: low, Insights: insights})
	require.Equal(t, []notification.Kind{
		notification.KindMotivationBoost,
		notification.KindCopingStrategy,
		notification.KindCheckIn,
	}, kindsOf(out))
	require.Equal(t, "my health", out[0].Metadata[notification.MetaInsightValue])
	require.Equal(t, "calling my sponsor", out[1].Metadata[notification.MetaInsightValue])
	require.Equal(t, []int{5, 4, 3}, []int{out[0].Priority, out[1].Priority, out[2].Priority})

	steady := profileWith(func(p *recovery.Profile) { p.MotivationLevel = 5 })
	require.Zero(t, countKind(generate(t, g, GenerateInput{Profile: steady}), notification.KindMotivationBoost))
}

func TestGenerateRequiresProfile(t *testing.T) {
	g := NewGenerator(logger.NewNop(), nil, time.UTC)
	_, err := g.Generate(context.Background(), GenerateInput{Now: genNow})
	require.Error(t, err)
}
