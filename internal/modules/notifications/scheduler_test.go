package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
)

type schedulerFixture struct {
	db        *gorm.DB
	scheduler *Scheduler
	scheduled repos.ScheduledNotificationRepo
	insights  repos.InsightRepo
	now       time.Time
}

func newSchedulerFixture(t *testing.T, now time.Time) *schedulerFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	scheduled := repos.NewScheduledNotificationRepo(db, log)
	insights := repos.NewInsightRepo(db, log)
	s, err := NewScheduler(SchedulerDeps{
		Log:       log,
		Profiles:  repos.NewProfileRepo(db, log),
		Insights:  insights,
		Goals:     repos.NewGoalRepo(db, log),
		Scheduled: scheduled,
		Analyzer:  NewEngagementAnalyzer(log, repos.NewEngagementRepo(db, log), time.UTC),
		Generator: NewGenerator(log, scheduled, time.UTC),
		Clock:     func() time.Time { return now },
	}, DefaultSchedulerConfig())
	require.NoError(t, err)
	return &schedulerFixture{db: db, scheduler: s, scheduled: scheduled, insights: insights, now: now}
}

func (f *schedulerFixture) user(t *testing.T, mutate func(*types.Profile)) uuid.UUID {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), f.db, uuid.NewString()+"@example.com")
	if mutate != nil {
		testutil.SeedProfile(t, context.Background(), f.db, u.ID, mutate)
	}
	return u.ID
}

func (f *schedulerFixture) unsent(t *testing.T, userID uuid.UUID) []*types.ScheduledNotification {
	t.Helper()
	rows, err := f.scheduled.ListUnsentForUser(dbctx.Context{Ctx: context.Background()}, userID)
	require.NoError(t, err)
	return rows
}

func TestScheduleGoalMotivationCheckIn(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) {
		p.AbstinenceDays = 8
		p.MotivationLevel = 3
	})
	target := genNow.AddDate(0, 0, 1)
	goal := testutil.SeedGoal(t, context.Background(), f.db, userID, "call my sister", &target)

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeScheduled, res.Outcome)
	require.Equal(t, []notification.Kind{
		notification.KindGoalDeadline,
		notification.KindMotivationBoost,
		notification.KindCheckIn,
	}, kindsOf(res.Candidates))
	require.Len(t, res.Scheduled, 3)
	require.Empty(t, res.Discarded)

	goalRow := res.Scheduled[0]
	require.Equal(t, notification.KindGoalDeadline, goalRow.Kind)
	require.Equal(t, 6, goalRow.Priority)
	require.Equal(t, goal.ID, *goalRow.RelatedEntityID)
	// 08:00 has passed at 10:00, so the first optimal hour lands tomorrow.
	require.True(t, goalRow.ScheduledFor.Equal(time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)), goalRow.ScheduledFor.String())
	require.True(t, res.Scheduled[1].ScheduledFor.Equal(time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)))
	require.True(t, res.Scheduled[2].ScheduledFor.Equal(time.Date(2025, 6, 4, 18, 0, 0, 0, time.UTC)))
	require.Len(t, f.unsent(t, userID), 3)

	// The pending goal reminder suppresses a duplicate on the next run.
	again, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, countKind(again.Candidates, notification.KindGoalDeadline))
}

func TestScheduleMilestoneDayOutranksGoal(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) {
		p.AbstinenceDays = 7
		p.MotivationLevel = 3
	})
	target := genNow.AddDate(0, 0, 1)
	testutil.SeedGoal(t, context.Background(), f.db, userID, "call my sister", &target)

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 4)
	require.Equal(t, []notification.Kind{
		notification.KindAbstinenceMilestone,
		notification.KindGoalDeadline,
		notification.KindMotivationBoost,
	}, []notification.Kind{res.Scheduled[0].Kind, res.Scheduled[1].Kind, res.Scheduled[2].Kind})
	require.Len(t, res.Discarded, 1)
	require.Equal(t, notification.KindCheckIn, res.Discarded[0].Kind)
}

func TestScheduleCriticalRiskIsUrgent(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) {
		score := 85
		p.RelapseRiskScore = &score
	})

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, countKind(res.Candidates, notification.KindRelapseRiskCritical))
	critical := res.Scheduled[0]
	require.Equal(t, notification.KindRelapseRiskCritical, critical.Kind)
	require.Equal(t, 10, critical.Priority)
	require.True(t, critical.ScheduledFor.Equal(genNow.Add(30*time.Minute)))
}

func TestScheduleDiscardsOverflow(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) {
		score := 65
		p.RelapseRiskScore = &score
		p.AbstinenceDays = 30
		p.MotivationLevel = 3
	})
	profile, err := repos.NewProfileRepo(f.db, testutil.Logger(t)).GetByUserID(dbctx.Context{Ctx: context.Background()}, userID)
	require.NoError(t, err)
	_, err = f.insights.Create(dbctx.Context{Ctx: context.Background()}, []*types.Insight{{
		UserID: userID, ProfileID: profile.ID, Type: recovery.InsightCopingStrategy, Value: "walks", EmotionalSignificance: 0.5, Confidence: 0.5,
	}})
	require.NoError(t, err)

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 5)
	require.Len(t, res.Scheduled, 3)
	require.Equal(t, []notification.Kind{notification.KindCopingStrategy, notification.KindCheckIn}, kindsOf(res.Discarded))

	rows := f.unsent(t, userID)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.NotEqual(t, notification.KindCopingStrategy, row.Kind)
		require.NotEqual(t, notification.KindCheckIn, row.Kind)
	}
}

func TestScheduleRespectsCaps(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) { p.MotivationLevel = 3 })
	dbc := dbctx.Context{Ctx: context.Background()}

	_, err := f.scheduled.CreateBatch(dbc, []*types.ScheduledNotification{
		{UserID: userID, Kind: notification.KindCheckIn, Title: "t", Body: "b", Priority: 3, ScheduledFor: genNow.Add(time.Hour)},
	})
	require.NoError(t, err)

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, res.TodayCount)
	require.LessOrEqual(t, len(res.Scheduled), 2)
	require.LessOrEqual(t, len(res.Scheduled), len(res.Candidates))

	_, err = f.scheduled.CreateBatch(dbc, []*types.ScheduledNotification{
		{UserID: userID, Kind: notification.KindCheckIn, Title: "t", Body: "b", Priority: 3, ScheduledFor: genNow.Add(2 * time.Hour)},
		{UserID: userID, Kind: notification.KindCheckIn, Title: "t", Body: "b", Priority: 3, ScheduledFor: genNow.Add(3 * time.Hour)},
	})
	require.NoError(t, err)
	before := len(f.unsent(t, userID))

	capped, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCapped, capped.Outcome)
	require.Empty(t, capped.Scheduled)
	require.Len(t, f.unsent(t, userID), before)
}

func TestScheduleClampsToWeeklyCap(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, func(p *types.Profile) {
		p.AbstinenceDays = 8
		p.MotivationLevel = 3
	})
	target := genNow.AddDate(0, 0, 1)
	testutil.SeedGoal(t, context.Background(), f.db, userID, "call my sister", &target)
	dbc := dbctx.Context{Ctx: context.Background()}

	// Eleven rows spread over Thursday to Saturday leave today empty.
	var later []*types.ScheduledNotification
	for i := 0; i < 11; i++ {
		at := time.Date(2025, 6, 5+i%3, 9+i, 0, 0, 0, time.UTC)
		later = append(later, &types.ScheduledNotification{
			UserID: userID, Kind: notification.KindCheckIn, Title: "t", Body: "b", Priority: 3, ScheduledFor: at,
		})
	}
	_, err := f.scheduled.CreateBatch(dbc, later)
	require.NoError(t, err)

	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeScheduled, res.Outcome)
	require.Zero(t, res.TodayCount)
	require.Equal(t, 11, res.WeekCount)
	require.Greater(t, len(res.Candidates), 1)
	require.Len(t, res.Scheduled, 1)
	require.Len(t, res.Discarded, len(res.Candidates)-1)
	require.Len(t, f.unsent(t, userID), 12)

	capped, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCapped, capped.Outcome)
	require.Equal(t, 12, capped.WeekCount)
	require.Empty(t, capped.Scheduled)
}

func TestScheduleWithoutProfile(t *testing.T) {
	f := newSchedulerFixture(t, genNow)
	userID := f.user(t, nil)
	res, err := f.scheduler.Schedule(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, OutcomeNoProfile, res.Outcome)
	require.Empty(t, f.unsent(t, userID))
}

func TestPlaceRoundRobin(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	selected := []Candidate{
		{Kind: notification.KindRelapseRiskHigh, Priority: 9},
		{Kind: notification.KindGoalDeadline, Priority: 6},
		{Kind: notification.KindMotivationBoost, Priority: 5},
		{Kind: notification.KindCheckIn, Priority: 3},
	}
	times := Place(selected, []int{20, 11}, genNow, cfg)
	require.True(t, times[0].Equal(genNow.Add(30*time.Minute)))
	require.True(t, times[1].Equal(time.Date(2025, 6, 4, 20, 0, 0, 0, time.UTC)))
	require.True(t, times[2].Equal(time.Date(2025, 6, 4, 11, 0, 0, 0, time.UTC)))
	require.True(t, times[3].Equal(time.Date(2025, 6, 4, 20, 0, 0, 0, time.UTC)))
}
