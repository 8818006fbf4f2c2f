package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	domain "github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
)

func TestScheduledNotificationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScheduledNotificationRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "scheduled@example.com")
	now := time.Now().UTC().Truncate(time.Second)
	goalID := uuid.New()

	rows := []*types.ScheduledNotification{
		{UserID: u.ID, Kind: domain.KindGoalDeadline, Title: "t", Body: "b", Priority: 6, ScheduledFor: now.Add(-time.Minute), RelatedEntityID: &goalID},
		{UserID: u.ID, Kind: domain.KindCheckIn, Title: "t", Body: "b", Priority: 3, ScheduledFor: now.Add(2 * time.Hour)},
	}
	if _, err := repo.CreateBatch(dbc, rows); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	n, err := repo.CountUnsentBetween(dbc, u.ID, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("CountUnsentBetween: n=%d err=%v", n, err)
	}
	has, err := repo.HasUnsentForEntity(dbc, u.ID, goalID, domain.KindGoalDeadline, now.Add(-24*time.Hour))
	if err != nil || !has {
		t.Fatalf("HasUnsentForEntity: %v %v", has, err)
	}

	due, err := repo.ListDue(dbc, now, 10)
	if err != nil || len(due) != 1 || due[0].ID != rows[0].ID {
		t.Fatalf("ListDue: %v %v", due, err)
	}

	ok, err := repo.MarkSent(dbc, rows[0].ID, now)
	if err != nil || !ok {
		t.Fatalf("MarkSent: %v %v", ok, err)
	}
	ok, err = repo.MarkSent(dbc, rows[0].ID, now)
	if err != nil || ok {
		t.Fatalf("second MarkSent must be a no-op: %v %v", ok, err)
	}
	if has, _ := repo.HasUnsentForEntity(dbc, u.ID, goalID, domain.KindGoalDeadline, now.Add(-24*time.Hour)); has {
		t.Fatalf("sent row still counted as pending")
	}
	if due, _ := repo.ListDue(dbc, now, 10); len(due) != 0 {
		t.Fatalf("sent row still due")
	}
	if unsent, _ := repo.ListUnsentForUser(dbc, u.ID); len(unsent) != 1 {
		t.Fatalf("ListUnsentForUser: %d", len(unsent))
	}
}

func TestUserNotificationAndEngagementRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	notes := NewUserNotificationRepo(db, log)
	events := NewEngagementRepo(db, log)

	u := testutil.SeedUser(t, ctx, tx, "inapp@example.com")
	row := &types.UserNotification{UserID: u.ID, Kind: domain.KindCheckIn, Title: "hi", Body: "there", Priority: 3, Sent: true}
	if err := notes.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if list, err := notes.ListForUser(dbc, u.ID, 0); err != nil || len(list) != 1 {
		t.Fatalf("ListForUser: %d %v", len(list), err)
	}
	if ok, err := notes.MarkOpened(dbc, u.ID, row.ID, time.Now()); err != nil || !ok {
		t.Fatalf("MarkOpened: %v %v", ok, err)
	}
	if ok, _ := notes.MarkOpened(dbc, u.ID, row.ID, time.Now()); ok {
		t.Fatalf("second MarkOpened must be a no-op")
	}
	if other, _ := notes.GetByID(dbc, uuid.New(), row.ID); other != nil {
		t.Fatalf("notification visible to another user")
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		ev := &types.EngagementEvent{UserID: u.ID, NotificationID: row.ID, Engaged: i%2 == 0, OccurredAt: base.Add(time.Duration(i) * time.Minute)}
		if err := events.Create(dbc, ev); err != nil {
			t.Fatalf("Create event: %v", err)
		}
	}
	recent, err := events.ListRecent(dbc, u.ID, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("ListRecent: %d %v", len(recent), err)
	}
	if !recent[0].OccurredAt.After(recent[1].OccurredAt) {
		t.Fatalf("expected newest first")
	}
}
