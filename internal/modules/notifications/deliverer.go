package notifications

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

const (
	DefaultDeliveryBatch  = 100
	deliveryInsightLimit  = 20
	deliveryStatusSent    = "sent"
	deliveryStatusSkipped = "skipped"
	deliveryStatusFailed  = "failed"
)

type DeliveryReport struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

type DelivererDeps struct {
	DB                *gorm.DB
	Log               *logger.Logger
	Scheduled         repos.ScheduledNotificationRepo
	UserNotifications repos.UserNotificationRepo
	Profiles          repos.ProfileRepo
	Insights          repos.InsightRepo
	Goals             repos.GoalRepo
	Renderer          *Renderer
	Pusher            Pusher
	BatchSize         int
}

// Deliverer renders due notifications and moves them from unsent to sent.
type Deliverer struct {
	deps DelivererDeps
	log  *logger.Logger
}

func NewDeliverer(deps DelivererDeps) (*Deliverer, error) {
	if deps.DB == nil || deps.Log == nil {
		return nil, fmt.Errorf("deliverer: db and logger required")
	}
	if deps.Scheduled == nil || deps.UserNotifications == nil || deps.Profiles == nil || deps.Insights == nil || deps.Goals == nil {
		return nil, fmt.Errorf("deliverer: repos required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("deliverer: renderer required")
	}
	if deps.Pusher == nil {
		deps.Pusher = NewLogPusher(deps.Log)
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultDeliveryBatch
	}
	return &Deliverer{deps: deps, log: deps.Log.With("component", "NotificationDeliverer")}, nil
}

// DeliverDue sends every unsent notification scheduled at or before now. A
// failed notification stays unsent for the next sweep and never stops the
// batch.
func (d *Deliverer) DeliverDue(ctx context.Context, now time.Time) (DeliveryReport, error) {
	var report DeliveryReport
	due, err := d.deps.Scheduled.ListDue(dbctx.Context{Ctx: ctx}, now, d.deps.BatchSize)
	if err != nil {
		return report, fmt.Errorf("list due notifications: %w", err)
	}
	report.Due = len(due)
	for _, n := range due {
		sent, err := d.deliverOne(ctx, n, now)
		switch {
		case err != nil:
			report.Failed++
			observability.IncDelivery(deliveryStatusFailed)
			d.log.Error("Notification delivery failed", "notification_id", n.ID, "user_id", n.UserID, "error", err)
			if err := d.deps.Scheduled.RecordFailedAttempt(dbctx.Context{Ctx: ctx}, n.ID, now); err != nil {
				d.log.Warn("Record delivery attempt failed", "notification_id", n.ID, "error", err)
			}
		case sent:
			report.Sent++
			observability.IncDelivery(deliveryStatusSent)
		default:
			report.Skipped++
			observability.IncDelivery(deliveryStatusSkipped)
		}
	}
	if report.Due > 0 {
		d.log.Info("Delivery sweep finished", "due", report.Due, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	}
	return report, nil
}

func (d *Deliverer) deliverOne(ctx context.Context, n *types.ScheduledNotification, now time.Time) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	profile, err := d.deps.Profiles.GetByUserID(dbc, n.UserID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	in := RenderInput{Notification: n, Profile: profile}
	if profile != nil {
		profile.RefreshAbstinence(now)
		if in.Insights, err = d.deps.Insights.ListForUser(dbc, n.UserID, nil, deliveryInsightLimit); err != nil {
			d.log.Warn("Load insights for render failed", "user_id", n.UserID, "error", err)
		}
		if in.Goals, err = d.deps.Goals.ListActive(dbc, n.UserID); err != nil {
			d.log.Warn("Load goals for render failed", "user_id", n.UserID, "error", err)
		}
	}
	rendered := d.deps.Renderer.Render(ctx, in)
	if rendered.Title == "" || rendered.Body == "" {
		rendered.Title, rendered.Body = n.Title, n.Body
	}

	sent := false
	err = d.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := d.deps.Scheduled.MarkSent(txc, n.ID, now)
		if err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		if !ok {
			return nil
		}
		sentAt := now.UTC()
		scheduledID := n.ID
		un := &types.UserNotification{
			UserID:                  n.UserID,
			ScheduledNotificationID: &scheduledID,
			Kind:                    n.Kind,
			Title:                   rendered.Title,
			Body:                    rendered.Body,
			Priority:                n.Priority,
			Sent:                    true,
			SentAt:                  &sentAt,
		}
		if err := d.deps.UserNotifications.Create(txc, un); err != nil {
			return fmt.Errorf("create user notification: %w", err)
		}
		if err := d.deps.Pusher.Push(ctx, un); err != nil {
			return fmt.Errorf("push: %w", err)
		}
		sent = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return sent, nil
}
