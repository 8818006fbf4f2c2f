package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/modules/notifications"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type NotificationService interface {
	List(ctx context.Context, limit int) ([]*types.UserNotification, error)
	// Open marks a notification opened and records an engaged event the first
	// time only.
	Open(ctx context.Context, id uuid.UUID) (*types.UserNotification, error)
	Dismiss(ctx context.Context, id uuid.UUID) error
	ScheduleNow(ctx context.Context) (notifications.ScheduleResult, error)
}

type notificationService struct {
	db             *gorm.DB
	log            *logger.Logger
	inboxRepo      repos.UserNotificationRepo
	engagementRepo repos.EngagementRepo
	runner         *notifications.Runner
	now            func() time.Time
}

func NewNotificationService(db *gorm.DB, log *logger.Logger, inboxRepo repos.UserNotificationRepo, engagementRepo repos.EngagementRepo, runner *notifications.Runner) NotificationService {
	return &notificationService{
		db:             db,
		log:            log.With("service", "NotificationService"),
		inboxRepo:      inboxRepo,
		engagementRepo: engagementRepo,
		runner:         runner,
		now:            time.Now,
	}
}

func (ns *notificationService) List(ctx context.Context, limit int) ([]*types.UserNotification, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return ns.inboxRepo.ListForUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (ns *notificationService) Open(ctx context.Context, id uuid.UUID) (*types.UserNotification, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ns.now()
	var out *types.UserNotification
	err = ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := ns.inboxRepo.GetByID(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load notification: %w", err)
		}
		if n == nil {
			return fmt.Errorf("notification: %w", apierr.ErrNotFound)
		}
		first, err := ns.inboxRepo.MarkOpened(dbc, userID, id, now)
		if err != nil {
			return fmt.Errorf("mark opened: %w", err)
		}
		if first {
			if err := ns.engagementRepo.Create(dbc, &types.EngagementEvent{
				UserID:         userID,
				NotificationID: id,
				Engaged:        true,
				OccurredAt:     now.UTC(),
			}); err != nil {
				return fmt.Errorf("record engagement: %w", err)
			}
			openedAt := now.UTC()
			n.Opened, n.OpenedAt = true, &openedAt
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dismiss marks the notification dismissed. Only a first dismissal of an
// unopened notification counts as a non-engagement.
func (ns *notificationService) Dismiss(ctx context.Context, id uuid.UUID) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	now := ns.now()
	return ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := ns.inboxRepo.GetByID(dbc, userID, id)
		if err != nil {
			return fmt.Errorf("load notification: %w", err)
		}
		if n == nil {
			return fmt.Errorf("notification: %w", apierr.ErrNotFound)
		}
		first, err := ns.inboxRepo.MarkDismissed(dbc, userID, id, now)
		if err != nil {
			return fmt.Errorf("mark dismissed: %w", err)
		}
		if !first || n.Opened {
			return nil
		}
		if err := ns.engagementRepo.Create(dbc, &types.EngagementEvent{
			UserID:         userID,
			NotificationID: id,
			Engaged:        false,
			OccurredAt:     now.UTC(),
		}); err != nil {
			return fmt.Errorf("record engagement: %w", err)
		}
		return nil
	})
}

func (ns *notificationService) ScheduleNow(ctx context.Context) (notifications.ScheduleResult, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return notifications.ScheduleResult{}, err
	}
	if ns.runner == nil {
		return notifications.ScheduleResult{}, fmt.Errorf("scheduling unavailable")
	}
	return ns.runner.Run(ctx, userID)
}
