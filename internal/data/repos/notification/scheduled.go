package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	domain "github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type ScheduledNotificationRepo interface {
	// CreateBatch persists rows in a single commit.
	CreateBatch(dbc dbctx.Context, rows []*types.ScheduledNotification) ([]*types.ScheduledNotification, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ScheduledNotification, error)
	// CountUnsentBetween counts unsent rows with scheduled_for in [from, to).
	CountUnsentBetween(dbc dbctx.Context, userID uuid.UUID, from, to time.Time) (int64, error)
	// HasUnsentForEntity reports whether an unsent row of kind exists for the
	// related entity with scheduled_for at or after notBefore.
	HasUnsentForEntity(dbc dbctx.Context, userID, entityID uuid.UUID, kind domain.Kind, notBefore time.Time) (bool, error)
	// ListDue returns unsent rows scheduled at or before now, fewest failed
	// attempts first, then oldest first.
	ListDue(dbc dbctx.Context, now time.Time, limit int) ([]*types.ScheduledNotification, error)
	ListUnsentForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ScheduledNotification, error)
	// MarkSent flips unsent -> sent and reports whether this call did it.
	MarkSent(dbc dbctx.Context, id uuid.UUID, sentAt time.Time) (bool, error)
	// RecordFailedAttempt bumps the attempt counter of an unsent row.
	RecordFailedAttempt(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type scheduledNotificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduledNotificationRepo(db *gorm.DB, baseLog *logger.Logger) ScheduledNotificationRepo {
	return &scheduledNotificationRepo{db: db, log: baseLog.With("repo", "ScheduledNotificationRepo")}
}

func (r *scheduledNotificationRepo) CreateBatch(dbc dbctx.Context, rows []*types.ScheduledNotification) ([]*types.ScheduledNotification, error) {
	if len(rows) == 0 {
		return []*types.ScheduledNotification{}, nil
	}
	for _, row := range rows {
		row.ScheduledFor = row.ScheduledFor.UTC()
	}
	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scheduledNotificationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ScheduledNotification, error) {
	var row types.ScheduledNotification
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *scheduledNotificationRepo) CountUnsentBetween(dbc dbctx.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.ScheduledNotification{}).
		Where("user_id = ? AND sent = ? AND scheduled_for >= ? AND scheduled_for < ?", userID, false, from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

func (r *scheduledNotificationRepo) HasUnsentForEntity(dbc dbctx.Context, userID, entityID uuid.UUID, kind domain.Kind, notBefore time.Time) (bool, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.ScheduledNotification{}).
		Where("user_id = ? AND related_entity_id = ? AND kind = ? AND sent = ? AND scheduled_for >= ?",
			userID, entityID, kind, false, notBefore.UTC()).
		Count(&n).Error
	return n > 0, err
}

func (r *scheduledNotificationRepo) ListDue(dbc dbctx.Context, now time.Time, limit int) ([]*types.ScheduledNotification, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ScheduledNotification
	if err := dbc.DB(r.db).
		Where("sent = ? AND scheduled_for <= ?", false, now.UTC()).
		Order("delivery_attempts ASC, scheduled_for ASC, priority DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduledNotificationRepo) ListUnsentForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ScheduledNotification, error) {
	var out []*types.ScheduledNotification
	if err := dbc.DB(r.db).
		Where("user_id = ? AND sent = ?", userID, false).
		Order("scheduled_for ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduledNotificationRepo) MarkSent(dbc dbctx.Context, id uuid.UUID, sentAt time.Time) (bool, error) {
	at := sentAt.UTC()
	res := dbc.DB(r.db).
		Model(&types.ScheduledNotification{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{"sent": true, "sent_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *scheduledNotificationRepo) RecordFailedAttempt(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.ScheduledNotification{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"delivery_attempts": gorm.Expr("delivery_attempts + 1"),
			"last_attempt_at":   at.UTC(),
		}).Error
}
