package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type UserNotificationRepo interface {
	Create(dbc dbctx.Context, row *types.UserNotification) error
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.UserNotification, error)
	ListForUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserNotification, error)
	// MarkOpened sets the opened flag once and reports whether this call set it.
	MarkOpened(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error)
	// MarkDismissed sets the dismissed flag once and reports whether this call set it.
	MarkDismissed(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error)
}

type userNotificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserNotificationRepo(db *gorm.DB, baseLog *logger.Logger) UserNotificationRepo {
	return &userNotificationRepo{db: db, log: baseLog.With("repo", "UserNotificationRepo")}
}

func (r *userNotificationRepo) Create(dbc dbctx.Context, row *types.UserNotification) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *userNotificationRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.UserNotification, error) {
	var row types.UserNotification
	if err := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userNotificationRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.UserNotification
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userNotificationRepo) MarkOpened(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	openedAt := at.UTC()
	res := dbc.DB(r.db).
		Model(&types.UserNotification{}).
		Where("id = ? AND user_id = ? AND opened = ?", id, userID, false).
		Updates(map[string]any{"opened": true, "opened_at": openedAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userNotificationRepo) MarkDismissed(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	dismissedAt := at.UTC()
	res := dbc.DB(r.db).
		Model(&types.UserNotification{}).
		Where("id = ? AND user_id = ? AND dismissed = ?", id, userID, false).
		Updates(map[string]any{"dismissed": true, "dismissed_at": dismissedAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
