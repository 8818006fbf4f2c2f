package notification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type EngagementRepo interface {
	Create(dbc dbctx.Context, event *types.EngagementEvent) error
	// ListRecent returns the newest events first.
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.EngagementEvent, error)
}

type engagementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEngagementRepo(db *gorm.DB, baseLog *logger.Logger) EngagementRepo {
	return &engagementRepo{db: db, log: baseLog.With("repo", "EngagementRepo")}
}

func (r *engagementRepo) Create(dbc dbctx.Context, event *types.EngagementEvent) error {
	if event == nil {
		return nil
	}
	return dbc.DB(r.db).Create(event).Error
}

func (r *engagementRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.EngagementEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*types.EngagementEvent
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
