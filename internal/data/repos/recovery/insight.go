package recovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type InsightRepo interface {
	Create(dbc dbctx.Context, rows []*types.Insight) ([]*types.Insight, error)
	// ListForUser returns insights ordered by significance, newest first on ties.
	// An empty types filter matches every type; limit <= 0 means no limit.
	ListForUser(dbc dbctx.Context, userID uuid.UUID, insightTypes []string, limit int) ([]*types.Insight, error)
	ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.Insight, error)
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, baseLog *logger.Logger) InsightRepo {
	return &insightRepo{db: db, log: baseLog.With("repo", "InsightRepo")}
}

func (r *insightRepo) Create(dbc dbctx.Context, rows []*types.Insight) ([]*types.Insight, error) {
	if len(rows) == 0 {
		return []*types.Insight{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *insightRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID, insightTypes []string, limit int) ([]*types.Insight, error) {
	var out []*types.Insight
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if len(insightTypes) > 0 {
		q = q.Where("type IN ?", insightTypes)
	}
	q = q.Order("emotional_significance DESC, extracted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *insightRepo) ListSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.Insight, error) {
	var out []*types.Insight
	if err := dbc.DB(r.db).
		Where("user_id = ? AND extracted_at >= ?", userID, since.UTC()).
		Order("extracted_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
