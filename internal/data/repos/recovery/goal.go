package recovery

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	domain "github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type GoalRepo interface {
	Create(dbc dbctx.Context, goals []*types.Goal) ([]*types.Goal, error)
	GetByID(dbc dbctx.Context, userID, goalID uuid.UUID) (*types.Goal, error)
	ListActive(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error)
	ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error)
	// UpdateStatus applies a status transition; it is the only mutation a goal allows.
	UpdateStatus(dbc dbctx.Context, userID, goalID uuid.UUID, next domain.GoalStatus) (*types.Goal, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) Create(dbc dbctx.Context, goals []*types.Goal) ([]*types.Goal, error) {
	if len(goals) == 0 {
		return []*types.Goal{}, nil
	}
	if err := dbc.DB(r.db).Create(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepo) GetByID(dbc dbctx.Context, userID, goalID uuid.UUID) (*types.Goal, error) {
	var row types.Goal
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", goalID, userID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *goalRepo) ListActive(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error) {
	var out []*types.Goal
	if err := dbc.DB(r.db).
		Where("user_id = ? AND status = ?", userID, domain.GoalActive).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Goal, error) {
	var out []*types.Goal
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) UpdateStatus(dbc dbctx.Context, userID, goalID uuid.UUID, next domain.GoalStatus) (*types.Goal, error) {
	goal, err := r.GetByID(dbc, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, apierr.ErrNotFound)
	}
	if !goal.Status.CanTransition(next) {
		return nil, fmt.Errorf("goal %s cannot move from %s to %s: %w", goalID, goal.Status, next, apierr.ErrInvalidArgument)
	}
	res := dbc.DB(r.db).
		Model(&types.Goal{}).
		Where("id = ? AND user_id = ? AND status = ?", goalID, userID, goal.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("goal %s changed concurrently: %w", goalID, apierr.ErrConflict)
	}
	goal.Status = next
	return goal, nil
}
