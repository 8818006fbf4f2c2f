package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type GoalInput struct {
	Description string
	TargetDate  *time.Time
}

type GoalService interface {
	Create(ctx context.Context, in GoalInput) (*types.Goal, error)
	List(ctx context.Context, activeOnly bool) ([]*types.Goal, error)
	UpdateStatus(ctx context.Context, goalID uuid.UUID, status string) (*types.Goal, error)
}

type goalService struct {
	log      *logger.Logger
	goalRepo repos.GoalRepo
}

func NewGoalService(log *logger.Logger, goalRepo repos.GoalRepo) GoalService {
	return &goalService{log: log.With("service", "GoalService"), goalRepo: goalRepo}
}

func (gs *goalService) Create(ctx context.Context, in GoalInput) (*types.Goal, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, fmt.Errorf("description required: %w", apierr.ErrInvalidArgument)
	}
	var target *time.Time
	if in.TargetDate != nil {
		t := in.TargetDate.UTC()
		target = &t
	}
	created, err := gs.goalRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Goal{{
		UserID:      userID,
		Description: desc,
		TargetDate:  target,
		Status:      recovery.GoalActive,
	}})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return created[0], nil
}

func (gs *goalService) List(ctx context.Context, activeOnly bool) ([]*types.Goal, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if activeOnly {
		return gs.goalRepo.ListActive(dbc, userID)
	}
	return gs.goalRepo.ListForUser(dbc, userID)
}

func (gs *goalService) UpdateStatus(ctx context.Context, goalID uuid.UUID, status string) (*types.Goal, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	next, ok := recovery.ParseGoalStatus(strings.TrimSpace(status))
	if !ok {
		return nil, fmt.Errorf("unknown goal status %q: %w", status, apierr.ErrInvalidArgument)
	}
	g, err := gs.goalRepo.UpdateStatus(dbctx.Context{Ctx: ctx}, userID, goalID, next)
	if err != nil {
		return nil, err
	}
	gs.log.Info("Goal status changed", "user_id", userID, "goal_id", goalID, "status", next)
	return g, nil
}
