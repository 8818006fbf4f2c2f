package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/modules/insights"
	recoverymod "github.com/rameshiCode/aindependent-backend/internal/modules/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

const defaultInsightListLimit = 50

type ProfileService interface {
	// GetOrCreate returns the user's profile with a fresh day count, creating
	// it on first access.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	GetMine(ctx context.Context) (*types.Profile, error)
	GetAttribute(ctx context.Context, name string) (any, error)
	SetAttribute(ctx context.Context, name string, value any) (*types.Profile, error)
	RecordRelapse(ctx context.Context) (*types.Profile, error)
	ListInsights(ctx context.Context, insightTypes []string, limit int) ([]*types.Insight, error)
}

type profileService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	insightRepo repos.InsightRepo
	risk        *insights.RiskAssessor
	loc         *time.Location
	now         func() time.Time
}

func NewProfileService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo, insightRepo repos.InsightRepo, risk *insights.RiskAssessor, loc *time.Location) ProfileService {
	if risk == nil {
		risk = insights.NewRiskAssessor()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &profileService{
		db:          db,
		log:         log.With("service", "ProfileService"),
		profileRepo: profileRepo,
		insightRepo: insightRepo,
		risk:        risk,
		loc:         loc,
		now:         time.Now,
	}
}

func (ps *profileService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	now := ps.now()
	var out *types.Profile
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.profileRepo.GetOrCreate(dbc, userID, now)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if p.RefreshAbstinence(now) {
			if err := ps.profileRepo.Save(dbc, p); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
		}
		out = p
		return nil
	})
	return out, err
}

func (ps *profileService) GetMine(ctx context.Context) (*types.Profile, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return ps.GetOrCreate(ctx, userID)
}

func (ps *profileService) GetAttribute(ctx context.Context, name string) (any, error) {
	p, err := ps.GetMine(ctx)
	if err != nil {
		return nil, err
	}
	v, err := recoverymod.GetAttribute(p, name)
	if err != nil {
		return nil, attributeError(err)
	}
	return v, nil
}

func (ps *profileService) SetAttribute(ctx context.Context, name string, value any) (*types.Profile, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ps.now()
	var out *types.Profile
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.profileRepo.GetOrCreate(dbc, userID, now)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		p.RefreshAbstinence(now)
		if err := recoverymod.SetAttribute(p, name, value, now); err != nil {
			return attributeError(err)
		}
		if err := ps.profileRepo.Save(dbc, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("Profile attribute updated", "user_id", userID, "attribute", name)
	return out, nil
}

// RecordRelapse resets the streak and rescores risk in one transaction.
func (ps *profileService) RecordRelapse(ctx context.Context) (*types.Profile, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ps.now()
	var out *types.Profile
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.profileRepo.GetOrCreate(dbc, userID, now)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		p.RecordRelapse(now)
		recent, err := ps.insightRepo.ListSince(dbc, userID, now.Add(-insights.RiskWindow))
		if err != nil {
			return fmt.Errorf("load recent insights: %w", err)
		}
		score := ps.risk.Score(insights.RiskInput{
			Profile:       p,
			Insights:      recent,
			RecentRelapse: true,
			Now:           now,
			Location:      ps.loc,
		})
		p.RelapseRiskScore = &score
		if err := ps.profileRepo.Save(dbc, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("Relapse recorded", "user_id", userID, "risk_score", *out.RelapseRiskScore)
	return out, nil
}

func (ps *profileService) ListInsights(ctx context.Context, insightTypes []string, limit int) ([]*types.Insight, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultInsightListLimit
	}
	return ps.insightRepo.ListForUser(dbctx.Context{Ctx: ctx}, userID, insightTypes, limit)
}

func attributeError(err error) error {
	var unknown *recoverymod.UnknownAttributeError
	if errors.As(err, &unknown) {
		return apierr.New(http.StatusNotFound, "unknown_attribute", err)
	}
	var invalid *recoverymod.InvalidAttributeValueError
	if errors.As(err, &invalid) {
		return apierr.New(http.StatusBadRequest, "invalid_attribute_value", err)
	}
	return err
}
