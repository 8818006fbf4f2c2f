package recovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	domain "github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type ProfileRepo interface {
	// GetByUserID returns (nil, nil) when the user has no profile yet.
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error)
	// GetOrCreate inserts the default profile when missing. Concurrent callers
	// converge on the same row.
	GetOrCreate(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*types.Profile, error)
	Save(dbc dbctx.Context, profile *types.Profile) error
	ListUserIDs(dbc dbctx.Context, limit, offset int) ([]uuid.UUID, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Profile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Profile
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *profileRepo) GetOrCreate(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*types.Profile, error) {
	existing, err := r.GetByUserID(dbc, userID)
	if err != nil || existing != nil {
		return existing, err
	}
	p := domain.NewProfile(userID, now)
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p).Error; err != nil {
		return nil, err
	}
	r.log.Debug("Created recovery profile", "user_id", userID)
	return r.GetByUserID(dbc, userID)
}

func (r *profileRepo) Save(dbc dbctx.Context, profile *types.Profile) error {
	if profile == nil {
		return nil
	}
	return dbc.DB(r.db).Save(profile).Error
}

func (r *profileRepo) ListUserIDs(dbc dbctx.Context, limit, offset int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	err := dbc.DB(r.db).
		Model(&types.Profile{}).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Pluck("user_id", &ids).Error
	return ids, err
}
