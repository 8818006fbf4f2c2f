package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, conv *types.Conversation) error
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Conversation, error)
	// MarkEnded stamps ended_at once and reports whether this call did it.
	MarkEnded(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, conv *types.Conversation) error {
	if conv == nil {
		return nil
	}
	return dbc.DB(r.db).Create(conv).Error
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Conversation, error) {
	var row types.Conversation
	if err := dbc.DB(r.db).Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *conversationRepo) MarkEnded(dbc dbctx.Context, userID, id uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Conversation{}).
		Where("id = ? AND user_id = ? AND ended_at IS NULL", id, userID).
		Update("ended_at", at.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
