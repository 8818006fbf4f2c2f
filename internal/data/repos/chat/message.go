package chat

import (
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

type MessageRepo interface {
	// Append assigns the next sequence number within the conversation.
	Append(dbc dbctx.Context, msg *types.Message) error
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Append(dbc dbctx.Context, msg *types.Message) error {
	if msg == nil {
		return nil
	}
	return dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		var maxSeq sql.NullInt64
		if err := tx.Model(&types.Message{}).
			Where("conversation_id = ?", msg.ConversationID).
			Select("MAX(seq)").
			Row().
			Scan(&maxSeq); err != nil {
			return err
		}
		msg.Seq = int(maxSeq.Int64) + 1
		return tx.Create(msg).Error
	})
}

// ListByConversation returns messages in sequence order; limit <= 0 returns all.
func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	var out []*types.Message
	q := dbc.DB(r.db).Where("conversation_id = ?", conversationID).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
