package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngagementEvent is an append-only record of how a user reacted to a notification.
type EngagementEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_engagement_user_time,priority:1" json:"user_id"`
	NotificationID uuid.UUID `gorm:"type:uuid;not null;index" json:"notification_id"`
	Engaged        bool      `gorm:"column:engaged;not null" json:"engaged"`
	OccurredAt     time.Time `gorm:"column:occurred_at;not null;index:idx_engagement_user_time,priority:2" json:"occurred_at"`
}

func (EngagementEvent) TableName() string { return "engagement_event" }

func (e *EngagementEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return nil
}
