package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserNotification is the delivered, read-tracked copy shown in-app.
type UserNotification struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ScheduledNotificationID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"scheduled_notification_id,omitempty"`

	Kind     Kind   `gorm:"column:kind;not null" json:"kind"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Body     string `gorm:"column:body;type:text;not null" json:"body"`
	Priority int    `gorm:"column:priority;not null" json:"priority"`

	Sent        bool       `gorm:"column:sent;not null;default:false" json:"sent"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	Opened      bool       `gorm:"column:opened;not null;default:false" json:"opened"`
	OpenedAt    *time.Time `gorm:"column:opened_at" json:"opened_at,omitempty"`
	Dismissed   bool       `gorm:"column:dismissed;not null;default:false" json:"dismissed"`
	DismissedAt *time.Time `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (UserNotification) TableName() string { return "user_notification" }

func (n *UserNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
