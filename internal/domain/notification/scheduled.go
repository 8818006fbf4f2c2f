package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Metadata keys written by the candidate generator.
const (
	MetaRiskScore            = "risk_score"
	MetaHighRiskPeriod       = "high_risk_period"
	MetaMilestone            = "milestone"
	MetaApproachingMilestone = "approaching_milestone"
	MetaDaysToGo             = "days_to_go"
	MetaGoalDescription      = "goal_description"
	MetaInsightValue         = "insight_value"
	MetaUseLLM               = "use_llm"
)

// ScheduledNotification is a pending send. The only transition is unsent -> sent.
type ScheduledNotification struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_scheduled_user_sent,priority:1" json:"user_id"`

	Kind        Kind   `gorm:"column:kind;not null;index" json:"kind"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Body        string `gorm:"column:body;type:text;not null" json:"body"`
	TemplateKey string `gorm:"column:template_key" json:"template_key,omitempty"`

	ScheduledFor    time.Time  `gorm:"column:scheduled_for;not null;index" json:"scheduled_for"`
	RelatedEntityID *uuid.UUID `gorm:"type:uuid;column:related_entity_id;index" json:"related_entity_id,omitempty"`
	Priority        int        `gorm:"column:priority;not null" json:"priority"`

	Sent   bool       `gorm:"column:sent;not null;default:false;index:idx_scheduled_user_sent,priority:2" json:"sent"`
	SentAt *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`

	// Failed delivery attempts; rows that keep failing sort behind fresh ones.
	DeliveryAttempts int        `gorm:"column:delivery_attempts;not null;default:0" json:"delivery_attempts"`
	LastAttemptAt    *time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at,omitempty"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ScheduledNotification) TableName() string { return "scheduled_notification" }

func (n *ScheduledNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
