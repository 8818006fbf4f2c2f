package recovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

func ParseGoalStatus(s string) (GoalStatus, bool) {
	switch GoalStatus(s) {
	case GoalActive, GoalCompleted, GoalAbandoned:
		return GoalStatus(s), true
	}
	return "", false
}

// CanTransition reports whether a goal may move from s to next. Completed and
// abandoned are terminal.
func (s GoalStatus) CanTransition(next GoalStatus) bool {
	return s == GoalActive && (next == GoalCompleted || next == GoalAbandoned)
}

type Goal struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index" json:"conversation_id,omitempty"`

	Description string     `gorm:"column:description;type:text;not null" json:"description"`
	TargetDate  *time.Time `gorm:"column:target_date;index" json:"target_date,omitempty"`
	Status      GoalStatus `gorm:"column:status;not null;default:'active';index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Goal) TableName() string { return "goal" }

func (g *Goal) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = GoalActive
	}
	return nil
}

// DaysUntil counts calendar days from now to the target date in loc. Goals
// without a target date return false.
func (g *Goal) DaysUntil(now time.Time, loc *time.Location) (int, bool) {
	if g.TargetDate == nil {
		return 0, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return CalendarDaysBetween(now.In(loc), g.TargetDate.In(loc)), true
}

// CalendarDaysBetween returns the number of midnights between a and b, both
// taken in a's location.
func CalendarDaysBetween(a, b time.Time) int {
	loc := a.Location()
	b = b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
