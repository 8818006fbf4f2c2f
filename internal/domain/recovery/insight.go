package recovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Insight types. The taxonomy is open; these are the ones the engine reads.
const (
	InsightTrigger            = "trigger"
	InsightTriggerTemporal    = "trigger_temporal"
	InsightCopingStrategy     = "coping_strategy"
	InsightMotivation         = "motivation"
	InsightSchedule           = "schedule"
	InsightAbstinence         = "abstinence"
	InsightPsychologicalTrait = "psychological_trait"
	InsightKeyInsight         = "key_insight"
)

// Time-of-day buckets carried by temporal insights.
const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeNight     = "night"
)

var timeOfDayHour = map[string]int{
	TimeMorning:   9,
	TimeAfternoon: 14,
	TimeEvening:   19,
	TimeNight:     21,
}

// HourForTimeOfDay maps a time-of-day bucket to the hour a reminder targets.
func HourForTimeOfDay(tod string) (int, bool) {
	h, ok := timeOfDayHour[tod]
	return h, ok
}

// Insight is an append-only inferred fact about a user. New evidence produces
// new rows; readers rank by significance and confidence.
type Insight struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProfileID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"profile_id"`
	ConversationID *uuid.UUID `gorm:"type:uuid;index" json:"conversation_id,omitempty"`

	Type  string `gorm:"column:type;not null;index" json:"type"`
	Value string `gorm:"column:value;type:text;not null" json:"value"`

	// DayOfWeek uses time.Weekday numbering (Sunday=0).
	DayOfWeek *int   `gorm:"column:day_of_week" json:"day_of_week,omitempty"`
	TimeOfDay string `gorm:"column:time_of_day" json:"time_of_day,omitempty"`

	EmotionalSignificance float64 `gorm:"column:emotional_significance;not null;default:0.5" json:"emotional_significance"`
	Confidence            float64 `gorm:"column:confidence;not null;default:0.5" json:"confidence"`

	ExtractedAt time.Time `gorm:"column:extracted_at;not null;index" json:"extracted_at"`
}

func (Insight) TableName() string { return "insight" }

func (i *Insight) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.ExtractedAt.IsZero() {
		i.ExtractedAt = time.Now().UTC()
	}
	return nil
}

// MatchesWeekday reports whether a temporal insight applies on day.
func (i *Insight) MatchesWeekday(day time.Weekday) bool {
	return i.DayOfWeek != nil && *i.DayOfWeek == int(day)
}
