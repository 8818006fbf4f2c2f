package recovery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Stage string

const (
	StagePrecontemplation Stage = "precontemplation"
	StageContemplation    Stage = "contemplation"
	StagePreparation      Stage = "preparation"
	StageAction           Stage = "action"
	StageMaintenance      Stage = "maintenance"
)

var stageOrder = map[Stage]int{
	StagePrecontemplation: 0,
	StageContemplation:    1,
	StagePreparation:      2,
	StageAction:           3,
	StageMaintenance:      4,
}

func ParseStage(s string) (Stage, bool) {
	st := Stage(s)
	_, ok := stageOrder[st]
	return st, ok
}

// Before reports whether s comes earlier in the change cycle than other.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

const (
	MinMotivation     = 1
	MaxMotivation     = 10
	DefaultMotivation = 5
)

// Profile is the per-user recovery state. One row per user, created on first access.
type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	AddictionType string `gorm:"column:addiction_type" json:"addiction_type"`

	// AbstinenceDays is denormalized from AbstinenceStartDate; see RefreshAbstinence.
	AbstinenceStartDate *time.Time `gorm:"column:abstinence_start_date" json:"abstinence_start_date,omitempty"`
	AbstinenceDays      int        `gorm:"column:abstinence_days;not null;default:0" json:"abstinence_days"`

	MotivationLevel  int   `gorm:"column:motivation_level;not null;default:5" json:"motivation_level"`
	RecoveryStage    Stage `gorm:"column:recovery_stage;not null;default:'contemplation'" json:"recovery_stage"`
	RelapseRiskScore *int  `gorm:"column:relapse_risk_score" json:"relapse_risk_score,omitempty"`

	LastRelapseAt *time.Time `gorm:"column:last_relapse_at" json:"last_relapse_at,omitempty"`

	// ReportedRiskScore is a score set by hand; it floors computed scores
	// until it ages out. See ReportedRisk.
	ReportedRiskScore *int       `gorm:"column:reported_risk_score" json:"-"`
	ReportedRiskAt    *time.Time `gorm:"column:reported_risk_at" json:"-"`

	PsychologicalTraits datatypes.JSON `gorm:"column:psychological_traits" json:"psychological_traits"`

	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "recovery_profile" }

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now().UTC()
	}
	return nil
}

// NewProfile returns the default profile for a user who has none yet.
func NewProfile(userID uuid.UUID, now time.Time) *Profile {
	return &Profile{
		ID:                  uuid.New(),
		UserID:              userID,
		MotivationLevel:     DefaultMotivation,
		RecoveryStage:       StageContemplation,
		PsychologicalTraits: datatypes.JSON([]byte("{}")),
		LastUpdated:         now.UTC(),
	}
}

// DaysSince returns whole days elapsed since the abstinence start date.
func (p *Profile) DaysSince(now time.Time) int {
	if p == nil || p.AbstinenceStartDate == nil {
		return 0
	}
	d := int(now.Sub(*p.AbstinenceStartDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// RefreshAbstinence recomputes AbstinenceDays from the start date and reports
// whether it changed.
func (p *Profile) RefreshAbstinence(now time.Time) bool {
	if p.AbstinenceStartDate == nil {
		return false
	}
	days := p.DaysSince(now)
	if days == p.AbstinenceDays {
		return false
	}
	p.AbstinenceDays = days
	return true
}

// ResetAbstinence records a relapse: start date and day count move together.
func (p *Profile) ResetAbstinence(now time.Time) {
	start := now.UTC()
	p.AbstinenceStartDate = &start
	p.AbstinenceDays = 0
	p.LastUpdated = start
}

// RecordRelapse resets the streak and moves the profile back to preparation
// unless it never left precontemplation.
func (p *Profile) RecordRelapse(now time.Time) {
	p.ResetAbstinence(now)
	at := now.UTC()
	p.LastRelapseAt = &at
	if p.RecoveryStage != StagePrecontemplation {
		p.RecoveryStage = StagePreparation
	}
}

// RelapsedWithin reports whether the last recorded relapse is no older than window.
func (p *Profile) RelapsedWithin(now time.Time, window time.Duration) bool {
	if p == nil || p.LastRelapseAt == nil {
		return false
	}
	return now.Sub(*p.LastRelapseAt) <= window
}

// SetReportedRisk stores a hand-set score; nil clears it.
func (p *Profile) SetReportedRisk(score *int, now time.Time) {
	p.RelapseRiskScore = score
	if score == nil {
		p.ReportedRiskScore = nil
		p.ReportedRiskAt = nil
		return
	}
	v := *score
	at := now.UTC()
	p.ReportedRiskScore = &v
	p.ReportedRiskAt = &at
}

// ReportedRisk returns the hand-set score if it was set within window.
func (p *Profile) ReportedRisk(now time.Time, window time.Duration) (int, bool) {
	if p == nil || p.ReportedRiskScore == nil || p.ReportedRiskAt == nil {
		return 0, false
	}
	if now.Sub(*p.ReportedRiskAt) > window {
		return 0, false
	}
	return *p.ReportedRiskScore, true
}

// RiskScore returns the relapse risk and whether it has been assessed.
func (p *Profile) RiskScore() (int, bool) {
	if p == nil || p.RelapseRiskScore == nil {
		return 0, false
	}
	return *p.RelapseRiskScore, true
}

func ClampMotivation(v int) int {
	if v < MinMotivation {
		return MinMotivation
	}
	if v > MaxMotivation {
		return MaxMotivation
	}
	return v
}

// Phase is the coarse streak bucket used to pick encouragement wording.
type Phase string

const (
	PhaseEarly     Phase = "early"
	PhaseMiddle    Phase = "middle"
	PhaseSustained Phase = "sustained"
)

func PhaseForDays(days int) Phase {
	switch {
	case days <= 30:
		return PhaseEarly
	case days <= 90:
		return PhaseMiddle
	default:
		return PhaseSustained
	}
}

// ProgressedStage returns the stage implied by a running abstinence streak.
// Streaks only move a profile forward: action once abstinent, maintenance
// after six months.
func (p *Profile) ProgressedStage() Stage {
	if p.AbstinenceStartDate == nil {
		return p.RecoveryStage
	}
	next := StageAction
	if p.AbstinenceDays >= 180 {
		next = StageMaintenance
	}
	if p.RecoveryStage.Before(next) {
		return next
	}
	return p.RecoveryStage
}
