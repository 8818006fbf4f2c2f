package recovery

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

// Attribute names exposed for direct profile reads and edits.
const (
	AttrAddictionType       = "addiction_type"
	AttrMotivationLevel     = "motivation_level"
	AttrRecoveryStage       = "recovery_stage"
	AttrRelapseRiskScore    = "relapse_risk_score"
	AttrAbstinenceStartDate = "abstinence_start_date"
	AttrAbstinenceDays      = "abstinence_days"
	AttrPsychologicalTraits = "psychological_traits"
)

type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown profile attribute %q", e.Name)
}

type InvalidAttributeValueError struct {
	Name   string
	Reason string
}

func (e *InvalidAttributeValueError) Error() string {
	return fmt.Sprintf("invalid value for profile attribute %q: %s", e.Name, e.Reason)
}

type attribute struct {
	get func(p *recovery.Profile) any
	// set is nil for read-only attributes.
	set func(p *recovery.Profile, v any, now time.Time) error
}

var attributes = map[string]attribute{
	AttrAddictionType: {
		get: func(p *recovery.Profile) any { return p.AddictionType },
		set: func(p *recovery.Profile, v any, _ time.Time) error {
			s, ok := v.(string)
			if !ok {
				return invalid(AttrAddictionType, "expected a string")
			}
			p.AddictionType = strings.TrimSpace(s)
			return nil
		},
	},
	AttrMotivationLevel: {
		get: func(p *recovery.Profile) any { return p.MotivationLevel },
		set: func(p *recovery.Profile, v any, _ time.Time) error {
			n, ok := asInt(v)
			if !ok {
				return invalid(AttrMotivationLevel, "expected an integer")
			}
			if n < recovery.MinMotivation || n > recovery.MaxMotivation {
				return invalid(AttrMotivationLevel, fmt.Sprintf("must be between %d and %d", recovery.MinMotivation, recovery.MaxMotivation))
			}
			p.MotivationLevel = n
			return nil
		},
	},
	AttrRecoveryStage: {
		get: func(p *recovery.Profile) any { return string(p.RecoveryStage) },
		set: func(p *recovery.Profile, v any, _ time.Time) error {
			s, _ := v.(string)
			stage, ok := recovery.ParseStage(strings.ToLower(strings.TrimSpace(s)))
			if !ok {
				return invalid(AttrRecoveryStage, "expected one of precontemplation, contemplation, preparation, action, maintenance")
			}
			p.RecoveryStage = stage
			return nil
		},
	},
	AttrRelapseRiskScore: {
		get: func(p *recovery.Profile) any {
			if score, ok := p.RiskScore(); ok {
				return score
			}
			return nil
		},
		set: func(p *recovery.Profile, v any, now time.Time) error {
			if v == nil {
				p.SetReportedRisk(nil, now)
				return nil
			}
			n, ok := asInt(v)
			if !ok || n < 0 || n > 100 {
				return invalid(AttrRelapseRiskScore, "expected an integer between 0 and 100 or null")
			}
			p.SetReportedRisk(&n, now)
			return nil
		},
	},
	AttrAbstinenceStartDate: {
		get: func(p *recovery.Profile) any {
			if p.AbstinenceStartDate == nil {
				return nil
			}
			return p.AbstinenceStartDate.UTC().Format(time.RFC3339)
		},
		set: func(p *recovery.Profile, v any, now time.Time) error {
			if v == nil {
				p.AbstinenceStartDate = nil
				p.AbstinenceDays = 0
				return nil
			}
			s, _ := v.(string)
			start, err := parseDate(s)
			if err != nil {
				return invalid(AttrAbstinenceStartDate, "expected RFC 3339 timestamp or YYYY-MM-DD")
			}
			if start.After(now) {
				return invalid(AttrAbstinenceStartDate, "must not be in the future")
			}
			start = start.UTC()
			p.AbstinenceStartDate = &start
			p.AbstinenceDays = p.DaysSince(now)
			return nil
		},
	},
	AttrAbstinenceDays: {
		get: func(p *recovery.Profile) any { return p.AbstinenceDays },
	},
	AttrPsychologicalTraits: {
		get: func(p *recovery.Profile) any {
			out := map[string]any{}
			if len(p.PsychologicalTraits) > 0 {
				_ = json.Unmarshal(p.PsychologicalTraits, &out)
			}
			return out
		},
		set: func(p *recovery.Profile, v any, _ time.Time) error {
			m, ok := v.(map[string]any)
			if !ok {
				return invalid(AttrPsychologicalTraits, "expected an object")
			}
			raw, err := json.Marshal(m)
			if err != nil {
				return invalid(AttrPsychologicalTraits, err.Error())
			}
			p.PsychologicalTraits = datatypes.JSON(raw)
			return nil
		},
	},
}

// AttributeNames lists every readable attribute in a stable order.
func AttributeNames() []string {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetAttribute(p *recovery.Profile, name string) (any, error) {
	attr, ok := attributes[name]
	if !ok {
		return nil, &UnknownAttributeError{Name: name}
	}
	return attr.get(p), nil
}

// SetAttribute validates and assigns one attribute and bumps LastUpdated.
// The profile is left unchanged on error.
func SetAttribute(p *recovery.Profile, name string, value any, now time.Time) error {
	attr, ok := attributes[name]
	if !ok {
		return &UnknownAttributeError{Name: name}
	}
	if attr.set == nil {
		return invalid(name, "attribute is read only")
	}
	if err := attr.set(p, value, now); err != nil {
		return err
	}
	p.LastUpdated = now.UTC()
	return nil
}

// Snapshot returns every attribute keyed by name.
func Snapshot(p *recovery.Profile) map[string]any {
	out := make(map[string]any, len(attributes))
	for name, attr := range attributes {
		out[name] = attr.get(p)
	}
	return out
}

func invalid(name, reason string) error {
	return &InvalidAttributeValueError{Name: name, Reason: reason}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
