package recovery

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

func TestSetAttributeValidates(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p := recovery.NewProfile(uuid.New(), now.Add(-time.Hour))

	var unknown *UnknownAttributeError
	if err := SetAttribute(p, "favorite_color", "blue", now); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownAttributeError, got %v", err)
	}
	if _, err := GetAttribute(p, "favorite_color"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownAttributeError on get, got %v", err)
	}

	var invalidErr *InvalidAttributeValueError
	cases := []struct {
		name  string
		value any
	}{
		{AttrMotivationLevel, 11.0},
		{AttrMotivationLevel, 2.5},
		{AttrRecoveryStage, "relapsed"},
		{AttrRelapseRiskScore, 101.0},
		{AttrAbstinenceDays, 4.0},
		{AttrAbstinenceStartDate, "2099-01-01"},
		{AttrPsychologicalTraits, "calm"},
	}
	for _, tc := range cases {
		if err := SetAttribute(p, tc.name, tc.value, now); !errors.As(err, &invalidErr) {
			t.Fatalf("%s=%v: expected InvalidAttributeValueError, got %v", tc.name, tc.value, err)
		}
	}
	if p.MotivationLevel != recovery.DefaultMotivation {
		t.Fatalf("failed set mutated profile: %d", p.MotivationLevel)
	}
}

func TestSetAttributeAssigns(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p := recovery.NewProfile(uuid.New(), now.Add(-time.Hour))

	if err := SetAttribute(p, AttrMotivationLevel, 8.0, now); err != nil {
		t.Fatalf("motivation: %v", err)
	}
	if err := SetAttribute(p, AttrRecoveryStage, "Action", now); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := SetAttribute(p, AttrAbstinenceStartDate, "2025-03-01", now); err != nil {
		t.Fatalf("start date: %v", err)
	}
	if err := SetAttribute(p, AttrPsychologicalTraits, map[string]any{"resilience": "high"}, now); err != nil {
		t.Fatalf("traits: %v", err)
	}
	if err := SetAttribute(p, AttrRelapseRiskScore, nil, now); err != nil {
		t.Fatalf("risk: %v", err)
	}

	if p.MotivationLevel != 8 || p.RecoveryStage != recovery.StageAction {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if got, _ := GetAttribute(p, AttrAbstinenceDays); got != 9 {
		t.Fatalf("abstinence days derived from start date: got %v", got)
	}
	traits, _ := GetAttribute(p, AttrPsychologicalTraits)
	if traits.(map[string]any)["resilience"] != "high" {
		t.Fatalf("traits not stored: %v", traits)
	}
	if got, _ := GetAttribute(p, AttrRelapseRiskScore); got != nil {
		t.Fatalf("expected nil risk, got %v", got)
	}
	if !p.LastUpdated.Equal(now) {
		t.Fatalf("LastUpdated not bumped")
	}
	if len(Snapshot(p)) != len(AttributeNames()) {
		t.Fatalf("snapshot incomplete")
	}
}
