package notifications

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

//go:embed content.yaml
var contentYAML []byte

type Message struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type KindContent struct {
	Generic   Message   `yaml:"generic"`
	Prompt    string    `yaml:"prompt"`
	Templates []Message `yaml:"templates"`
}

// ContentBank is the template and prompt library for every kind.
type ContentBank struct {
	SystemPrompt string                             `yaml:"system_prompt"`
	Quotes       map[recovery.Phase][]string        `yaml:"quotes"`
	Kinds        map[notification.Kind]*KindContent `yaml:"kinds"`
}

// LoadContentBank parses raw YAML and checks every kind is covered.
func LoadContentBank(raw []byte) (*ContentBank, error) {
	var bank ContentBank
	if err := yaml.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("parse content bank: %w", err)
	}
	for _, k := range notification.Kinds {
		kc, ok := bank.Kinds[k]
		if !ok || kc == nil {
			return nil, fmt.Errorf("content bank: missing kind %s", k)
		}
		if len(kc.Templates) < 3 || len(kc.Templates) > 5 {
			return nil, fmt.Errorf("content bank: kind %s needs 3-5 templates, has %d", k, len(kc.Templates))
		}
		if kc.Generic.Title == "" || kc.Generic.Body == "" {
			return nil, fmt.Errorf("content bank: kind %s missing generic message", k)
		}
	}
	for _, phase := range []recovery.Phase{recovery.PhaseEarly, recovery.PhaseMiddle, recovery.PhaseSustained} {
		if len(bank.Quotes[phase]) == 0 {
			return nil, fmt.Errorf("content bank: no quotes for %s", phase)
		}
	}
	return &bank, nil
}

// DefaultContentBank returns the embedded bank. It panics if the embedded
// YAML is invalid.
func DefaultContentBank() *ContentBank {
	bank, err := LoadContentBank(contentYAML)
	if err != nil {
		panic(err)
	}
	return bank
}

// Generic returns the fixed fallback message for a kind.
func (b *ContentBank) Generic(k notification.Kind) Message {
	if kc, ok := b.Kinds[k]; ok && kc != nil {
		return kc.Generic
	}
	return b.Kinds[notification.KindCheckIn].Generic
}
