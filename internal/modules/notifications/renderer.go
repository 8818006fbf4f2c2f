package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
)

const (
	MaxTitleRunes = 50
	MaxBodyRunes  = 150
	ellipsis      = "..."

	llmMaxTokens   = 200
	llmTemperature = 0.7
)

// Content paths reported on Rendered.Path.
const (
	PathLLM              = "llm"
	PathTemplate         = "template"
	PathTemplateFallback = "template_fallback"
	PathGeneric          = "generic"
)

var errUnparseable = errors.New("completion did not contain a title and body")

type RenderInput struct {
	Notification *notification.ScheduledNotification
	// Profile may be nil; the generic message is used then.
	Profile  *recovery.Profile
	Insights []*recovery.Insight
	Goals    []*recovery.Goal
}

type Rendered struct {
	Title string
	Body  string
	Path  string
}

type Renderer struct {
	bank *ContentBank
	llm  openai.Client
	intn func(n int) int
	log  *logger.Logger
}

type RendererOption func(*Renderer)

// WithIntn replaces the uniform random source used to pick templates and quotes.
func WithIntn(intn func(n int) int) RendererOption {
	return func(r *Renderer) { r.intn = intn }
}

// NewRenderer builds a renderer; llm may be nil to disable the completion path.
func NewRenderer(log *logger.Logger, bank *ContentBank, llm openai.Client, opts ...RendererOption) *Renderer {
	if bank == nil {
		bank = DefaultContentBank()
	}
	r := &Renderer{bank: bank, llm: llm, intn: rand.IntN, log: log.With("component", "ContentRenderer")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render never fails: completion errors and malformed replies fall back to
// templates.
func (r *Renderer) Render(ctx context.Context, in RenderInput) Rendered {
	n := in.Notification
	if n == nil {
		return Rendered{}
	}
	if in.Profile == nil {
		msg := r.bank.Generic(n.Kind)
		observability.IncRenderPath(PathGeneric)
		return Rendered{Title: msg.Title, Body: msg.Body, Path: PathGeneric}
	}

	vars := r.placeholders(in)
	path := PathTemplate
	if r.llm != nil && wantsLLM(n) {
		out, err := r.renderLLM(ctx, n.Kind, vars)
		if err == nil {
			observability.IncRenderPath(PathLLM)
			return out
		}
		r.log.Warn("LLM render failed, using template", "kind", n.Kind, "notification_id", n.ID, "error", err)
		path = PathTemplateFallback
	}
	out := r.renderTemplate(n.Kind, vars)
	out.Path = path
	observability.IncRenderPath(path)
	return out
}

func wantsLLM(n *notification.ScheduledNotification) bool {
	if n.Kind.HighSalience() {
		return true
	}
	meta := decodeMetadata(n.Metadata)
	v, ok := meta[notification.MetaUseLLM]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

func (r *Renderer) renderTemplate(kind notification.Kind, vars *strings.Replacer) Rendered {
	kc, ok := r.bank.Kinds[kind]
	if !ok || kc == nil || len(kc.Templates) == 0 {
		msg := r.bank.Generic(kind)
		return Rendered{Title: msg.Title, Body: msg.Body}
	}
	tpl := kc.Templates[r.intn(len(kc.Templates))]
	return Rendered{Title: vars.Replace(tpl.Title), Body: vars.Replace(tpl.Body)}
}

func (r *Renderer) renderLLM(ctx context.Context, kind notification.Kind, vars *strings.Replacer) (Rendered, error) {
	kc, ok := r.bank.Kinds[kind]
	if !ok || kc == nil || strings.TrimSpace(kc.Prompt) == "" {
		return Rendered{}, fmt.Errorf("no prompt for kind %s", kind)
	}
	text, err := r.llm.Complete(ctx, r.bank.SystemPrompt, vars.Replace(kc.Prompt), llmMaxTokens, llmTemperature)
	if err != nil {
		return Rendered{}, err
	}
	title, body, err := ParseCompletion(text)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Title: Truncate(title, MaxTitleRunes),
		Body:  Truncate(body, MaxBodyRunes),
		Path:  PathLLM,
	}, nil
}

// ParseCompletion splits a "Title: ... Body: ..." reply. Replies without the
// markers fall back to first line as title and the remaining lines as body.
func ParseCompletion(text string) (string, string, error) {
	text = strings.TrimSpace(text)
	if ti := strings.Index(text, "Title:"); ti >= 0 {
		rest := text[ti+len("Title:"):]
		if bi := strings.Index(rest, "Body:"); bi >= 0 {
			title := cleanLine(rest[:bi])
			body := cleanLine(rest[bi+len("Body:"):])
			if title != "" && body != "" {
				return title, body, nil
			}
		}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if l := cleanLine(line); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return "", "", errUnparseable
	}
	title := cleanLine(strings.TrimPrefix(lines[0], "Title:"))
	body := cleanLine(strings.TrimPrefix(strings.Join(lines[1:], " "), "Body:"))
	if title == "" || body == "" {
		return "", "", errUnparseable
	}
	return title, body, nil
}

func cleanLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, "\"*' ")
}

// Truncate cuts s to at most limit runes, ending in an ellipsis only when it
// had to cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	if limit <= 0 {
		return ""
	}
	keep := limit - utf8.RuneCountInString(ellipsis)
	if keep <= 0 {
		return string(r[:limit])
	}
	return strings.TrimRight(string(r[:keep]), " ") + ellipsis
}

func (r *Renderer) placeholders(in RenderInput) *strings.Replacer {
	n := in.Notification
	meta := decodeMetadata(n.Metadata)
	p := in.Profile

	days := p.AbstinenceDays
	quotes := r.bank.Quotes[recovery.PhaseForDays(days)]
	quote := ""
	if len(quotes) > 0 {
		quote = quotes[r.intn(len(quotes))]
	}

	insight := metaString(meta, notification.MetaInsightValue)
	if insight == "" {
		if top := topInsight(in.Insights, insightTypeFor(n.Kind)); top != nil {
			insight = top.Value
		}
	}
	if insight == "" {
		insight = "the reasons you started"
	}

	goal := metaString(meta, notification.MetaGoalDescription)
	if goal == "" && n.RelatedEntityID != nil {
		for _, g := range in.Goals {
			if g != nil && g.ID == *n.RelatedEntityID {
				goal = g.Description
				break
			}
		}
	}
	if goal == "" {
		goal = "your goal"
	}

	daysToGo := metaInt(meta, notification.MetaDaysToGo)
	milestone := metaInt(meta, notification.MetaMilestone)
	if m := metaInt(meta, notification.MetaApproachingMilestone); m > 0 {
		milestone = m
	}
	risk := metaInt(meta, notification.MetaRiskScore)
	if score, ok := p.RiskScore(); ok && risk == 0 {
		risk = score
	}
	period := metaString(meta, notification.MetaHighRiskPeriod)
	if period == "" {
		period = "evening"
	}

	return strings.NewReplacer(
		"{days}", strconv.Itoa(days),
		"{insight}", insight,
		"{quote}", quote,
		"{goal}", goal,
		"{deadline}", deadlineWording(daysToGo),
		"{milestone}", strconv.Itoa(milestone),
		"{days_to_go}", strconv.Itoa(daysToGo),
		"{period}", period,
		"{risk}", strconv.Itoa(risk),
	)
}

func insightTypeFor(k notification.Kind) string {
	switch k {
	case notification.KindCopingStrategy, notification.KindRelapseRiskHigh:
		return recovery.InsightCopingStrategy
	case notification.KindHighRiskTime:
		return recovery.InsightTriggerTemporal
	}
	return recovery.InsightMotivation
}

func deadlineWording(days int) string {
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", days)
}

func decodeMetadata(raw []byte) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}
