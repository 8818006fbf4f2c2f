package insights

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rameshiCode/aindependent-backend/internal/domain/chat"
	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

const maxValueRunes = 240

// Draft is an insight before it is attached to a profile.
type Draft struct {
	Type                  string
	Value                 string
	DayOfWeek             *int
	TimeOfDay             string
	EmotionalSignificance float64
	Confidence            float64
	Pattern               string
}

type GoalDraft struct {
	Description string
	TargetDate  *time.Time
}

// Extraction is everything the heuristics recovered from one conversation.
type Extraction struct {
	Insights        []Draft
	Goals           []GoalDraft
	RelapseDetected bool
	// MotivationLevel is nil when the conversation carried no signal.
	MotivationLevel *int
	// AbstinenceDays is the most recent streak the user stated, if any.
	AbstinenceDays *int
}

// Extractor finds insights in user messages with a regex pattern table.
type Extractor struct {
	patterns []*compiledPattern
}

// NewExtractor compiles patterns; invalid expressions are skipped. An empty
// list selects DefaultPatterns.
func NewExtractor(patterns []Pattern) *Extractor {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	compiled := make([]*compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			continue
		}
		compiled = append(compiled, &compiledPattern{Pattern: p, regex: re})
	}
	return &Extractor{patterns: compiled}
}

// Extract scans user messages sentence by sentence. Relative deadlines are
// resolved against now in loc.
func (e *Extractor) Extract(messages []*chat.Message, now time.Time, loc *time.Location) Extraction {
	if loc == nil {
		loc = time.UTC
	}
	var out Extraction
	seen := map[string]bool{}
	positive, negative := 0, 0

	for _, msg := range messages {
		if msg == nil || msg.Role != chat.RoleUser {
			continue
		}
		for _, sentence := range sentenceSplit.Split(msg.Content, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}
			positive += len(positiveRe.FindAllString(sentence, -1))
			negative += len(negativeRe.FindAllString(sentence, -1))

			if relapseRe.MatchString(sentence) {
				out.RelapseDetected = true
			}
			if m := abstinenceRe.FindStringSubmatch(sentence); m != nil {
				if days, ok := streakDays(m[1], m[2]); ok {
					out.AbstinenceDays = &days
					out.add(seen, Draft{
						Type:                  recovery.InsightAbstinence,
						Value:                 clip(sentence),
						EmotionalSignificance: 0.6,
						Confidence:            0.8,
						Pattern:               "streak",
					})
				}
			}
			if m := goalRe.FindStringSubmatch(sentence); m != nil {
				out.Goals = append(out.Goals, GoalDraft{
					Description: clip(strings.TrimSpace(m[1])),
					TargetDate:  deadline(sentence, now, loc),
				})
			}

			best := e.bestMatch(sentence)
			if best == nil {
				continue
			}
			d := Draft{
				Type:                  best.Type,
				Value:                 clip(sentence),
				EmotionalSignificance: best.Significance,
				Confidence:            best.Confidence,
				Pattern:               best.Name,
			}
			if best.Type == recovery.InsightTrigger {
				if temporal, ok := temporalTrigger(d, sentence); ok {
					out.add(seen, temporal)
				}
			}
			out.add(seen, d)
		}
	}

	if positive+negative > 0 {
		level := recovery.ClampMotivation(recovery.DefaultMotivation + 2*(positive-negative))
		out.MotivationLevel = &level
	}
	return out
}

func (x *Extraction) add(seen map[string]bool, d Draft) {
	key := d.Type + "\x00" + strings.ToLower(d.Value)
	if seen[key] {
		return
	}
	seen[key] = true
	x.Insights = append(x.Insights, d)
}

func (e *Extractor) bestMatch(sentence string) *compiledPattern {
	var best *compiledPattern
	for _, p := range e.patterns {
		if !p.regex.MatchString(sentence) {
			continue
		}
		if best == nil || p.Significance > best.Significance {
			best = p
		}
	}
	return best
}

// temporalTrigger upgrades a trigger sentence that names a weekday or a time
// of day.
func temporalTrigger(d Draft, sentence string) (Draft, bool) {
	var day *int
	if m := weekdayRe.FindStringSubmatch(sentence); m != nil {
		wd := int(weekdays[strings.ToLower(m[1])])
		day = &wd
	}
	tod := ""
	if m := timeOfDayRe.FindStringSubmatch(sentence); m != nil {
		tod = strings.ToLower(m[1])
		if tod == "tonight" {
			tod = recovery.TimeNight
		}
	}
	if day == nil && tod == "" {
		return Draft{}, false
	}
	d.Type = recovery.InsightTriggerTemporal
	d.DayOfWeek = day
	d.TimeOfDay = tod
	d.EmotionalSignificance = minFloat(1, d.EmotionalSignificance+0.1)
	d.Pattern = "temporal_" + d.Pattern
	return d, true
}

func streakDays(n, unit string) (int, bool) {
	v, err := strconv.Atoi(n)
	if err != nil || v < 0 {
		return 0, false
	}
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "day":
		return v, true
	case "week":
		return v * 7, true
	case "month":
		return v * 30, true
	case "year":
		return v * 365, true
	}
	return 0, false
}

// deadline resolves deadline words in a commitment to a calendar date
// (midnight in loc).
func deadline(sentence string, now time.Time, loc *time.Location) *time.Time {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	var t time.Time
	switch {
	case inDaysRe.MatchString(sentence):
		n, _ := strconv.Atoi(inDaysRe.FindStringSubmatch(sentence)[1])
		t = today.AddDate(0, 0, n)
	case tomorrowRe.MatchString(sentence):
		t = today.AddDate(0, 0, 1)
	case todayRe.MatchString(sentence):
		t = today
	case byWeekday.MatchString(sentence):
		want := weekdays[strings.ToLower(byWeekday.FindStringSubmatch(sentence)[1])]
		ahead := (int(want) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		t = today.AddDate(0, 0, ahead)
	case nextWeekRe.MatchString(sentence):
		t = today.AddDate(0, 0, 7)
	default:
		return nil
	}
	return &t
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxValueRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxValueRunes])
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
