package insights

import (
	"regexp"
	"time"

	"github.com/rameshiCode/aindependent-backend/internal/domain/recovery"
)

// Pattern tags sentences that match Regex with an insight type.
type Pattern struct {
	Name         string
	Type         string
	Regex        string
	Significance float64
	Confidence   float64
}

type compiledPattern struct {
	Pattern
	regex *regexp.Regexp
}

func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:         "craving",
			Type:         recovery.InsightTrigger,
			Regex:        `(?i)\b(?:crav(?:e|es|ed|ings?)|urges?|tempt(?:ed|ing|ation)|triggers?|triggered|makes me want to (?:drink|use|smoke|gamble))\b`,
			Significance: 0.8,
			Confidence:   0.7,
		},
		{
			Name:         "stressor",
			Type:         recovery.InsightTrigger,
			Regex:        `(?i)\b(?:when i(?:'m| am) (?:stressed|lonely|bored|angry|tired)|after (?:work|a fight|an argument)|around (?:friends who|people who) (?:drink|use))\b`,
			Significance: 0.7,
			Confidence:   0.6,
		},
		{
			Name:         "coping",
			Type:         recovery.InsightCopingStrategy,
			Regex:        `(?i)\b(?:helps? me|what works|i (?:go|went) for a (?:walk|run)|meditat(?:e|ed|ing|ion)|breathing exercises?|call(?:ed)? my sponsor|(?:aa|na) meetings?|journal(?:ing|ed)?|work(?:ing)? out)\b`,
			Significance: 0.6,
			Confidence:   0.7,
		},
		{
			Name:         "reason",
			Type:         recovery.InsightMotivation,
			Regex:        `(?i)\b(?:i want to (?:be|stay|get|see)|i(?:'m| am) doing this for|for my (?:kids|children|family|daughter|son|wife|husband|partner|health)|because i want)\b`,
			Significance: 0.8,
			Confidence:   0.7,
		},
		{
			Name:         "routine",
			Type:         recovery.InsightSchedule,
			Regex:        `(?i)\b(?:i work (?:nights|days|late|early)|my shift|every (?:morning|evening|night|weekend)|on weekends)\b`,
			Significance: 0.4,
			Confidence:   0.6,
		},
		{
			Name:         "trait",
			Type:         recovery.InsightPsychologicalTrait,
			Regex:        `(?i)\bi(?:'m| am)(?: (?:very|really|always|often|so))? (?:anxious|lonely|stressed|impulsive|depressed|bored|angry|perfectionist|shy)\b`,
			Significance: 0.5,
			Confidence:   0.5,
		},
		{
			Name:         "realization",
			Type:         recovery.InsightKeyInsight,
			Regex:        `(?i)\b(?:i(?:'ve)? realized|i(?:'ve)? noticed|i(?:'ve)? learned|it hit me|i understand now)\b`,
			Significance: 0.7,
			Confidence:   0.6,
		},
	}
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

	weekdayRe   = regexp.MustCompile(`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)s?\b`)
	timeOfDayRe = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|night|tonight)s?\b`)

	abstinenceRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s+(days?|weeks?|months?|years?)\s+(?:sober|clean|without|free)\b`)
	relapseRe    = regexp.MustCompile(`(?i)\b(?:relapsed|i slipped|slipped up|fell off the wagon|i (?:drank|used|smoked|gambled) again|started (?:drinking|using|smoking|gambling) again)\b`)

	goalRe     = regexp.MustCompile(`(?i)\b(?:my goal is to|i will|i'll|i(?:'m| am) going to|i plan to|i promise to)\s+([^.!?\n]{3,})`)
	inDaysRe   = regexp.MustCompile(`(?i)\bin (\d{1,3}) days?\b`)
	byWeekday  = regexp.MustCompile(`(?i)\b(?:by|on|this|next) (sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	todayRe    = regexp.MustCompile(`(?i)\b(?:today|tonight)\b`)
	tomorrowRe = regexp.MustCompile(`(?i)\btomorrow\b`)
	nextWeekRe = regexp.MustCompile(`(?i)\b(?:next week|within a week)\b`)

	positiveRe = regexp.MustCompile(`(?i)\b(?:i can do this|feeling (?:strong|good|better|great)|determined|motivated|proud of myself|hopeful|confident)\b`)
	negativeRe = regexp.MustCompile(`(?i)\b(?:give up|giving up|hopeless|can't do this|cannot do this|no point|pointless|what's the point|worthless|exhausted)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}
