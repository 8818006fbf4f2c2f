package notifications

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos"
	"github.com/rameshiCode/aindependent-backend/internal/domain/notification"
	"github.com/rameshiCode/aindependent-backend/internal/platform/dbctx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

const (
	// EngagementSampleSize is how many recent events the analyzer reads.
	EngagementSampleSize = 50
	maxOptimalHours      = 3
	defaultResponseRate  = 0.5
)

var defaultHours = []int{8, 12, 18}

// EngagementProfile is recomputed on every scheduling run and never stored.
type EngagementProfile struct {
	OptimalHours []int          `json:"optimal_hours"`
	OptimalDays  []time.Weekday `json:"optimal_days"`
	ResponseRate float64        `json:"response_rate"`
}

func DefaultEngagementProfile() EngagementProfile {
	return EngagementProfile{
		OptimalHours: append([]int(nil), defaultHours...),
		OptimalDays:  allWeekdays(),
		ResponseRate: defaultResponseRate,
	}
}

type EngagementAnalyzer struct {
	events repos.EngagementRepo
	loc    *time.Location
	log    *logger.Logger
}

func NewEngagementAnalyzer(log *logger.Logger, events repos.EngagementRepo, loc *time.Location) *EngagementAnalyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &EngagementAnalyzer{events: events, loc: loc, log: log.With("component", "EngagementAnalyzer")}
}

func (a *EngagementAnalyzer) Analyze(ctx context.Context, userID uuid.UUID) (EngagementProfile, error) {
	events, err := a.events.ListRecent(dbctx.Context{Ctx: ctx}, userID, EngagementSampleSize)
	if err != nil {
		return EngagementProfile{}, fmt.Errorf("load engagement events: %w", err)
	}
	return AnalyzeEvents(events, a.loc), nil
}

// AnalyzeEvents ranks hours and weekdays by engaged-event frequency in loc.
// Ties rank the smaller hour or weekday first.
func AnalyzeEvents(events []*notification.EngagementEvent, loc *time.Location) EngagementProfile {
	if len(events) == 0 {
		return DefaultEngagementProfile()
	}
	if loc == nil {
		loc = time.UTC
	}

	samples := make([]float64, 0, len(events))
	hourCounts := map[int]int{}
	dayCounts := map[int]int{}
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if !ev.Engaged {
			samples = append(samples, 0)
			continue
		}
		samples = append(samples, 1)
		at := ev.OccurredAt.In(loc)
		hourCounts[at.Hour()]++
		dayCounts[int(at.Weekday())]++
	}

	rate, err := stats.Mean(samples)
	if err != nil {
		rate = 0
	}
	out := EngagementProfile{ResponseRate: rate}
	if len(hourCounts) == 0 {
		out.OptimalHours = append([]int(nil), defaultHours...)
		out.OptimalDays = allWeekdays()
		return out
	}

	hours := rankByFrequency(hourCounts)
	if len(hours) > maxOptimalHours {
		hours = hours[:maxOptimalHours]
	}
	out.OptimalHours = hours
	for _, d := range rankByFrequency(dayCounts) {
		out.OptimalDays = append(out.OptimalDays, time.Weekday(d))
	}
	return out
}

func rankByFrequency(counts map[int]int) []int {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func allWeekdays() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}
