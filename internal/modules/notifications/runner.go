package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// Locker is a cross-process mutual exclusion primitive, e.g. redisx.Client.
type Locker interface {
	Lock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

const userLockTTL = 2 * time.Minute

// Runner makes sure at most one scheduling pass runs per user. Concurrent
// in-process callers share one pass; other processes are excluded by the
// optional Locker.
type Runner struct {
	scheduler *Scheduler
	locker    Locker
	group     singleflight.Group
	log       *logger.Logger
}

func NewRunner(log *logger.Logger, scheduler *Scheduler, locker Locker) *Runner {
	return &Runner{scheduler: scheduler, locker: locker, log: log.With("component", "SchedulingRunner")}
}

// Run schedules one user. When another process holds the user's lock the call
// returns an empty result with Outcome "locked".
func (r *Runner) Run(ctx context.Context, userID uuid.UUID) (ScheduleResult, error) {
	v, err, shared := r.group.Do(userID.String(), func() (any, error) {
		if r.locker != nil {
			release, ok, err := r.locker.Lock(ctx, "schedule:"+userID.String(), userLockTTL)
			if err != nil {
				r.log.Warn("User lock unavailable, scheduling without it", "user_id", userID, "error", err)
			} else {
				defer release()
				if !ok {
					return ScheduleResult{Outcome: OutcomeLocked}, nil
				}
			}
		}
		return r.scheduler.Schedule(ctx, userID)
	})
	if shared {
		r.log.Debug("Joined in-flight scheduling run", "user_id", userID)
	}
	res, _ := v.(ScheduleResult)
	if err != nil {
		return res, fmt.Errorf("schedule user %s: %w", userID, err)
	}
	return res, nil
}

// ScheduleUser satisfies insights.UserScheduler.
func (r *Runner) ScheduleUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.Run(ctx, userID)
	return err
}
