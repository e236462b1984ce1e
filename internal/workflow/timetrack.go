package workflow

import (
	"math"
	"time"

	"fieldservice/internal/domain/entity"
)

// TimeEffects are the timestamp and duration updates a transition produces.
type TimeEffects struct {
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ActualDuration *int // minutes
}

// TrackTime derives the time-tracking side effects of a transition. Pure
// function of the transition and prior job state; it does not touch the job.
func TrackTime(current, target entity.JobStatus, job *entity.Job, now time.Time) TimeEffects {
	var eff TimeEffects

	if current == entity.StatusPending && target == entity.StatusInProgress {
		t := now
		eff.StartedAt = &t
	}

	if target == entity.StatusCompleted {
		t := now
		eff.CompletedAt = &t
		if job.StartedAt != nil {
			minutes := RoundMinutes(now.Sub(*job.StartedAt))
			eff.ActualDuration = &minutes
		}
	}

	return eff
}

// RoundMinutes converts a duration to whole minutes with standard rounding,
// not truncation.
func RoundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
