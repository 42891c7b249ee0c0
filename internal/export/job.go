package export

import (
	"fmt"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the job has finished, successfully or not.
func IsTerminal(s State) bool {
	return s == StateCompleted || s == StateFailed
}

// Job is the record of one export run. Only the pipeline mutates it.
type Job struct {
	State      State
	Range      models.PageRange
	TotalCards int
	Completed  int
	Err        error
}

// Transition moves job from one state to another. The caller supplies the
// expected prior state so that races show up as errors.
func Transition(job *Job, from, to State) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	if job.State != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, job.State)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	job.State = to
	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning
	case StateRunning:
		return to == StateCompleted || to == StateFailed
	default:
		return false
	}
}
