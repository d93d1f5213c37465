package jobs

import (
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
)

// Action is an operator command applied to a job.
type Action string

const (
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionRetry  Action = "retry"
)

// Actions lists every supported action.
var Actions = []Action{ActionStart, ActionStop, ActionPause, ActionResume, ActionRetry}

type transition struct {
	from []model.JobStatus
	to   model.JobStatus
}

var transitions = map[Action]transition{
	ActionStart:  {from: []model.JobStatus{model.JobCreated}, to: model.JobRunning},
	ActionPause:  {from: []model.JobStatus{model.JobRunning}, to: model.JobPaused},
	ActionResume: {from: []model.JobStatus{model.JobPaused}, to: model.JobRunning},
	ActionStop:   {from: []model.JobStatus{model.JobRunning, model.JobPaused, model.JobFailed}, to: model.JobCreated},
	ActionRetry:  {from: []model.JobStatus{model.JobFailed}, to: model.JobRunning},
}

// ParseAction maps a path segment to an Action.
func ParseAction(s string) (Action, error) {
	action := Action(s)
	if _, ok := transitions[action]; !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return action, nil
}

// NextStatus returns the status a job moves to when action is applied in status from.
// ok is false when the pair is not a legal transition.
func NextStatus(action Action, from model.JobStatus) (next model.JobStatus, ok bool) {
	t, known := transitions[action]
	if !known {
		return "", false
	}
	for _, status := range t.from {
		if status == from {
			return t.to, true
		}
	}
	return "", false
}

// sourceStates returns the statuses action may be applied in and its target status.
func sourceStates(action Action) ([]model.JobStatus, model.JobStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, "", fmt.Errorf("unknown action %q", action)
	}
	return t.from, t.to, nil
}
