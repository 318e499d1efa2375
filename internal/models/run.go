package models

import (
	"fmt"
	"time"
)

// RunState 部署运行状态
type RunState string

const (
	RunPlanning  RunState = "planning"
	RunExecuting RunState = "executing"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// Planning never reaches failed: a plan that does not validate stays in planning with an error.
var runTransitions = map[RunState][]RunState{
	RunPlanning:  {RunExecuting},
	RunExecuting: {RunCompleted, RunFailed},
}

/**
 * One orchestration run
 * @property {string} id - Run identifier (uuid)
 * @property {string} network - Target network name
 * @property {string} account - Deployer account
 * @property {RunState} state - Current state
 * @property {[]DeployedModule} modules - Modules recorded so far, in plan order
 * @property {string} error - Failure description for failed runs
 */
type Run struct {
	ID         string           `json:"id"`
	Network    string           `json:"network"`
	Account    string           `json:"account,omitempty"`
	State      RunState         `json:"state"`
	Plan       []string         `json:"plan,omitempty"`
	Modules    []DeployedModule `json:"modules"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

func NewRun(id, network string) *Run {
	return &Run{
		ID:        id,
		Network:   network,
		State:     RunPlanning,
		StartedAt: time.Now(),
	}
}

// Transition moves the run to the next state, rejecting moves the state machine does not allow.
func (r *Run) Transition(to RunState) error {
	for _, next := range runTransitions[r.State] {
		if next == to {
			r.State = to
			if r.Terminal() {
				now := time.Now()
				r.FinishedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
}

func (r *Run) Terminal() bool {
	return r.State == RunCompleted || r.State == RunFailed
}

// Address returns the recorded address of a module in this run.
func (r *Run) Address(name string) (string, bool) {
	for _, m := range r.Modules {
		if m.Name == name {
			return m.Address, true
		}
	}
	return "", false
}
