package model

import apperrors "github.com/elidorascodex/tecflow/internal/shared/errors"

// RunStatus is the outcome of an orchestration run.
type RunStatus string

const (
	RunStatusSuccess  RunStatus = "success"
	RunStatusFiltered RunStatus = "filtered"
	RunStatusError    RunStatus = "error"
)

// RunResult is the report returned by orchestration entry points.
// Errors are recorded, never dropped.
type RunResult struct {
	Status  RunStatus         `json:"status"`
	Errors  []string          `json:"errors"`
	Actions []string          `json:"actions,omitempty"`
	Outputs map[string]string `json:"outputs,omitempty"`
	Counts  map[string]int    `json:"counts,omitempty"`
}

// NewRunResult returns a successful, empty result.
func NewRunResult() *RunResult {
	return &RunResult{Status: RunStatusSuccess, Errors: []string{}}
}

// Fail records err and marks the run as failed.
func (r *RunResult) Fail(err error) {
	r.Status = RunStatusError
	r.Errors = append(r.Errors, err.Error())
}

// Filtered records err and marks the run as filtered unless it already failed.
func (r *RunResult) Filtered(err error) {
	if r.Status != RunStatusError {
		r.Status = RunStatusFiltered
	}
	r.Errors = append(r.Errors, err.Error())
}

// Record files err under the status its kind implies. A nil err is ignored.
func (r *RunResult) Record(err error) {
	switch {
	case err == nil:
	case apperrors.IsFiltered(err):
		r.Filtered(err)
	default:
		r.Fail(err)
	}
}

// Action records a performed action.
func (r *RunResult) Action(action string) {
	r.Actions = append(r.Actions, action)
}

// SetOutput records a named output.
func (r *RunResult) SetOutput(key, value string) {
	if r.Outputs == nil {
		r.Outputs = make(map[string]string)
	}
	r.Outputs[key] = value
}

// Inc increments a named counter.
func (r *RunResult) Inc(counter string) {
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[counter]++
}

// Absorb folds the errors of a nested run into r, each prefixed with prefix.
// A nested error status wins over filtered, which wins over success.
func (r *RunResult) Absorb(prefix string, other *RunResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		if prefix != "" {
			e = prefix + ": " + e
		}
		r.Errors = append(r.Errors, e)
	}
	switch other.Status {
	case RunStatusError:
		r.Status = RunStatusError
	case RunStatusFiltered:
		if r.Status == RunStatusSuccess {
			r.Status = RunStatusFiltered
		}
	}
}
