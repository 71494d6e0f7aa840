package harness

import "github.com/fritzo/libhstar/internal/engine"

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Input   string `json:"input"`
	Budget  int    `json:"budget"`
	Passes  int    `json:"passes"`
	Output  string `json:"output,omitempty"` // Empty when the step failed
	Spent   int    `json:"spent"`
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"` // engine.ErrorCode of a failed step
	RunID   string `json:"run_id"`          // Journal ID; not part of golden output
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Session is the session token the steps were journaled under.
	Session string `json:"session"`

	// Stats is the engine's store summary after the last step.
	Stats engine.Stats `json:"stats"`
}

// NewResult creates a passing Result with empty collections.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

// Outputs returns the output of every successful step, in order.
func (r *Result) Outputs() []string {
	outputs := make([]string, 0, len(r.Trace))
	for _, event := range r.Trace {
		if event.Error == "" {
			outputs = append(outputs, event.Output)
		}
	}
	return outputs
}
