package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

// DefaultSession is the session token used when a scenario names none.
const DefaultSession = "test-session-default"

// Harness is the scenario execution engine.
// It runs steps with a deterministic clock and session token.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	clock   *store.Clock
	session string
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh engine in debug mode and a fresh
// in-memory journal. Every step is recorded with store.RecordRun exactly as
// the CLI records normalizations.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute steps, checking each step's expectations
// 3. Evaluate assertions against the trace, journal and store
// 4. Return result with pass/fail, trace, and errors
//
// Returns an error only if the scenario could not be executed (invalid
// equations, journal failure). Failed expectations are reported in the
// Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// Suppress engine logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng, err := engine.New(
		engine.WithEquations(scenarioEquations(scenario)),
		engine.WithDebug(true),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	session := scenario.Session
	if session == "" {
		session = DefaultSession
	}

	h := &Harness{
		store:   st,
		engine:  eng,
		clock:   store.NewClock(),
		session: store.NewFixedGenerator(session).Generate(),
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()
	result.Session = h.session

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if err := eng.Validate(); err != nil {
		result.AddError(fmt.Sprintf("store invalid after steps: %v", err))
	}
	result.Stats = eng.Stats()

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// scenarioEquations returns the equation table a scenario runs under.
func scenarioEquations(s *Scenario) []ir.Equation {
	switch {
	case s.NoEquations:
		return nil
	case len(s.Equations) > 0:
		return s.Equations
	default:
		return engine.DefaultEquations()
	}
}

// executeSteps runs all steps in order and validates their expectations.
//
// Each step:
// 1. Takes the next seq from the clock (exactly once per step)
// 2. Evaluates the input on the shared engine
// 3. Records the run in the journal
// 4. Appends a trace event and checks the step's expectations
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	eqs := h.engine.Equations()

	for i, step := range steps {
		seq := h.clock.Next()
		passes := step.Passes()

		event := TraceEvent{
			Seq:    seq,
			Input:  step.Input,
			Budget: step.Budget,
			Passes: passes,
		}
		run := ir.Run{
			Session: h.session,
			Seq:     seq,
			Input:   step.Input,
			Budget:  int64(step.Budget),
			Passes:  int64(passes),
		}

		outcome, evalErr := h.engine.Evaluate(step.Input, step.Budget, passes)
		if evalErr != nil {
			event.Error = string(engine.CodeOf(evalErr))
			run.Error = evalErr.Error()
		} else {
			event.Output = outcome.Output
			event.Spent = outcome.Spent
			event.Pending = outcome.Pending
			run.Output = outcome.Output
			run.Spent = int64(outcome.Spent)
			run.Pending = outcome.Pending
		}

		recorded, err := h.store.RecordRun(ctx, run, eqs)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		event.RunID = recorded.ID
		result.AddTrace(event)

		for _, msg := range checkStep(step, event) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Input, msg))
		}

		h.logger.Info("step completed",
			"step", i,
			"seq", seq,
			"output", event.Output,
			"spent", event.Spent,
			"pending", event.Pending,
			"error", event.Error,
		)
	}
	return nil
}

// checkStep compares a step's event against its expectations.
func checkStep(step Step, event TraceEvent) []string {
	var errs []string

	if step.ExpectError != "" {
		if event.Error != step.ExpectError {
			errs = append(errs, fmt.Sprintf("expected error %s, got %s", step.ExpectError, describe(event)))
		}
		return errs
	}
	if event.Error != "" {
		return append(errs, fmt.Sprintf("unexpected error %s", event.Error))
	}

	if step.Expect != "" && event.Output != step.Expect {
		errs = append(errs, fmt.Sprintf("expected output %s, got %s", step.Expect, event.Output))
	}
	if step.ExpectPending != nil && event.Pending != *step.ExpectPending {
		errs = append(errs, fmt.Sprintf("expected pending=%t, got pending=%t", *step.ExpectPending, event.Pending))
	}
	if step.ExpectSpent != nil && event.Spent != *step.ExpectSpent {
		errs = append(errs, fmt.Sprintf("expected spent=%d, got spent=%d", *step.ExpectSpent, event.Spent))
	}
	return errs
}

func describe(event TraceEvent) string {
	if event.Error != "" {
		return "error " + event.Error
	}
	return "output " + event.Output
}
