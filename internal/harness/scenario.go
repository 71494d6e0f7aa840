package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
)

// Scenario defines a conformance test scenario: a sequence of reductions
// run against one engine, with per-step expectations and final assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Equations replaces the default equation table when non-empty.
	Equations []ir.Equation `yaml:"equations,omitempty"`

	// NoEquations runs the scenario with an empty equation table.
	// Mutually exclusive with Equations.
	NoEquations bool `yaml:"no_equations,omitempty"`

	// Steps are executed in order against the same engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, the journal and the store.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, stats
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Session is an optional fixed session token for the journal.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`
}

// Step parses one input and normalizes it.
type Step struct {
	// Input is prefix term text.
	Input string `yaml:"input"`

	// Budget is the S-step allowance of each normalize pass.
	Budget int `yaml:"budget"`

	// Normalize is the number of normalize passes. Zero means one.
	Normalize int `yaml:"normalize,omitempty"`

	// Expect is the expected serialized output.
	Expect string `yaml:"expect,omitempty"`

	// ExpectError is the expected engine error code (e.g. "PARSE_ERROR").
	// Mutually exclusive with Expect.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectPending, if set, is the expected pending flag of the output.
	ExpectPending *bool `yaml:"expect_pending,omitempty"`

	// ExpectSpent, if set, is the expected budget spent over all passes.
	ExpectSpent *int `yaml:"expect_spent,omitempty"`
}

// Passes returns the effective number of normalize passes.
func (s Step) Passes() int {
	return max(s.Normalize, 1)
}

// Assertion validates the trace, the journal or the engine store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check a term appears as a step output
	// - "trace_order": Check terms appear as outputs in order
	// - "trace_count": Check a term appears as an output exactly N times
	// - "final_state": Query a journal table and verify expected values
	// - "stats": Check engine store statistics (terms, pending, aliases)
	Type string `yaml:"type"`

	// Term is serialized term text (used by trace_contains, trace_count).
	Term string `yaml:"term,omitempty"`

	// Terms is the expected output order (used by trace_order).
	Terms []string `yaml:"terms,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Table is the journal table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state, stats).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertStats         = "stats"
)

// errorCodes are the values accepted by Step.ExpectError.
var errorCodes = map[string]bool{
	string(engine.ErrCodeParse):                true,
	string(engine.ErrCodeSerialization):        true,
	string(engine.ErrCodeUnsupportedReduction): true,
	string(engine.ErrCodeInvariantViolation):   true,
	string(engine.ErrCodeEquation):             true,
	string(engine.ErrCodeForeignTerm):          true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.NoEquations && len(s.Equations) > 0 {
		return fmt.Errorf("equations and no_equations are mutually exclusive")
	}

	for i, eq := range s.Equations {
		if eq.LHS == "" || eq.RHS == "" {
			return fmt.Errorf("equations[%d]: lhs and rhs are required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step.
func validateStep(index int, step *Step) error {
	if step.Input == "" {
		return fmt.Errorf("steps[%d]: input is required", index)
	}
	if step.Budget < 0 {
		return fmt.Errorf("steps[%d]: budget must be non-negative, got %d", index, step.Budget)
	}
	if step.Normalize < 0 {
		return fmt.Errorf("steps[%d]: normalize must be non-negative, got %d", index, step.Normalize)
	}
	if step.Expect != "" && step.ExpectError != "" {
		return fmt.Errorf("steps[%d]: expect and expect_error are mutually exclusive", index)
	}
	if step.ExpectError != "" && !errorCodes[step.ExpectError] {
		return fmt.Errorf("steps[%d]: unknown error code %q", index, step.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Term == "" {
			return fmt.Errorf("assertions[%d]: term is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Terms) == 0 {
			return fmt.Errorf("assertions[%d]: terms list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Term == "" {
			return fmt.Errorf("assertions[%d]: term is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertStats:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for stats", index)
		}
		for key := range a.Expect {
			if !statsKeys[key] {
				return fmt.Errorf("assertions[%d]: unknown stats field %q", index, key)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	return nil
}
