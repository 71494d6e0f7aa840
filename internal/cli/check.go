package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/term"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// CheckResult is the check command's output.
type CheckResult struct {
	Input   string       `json:"input"`
	Output  string       `json:"output"`
	Pending bool         `json:"pending"`
	Spent   int          `json:"spent"`
	Stats   engine.Stats `json:"stats"`
}

func (r CheckResult) String() string {
	return fmt.Sprintf("✓ %s%s\n  terms=%d pending=%d aliases=%d spent=%d",
		r.Output, pendingSuffix(r.Pending),
		r.Stats.Terms, r.Stats.Pending, r.Stats.Aliases, r.Spent)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <term>",
		Short: "Reduce a term with store validation after every step",
		Long: `Parse a term under --budget on an engine that validates the term store
after every application, then validate once more and print store statistics.

Use this to confirm the store stays consistent for a given term and
equation table.

Exit codes:
  0 - Store consistent
  1 - Invariant violation or reduction failure
  2 - Command error (malformed term, bad config)

Examples:
  hstar check "APP APP APP S I I APP APP S I I"
  hstar check --budget 10 --config ./hstar.cue "APP APP APP S K K C"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, termText(args), cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, text string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	eng, err := env.newEngine(engine.WithDebug(true))
	if err != nil {
		return err
	}

	result, err := checkTerm(eng, text, env.settings.Budget)
	if err != nil {
		return env.out.Fail(err, map[string]string{"input": text})
	}
	return env.out.Success(result)
}

// checkTerm parses text on a debug engine. A debug engine panics with an
// *term.InvariantError when validation fails; the panic is returned as an
// error so it can be reported.
func checkTerm(eng *engine.Engine, text string, budget int) (result CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			var invErr *term.InvariantError
			if !ok || !errors.As(perr, &invErr) {
				panic(r)
			}
			err = perr
		}
	}()

	b := engine.NewBudget(budget)
	t, err := eng.ParseBudget(text, b)
	if err != nil {
		return CheckResult{}, err
	}
	out, err := eng.Serialize(t)
	if err != nil {
		return CheckResult{}, err
	}
	if err := eng.Validate(); err != nil {
		return CheckResult{}, err
	}

	return CheckResult{
		Input:   text,
		Output:  out,
		Pending: eng.IsPending(t),
		Spent:   b.Spent(),
		Stats:   eng.Stats(),
	}, nil
}
