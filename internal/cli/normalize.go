package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	Steps    int    // normalization passes, each with a fresh budget
	Database string // optional run journal
	Session  string // session token; generated when empty

	// Sessions issues the token when Session is empty. Defaults to UUIDv7.
	Sessions store.SessionGenerator
}

// NormalizeResult is the normalize command's output.
type NormalizeResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Budget  int    `json:"budget"`
	Passes  int    `json:"passes"`
	Spent   int    `json:"spent"`
	Pending bool   `json:"pending"`
	RunID   string `json:"run_id,omitempty"`
	Session string `json:"session,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
}

func (r NormalizeResult) String() string {
	return r.Output + pendingSuffix(r.Pending)
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize <term>",
		Short: "Normalize a term under an S-step budget",
		Long: `Normalize a term, spending at most --budget S steps per pass.

With --steps N the term is normalized up to N times, each pass with a fresh
budget, stopping early once nothing is pending. A pending result resumes
where the previous pass stopped, so progress is incremental.

With --db every normalization is journaled (input, budget, passes, output,
equation table) under a logical seq and a session token, for later replay.

Exit codes:
  0 - Term normalized (possibly pending)
  1 - Reduction failed (join in head position)
  2 - Command error (malformed term, bad config, database error)

Examples:
  hstar normalize "APP APP APP S K K C"
  hstar normalize --budget 1 --steps 4 "APP APP APP S I I APP APP S I I"
  hstar normalize --db ./hstar.db --session demo "APP APP S K K I"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, termText(args), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Steps, "steps", 1, "normalization passes, each with a fresh budget")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run journal (optional)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token for journaled runs (default: new UUIDv7)")

	return cmd
}

func runNormalize(opts *NormalizeOptions, text string, cmd *cobra.Command) error {
	if opts.Steps < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid steps %d: must be >= 1", opts.Steps))
	}

	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	eng, err := env.newEngine()
	if err != nil {
		return err
	}

	budget := env.settings.Budget
	outcome, evalErr := eng.Evaluate(text, budget, opts.Steps)

	result := NormalizeResult{
		Input:   text,
		Output:  outcome.Output,
		Budget:  budget,
		Passes:  opts.Steps,
		Spent:   outcome.Spent,
		Pending: outcome.Pending,
	}

	if opts.Database != "" {
		run := ir.Run{
			Input:   text,
			Budget:  int64(budget),
			Passes:  int64(opts.Steps),
			Output:  outcome.Output,
			Spent:   int64(outcome.Spent),
			Pending: outcome.Pending,
		}
		if evalErr != nil {
			run.Error = evalErr.Error()
		}

		recorded, err := recordRun(context.Background(), opts.Database, opts.session(), run, eng.Equations())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		result.RunID = recorded.ID
		result.Session = recorded.Session
		result.Seq = recorded.Seq
		env.logger.Debug("run recorded", "id", recorded.ID, "session", recorded.Session, "seq", recorded.Seq)
	}

	if evalErr != nil {
		details := map[string]string{"input": text}
		if result.RunID != "" {
			details["run_id"] = result.RunID
		}
		return env.out.Fail(evalErr, details)
	}

	env.out.VerboseLog("spent %d of %d per pass over %d pass(es)", result.Spent, budget, opts.Steps)
	return env.out.Success(result)
}

func (opts *NormalizeOptions) session() string {
	if opts.Session != "" {
		return opts.Session
	}
	if opts.Sessions == nil {
		opts.Sessions = store.UUIDv7Generator{}
	}
	return opts.Sessions.Generate()
}
