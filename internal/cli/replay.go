package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplayRunResult holds the replay result for a single journaled run.
type ReplayRunResult struct {
	ID            string   `json:"id"`
	Session       string   `json:"session"`
	Seq           int64    `json:"seq"`
	Input         string   `json:"input"`
	Output        string   `json:"output"`
	Pending       bool     `json:"pending"`
	Deterministic bool     `json:"deterministic"`
	Differences   []string `json:"differences,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled runs and verify determinism",
		Long: `Re-execute every journaled run in seq order and verify the result.

Each run is evaluated on a fresh engine built from the equation table it was
recorded under, with the same budget and passes. The output, pending flag,
spent budget and error must match the journal exactly, and the run ID must
still hash from the run's inputs.

Exit codes:
  0 - All runs reproduced
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  hstar replay --db ./hstar.db
  hstar replay --db ./hstar.db --session 0190f5d2-7d7c-7a39-b4a6-c41b1b7e2a10
  hstar replay --db ./hstar.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ReplaySession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			result := ReplayResult{
				Runs:             []ReplayRunResult{},
				TotalRuns:        0,
				AllDeterministic: true,
			}
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	for _, rr := range runs {
		runResult := replayRun(rr, opts.Debug, logger)
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
			logger.Warn("replay diverged", "id", rr.Run.ID, "seq", rr.Run.Seq, "differences", runResult.Differences)
		}
	}

	// Output results
	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun evaluates one journaled run on a fresh engine and compares the
// outcome with what was recorded.
func replayRun(rr store.ReplayRun, debug bool, logger *slog.Logger) ReplayRunResult {
	run := rr.Run
	result := ReplayRunResult{
		ID:      run.ID,
		Session: run.Session,
		Seq:     run.Seq,
		Input:   run.Input,
	}

	var diffs []string
	if id, err := ir.RunID(run); err != nil {
		diffs = append(diffs, fmt.Sprintf("run id: %v", err))
	} else if id != run.ID {
		diffs = append(diffs, fmt.Sprintf("run id: recorded %s, inputs hash to %s", run.ID, id))
	}

	eng, err := engine.New(
		engine.WithEquations(rr.Equations),
		engine.WithDebug(debug),
		engine.WithLogger(logger),
	)
	if err != nil {
		result.Differences = append(diffs, fmt.Sprintf("equations: %v", err))
		return result
	}

	outcome, evalErr := eng.Evaluate(run.Input, int(run.Budget), int(run.Passes))
	result.Output = outcome.Output
	result.Pending = outcome.Pending

	replayedErr := ""
	if evalErr != nil {
		replayedErr = evalErr.Error()
	}
	diffs = append(diffs, compareRun(run, outcome, replayedErr)...)

	result.Differences = diffs
	result.Deterministic = len(diffs) == 0
	return result
}

// compareRun lists every recorded field the replay did not reproduce.
func compareRun(run ir.Run, outcome engine.Outcome, replayedErr string) []string {
	var diffs []string
	if run.Error != replayedErr {
		diffs = append(diffs, fmt.Sprintf("error: recorded %q, replayed %q", run.Error, replayedErr))
	}
	if run.Output != outcome.Output {
		diffs = append(diffs, fmt.Sprintf("output: recorded %q, replayed %q", run.Output, outcome.Output))
	}
	if run.Pending != outcome.Pending {
		diffs = append(diffs, fmt.Sprintf("pending: recorded %t, replayed %t", run.Pending, outcome.Pending))
	}
	if run.Spent != int64(outcome.Spent) {
		diffs = append(diffs, fmt.Sprintf("spent: recorded %d, replayed %d", run.Spent, outcome.Spent))
	}
	return diffs
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s [%d] %s -> %s%s\n", status, run.Seq, run.Input, run.Output, pendingSuffix(run.Pending))
		if verbose {
			fmt.Fprintf(w, "  Session: %s\n", run.Session)
			fmt.Fprintf(w, "  Run: %s\n", run.ID)
		}
		for _, d := range run.Differences {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
