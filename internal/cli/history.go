package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string // list this session's runs instead of the sessions
}

// HistoryResult holds either the session summaries or one session's runs.
type HistoryResult struct {
	Sessions []ir.Session `json:"sessions,omitempty"`
	Runs     []ir.Run     `json:"runs,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled sessions and runs",
		Long: `List the sessions recorded in a run journal, or with --session the runs of
one session in seq order.

Exit codes:
  0 - Success
  2 - Command error (database not found, etc.)

Examples:
  hstar history --db ./hstar.db
  hstar history --db ./hstar.db --session demo
  hstar history --db ./hstar.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "list the runs of one session")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var result HistoryResult
	if opts.Session == "" {
		result.Sessions, err = st.ListSessions(ctx)
	} else {
		result.Runs, err = st.ReadRuns(ctx, opts.Session)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	if opts.Session == "" {
		if len(result.Sessions) == 0 {
			fmt.Fprintln(w, "No sessions found in database.")
			return nil
		}
		for _, s := range result.Sessions {
			fmt.Fprintf(w, "%s  %d run(s)  seq %d..%d\n", s.Token, s.Runs, s.FirstSeq, s.LastSeq)
		}
		return nil
	}

	if len(result.Runs) == 0 {
		fmt.Fprintf(w, "No runs found for session %s.\n", opts.Session)
		return nil
	}
	for _, run := range result.Runs {
		if run.Error != "" {
			fmt.Fprintf(w, "[%d] %s -> error: %s\n", run.Seq, run.Input, run.Error)
			continue
		}
		fmt.Fprintf(w, "[%d] %s -> %s%s\n", run.Seq, run.Input, run.Output, pendingSuffix(run.Pending))
		if opts.Verbose {
			fmt.Fprintf(w, "  budget=%d passes=%d spent=%d id=%s\n", run.Budget, run.Passes, run.Spent, run.ID)
		}
	}
	return nil
}
