package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

// commandEnv is what every engine-backed command starts from: the output
// formatter, the logger and the resolved engine settings.
type commandEnv struct {
	out      *OutputFormatter
	logger   *slog.Logger
	settings *engineSettings
}

// newCommandEnv resolves the global flags and config for cmd. A config
// error has already been reported through the formatter when returned.
func newCommandEnv(opts *RootOptions, cmd *cobra.Command) (*commandEnv, error) {
	env := &commandEnv{
		out:    newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		logger: newLogger(opts, cmd.ErrOrStderr()),
	}
	settings, err := resolveSettings(opts, env.logger)
	if err != nil {
		return nil, env.out.Fail(err, map[string]string{"config": opts.Config})
	}
	env.settings = settings
	return env, nil
}

// newEngine builds an engine from the resolved settings. extra options are
// applied last.
func (env *commandEnv) newEngine(extra ...engine.Option) (*engine.Engine, error) {
	opts := append(append([]engine.Option(nil), env.settings.Options...), extra...)
	eng, err := engine.New(opts...)
	if err != nil {
		return nil, env.out.Fail(err, nil)
	}
	return eng, nil
}

// termText joins command arguments into term text, so a term may be given
// quoted or as separate tokens.
func termText(args []string) string {
	return strings.Join(args, " ")
}

// pendingSuffix marks pending results in text output.
func pendingSuffix(pending bool) string {
	if pending {
		return " [pending]"
	}
	return ""
}

// recordRun journals run in dbPath under a fresh seq and the given session.
// The clock resumes from the journal so seq never repeats across processes.
func recordRun(ctx context.Context, dbPath, session string, run ir.Run, eqs []ir.Equation) (ir.Run, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return run, fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	last, err := st.LastSeq(ctx)
	if err != nil {
		return run, err
	}
	run.Seq = store.NewClockAt(last).Next()
	run.Session = session

	return st.RecordRun(ctx, run, eqs)
}
