package cli

import (
	"github.com/spf13/cobra"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
}

// ParseResult is the parse command's output.
type ParseResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Pending bool   `json:"pending"`
}

func (r ParseResult) String() string {
	return r.Output + pendingSuffix(r.Pending)
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <term>",
		Short: "Parse a term without spending any S steps",
		Long: `Parse a term and print its canonical form.

Parsing reduces every redex that needs no budget (I, K, B, C, TOP and BOT
heads) and stops at each S redex, leaving the result pending. Equations from
the config (or the default table) are applied.

Exit codes:
  0 - Term parsed
  1 - Reduction failed (join in head position)
  2 - Command error (malformed term, bad config)

Examples:
  hstar parse "APP APP K I S"
  hstar parse APP APP APP B I K B
  hstar parse --format json "APP APP S I I"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, termText(args), cmd)
		},
	}

	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	env, err := newCommandEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	eng, err := env.newEngine()
	if err != nil {
		return err
	}

	t, err := eng.Parse(text)
	if err != nil {
		return env.out.Fail(err, map[string]string{"input": text})
	}
	out, err := eng.Serialize(t)
	if err != nil {
		return env.out.Fail(err, map[string]string{"input": text})
	}

	result := ParseResult{
		Input:   text,
		Output:  out,
		Pending: eng.IsPending(t),
	}
	env.logger.Debug("parsed", "input", text, "output", out, "pending", result.Pending)
	return env.out.Success(result)
}
