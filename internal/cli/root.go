package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// DefaultBudget is the S-step allowance per pass when neither --budget nor
// the config file sets one.
const DefaultBudget = 1000

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Budget  int    // S steps per pass
	Config  string // CUE engine config file
	Debug   bool   // validate the store after every Apply

	// BudgetSet records that --budget was given, so it overrides the config.
	BudgetSet bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hstar CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hstar",
		Short: "hstar - budgeted reduction for SKI with TOP, BOT and JOIN",
		Long: `A hash-consed reduction engine for combinatory terms.

Terms are written in prefix form over the atoms TOP BOT I K B C S with the
binary constructors APP and JOIN, for example "APP APP K I S". Reduction is
budgeted: each S step costs one unit, and a term whose budget ran out is
pending and resumes where it stopped.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Budget < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid budget %d: must be >= 0", opts.Budget))
			}
			opts.BudgetSet = cmd.Flags().Changed("budget")
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.Budget, "budget", DefaultBudget, "S steps allowed per normalization pass")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "CUE engine config file")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "validate the term store after every reduction")

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewNormalizeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
