package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stlog/internal/record"
	"github.com/roach88/stlog/internal/store"
)

// TailOptions holds flags for the tail command.
type TailOptions struct {
	*RootOptions
	Database string
	Count    int
}

// NewTailCommand creates the tail command.
func NewTailCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TailOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent persisted entries",
		Long: `Print the most recent persisted log entries in chronological order.
Text output uses the same render format that drives the logging facade,
so lines match what the fallback stream would have shown.

Example:
  stlog tail --db /tmp/test.db -n 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 10, "number of entries to print")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTail(opts *TailOptions, cmd *cobra.Command) error {
	if opts.Count <= 0 {
		return NewExitError(ExitCommandError, "count must be positive")
	}

	st, err := store.OpenFile(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadRecent(cmd.Context(), opts.Count)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		return out.Success(entries)
	}

	tmpl, err := record.NewTemplate(record.EnvFormat())
	if err != nil {
		return WrapExitError(ExitCommandError, "bad render format", err)
	}
	w := cmd.OutOrStdout()
	for i := range entries {
		fmt.Fprintln(w, tmpl.RenderEntry(&entries[i]))
	}
	return nil
}
