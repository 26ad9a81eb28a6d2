package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stlog/internal/store"
)

// InitDBOptions holds flags for the initdb command.
type InitDBOptions struct {
	*RootOptions
	Database string
}

// NewInitDBCommand creates the initdb command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitDBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the log schema in a SQLite database",
		Long: `Create the logentry schema in a SQLite database, creating the file
if it does not exist. Safe to run repeatedly.

Example:
  stlog initdb --db /tmp/test.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitDB(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInitDB(opts *InitDBOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.OpenFile(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	count, err := st.CountEntries(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "schema verification failed", err)
	}

	out.VerboseLog("existing entries: %d", count)
	return out.Success(fmt.Sprintf("%s: schema ready", opts.Database))
}
