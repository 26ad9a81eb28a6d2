package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stlog/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate an stlog config file",
		Long: `Validate an stlog CUE config file against the embedded schema.

Exit code 0 means the config is well-formed and concrete; schema
violations are reported with file positions and exit code 1.

Example:
  stlog validate ./stlog.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "config file not found", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid config", err)
	}
	if _, err := cfg.MinLevel(); err != nil {
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	out.VerboseLog("flavor=%s database=%s level=%s", cfg.Flavor, cfg.Database, cfg.Level)
	return out.Success(fmt.Sprintf("%s: ok", path))
}
