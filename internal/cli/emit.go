package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stlog"
	"github.com/roach88/stlog/internal/config"
	"github.com/roach88/stlog/internal/record"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	Config   string
	Database string
	Level    string
	Message  string
	Batch    string
	Run      string
}

// BatchRecord is one record in a YAML batch file.
type BatchRecord struct {
	// Level is the severity name; defaults to INFO.
	Level string `yaml:"level,omitempty"`

	// Message is the record text.
	Message string `yaml:"message"`

	// Error optionally attaches exception text to the record.
	Error string `yaml:"error,omitempty"`
}

// BatchFile is the YAML shape accepted by --batch.
type BatchFile struct {
	Records []BatchRecord `yaml:"records"`
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit log records through a real binding",
		Long: `Emit one record, or a YAML batch of records, through the logging
facade. Records are persisted to the configured backend; records that
cannot be persisted appear on stderr via the fallback path, exactly as
they would inside an application.

Each invocation is tagged with a run token so persisted entries can be
traced back to the run that produced them.

Examples:
  stlog emit --db /tmp/test.db --level CRITICAL --message "critical error"
  stlog emit --config ./stlog.cue --batch ./records.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to CUE config file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (shorthand for a sqlite config)")
	cmd.Flags().StringVar(&opts.Level, "level", "INFO", "severity of the emitted record")
	cmd.Flags().StringVar(&opts.Message, "message", "", "record message")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "path to a YAML batch file")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token (defaults to a generated UUIDv7)")

	return cmd
}

func runEmit(opts *EmitOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	bindCfg, err := bindingConfig(opts)
	if err != nil {
		return err
	}

	records, err := collectRecords(opts)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return NewExitError(ExitCommandError, "nothing to emit: provide --message or --batch")
	}

	binding, err := stlog.Open(*bindCfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open binding", err)
	}
	defer binding.Close()

	run := opts.Run
	if run == "" {
		run = uuid.Must(uuid.NewV7()).String()
	}
	logger := binding.Logger("cli/"+run, slog.LevelDebug)

	ctx := cmd.Context()
	for _, r := range records {
		level, err := record.ParseLevel(r.Level)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad record level", err)
		}
		if r.Error != "" {
			logger.Log(ctx, level, r.Message, "err", errors.New(r.Error))
		} else {
			logger.Log(ctx, level, r.Message)
		}
	}

	out.VerboseLog("run token: %s", run)
	return out.Success(fmt.Sprintf("emitted %d record(s) run=%s", len(records), run))
}

// bindingConfig derives the stlog config from --config or the --db
// sqlite shorthand. Exactly one of the two must be given.
func bindingConfig(opts *EmitOptions) (*stlog.Config, error) {
	switch {
	case opts.Config != "" && opts.Database != "":
		return nil, NewExitError(ExitCommandError, "--config and --db are mutually exclusive")
	case opts.Database != "":
		return &stlog.Config{Flavor: "sqlite", Database: opts.Database}, nil
	case opts.Config != "":
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "invalid config", err)
		}
		return &stlog.Config{
			Server:   cfg.Server,
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
			Flavor:   cfg.Flavor,
			Port:     cfg.Port,
			Format:   cfg.Format,
		}, nil
	default:
		return nil, NewExitError(ExitCommandError, "one of --config or --db is required")
	}
}

// collectRecords gathers the records to emit from the flags and the
// optional batch file.
func collectRecords(opts *EmitOptions) ([]BatchRecord, error) {
	var records []BatchRecord
	if opts.Message != "" {
		records = append(records, BatchRecord{Level: opts.Level, Message: opts.Message})
	}

	if opts.Batch != "" {
		data, err := os.ReadFile(opts.Batch)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read batch file", err)
		}
		var batch BatchFile
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to parse batch file", err)
		}
		records = append(records, batch.Records...)
	}

	for i := range records {
		if records[i].Level == "" {
			records[i].Level = "INFO"
		}
	}
	return records, nil
}
