package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stlog/internal/store"
)

// execute runs the root command with the given args and returns the
// combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_RejectsBadFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "initdb", "--db", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate_ValidConfig(t *testing.T) {
	path := writeFile(t, "stlog.cue", `
flavor:   "sqlite"
database: "/tmp/test.db"
`)
	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestValidate_InvalidConfig(t *testing.T) {
	path := writeFile(t, "stlog.cue", `flavor: "oracle"`)
	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_VerboseShowsFields(t *testing.T) {
	path := writeFile(t, "stlog.cue", `
flavor:   "sqlite"
database: "/tmp/test.db"
level:    "WARNING"
`)
	out, err := execute(t, "--verbose", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "flavor=sqlite")
	assert.Contains(t, out, "level=WARNING")
}

func TestInitDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	out, err := execute(t, "initdb", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready")

	// Safe to run repeatedly.
	_, err = execute(t, "initdb", "--db", path)
	require.NoError(t, err)

	st, err := store.OpenFile(path)
	require.NoError(t, err)
	defer st.Close()
	count, err := st.CountEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestInitDB_RequiresDBFlag(t *testing.T) {
	_, err := execute(t, "initdb")
	require.Error(t, err)
}

func TestEmit_SingleMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	out, err := execute(t, "emit",
		"--db", path,
		"--level", "CRITICAL",
		"--message", "critical error",
		"--run", "testrun")
	require.NoError(t, err)
	assert.Contains(t, out, "emitted 1 record(s)")
	assert.Contains(t, out, "run=testrun")

	st, err := store.OpenFile(path)
	require.NoError(t, err)
	defer st.Close()
	entries, err := st.ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cli/testrun", entries[0].Name)
	assert.Equal(t, "CRITICAL", entries[0].Levelname)
	assert.Equal(t, "critical error", entries[0].Message)
}

func TestEmit_Batch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	batch := writeFile(t, "records.yaml", `
records:
  - message: "first"
  - level: ERROR
    message: "second"
    error: "disk full"
`)

	out, err := execute(t, "emit", "--db", dbPath, "--batch", batch)
	require.NoError(t, err)
	assert.Contains(t, out, "emitted 2 record(s)")

	st, err := store.OpenFile(dbPath)
	require.NoError(t, err)
	defer st.Close()
	entries, err := st.ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Levelname)
	assert.Equal(t, "first", entries[0].Message)
	assert.Empty(t, entries[0].Exception)

	assert.Equal(t, "ERROR", entries[1].Levelname)
	assert.Equal(t, "second", entries[1].Message)
	assert.Contains(t, entries[1].Exception, "disk full")
}

func TestEmit_ConfigAndDBExclusive(t *testing.T) {
	_, err := execute(t, "emit",
		"--db", "a.db",
		"--config", "b.cue",
		"--message", "m")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestEmit_NothingToEmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := execute(t, "emit", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEmit_BadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := execute(t, "emit", "--db", path, "--level", "LOUD", "--message", "m")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTail_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := execute(t, "emit", "--db", path, "--message", "older", "--run", "r1")
	require.NoError(t, err)
	_, err = execute(t, "emit", "--db", path, "--level", "ERROR", "--message", "newer", "--run", "r2")
	require.NoError(t, err)

	out, err := execute(t, "tail", "--db", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "older")
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[1], "newer")
	assert.Contains(t, lines[1], "ERROR")
}

func TestTail_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := execute(t, "emit", "--db", path, "--message", "payload")
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "tail", "--db", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, out, "payload")
}

func TestTail_Limit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	batch := writeFile(t, "records.yaml", `
records:
  - message: "one"
  - message: "two"
  - message: "three"
`)
	_, err := execute(t, "emit", "--db", path, "--batch", batch)
	require.NoError(t, err)

	out, err := execute(t, "tail", "--db", path, "-n", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	// The two most recent, chronological.
	assert.Contains(t, lines[0], "two")
	assert.Contains(t, lines[1], "three")
}

func TestTail_BadCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := execute(t, "emit", "--db", path, "--message", "m")
	require.NoError(t, err)

	_, err = execute(t, "tail", "--db", path, "-n", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTail_MissingDatabase(t *testing.T) {
	_, err := execute(t, "tail", "--db", filepath.Join(t.TempDir(), "absent", "x.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "outer", assert.AnError)))
}
