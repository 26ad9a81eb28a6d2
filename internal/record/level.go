package record

import (
	"fmt"
	"log/slog"
	"strings"
)

// LevelCritical extends the standard slog levels with the CRITICAL
// severity used above ERROR. The full ordered set is
// DEBUG < INFO < WARNING < ERROR < CRITICAL.
const LevelCritical = slog.LevelError + 4

// LevelName maps a slog level onto the canonical severity name. Levels
// between two names take the lower name, matching slog's own convention
// for offset levels.
func LevelName(l slog.Level) string {
	switch {
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// ParseLevel converts a severity name (case-insensitive) to its slog
// level. "WARN" is accepted as an alias for "WARNING".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return 0, fmt.Errorf("unknown level %q", name)
}
