package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LevelEnv names the environment variable holding the log level.
const LevelEnv = "LOG_LEVEL"

// New returns a console logger writing to out at the level named by
// LOG_LEVEL, or info if unset or unknown.
func New(out *os.File) zerolog.Logger {
	w := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = !isatty.IsTerminal(out.Fd())
		w.TimeFormat = "15:04:05.999 |"
	})
	return newLogger(w, os.Getenv(LevelEnv))
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
}

// NewTestLogger returns a logger whose output is associated with t.
func NewTestLogger(t tTesting) zerolog.Logger {
	w := zerolog.NewConsoleWriter(zerolog.ConsoleTestWriter(t))
	return newLogger(w, zerolog.LevelDebugValue)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name onto a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func init() { //nolint:gochecknoinits // zerolog's field format is package-wide
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
