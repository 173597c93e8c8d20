package utils

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// NewLogger returns a logfmt logger filtered at levelName (debug, info, warn,
// error). Unknown names fall back to info. A nil writer logs to stderr.
func NewLogger(levelName string, w io.Writer) log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, LevelOption(levelName))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func LevelOption(levelName string) level.Option {
	switch strings.ToLower(levelName) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// OrNop replaces a nil logger with one that discards everything.
func OrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}
