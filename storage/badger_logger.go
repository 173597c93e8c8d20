package storage

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"maf/utils"
)

// BadgerLogger forwards badger's printf-style logging to a go-kit logger.
type BadgerLogger struct {
	logger log.Logger
}

func NewBadgerLogger(logger log.Logger) *BadgerLogger {
	return &BadgerLogger{logger: log.With(utils.OrNop(logger), "component", "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	level.Error(l.logger).Log("msg", message(format, args))
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	level.Warn(l.logger).Log("msg", message(format, args))
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	level.Info(l.logger).Log("msg", message(format, args))
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	level.Debug(l.logger).Log("msg", message(format, args))
}

func message(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
