// Package logging builds per-rank structured loggers, grounded on
// CommSystemUtil.makeLogger: a logger named by role and rank, with a
// configurable level, used consistently by every role.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/logiface"
	stumpy "github.com/joeycumines/stumpy"
)

// Level mirrors the syslog-style level names CommSystemUtil.makeLogger
// accepted through Python's logging module (INFO, DEBUG, WARNING, ...).
type Level = logiface.Level

const (
	LevelEmergency     = logiface.LevelEmergency
	LevelAlert         = logiface.LevelAlert
	LevelCritical      = logiface.LevelCritical
	LevelError         = logiface.LevelError
	LevelWarning       = logiface.LevelWarning
	LevelNotice        = logiface.LevelNotice
	LevelInformational = logiface.LevelInformational
	LevelDebug         = logiface.LevelDebug
	LevelTrace         = logiface.LevelTrace
	LevelDisabled      = logiface.LevelDisabled
)

// ParseLevel accepts the same level names as the original's verbosity
// key, in all-lowercase or all-uppercase spelling only: debug, info,
// warning, err, crit, alert, emerg, notice, trace.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "emerg", "EMERG", "emergency", "EMERGENCY":
		return LevelEmergency, nil
	case "alert", "ALERT":
		return LevelAlert, nil
	case "crit", "CRIT", "critical", "CRITICAL":
		return LevelCritical, nil
	case "err", "ERR", "error", "ERROR":
		return LevelError, nil
	case "warning", "WARNING", "warn", "WARN":
		return LevelWarning, nil
	case "notice", "NOTICE":
		return LevelNotice, nil
	case "info", "INFO", "informational", "INFORMATIONAL":
		return LevelInformational, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "trace", "TRACE":
		return LevelTrace, nil
	default:
		return 0, fmt.Errorf("logging: invalid verbosity/logging level %q", name)
	}
}

// Logger is a thin convenience wrapper around a logiface logger bound to a
// single rank, offering the printf-style helpers the rest of this module
// uses (mirroring the formatter string CommSystemUtil.makeLogger installed:
// "%(asctime)s - %(name)s - %(levelname)s - %(message)s", reproduced here
// as structured fields rather than a format string, per stumpy's style).
//
// The underlying logiface logger's level is fixed at construction time (the
// library exposes no post-hoc mutator); level here is this wrapper's own
// gate, checked before every call into the underlying logger, and is what
// FirstOnly adjusts to silence repeated per-worker lines without rebuilding
// the logiface logger.
type Logger struct {
	l     *logiface.Logger[*stumpy.Event]
	level Level
}

// New returns a rank-scoped logger carrying "role" and "rank" fields,
// writing single-line structured JSON via stumpy to w (defaults to
// os.Stderr).
func New(role string, rank int, level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	factory := stumpy.L
	base := factory.New(
		factory.WithStumpy(stumpy.WithWriter(w)),
		factory.WithLevel(level),
	)
	l := base.
		Clone().
		Str("role", role).
		Int("rank", rank).
		Logger()
	return &Logger{l: l, level: level}
}

// FirstOnly mirrors logInfo(msg, allWorkers=False): returns l unchanged
// when isFirst is true, or a logger gated to disabled otherwise, so
// repeated identical per-worker log lines collapse to one.
func (l *Logger) FirstOnly(isFirst bool) *Logger {
	if isFirst {
		return l
	}
	return &Logger{l: l.l, level: LevelDisabled}
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.Enabled(LevelDebug) {
		return
	}
	l.l.Debug().Log(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	if !l.Enabled(LevelInformational) {
		return
	}
	l.l.Info().Log(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	if !l.Enabled(LevelWarning) {
		return
	}
	l.l.Warning().Log(fmt.Sprintf(format, args...))
}

func (l *Logger) Errf(format string, args ...any) {
	if !l.Enabled(LevelError) {
		return
	}
	l.l.Err().Log(fmt.Sprintf(format, args...))
}

// WithFields returns a derived logger carrying additional bound fields,
// e.g. l.WithFields("counter", c) for a per-event log line.
func (l *Logger) WithFields(kv ...any) *Logger {
	b := l.l.Clone()
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		b = b.Interface(key, kv[i+1])
	}
	return &Logger{l: b.Logger(), level: l.level}
}

// Enabled reports whether the given level would currently be logged; used
// to guard expensive diagnostic formatting (mirrors
// `if self.logger.isEnabledFor(logging.DEBUG)` in UserG2.py).
func (l *Logger) Enabled(level Level) bool {
	return level.Enabled() && (level <= l.level || level > LevelTrace)
}
