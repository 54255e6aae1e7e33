// Leveled logging shared by all commands.  The default sink is stderr; the daemon additionally
// installs a syslog writer via SetUnderlying.

package common

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"sync"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
	LogLevelCritical
)

// Implementations of this must be thread-safe.
type Logger interface {
	// Print only messages at severity l or above.
	SetLevel(l LogLevel)

	// Make the logger at least as verbose as severity l.
	LowerLevelTo(l LogLevel)

	// Print on this stream, if installed.
	SetStderr(w io.Writer)

	// Print on this underlying (simpler) logger, if installed - typically syslog.
	SetUnderlying(w UnderlyingLogger)

	// Print at various levels.  None of these exit or panic, the name indicates the log level
	// only.
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Criticalf(format string, args ...any)
}

// log/syslog implements UnderlyingLogger.  An underlying logger must be thread-safe.
type UnderlyingLogger interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
	Crit(m string) error
}

// MT: Locked
type standardLogger struct {
	sync.Mutex
	level      LogLevel
	stderr     io.Writer
	underlying UnderlyingLogger
}

// MT: Constant after initialization; thread-safe
var Log Logger = &standardLogger{
	level:  LogLevelWarning,
	stderr: os.Stderr,
}

// Route Log to the syslog daemon in addition to any stderr writer.  Used by the daemon, where
// stderr may go nowhere.
func StartSyslog(tag string) error {
	logger, err := syslog.Dial("", "", syslog.LOG_INFO|syslog.LOG_USER, tag)
	if err != nil {
		return err
	}
	Log.SetUnderlying(logger)
	return nil
}

func (sl *standardLogger) SetLevel(l LogLevel) {
	sl.Lock()
	defer sl.Unlock()

	sl.level = l
}

func (sl *standardLogger) LowerLevelTo(l LogLevel) {
	sl.Lock()
	defer sl.Unlock()

	if sl.level > l {
		sl.level = l
	}
}

func (sl *standardLogger) SetStderr(stderr io.Writer) {
	sl.Lock()
	defer sl.Unlock()

	sl.stderr = stderr
}

func (sl *standardLogger) SetUnderlying(underlying UnderlyingLogger) {
	sl.Lock()
	defer sl.Unlock()

	sl.underlying = underlying
}

func (sl *standardLogger) Debugf(format string, args ...any) {
	sl.emit(LogLevelDebug, format, args...)
}

func (sl *standardLogger) Infof(format string, args ...any) {
	sl.emit(LogLevelInfo, format, args...)
}

func (sl *standardLogger) Warningf(format string, args ...any) {
	sl.emit(LogLevelWarning, format, args...)
}

func (sl *standardLogger) Errorf(format string, args ...any) {
	sl.emit(LogLevelError, format, args...)
}

func (sl *standardLogger) Criticalf(format string, args ...any) {
	sl.emit(LogLevelCritical, format, args...)
}

func (sl *standardLogger) emit(l LogLevel, format string, args ...any) {
	sl.Lock()
	defer sl.Unlock()

	if l < sl.level {
		return
	}
	s := fmt.Sprintf(format, args...)
	if sl.stderr != nil {
		fmt.Fprintln(sl.stderr, s)
	}
	if sl.underlying != nil {
		switch l {
		case LogLevelDebug:
			sl.underlying.Debug(s)
		case LogLevelInfo:
			sl.underlying.Info(s)
		case LogLevelWarning:
			sl.underlying.Warning(s)
		case LogLevelError:
			sl.underlying.Err(s)
		default:
			sl.underlying.Crit(s)
		}
	}
}
