// Package log provides named, leveled loggers for Lumen on top of
// go-logging. Loggers share one process-wide sink so the viewer can move all
// output off the terminal it draws on.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/op/go-logging"
)

// Level is a logging verbosity.
type Level int

// The levels accepted by SetLevel, from most to least verbose.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level:.4s}]%{color:reset} %{message}`,
)

var plainFormat = logging.MustStringFormatter(
	`[%{time:15:04:05.000}] [%{module}] [%{level:.4s}] %{message}`,
)

var (
	mu      sync.Mutex
	backend logging.LeveledBackend
	level   = Notice
)

// Logger is the subset of the go-logging API used across the module.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Noticef(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

// New returns the logger for module name.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects every logger to w. Color escapes are only emitted when
// w is a terminal-backed stdout or stderr.
func SetSink(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	f := plainFormat
	if w == os.Stderr || w == os.Stdout {
		f = format
	}
	b := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), f)
	backend = logging.AddModuleLevel(b)
	backend.SetLevel(toLogging(level), "")
	logging.SetBackend(backend)
}

// Discard drops all log output.
func Discard() {
	SetSink(io.Discard)
}

// SetLevel sets the verbosity for every module.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()

	level = l
	backend.SetLevel(toLogging(l), "")
}

// Verbosity maps the -v and --vv flags to a level.
func Verbosity(verbose, veryVerbose bool) Level {
	switch {
	case veryVerbose:
		return Debug
	case verbose:
		return Info
	default:
		return Notice
	}
}

func toLogging(l Level) logging.Level {
	switch l {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	default:
		return logging.NOTICE
	}
}

func init() {
	SetSink(os.Stderr)
}
