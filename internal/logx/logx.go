// https://github.com/usbarmory/gpiobridge
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package logx is a minimal leveled wrapper over the standard log package,
// used by every cmd/ binary and by the firmware's own diagnostic output.
// It exists because the teacher (tamago) never pulls in a structured
// logging library anywhere in the retrieval pack's repo: every program
// calls log.SetFlags(0) once in main and then fmt.Printf/log.Printf
// directly. A no_std-equivalent bare metal image cannot assume a heavier
// logging framework is present at boot, so this package follows the
// teacher's own style instead of reaching for one.
package logx

import (
	"fmt"
	"log"
	"os"
)

// Level is a coarse log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

// Logger prefixes every line with a level tag and an optional component
// name, writing through a standard *log.Logger configured flag-less
// (log.SetFlags(0)), matching cmd/tamago's and example/example.go's setup.
type Logger struct {
	std       *log.Logger
	component string
	min       Level
}

// New returns a Logger writing to w (typically os.Stderr), labeled with
// component, filtering out anything below min.
func New(w *os.File, component string, min Level) *Logger {
	return &Logger{std: log.New(w, "", 0), component: component, min: min}
}

// Default returns a Logger writing to stderr at LevelInfo, the setup every
// cmd/ binary in this repository starts from.
func Default(component string) *Logger {
	return New(os.Stderr, component, LevelInfo)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.std.Printf("%s [%s] %s", level, l.component, msg)
		return
	}
	l.std.Printf("%s %s", level, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// Fatalf logs at LevelError and terminates the process, mirroring
// log.Fatalf's use throughout cmd/tamago/main.go.
func (l *Logger) Fatalf(format string, args ...any) {
	l.log(LevelError, format, args...)
	os.Exit(1)
}

// With returns a copy of l scoped to a sub-component, e.g.
// base.With("usb") producing a "[base.usb]" prefix.
func (l *Logger) With(sub string) *Logger {
	component := sub
	if l.component != "" {
		component = l.component + "." + sub
	}
	return &Logger{std: l.std, component: component, min: l.min}
}
