package logging

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// Logger is the pipeline's logger. Its novel property, carried from the
// teacher's pkg/logging, is that it still works if nil: every method
// guards on l != nil, so "no logger configured" and "configured but
// discarding" both reduce to a nil *Logger.
type Logger struct {
	prefix string
	debug  bool
}

// Root is the root logger from which subloggers derive. It has debugging
// disabled by default.
var Root = &Logger{}

// Sublogger creates a new logger with name appended to the dotted prefix.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, debug: l.debug}
}

// WithDebug returns a copy of the logger with debug output enabled.
func (l *Logger) WithDebug(enabled bool) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{prefix: l.prefix, debug: enabled}
}

func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	_ = log.Output(calldepth, line)
}

// Printf logs at the default level, fmt.Printf semantics.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debugf logs only when debugging is enabled on this logger.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && l.debug {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warn logs a yellow-colored warning line.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(3, color.YellowString("warning: %v", err))
	}
}

// Error logs a red-colored error line.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(3, color.RedString("error: %v", err))
	}
}

// Writer returns an io.Writer that logs each line it receives at the
// default level. If the logger is nil, writes are discarded.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &lineWriter{logger: l}
}

type lineWriter struct {
	logger *Logger
	buffer []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buffer = append(w.buffer, p...)
	processed := 0
	for {
		idx := indexByte(w.buffer[processed:], '\n')
		if idx == -1 {
			break
		}
		line := w.buffer[processed : processed+idx]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		w.logger.Printf("%s", string(line))
		processed += idx + 1
	}
	if processed > 0 {
		w.buffer = append(w.buffer[:0], w.buffer[processed:]...)
	}
	return len(p), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
