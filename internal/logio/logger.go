// Package logio provides small logging adapters: a leveled line logger that
// remembers whether anything went wrong, and an io.Writer that forwards
// complete lines to a printf-style function.
package logio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Logger writes "level: message" lines to an output stream. Any ERROR line,
// or a failure to write, makes ExitCode non-zero.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	buf      bytes.Buffer
	exitCode int
}

// SetOutput sets the output stream; a nil Logger output discards.
func (log *Logger) SetOutput(out io.Writer) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.out = out
}

// ExitCode returns a code to pass to os.Exit: 0 when nothing was logged at
// ERROR level, 1 after an error, 2 after an output failure.
func (log *Logger) ExitCode() int {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.exitCode
}

// Leveledf returns a printf-style function logging at the given level.
func (log *Logger) Leveledf(level string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) { log.Printf(level, mess, args...) }
}

// ErrorIf logs any non-nil error at ERROR level.
func (log *Logger) ErrorIf(err error) {
	if err != nil {
		log.Errorf("%v", err)
	}
}

// Errorf logs at ERROR level and marks the exit code.
func (log *Logger) Errorf(mess string, args ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.exitCode == 0 {
		log.exitCode = 1
	}
	log.write("ERROR", mess, args...)
}

// Printf logs one line at the given level; an empty level omits the prefix.
func (log *Logger) Printf(level, mess string, args ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.write(level, mess, args...)
}

func (log *Logger) write(level, mess string, args ...interface{}) {
	if log.out == nil {
		return
	}
	log.buf.Reset()
	if level != "" {
		log.buf.WriteString(level)
		log.buf.WriteString(": ")
	}
	if len(args) > 0 {
		fmt.Fprintf(&log.buf, mess, args...)
	} else {
		log.buf.WriteString(mess)
	}
	if b := log.buf.Bytes(); len(b) == 0 || b[len(b)-1] != '\n' {
		log.buf.WriteByte('\n')
	}
	if _, err := log.buf.WriteTo(log.out); err != nil {
		log.exitCode = 2
	}
}
