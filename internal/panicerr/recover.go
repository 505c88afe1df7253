// Package panicerr converts panics and goroutine exits inside a function
// call into ordinary error returns.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f on a fresh goroutine, waits for it, and returns its error.
// A panic or runtime.Goexit inside f is returned as an *Error instead of
// unwinding the caller.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer func() {
			// a normal return already sent; only Goexit gets here with room
			select {
			case errch <- &Error{Name: name, Exit: true}:
			default:
			}
		}()
		defer func() {
			if e := recover(); e != nil {
				errch <- &Error{Name: name, Value: e, Stack: debug.Stack()}
			}
		}()
		errch <- f()
	}()
	return <-errch
}

// Error describes a recovered panic, or a runtime.Goexit when Exit is set.
type Error struct {
	Name  string
	Value interface{}
	Stack []byte
	Exit  bool
}

func (pe *Error) Error() string { return fmt.Sprint(pe) }

// Format implements fmt.Formatter; "%+v" appends the panic stack.
func (pe *Error) Format(f fmt.State, c rune) {
	switch {
	case pe.Exit && pe.Name == "":
		fmt.Fprint(f, "runtime.Goexit called")
	case pe.Exit:
		fmt.Fprintf(f, "%v called runtime.Goexit", pe.Name)
	case pe.Name == "":
		fmt.Fprintf(f, "panic: %v", pe.Value)
	default:
		fmt.Fprintf(f, "%v panic: %v", pe.Name, pe.Value)
	}
	if c == 'v' && f.Flag('+') && len(pe.Stack) > 0 {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.Stack)
	}
}

// Unwrap returns the panic value when it was an error.
func (pe *Error) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}

// IsPanic reports whether err carries a recovered panic.
func IsPanic(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && !pe.Exit
}

// IsExit reports whether err carries a recovered goroutine exit.
func IsExit(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Exit
}

// Stack returns the stack trace of a recovered panic, if any.
func Stack(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return string(pe.Stack)
	}
	return ""
}
