package main

import (
	"errors"
	"fmt"

	"github.com/jcorbin/bigforth/internal/fileinput"
)

// compile-time errors
var (
	errUnknownWord         = errors.New("unknown word")
	errDuplicateName       = errors.New("duplicate name")
	errDictionaryFull      = errors.New("dictionary full")
	errDefinitionTooLong   = errors.New("definition too long")
	errUnbalancedControl   = errors.New("unbalanced control structure")
	errUnmatchedThen       = errors.New("THEN without IF or ELSE")
	errUnmatchedElse       = errors.New("ELSE without IF")
	errUnmatchedBegin      = errors.New("loop end without matching BEGIN or WHILE")
	errUnmatchedCase       = errors.New("CASE structure mismatch")
	errUnmatchedLoop       = errors.New("loop end without matching DO")
	errUnterminatedString  = errors.New("unterminated string")
	errUnterminatedComment = errors.New("unterminated comment")
	errMissingName         = errors.New("missing name")
	errCompileOnly         = errors.New("compile only")
	errInterpretOnly       = errors.New("interpret only")
	errNotImmediate        = errors.New("no user word to make immediate")
)

// run-time errors
var (
	errStackUnderflow   = errors.New("stack underflow")
	errStackOverflow    = errors.New("stack overflow")
	errDivByZero        = errors.New("division by zero")
	errRange            = errors.New("value out of range")
	errStringIndex      = errors.New("invalid string index")
	errInvalidCall      = errors.New("invalid word call")
	errInvalidOp        = errors.New("invalid instruction")
	errRecursionTooDeep = errors.New("recursion too deep")
	errLoopFrame        = errors.New("loop frame corrupt")
	errBudgetExceeded   = errors.New("instruction budget exceeded")
	errNoLoader         = errors.New("no loader available")
	errLoadTooDeep      = errors.New("LOAD nested too deeply")
)

// stackError names the stack an underflow or overflow happened on.
type stackError struct {
	stack string
	err   error
}

func (se stackError) Error() string { return fmt.Sprintf("%v %v", se.stack, se.err) }
func (se stackError) Unwrap() error { return se.err }

// opError names the operation, by its source word, that failed at run time.
type opError struct {
	op  string
	err error
}

func (oe opError) Error() string { return fmt.Sprintf("%v: %v", oe.op, oe.err) }
func (oe opError) Unwrap() error { return oe.err }

// compileError marks an error that aborted the definition of word.
type compileError struct {
	word string
	err  error
}

func (ce compileError) Error() string { return fmt.Sprintf("compiling %v: %v", ce.word, ce.err) }
func (ce compileError) Unwrap() error { return ce.err }

// locError places an error at a line of a loaded source.
type locError struct {
	loc fileinput.Location
	err error
}

func (le locError) Error() string { return fmt.Sprintf("%v: %v", le.loc, le.err) }
func (le locError) Unwrap() error { return le.err }

func isCompileError(err error) bool {
	var ce compileError
	return errors.As(err, &ce)
}
