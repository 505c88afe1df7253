package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jcorbin/bigforth/internal/fileinput"
)

var prelude = preludeSource{}

type preludeSource struct{}

func (preludeSource) Name() string { return "prelude.fs" }

// The prelude is ordinary source, compiled into every new environment right
// after the built-ins; the FORGET fence goes up behind it.
func (preludeSource) WriteTo(w io.Writer) (n int64, err error) {
	flush := func(wto io.WriterTo) {
		if err != nil {
			return
		}
		var m int64
		m, err = wto.WriteTo(w)
		n += m
	}

	var buf bytes.Buffer
	line := func(parts ...string) {
		if err == nil {
			for _, s := range parts {
				buf.WriteString(s)
			}
			buf.WriteByte('\n')
			flush(&buf)
		}
	}

	// Flags are just numbers, but it reads better to name them.
	line(`1 CONSTANT TRUE`)
	line(`0 CONSTANT FALSE`)

	// A few stack words that are easier to say in the language than in Go.
	line(`: ?DUP ( n -- 0 | n n ) DUP IF DUP THEN ;`)
	line(`: 2OVER ( a b c d -- a b c d a b ) 3 PICK 3 PICK ;`)
	line(`: ? ( h -- ) @ . ;`)

	// SPACES counts down on the stack rather than with DO, so that a
	// non-positive count prints nothing.
	line(`: SPACES ( n -- )`,
		` BEGIN DUP 0 > WHILE SPACE 1- REPEAT DROP ;`)

	// Some arithmetic that shows off the big numbers.
	line(`: CUBE ( n -- n^3 ) DUP DUP * * ;`)
	line(`: FACT ( n -- n! )`,
		` DUP 1 > IF DUP 1- RECURSE * ELSE DROP 1 THEN ;`)
	line(`: GCD ( a b -- gcd )`,
		` BEGIN DUP WHILE TUCK MOD REPEAT DROP ABS ;`)

	// POW keeps the exponent on the return stack while it multiplies.
	line(`: POW ( b e -- b^e )`,
		` 1 SWAP`,
		` BEGIN DUP 0 > WHILE >R OVER * R> 1- REPEAT`,
		` DROP NIP ;`)

	return n, err
}

// loadPrelude compiles the prelude; it is fixed source, so failure is a
// programming error.
func (vm *VM) loadPrelude() {
	var buf bytes.Buffer
	if _, err := prelude.WriteTo(&buf); err != nil {
		panic(err)
	}
	in := fileinput.Input{Queue: []io.Reader{fileinput.Named(prelude.Name(), &buf)}}
	defer in.Close()
	for in.Scan() {
		if err := vm.interpretLine(in.Text()); err != nil {
			panic(fmt.Sprintf("%v: %v", in.Last, err))
		}
	}
	if vm.def != nil {
		panic(fmt.Sprintf("%v: unterminated definition of %v", in.Last, vm.def.name))
	}
}
