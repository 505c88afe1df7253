package main

import (
	"fmt"
	"strings"

	"github.com/jcorbin/bigforth/internal/runeio"
)

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	if logfn == nil {
		return func() {}
	}
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}

// lineOutput accumulates one pending output line, handing complete lines to
// emit. Nothing is emitted when emit is nil.
type lineOutput struct {
	emit func(line string)
	line strings.Builder
}

func (out *lineOutput) text(s string) { out.line.WriteString(s) }

func (out *lineOutput) word(s string) {
	out.line.WriteString(s)
	out.line.WriteByte(' ')
}

func (out *lineOutput) rune(r rune) { runeio.WriteANSIRune(&out.line, r) }

// cr emits the pending line, even when empty.
func (out *lineOutput) cr() {
	s := strings.TrimRight(out.line.String(), " ")
	out.line.Reset()
	if out.emit != nil {
		out.emit(s)
	}
}

// flush emits the pending line if anything is pending.
func (out *lineOutput) flush() {
	if out.line.Len() > 0 {
		out.cr()
	}
}

// println flushes any pending text, then emits s as its own line.
func (out *lineOutput) println(s string) {
	out.flush()
	if out.emit != nil {
		out.emit(s)
	}
}
