package main

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/num"
	"github.com/jcorbin/bigforth/internal/runeio"
)

type tokenKind uint8

const (
	tokWord tokenKind = iota
	tokString
	tokPrint
)

type token struct {
	kind tokenKind
	text string
}

// lexer splits one source line into tokens. Quoted text and comments are
// scanned in the raw line, so they may hold any whitespace.
type lexer struct {
	line string
	pos  int
}

func (lx *lexer) next() (token, bool, error) {
	for {
		start, end := lx.scan()
		if start == end {
			return token{}, false, nil
		}
		word := lx.line[start:end]
		switch {
		case word == `."`:
			text, err := lx.until('"', end+1, errUnterminatedString)
			return token{tokPrint, text}, err == nil, err

		case word == "(":
			if _, err := lx.until(')', end, errUnterminatedComment); err != nil {
				return token{}, false, err
			}

		case word == `\`:
			lx.pos = len(lx.line)

		case strings.HasPrefix(word, `"`):
			from := start + 1
			if word == `"` {
				from = end + 1
			}
			text, err := lx.until('"', from, errUnterminatedString)
			return token{tokString, text}, err == nil, err

		default:
			return token{tokWord, word}, true, nil
		}
	}
}

// name returns the next raw whitespace-delimited word, as consumed by
// defining words.
func (lx *lexer) name() (string, error) {
	start, end := lx.scan()
	if start == end {
		return "", errMissingName
	}
	return lx.line[start:end], nil
}

func (lx *lexer) scan() (start, end int) {
	rest := lx.line[lx.pos:]
	i := strings.IndexFunc(rest, notSpace)
	if i < 0 {
		lx.pos = len(lx.line)
		return lx.pos, lx.pos
	}
	start = lx.pos + i
	end = len(lx.line)
	if j := strings.IndexFunc(lx.line[start:], unicode.IsSpace); j >= 0 {
		end = start + j
	}
	lx.pos = end
	return start, end
}

// until returns the text from from up to delim, resuming after it.
func (lx *lexer) until(delim byte, from int, missing error) (string, error) {
	if from > len(lx.line) {
		from = len(lx.line)
	}
	i := strings.IndexByte(lx.line[from:], delim)
	if i < 0 {
		lx.pos = len(lx.line)
		return "", missing
	}
	lx.pos = from + i + 1
	return lx.line[from : from+i], nil
}

func notSpace(r rune) bool { return !unicode.IsSpace(r) }

// literal parses a numeric or character literal token.
func literal(text string) (*big.Int, bool) {
	if v, ok := num.Parse(text); ok {
		return v, true
	}
	if r, err := runeio.UnquoteRune(text); err == nil {
		return num.Int(int64(r)), true
	}
	return nil, false
}

type ctlTag uint8

const (
	ctlIf ctlTag = iota
	ctlElse
	ctlBegin
	ctlWhile
	ctlCase
	ctlOf
	ctlEndOf
	ctlDo
)

type ctlEntry struct {
	tag ctlTag
	pos int
}

// definition is the word under construction between : and ;.
type definition struct {
	name    string
	slot    int
	mark    int
	limit   int
	word    dict.Word
	control []ctlEntry
	leaves  [][]int
}

func (def *definition) here() int { return len(def.word.Code) }

func (def *definition) emit(op code.Op, arg int) error {
	_, err := def.emitAt(op, arg)
	return err
}

func (def *definition) emitAt(op code.Op, arg int) (int, error) {
	if def.limit > 0 && len(def.word.Code) >= def.limit {
		return -1, errDefinitionTooLong
	}
	def.word.Code = append(def.word.Code, code.Instr{Op: op, Arg: arg})
	return len(def.word.Code) - 1, nil
}

func (def *definition) emitLiteral(v *big.Int) error {
	if err := def.emit(code.Lit, len(def.word.Literals)); err != nil {
		return err
	}
	def.word.Literals = append(def.word.Literals, v)
	return nil
}

func (def *definition) emitText(op code.Op, text string) error {
	if err := def.emit(op, len(def.word.Texts)); err != nil {
		return err
	}
	def.word.Texts = append(def.word.Texts, text)
	return nil
}

func (def *definition) push(tag ctlTag, pos int) {
	def.control = append(def.control, ctlEntry{tag, pos})
}

// top reports whether the innermost open construct has one of tags.
func (def *definition) top(tags ...ctlTag) (ctlEntry, bool) {
	if len(def.control) == 0 {
		return ctlEntry{}, false
	}
	e := def.control[len(def.control)-1]
	for _, tag := range tags {
		if e.tag == tag {
			return e, true
		}
	}
	return ctlEntry{}, false
}

func (def *definition) pop(tags ...ctlTag) (ctlEntry, bool) {
	e, ok := def.top(tags...)
	if ok {
		def.control = def.control[:len(def.control)-1]
	}
	return e, ok
}

func (def *definition) resolve(pos, target int) { def.word.Code[pos].Arg = target }

func (def *definition) compileIf() error {
	pos, err := def.emitAt(code.If, -1)
	if err == nil {
		def.push(ctlIf, pos)
	}
	return err
}

func (def *definition) compileElse() error {
	e, ok := def.pop(ctlIf)
	if !ok {
		return errUnmatchedElse
	}
	pos, err := def.emitAt(code.Else, -1)
	if err != nil {
		return err
	}
	def.resolve(e.pos, pos+1)
	def.push(ctlElse, pos)
	return nil
}

func (def *definition) compileThen() error {
	e, ok := def.pop(ctlIf, ctlElse)
	if !ok {
		return errUnmatchedThen
	}
	def.resolve(e.pos, def.here())
	return nil
}

func (def *definition) compileBegin() error {
	def.push(ctlBegin, def.here())
	return nil
}

func (def *definition) compileWhile() error {
	if _, ok := def.top(ctlBegin); !ok {
		return errUnmatchedBegin
	}
	pos, err := def.emitAt(code.While, -1)
	if err == nil {
		def.push(ctlWhile, pos)
	}
	return err
}

func (def *definition) compileRepeat() error {
	w, ok := def.pop(ctlWhile)
	if !ok {
		return errUnmatchedBegin
	}
	b, ok := def.pop(ctlBegin)
	if !ok {
		return errUnmatchedBegin
	}
	if err := def.emit(code.Repeat, b.pos); err != nil {
		return err
	}
	def.resolve(w.pos, def.here())
	return nil
}

func (def *definition) compileBackEdge(op code.Op) error {
	b, ok := def.pop(ctlBegin)
	if !ok {
		return errUnmatchedBegin
	}
	return def.emit(op, b.pos)
}

func (def *definition) compileCase() error {
	pos, err := def.emitAt(code.Case, 0)
	if err == nil {
		def.push(ctlCase, pos)
	}
	return err
}

func (def *definition) compileOf() error {
	if _, ok := def.top(ctlCase, ctlEndOf); !ok {
		return errUnmatchedCase
	}
	pos, err := def.emitAt(code.Of, -1)
	if err == nil {
		def.push(ctlOf, pos)
	}
	return err
}

func (def *definition) compileEndOf() error {
	o, ok := def.pop(ctlOf)
	if !ok {
		return errUnmatchedCase
	}
	pos, err := def.emitAt(code.EndOf, -1)
	if err != nil {
		return err
	}
	def.resolve(o.pos, pos+1)
	def.push(ctlEndOf, pos)
	return nil
}

// compileEndCase emits the selector drop taken by the no-match path; every
// ENDOF branches past it since a matching OF already dropped the selector.
func (def *definition) compileEndCase() error {
	var ends []int
	for {
		e, ok := def.pop(ctlEndOf)
		if !ok {
			break
		}
		ends = append(ends, e.pos)
	}
	if _, ok := def.pop(ctlCase); !ok {
		return errUnmatchedCase
	}
	if err := def.emit(code.EndCase, 0); err != nil {
		return err
	}
	for _, pos := range ends {
		def.resolve(pos, def.here())
	}
	return nil
}

func (def *definition) compileDo() error {
	pos, err := def.emitAt(code.Do, 0)
	if err == nil {
		def.push(ctlDo, pos)
		def.leaves = append(def.leaves, nil)
	}
	return err
}

func (def *definition) compileLoop(op code.Op) error {
	d, ok := def.pop(ctlDo)
	if !ok {
		return errUnmatchedLoop
	}
	if err := def.emit(op, d.pos); err != nil {
		return err
	}
	last := len(def.leaves) - 1
	for _, pos := range def.leaves[last] {
		def.resolve(pos, def.here())
	}
	def.leaves = def.leaves[:last]
	return nil
}

func (def *definition) compileLeave() error {
	if len(def.leaves) == 0 {
		return errUnmatchedLoop
	}
	pos, err := def.emitAt(code.Leave, -1)
	if err == nil {
		last := len(def.leaves) - 1
		def.leaves[last] = append(def.leaves[last], pos)
	}
	return err
}

// finish closes the definition with its implicit end instruction.
func (def *definition) finish() (dict.Word, error) {
	if len(def.control) > 0 {
		return dict.Word{}, errUnbalancedControl
	}
	if err := def.emit(code.End, 0); err != nil {
		return dict.Word{}, err
	}
	def.word.Name = def.name
	return def.word, nil
}
