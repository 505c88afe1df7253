package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/mem"
	"github.com/jcorbin/bigforth/internal/num"
)

// decompile renders word i as source that recompiles to the same behavior.
func (vm *VM) decompile(i int) string {
	w := vm.dict.Word(i)
	if w == nil {
		return ""
	}
	if w.Builtin {
		return w.Name + " ( built-in )"
	}
	if h, ok := w.Cell(); ok {
		return vm.seeCell(w.Name, h)
	}

	var buf strings.Builder
	buf.WriteString(": ")
	buf.WriteString(w.Name)
	vm.seeCode(&buf, i, w)
	buf.WriteString(" ;")
	if w.Immediate {
		buf.WriteString(" IMMEDIATE")
	}
	return buf.String()
}

func (vm *VM) seeCell(name string, h mem.Handle) string {
	c, err := vm.mem.Get(h)
	switch {
	case err != nil:
		return fmt.Sprintf("VARIABLE %v ( %v )", name, err)
	case h.Kind == mem.Array:
		return fmt.Sprintf("CREATE %v %d ALLOT", name, c.Len())
	case h.Kind == mem.Text:
		return "STRING " + name
	}
	return "VARIABLE " + name
}

// seeCode writes the body of w. Forward branch targets become THEN labels and
// backward ones BEGIN labels; an IF whose target directly follows an ELSE
// belongs to that ELSE.
func (vm *VM) seeCode(buf *strings.Builder, self int, w *dict.Word) {
	var (
		thens  = make(map[int]int)
		begins = make(map[int]int)
		paired = make(map[int]bool)
	)
	for pc, in := range w.Code {
		if in.Op != code.Else {
			continue
		}
		for j := pc - 1; j >= 0; j-- {
			if w.Code[j].Op == code.If && w.Code[j].Arg == pc+1 && !paired[j] {
				paired[j] = true
				break
			}
		}
	}
	for pc, in := range w.Code {
		switch in.Op {
		case code.If:
			if !paired[pc] {
				thens[in.Arg]++
			}
		case code.Else:
			thens[in.Arg]++
		case code.Repeat, code.Until, code.Again:
			begins[in.Arg]++
		}
	}

	word := func(s string) {
		buf.WriteByte(' ')
		buf.WriteString(s)
	}
	for pc, in := range w.Code {
		for n := thens[pc]; n > 0; n-- {
			word("THEN")
		}
		for n := begins[pc]; n > 0; n-- {
			word("BEGIN")
		}
		switch in.Op {
		case code.End:
			if pc == len(w.Code)-1 {
				continue
			}
			word("EXIT")
		case code.Nop:
		case code.Lit:
			word(num.Format(w.Literals[in.Arg]))
		case code.Cell:
			word(num.Format(w.Literals[in.Arg]))
		case code.Str:
			word(stringLiteral(w.Texts[in.Arg]))
		case code.Print:
			word(`." ` + w.Texts[in.Arg] + `"`)
		case code.Call:
			if in.Arg == self {
				word("RECURSE")
			} else if callee := vm.dict.Word(in.Arg); callee != nil {
				word(callee.Name)
			} else {
				word(fmt.Sprintf("( bad call %d )", in.Arg))
			}
		default:
			word(controlNames[in.Op])
		}
	}
	for n := thens[len(w.Code)]; n > 0; n-- {
		word("THEN")
	}
}

// stringLiteral quotes text so that the lexer reads it back unchanged; a bare
// opening quote consumes one separating space, so leading space needs it.
func stringLiteral(text string) string {
	if r, _ := utf8.DecodeRuneInString(text); unicode.IsSpace(r) {
		return `" ` + text + `"`
	}
	return `"` + text + `"`
}

var controlNames [code.MaxOp]string

func init() {
	for _, b := range builtins {
		controlNames[b.op] = b.name
	}
	for op, name := range map[code.Op]string{
		code.Exit:     "EXIT",
		code.If:       "IF",
		code.Else:     "ELSE",
		code.While:    "WHILE",
		code.Repeat:   "REPEAT",
		code.Until:    "UNTIL",
		code.Again:    "AGAIN",
		code.Case:     "CASE",
		code.Of:       "OF",
		code.EndOf:    "ENDOF",
		code.EndCase:  "ENDCASE",
		code.Do:       "DO",
		code.Loop:     "LOOP",
		code.PlusLoop: "+LOOP",
		code.Leave:    "LEAVE",
	} {
		controlNames[op] = name
	}
}
