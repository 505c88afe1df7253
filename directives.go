package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/fileinput"
	"github.com/jcorbin/bigforth/internal/mem"
)

type directiveMode uint8

const (
	anyMode directiveMode = iota
	compileOnly
	interpretOnly
)

type directiveDef struct {
	name string
	mode directiveMode
	fn   func(vm *VM) error
}

// directives are the words the compiler itself implements; each is an
// immediate built-in whose body names its index here.
var directives []directiveDef

func init() {
	ctl := func(name string, fn func(def *definition) error) directiveDef {
		return directiveDef{name, compileOnly, func(vm *VM) error { return fn(vm.def) }}
	}
	directives = []directiveDef{
		{":", interpretOnly, (*VM).colon},
		{";", compileOnly, (*VM).semicolon},
		{"IMMEDIATE", interpretOnly, (*VM).immediate},
		{"VARIABLE", anyMode, func(vm *VM) error { return vm.createCell(mem.Scalar) }},
		{"CREATE", anyMode, func(vm *VM) error { return vm.createCell(mem.Scalar) }},
		{"STRING", anyMode, func(vm *VM) error { return vm.createCell(mem.Text) }},
		{"CONSTANT", interpretOnly, (*VM).constant},
		{"FORGET", interpretOnly, (*VM).forget},
		{"SEE", interpretOnly, (*VM).see},
		{"WORDS", interpretOnly, (*VM).words},
		{"LOAD", interpretOnly, (*VM).load},

		ctl("RECURSE", func(def *definition) error { return def.emit(code.Call, def.slot) }),
		ctl("EXIT", func(def *definition) error { return def.emit(code.Exit, 0) }),
		ctl("IF", (*definition).compileIf),
		ctl("ELSE", (*definition).compileElse),
		ctl("THEN", (*definition).compileThen),
		ctl("BEGIN", (*definition).compileBegin),
		ctl("WHILE", (*definition).compileWhile),
		ctl("REPEAT", (*definition).compileRepeat),
		ctl("UNTIL", func(def *definition) error { return def.compileBackEdge(code.Until) }),
		ctl("AGAIN", func(def *definition) error { return def.compileBackEdge(code.Again) }),
		ctl("CASE", (*definition).compileCase),
		ctl("OF", (*definition).compileOf),
		ctl("ENDOF", (*definition).compileEndOf),
		ctl("ENDCASE", (*definition).compileEndCase),
		ctl("DO", (*definition).compileDo),
		ctl("LOOP", func(def *definition) error { return def.compileLoop(code.Loop) }),
		ctl("+LOOP", func(def *definition) error { return def.compileLoop(code.PlusLoop) }),
		ctl("LEAVE", (*definition).compileLeave),
	}
}

func directiveOf(w *dict.Word) (int, bool) {
	if !w.Builtin || len(w.Code) != 1 || w.Code[0].Op != code.Directive {
		return -1, false
	}
	return w.Code[0].Arg, true
}

func (vm *VM) directive(i int) error {
	if i < 0 || i >= len(directives) {
		return errInvalidCall
	}
	d := directives[i]
	switch {
	case d.mode == compileOnly && vm.def == nil:
		return wordError{errCompileOnly, d.name}
	case d.mode == interpretOnly && vm.def != nil:
		return wordError{errInterpretOnly, d.name}
	}
	return d.fn(vm)
}

func (vm *VM) nextName() (string, error) {
	name, err := vm.lex.name()
	if err != nil {
		return "", err
	}
	return canonical(name), nil
}

// checkName rejects defining a name that is already visible, unless
// redefinition is enabled.
func (vm *VM) checkName(name string) error {
	if _, defined := vm.dict.Find(name); defined && !vm.redefine {
		return wordError{errDuplicateName, name}
	}
	return nil
}

func (vm *VM) define(w dict.Word) (int, error) {
	i, err := vm.dict.Define(w)
	if errors.Is(err, dict.ErrFull) {
		err = wordError{errDictionaryFull, w.Name}
	}
	return i, err
}

func (vm *VM) colon() error {
	name, err := vm.nextName()
	if err == nil {
		err = vm.checkName(name)
	}
	if err != nil {
		return compileError{name, err}
	}
	slot, err := vm.dict.Reserve(name)
	if err != nil {
		return compileError{name, errDictionaryFull}
	}
	vm.def = &definition{
		name:  name,
		slot:  slot,
		mark:  slot,
		limit: vm.limits.CodeSize,
	}
	vm.logf(":", "%v", name)
	return nil
}

func (vm *VM) semicolon() error {
	def := vm.def
	w, err := def.finish()
	if err != nil {
		return err
	}
	if err := vm.dict.Commit(def.slot, w); err != nil {
		return err
	}
	vm.def = nil
	vm.logf(";", "%v %v", def.name, w.Code)
	return nil
}

func (vm *VM) immediate() error {
	var target *dict.Word
	vm.dict.Each(func(i int, w *dict.Word) bool {
		if i >= vm.dict.Fence {
			target = w
		}
		return false
	})
	if target == nil {
		return errNotImmediate
	}
	target.Immediate = true
	return nil
}

// createCell declares a named memory cell and its accessor word, which
// pushes the cell's handle.
func (vm *VM) createCell(kind mem.Kind) error {
	name, err := vm.nextName()
	if err != nil {
		return err
	}
	if err := vm.checkName(name); err != nil {
		return err
	}
	h, err := vm.mem.Create(name, kind)
	if err != nil {
		return err
	}
	if _, err := vm.define(dict.Word{
		Name:     name,
		Code:     []code.Instr{{Op: code.Cell}},
		Literals: []*big.Int{h.Value()},
	}); err != nil {
		vm.mem.Release(h)
		return err
	}
	vm.logf("#", "create %v %v", name, h)
	return nil
}

func (vm *VM) constant() error {
	name, err := vm.nextName()
	if err != nil {
		return err
	}
	if err := vm.checkName(name); err != nil {
		return err
	}
	if err := vm.stack.need(1); err != nil {
		return opError{"CONSTANT", err}
	}
	if _, err := vm.define(dict.Word{
		Name:     name,
		Code:     []code.Instr{{Op: code.Lit}, {Op: code.End}},
		Literals: []*big.Int{vm.stack.peek(0)},
	}); err != nil {
		return err
	}
	vm.stack.drop(1)
	return nil
}

func (vm *VM) forget() error {
	name, err := vm.nextName()
	if err != nil {
		return err
	}
	i, ok := vm.dict.Find(name)
	if !ok {
		return wordError{errUnknownWord, name}
	}
	if err := vm.dict.Truncate(i, vm.release); err != nil {
		return wordError{err, name}
	}
	vm.logf("#", "forget %v @%d", name, i)
	return nil
}

func (vm *VM) see() error {
	name, err := vm.nextName()
	if err != nil {
		return err
	}
	i, ok := vm.dict.Find(name)
	if !ok {
		return wordError{errUnknownWord, name}
	}
	vm.out.println(vm.decompile(i))
	return nil
}

// words lists every reachable word, newest first.
func (vm *VM) words() error {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	vm.dict.Each(func(_ int, w *dict.Word) bool {
		if !seen[w.Name] {
			seen[w.Name] = true
			names = append(names, w.Name)
		}
		return true
	})
	vm.out.println(strings.Join(names, " "))
	return nil
}

// load interprets each line of a named source from the loader.
func (vm *VM) load() error {
	name, err := vm.lex.name()
	if err != nil {
		return err
	}
	if vm.loader == nil {
		return wordError{errNoLoader, name}
	}
	if lim := vm.limits.LoadDepth; lim > 0 && vm.loads >= lim {
		return wordError{errLoadTooDeep, name}
	}
	rc, err := vm.loader.Open(name)
	if err != nil {
		return fmt.Errorf("LOAD: %w", err)
	}

	vm.loads++
	defer func() { vm.loads-- }()
	vm.logf("<", "load %v", name)

	in := fileinput.Input{Queue: []io.Reader{fileinput.Named(name, rc)}}
	defer in.Close()
	for in.Scan() {
		if err := vm.interpretLine(in.Text()); err != nil {
			return locError{in.Last, err}
		}
	}
	return in.Err()
}
