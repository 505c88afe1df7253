package main

import (
	"context"
	"math/big"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/mem"
	"github.com/jcorbin/bigforth/internal/num"
)

// VM is one environment: its stacks, dictionary and memory, plus the
// interpreter state of the command being run.
type VM struct {
	logging

	name     string
	limits   Limits
	redefine bool
	loader   Loader

	stack  valueStack
	rstack valueStack
	strs   stringStack

	// loops holds the return stack height just after each open DO frame,
	// innermost last.
	loops []int

	dict dict.Dictionary
	mem  mem.Store

	out lineOutput

	lex   *lexer
	def   *definition
	err   error
	ctx   context.Context
	depth int
	loads int
	steps int

	opNames [code.MaxOp]string
}

func (vm *VM) init() {
	vm.stack = valueStack{name: "operand", limit: vm.limits.StackDepth}
	vm.rstack = valueStack{name: "return", limit: vm.limits.ReturnDepth}
	vm.strs = stringStack{limit: vm.limits.StringDepth}
	vm.mem.Limit = vm.limits.Cells
	vm.ctx = context.Background()

	vm.defineBuiltins()
	vm.loadPrelude()
	vm.dict.Fence = vm.dict.Len()
	if vm.limits.Words > 0 {
		vm.dict.Limit = vm.dict.Fence + vm.limits.Words
	}
}

// command runs one top-level line: the error flag and return stack never
// outlive it, and pending output is flushed when it ends.
func (vm *VM) command(ctx context.Context, line string) error {
	vm.ctx, vm.err, vm.steps, vm.depth = ctx, nil, 0, 0
	err := vm.interpretLine(line)
	if err != nil && vm.def != nil {
		vm.abortDefinition()
	}
	vm.resetReturn()
	vm.err = nil
	vm.ctx = context.Background()
	if err != nil {
		vm.out.println(err.Error())
		vm.logf("!", "%v", err)
	} else {
		vm.out.flush()
	}
	return err
}

// execute runs dictionary word i.
func (vm *VM) execute(i int) error {
	w := vm.dict.Word(i)
	if w == nil || w.Hidden() {
		return errInvalidCall
	}
	if lim := vm.limits.CallDepth; lim > 0 && vm.depth >= lim {
		return opError{w.Name, errRecursionTooDeep}
	}
	vm.depth++
	defer func() { vm.depth-- }()
	if vm.logfn != nil {
		vm.logf(">", "%v s:%v r:%v", w.Name, &vm.stack, &vm.rstack)
		defer vm.withLogPrefix("  ")()
	}
	return vm.run(w)
}

func (vm *VM) run(w *dict.Word) error {
	for pc := 0; pc < len(w.Code); {
		if vm.err != nil {
			return vm.err
		}
		if err := vm.tick(); err != nil {
			return vm.fail(opError{w.Name, err})
		}
		in := w.Code[pc]
		next, err := vm.step(w, pc, in)
		if err != nil {
			if in.Op != code.Call {
				err = opError{vm.opName(w, in), err}
			}
			return vm.fail(err)
		}
		if vm.logfn != nil {
			vm.logf("-", "%v @%d %v s:%v", w.Name, pc, in, &vm.stack)
		}
		pc = next
	}
	return nil
}

func (vm *VM) fail(err error) error {
	if vm.err == nil {
		vm.err = err
	}
	return vm.err
}

func (vm *VM) tick() error {
	vm.steps++
	if lim := vm.limits.Steps; lim > 0 && vm.steps > lim {
		return errBudgetExceeded
	}
	if vm.steps&1023 == 0 {
		return vm.ctx.Err()
	}
	return nil
}

// opName names an instruction by the source word that compiles to it.
func (vm *VM) opName(w *dict.Word, in code.Instr) string {
	if name := vm.opNames[in.Op]; name != "" {
		return name
	}
	if in.Op == code.End || in.Op == code.Lit || in.Op == code.Cell || in.Op == code.Str {
		return w.Name
	}
	return in.Op.String()
}

// step executes one instruction, returning the next pc.
func (vm *VM) step(w *dict.Word, pc int, in code.Instr) (int, error) {
	next := pc + 1
	switch in.Op {
	case code.Nop, code.Case:

	case code.Lit, code.Cell:
		return next, vm.stack.push(w.Literals[in.Arg])

	case code.Str:
		return next, vm.pushString(w.Texts[in.Arg])

	case code.Print:
		vm.out.text(w.Texts[in.Arg])

	case code.Call:
		return next, vm.execute(in.Arg)

	case code.Exit, code.End:
		return len(w.Code), nil

	case code.If, code.While, code.Until:
		v, err := vm.stack.pop()
		if err != nil {
			return pc, err
		}
		if !num.Truth(v) {
			next = in.Arg
		}

	case code.Else, code.Repeat, code.Again, code.EndOf:
		next = in.Arg

	case code.Of:
		if err := vm.stack.need(2); err != nil {
			return pc, err
		}
		if vm.stack.peek(0).Cmp(vm.stack.peek(1)) == 0 {
			vm.stack.drop(2)
		} else {
			vm.stack.drop(1)
			next = in.Arg
		}

	case code.EndCase:
		_, err := vm.stack.pop()
		return next, err

	case code.Do:
		if err := vm.stack.need(2); err != nil {
			return pc, err
		}
		if err := vm.rstack.room(3); err != nil {
			return pc, err
		}
		start, limit := vm.stack.peek(0), vm.stack.peek(1)
		vm.stack.drop(2)
		vm.rstack.push(limit)
		vm.rstack.push(start)
		vm.rstack.push(big.NewInt(int64(pc + 1)))
		vm.loops = append(vm.loops, vm.rstack.len())

	case code.Loop, code.PlusLoop:
		return vm.loop(pc, in)

	case code.Leave:
		if err := vm.rstack.need(3); err != nil {
			return pc, err
		}
		vm.closeFrame()
		next = in.Arg

	case code.Directive:
		return pc, errInvalidOp

	default:
		prim := primitives[in.Op]
		if prim == nil {
			return pc, errInvalidOp
		}
		return next, prim(vm)
	}
	return next, nil
}

// loop steps the frame opened by the Do at in.Arg; the frame is limit, index
// and resume address, resume on top.
func (vm *VM) loop(pc int, in code.Instr) (int, error) {
	if err := vm.rstack.need(3); err != nil {
		return pc, err
	}
	if resume := vm.rstack.peek(0); !resume.IsInt64() || resume.Int64() != int64(in.Arg+1) {
		return pc, errLoopFrame
	}
	if err := vm.checkFrames(1); err != nil {
		return pc, err
	}
	step := big.NewInt(1)
	if in.Op == code.PlusLoop {
		if err := vm.stack.need(1); err != nil {
			return pc, err
		}
		step = vm.stack.peek(0)
		vm.stack.drop(1)
	}
	index := new(big.Int).Add(vm.rstack.peek(1), step)
	limit := vm.rstack.peek(2)
	if index.Cmp(limit) >= 0 {
		vm.closeFrame()
		return pc + 1, nil
	}
	vm.rstack.set(1, index)
	return in.Arg + 1, nil
}

// closeFrame drops the innermost loop frame.
func (vm *VM) closeFrame() {
	vm.rstack.drop(3)
	if n := len(vm.loops); n > 0 {
		vm.loops = vm.loops[:n-1]
	}
}

// checkFrames verifies that the n innermost loop frames are stacked directly
// on each other at the top of the return stack, as DO left them.
func (vm *VM) checkFrames(n int) error {
	if len(vm.loops) < n {
		return errLoopFrame
	}
	height := vm.rstack.len()
	for i := len(vm.loops) - 1; i >= len(vm.loops)-n; i-- {
		if vm.loops[i] != height {
			return errLoopFrame
		}
		height -= 3
	}
	return nil
}

func (vm *VM) resetReturn() {
	vm.rstack.reset()
	vm.loops = vm.loops[:0]
}

func (vm *VM) pushString(s string) error {
	if err := vm.stack.room(1); err != nil {
		return err
	}
	i, err := vm.strs.push(s)
	if err != nil {
		return err
	}
	return vm.stack.push(big.NewInt(int64(i)))
}

// interpretLine interprets or compiles each token of line.
func (vm *VM) interpretLine(line string) error {
	lx := &lexer{line: line}
	prior := vm.lex
	vm.lex = lx
	defer func() { vm.lex = prior }()
	for {
		tok, ok, err := lx.next()
		if err == nil && ok {
			err = vm.token(tok)
		}
		if err != nil {
			if vm.def != nil && !isCompileError(err) {
				err = compileError{vm.def.name, err}
			}
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (vm *VM) token(tok token) error {
	switch tok.kind {
	case tokPrint:
		if vm.def != nil {
			return vm.def.emitText(code.Print, tok.text)
		}
		vm.out.text(tok.text)
		return nil

	case tokString:
		if vm.def != nil {
			return vm.def.emitText(code.Str, tok.text)
		}
		if err := vm.pushString(tok.text); err != nil {
			return opError{`"`, err}
		}
		return nil
	}
	return vm.word(tok.text)
}

func (vm *VM) word(text string) error {
	name := canonical(text)
	if i, ok := vm.dict.Find(name); ok {
		w := vm.dict.Word(i)
		if d, ok := directiveOf(w); ok {
			return vm.directive(d)
		}
		if vm.def == nil || w.Immediate {
			return vm.execute(i)
		}
		if op, ok := w.Inline(); ok {
			return vm.def.emit(op, 0)
		}
		return vm.def.emit(code.Call, i)
	}

	v, ok := literal(text)
	if !ok {
		return wordError{errUnknownWord, text}
	}
	if vm.def != nil {
		return vm.def.emitLiteral(v)
	}
	if err := vm.stack.push(v); err != nil {
		return opError{text, err}
	}
	return nil
}

// wordError attaches the offending source word to an error.
type wordError struct {
	err  error
	word string
}

func (we wordError) Error() string { return we.err.Error() + ": " + we.word }
func (we wordError) Unwrap() error { return we.err }

// release frees the memory cell behind a forgotten variable word.
func (vm *VM) release(h mem.Handle) {
	if vm.mem.Release(h) {
		vm.logf("#", "release %v", h)
	}
}

func (vm *VM) abortDefinition() {
	def := vm.def
	vm.def = nil
	if err := vm.dict.Truncate(def.mark, vm.release); err != nil {
		vm.logf("!", "abort %v: %v", def.name, err)
		return
	}
	vm.logf("#", "abort %v", def.name)
}
