package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/jcorbin/bigforth/internal/panicerr"
)

// New creates an environment with the built-in vocabulary and prelude
// defined.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	vm.init()
	return &vm
}

// Interpret runs one line of source to completion. Output, including the text
// of any error, goes to the line sink; the error is also returned.
func (vm *VM) Interpret(ctx context.Context, line string) error {
	err := panicerr.Recover(vm.label(), func() error {
		return vm.command(ctx, line)
	})
	if panicerr.IsPanic(err) || panicerr.IsExit(err) {
		vm.recoverPanic(err)
	}
	return err
}

func (vm *VM) label() string {
	if vm.name != "" {
		return vm.name
	}
	return "VM"
}

// recoverPanic puts the environment back into a usable state after a command
// died part way through.
func (vm *VM) recoverPanic(err error) {
	vm.logf("!", "%+v", err)
	if vm.def != nil {
		vm.abortDefinition()
	}
	vm.lex, vm.err, vm.depth, vm.loads = nil, nil, 0, 0
	vm.resetReturn()
	vm.out.println(err.Error())
}

// Name returns the environment's identity.
func (vm *VM) Name() string { return vm.name }

// Defining reports whether a colon definition is open.
func (vm *VM) Defining() bool { return vm.def != nil }

// Depth returns the operand stack depth.
func (vm *VM) Depth() int { return vm.stack.len() }

// Loader opens sources for LOAD.
type Loader interface {
	Open(name string) (io.ReadCloser, error)
}

// FSLoader loads sources from a file system; names are slash-separated
// paths valid for fs.FS.
type FSLoader struct{ fs.FS }

func (l FSLoader) Open(name string) (io.ReadCloser, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%v is a directory", name)
	}
	return f, nil
}

func WithLineFunc(emit func(line string)) VMOption { return withLineFunc(emit) }
func WithOutput(w io.Writer) VMOption                { return outputOption{w} }
func WithLoader(l Loader) VMOption                   { return loaderOption{l} }
func WithLimits(lim Limits) VMOption                 { return withLimits(lim) }
func WithRedefine(allow bool) VMOption               { return withRedefine(allow) }
func WithName(identity string) VMOption              { return withName(identity) }

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
