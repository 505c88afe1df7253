package main

import (
	"io"

	"github.com/jcorbin/bigforth/internal/flushio"
)

type VMOption interface{ apply(vm *VM) }

// Limits bounds the resources one environment may use; a zero field means
// unlimited, except where DefaultLimits says otherwise.
type Limits struct {
	StackDepth  int `toml:"stack-depth"`
	ReturnDepth int `toml:"return-depth"`
	StringDepth int `toml:"string-depth"`
	Words       int `toml:"words"`
	CodeSize    int `toml:"code-size"`
	Cells       int `toml:"cells"`
	CallDepth   int `toml:"call-depth"`
	LoadDepth   int `toml:"load-depth"`
	Steps       int `toml:"steps"`
}

var DefaultLimits = Limits{
	StackDepth:  1024,
	ReturnDepth: 1024,
	StringDepth: 256,
	Words:       4096,
	CodeSize:    8192,
	Cells:       4096,
	CallDepth:   4096,
	LoadDepth:   8,
}

var defaultOptions = VMOptions(
	withLimits(DefaultLimits),
)

// VMOptions combines options into one, applied in order; nil options are
// skipped.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type withLineFunc func(line string)

func (fn withLineFunc) apply(vm *VM) {
	vm.out.emit = fn
}

type outputOption struct{ io.Writer }

func (o outputOption) apply(vm *VM) {
	lw := &flushio.LineWriter{WF: flushio.NewWriteFlusher(o.Writer)}
	vm.out.emit = lw.WriteLine
}

type withLimits Limits

func (lim withLimits) apply(vm *VM) {
	vm.limits = Limits(lim)
}

type withRedefine bool

func (re withRedefine) apply(vm *VM) {
	vm.redefine = bool(re)
}

type withName string

func (name withName) apply(vm *VM) {
	vm.name = string(name)
}

type loaderOption struct{ Loader }

func (lo loaderOption) apply(vm *VM) {
	vm.loader = lo.Loader
}
