package main

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/mem"
	"github.com/jcorbin/bigforth/internal/num"
)

// builtins names every primitive op; each becomes a one-instruction
// dictionary word that the compiler inlines.
var builtins = []struct {
	name string
	op   code.Op
}{
	{"+", code.Add},
	{"-", code.Sub},
	{"*", code.Mul},
	{"/", code.Div},
	{"MOD", code.Mod},
	{"/MOD", code.DivMod},
	{"NEGATE", code.Negate},
	{"ABS", code.Abs},
	{"MIN", code.Min},
	{"MAX", code.Max},
	{"1+", code.Inc},
	{"1-", code.Dec},
	{"2*", code.Double},
	{"2/", code.Halve},
	{"SQRT", code.Sqrt},

	{"=", code.Eq},
	{"<>", code.Ne},
	{"<", code.Lt},
	{">", code.Gt},
	{"<=", code.Le},
	{">=", code.Ge},
	{"0=", code.ZeroEq},
	{"0<", code.ZeroLt},
	{"0>", code.ZeroGt},

	{"AND", code.And},
	{"OR", code.Or},
	{"NOT", code.Not},
	{"&", code.BitAnd},
	{"|", code.BitOr},
	{"^", code.BitXor},
	{"~", code.BitNot},
	{"<<", code.Shl},
	{">>", code.Shr},

	{"DUP", code.Dup},
	{"DROP", code.Drop},
	{"SWAP", code.Swap},
	{"OVER", code.Over},
	{"ROT", code.Rot},
	{"-ROT", code.RotBack},
	{"NIP", code.Nip},
	{"TUCK", code.Tuck},
	{"PICK", code.Pick},
	{"ROLL", code.Roll},
	{"2DUP", code.Dup2},
	{"2DROP", code.Drop2},
	{"2SWAP", code.Swap2},
	{"DEPTH", code.Depth},
	{"CLEAR-STACK", code.Clear},

	{">R", code.ToR},
	{"R>", code.FromR},
	{"R@", code.FetchR},
	{"I", code.LoopI},
	{"J", code.LoopJ},
	{"UNLOOP", code.Unloop},

	{"@", code.Fetch},
	{"!", code.Store},
	{"+!", code.AddStore},
	{"ALLOT", code.Allot},
	{"SIZE", code.Size},

	{".", code.Dot},
	{".S", code.DotS},
	{"CR", code.Cr},
	{"EMIT", code.Emit},
	{"SPACE", code.Space},
	{"TYPE", code.Type},

	{"S+", code.Concat},
	{"SLEN", code.StrLen},
	{"S=", code.StrEq},
	{"SDROP", code.StrDrop},
}

func (vm *VM) defineBuiltins() {
	for _, b := range builtins {
		vm.defineBuiltin(dict.Word{
			Name:    b.name,
			Code:    []code.Instr{{Op: b.op}},
			Builtin: true,
		})
		vm.opNames[b.op] = b.name
	}
	for i, d := range directives {
		vm.defineBuiltin(dict.Word{
			Name:      d.name,
			Code:      []code.Instr{{Op: code.Directive, Arg: i}},
			Immediate: true,
			Builtin:   true,
		})
	}
	vm.opNames[code.Exit] = "EXIT"
	vm.opNames[code.Print] = `."`
	vm.opNames[code.Str] = `"`
}

func (vm *VM) defineBuiltin(w dict.Word) {
	if _, err := vm.dict.Define(w); err != nil {
		panic(fmt.Sprintf("cannot define built-in %v: %v", w.Name, err))
	}
}

var primitives [code.MaxOp]func(vm *VM) error

func init() {
	primitives = [code.MaxOp]func(vm *VM) error{
		code.Add: binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Add(a, b), nil }),
		code.Sub: binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Sub(a, b), nil }),
		code.Mul: binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Mul(a, b), nil }),
		code.Div: binary(func(a, b *big.Int) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, errDivByZero
			}
			return new(big.Int).Quo(a, b), nil
		}),
		code.Mod: binary(func(a, b *big.Int) (*big.Int, error) {
			if b.Sign() == 0 {
				return nil, errDivByZero
			}
			return new(big.Int).Rem(a, b), nil
		}),
		code.DivMod: (*VM).divMod,
		code.Negate: unary(func(a *big.Int) (*big.Int, error) { return new(big.Int).Neg(a), nil }),
		code.Abs:    unary(func(a *big.Int) (*big.Int, error) { return new(big.Int).Abs(a), nil }),
		code.Min: binary(func(a, b *big.Int) (*big.Int, error) {
			if a.Cmp(b) <= 0 {
				return a, nil
			}
			return b, nil
		}),
		code.Max: binary(func(a, b *big.Int) (*big.Int, error) {
			if a.Cmp(b) >= 0 {
				return a, nil
			}
			return b, nil
		}),
		code.Inc:    unary(func(a *big.Int) (*big.Int, error) { return num.Inc(a), nil }),
		code.Dec:    unary(func(a *big.Int) (*big.Int, error) { return num.Dec(a), nil }),
		code.Double: unary(func(a *big.Int) (*big.Int, error) { return new(big.Int).Lsh(a, 1), nil }),
		code.Halve:  unary(func(a *big.Int) (*big.Int, error) { return new(big.Int).Rsh(a, 1), nil }),
		code.Sqrt:   unary(num.Sqrt),

		code.Eq:     compare(func(c int) bool { return c == 0 }),
		code.Ne:     compare(func(c int) bool { return c != 0 }),
		code.Lt:     compare(func(c int) bool { return c < 0 }),
		code.Gt:     compare(func(c int) bool { return c > 0 }),
		code.Le:     compare(func(c int) bool { return c <= 0 }),
		code.Ge:     compare(func(c int) bool { return c >= 0 }),
		code.ZeroEq: unary(func(a *big.Int) (*big.Int, error) { return num.Bool(a.Sign() == 0), nil }),
		code.ZeroLt: unary(func(a *big.Int) (*big.Int, error) { return num.Bool(a.Sign() < 0), nil }),
		code.ZeroGt: unary(func(a *big.Int) (*big.Int, error) { return num.Bool(a.Sign() > 0), nil }),

		code.And: binary(func(a, b *big.Int) (*big.Int, error) { return num.Bool(num.Truth(a) && num.Truth(b)), nil }),
		code.Or:  binary(func(a, b *big.Int) (*big.Int, error) { return num.Bool(num.Truth(a) || num.Truth(b)), nil }),
		code.Not: unary(func(a *big.Int) (*big.Int, error) { return num.Bool(!num.Truth(a)), nil }),

		code.BitAnd: binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).And(a, b), nil }),
		code.BitOr:  binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Or(a, b), nil }),
		code.BitXor: binary(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Xor(a, b), nil }),
		code.BitNot: unary(func(a *big.Int) (*big.Int, error) { return new(big.Int).Not(a), nil }),
		code.Shl:    binary(num.Shift),
		code.Shr: binary(func(a, b *big.Int) (*big.Int, error) {
			return num.Shift(a, new(big.Int).Neg(b))
		}),

		code.Dup:     (*VM).dup,
		code.Drop:    (*VM).drop,
		code.Swap:    shuffle(2, 0, 1),
		code.Over:    shuffle(2, 1, 0, 1),
		code.Rot:     shuffle(3, 1, 0, 2),
		code.RotBack: shuffle(3, 0, 2, 1),
		code.Nip:     shuffle(2, 0),
		code.Tuck:    shuffle(2, 0, 1, 0),
		code.Dup2:    shuffle(2, 1, 0, 1, 0),
		code.Drop2:   shuffle(2),
		code.Swap2:   shuffle(4, 1, 0, 3, 2),
		code.Pick:    (*VM).pick,
		code.Roll:    (*VM).roll,
		code.Depth: func(vm *VM) error {
			return vm.stack.push(big.NewInt(int64(vm.stack.len())))
		},
		code.Clear: func(vm *VM) error {
			vm.stack.reset()
			vm.resetReturn()
			vm.strs.reset()
			return nil
		},

		code.ToR:    func(vm *VM) error { return move(&vm.rstack, &vm.stack, true) },
		code.FromR:  func(vm *VM) error { return move(&vm.stack, &vm.rstack, true) },
		code.FetchR: func(vm *VM) error { return move(&vm.stack, &vm.rstack, false) },
		code.LoopI:  func(vm *VM) error { return vm.loopIndex(1) },
		code.LoopJ:  func(vm *VM) error { return vm.loopIndex(4) },
		code.Unloop: func(vm *VM) error {
			if err := vm.rstack.need(3); err != nil {
				return err
			}
			vm.closeFrame()
			return nil
		},

		code.Fetch:    (*VM).fetch,
		code.Store:    (*VM).store,
		code.AddStore: (*VM).addStore,
		code.Allot:    (*VM).allot,
		code.Size:     (*VM).size,

		code.Dot: func(vm *VM) error {
			v, err := vm.stack.pop()
			if err == nil {
				vm.out.word(num.Format(v))
			}
			return err
		},
		code.DotS: func(vm *VM) error {
			vm.out.word(fmt.Sprintf("<%d>", vm.stack.len()))
			for i := vm.stack.len() - 1; i >= 0; i-- {
				vm.out.word(num.Format(vm.stack.peek(i)))
			}
			return nil
		},
		code.Cr: func(vm *VM) error {
			vm.out.cr()
			return nil
		},
		code.Emit: func(vm *VM) error {
			if err := vm.stack.need(1); err != nil {
				return err
			}
			r, ok := num.Small(vm.stack.peek(0), 0, utf8.MaxRune)
			if !ok {
				return errRange
			}
			vm.stack.drop(1)
			vm.out.rune(rune(r))
			return nil
		},
		code.Space: func(vm *VM) error {
			vm.out.text(" ")
			return nil
		},
		code.Type: func(vm *VM) error {
			s, err := vm.stringArgs(1)
			if err != nil {
				return err
			}
			vm.stack.drop(1)
			vm.out.text(s[0])
			return nil
		},

		code.Concat: func(vm *VM) error {
			s, err := vm.stringArgs(2)
			if err != nil {
				return err
			}
			if err := vm.strs.room(1); err != nil {
				return err
			}
			vm.stack.drop(2)
			return vm.pushString(s[0] + s[1])
		},
		code.StrLen: func(vm *VM) error {
			s, err := vm.stringArgs(1)
			if err != nil {
				return err
			}
			vm.stack.drop(1)
			return vm.stack.push(big.NewInt(int64(utf8.RuneCountInString(s[0]))))
		},
		code.StrEq: func(vm *VM) error {
			s, err := vm.stringArgs(2)
			if err != nil {
				return err
			}
			vm.stack.drop(2)
			return vm.stack.push(num.Bool(s[0] == s[1]))
		},
		code.StrDrop: func(vm *VM) error { return vm.strs.pop() },
	}
}

// unary replaces the top value with f of it; nothing is popped when f fails.
func unary(f func(a *big.Int) (*big.Int, error)) func(vm *VM) error {
	return func(vm *VM) error {
		if err := vm.stack.need(1); err != nil {
			return err
		}
		r, err := f(vm.stack.peek(0))
		if err != nil {
			return err
		}
		vm.stack.set(0, r)
		return nil
	}
}

// binary replaces the top two values ( a b -- r ); nothing is popped when f
// fails.
func binary(f func(a, b *big.Int) (*big.Int, error)) func(vm *VM) error {
	return func(vm *VM) error {
		if err := vm.stack.need(2); err != nil {
			return err
		}
		r, err := f(vm.stack.peek(1), vm.stack.peek(0))
		if err != nil {
			return err
		}
		vm.stack.drop(1)
		vm.stack.set(0, r)
		return nil
	}
}

func compare(f func(c int) bool) func(vm *VM) error {
	return binary(func(a, b *big.Int) (*big.Int, error) {
		return num.Bool(f(a.Cmp(b))), nil
	})
}

// shuffle rearranges the top n values; out lists, bottom to top, the depth
// (0 is the top) of the input value placed at each output position.
func shuffle(n int, out ...int) func(vm *VM) error {
	return func(vm *VM) error {
		if err := vm.stack.need(n); err != nil {
			return err
		}
		if grow := len(out) - n; grow > 0 {
			if err := vm.stack.room(grow); err != nil {
				return err
			}
		}
		var buf [5]*big.Int
		vals := buf[:len(out)]
		for i, d := range out {
			vals[i] = vm.stack.peek(d)
		}
		vm.stack.drop(n)
		for _, v := range vals {
			vm.stack.push(v)
		}
		return nil
	}
}

func (vm *VM) dup() error {
	if err := vm.stack.need(1); err != nil {
		return err
	}
	return vm.stack.push(vm.stack.peek(0))
}

func (vm *VM) drop() error {
	_, err := vm.stack.pop()
	return err
}

func (vm *VM) divMod() error {
	if err := vm.stack.need(2); err != nil {
		return err
	}
	a, b := vm.stack.peek(1), vm.stack.peek(0)
	if b.Sign() == 0 {
		return errDivByZero
	}
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	vm.stack.set(1, r)
	vm.stack.set(0, q)
	return nil
}

// pick copies the u-th value below u: ( xu ... x0 u -- xu ... x0 xu ).
func (vm *VM) pick() error {
	if err := vm.stack.need(1); err != nil {
		return err
	}
	u, ok := num.Small(vm.stack.peek(0), 0, vm.stack.len()-2)
	if !ok {
		return errRange
	}
	vm.stack.set(0, vm.stack.peek(u+1))
	return nil
}

// roll moves the u-th value below u to the top: ( xu ... x0 u -- xu-1 ... x0 xu ).
func (vm *VM) roll() error {
	if err := vm.stack.need(1); err != nil {
		return err
	}
	u, ok := num.Small(vm.stack.peek(0), 0, vm.stack.len()-2)
	if !ok {
		return errRange
	}
	vm.stack.drop(1)
	v := vm.stack.peek(u)
	for i := u; i > 0; i-- {
		vm.stack.set(i, vm.stack.peek(i-1))
	}
	vm.stack.set(0, v)
	return nil
}

// move transfers the top of from onto to, leaving from intact unless pop.
func move(to, from *valueStack, pop bool) error {
	if err := from.need(1); err != nil {
		return err
	}
	if err := to.room(1); err != nil {
		return err
	}
	v := from.peek(0)
	if pop {
		from.drop(1)
	}
	return to.push(v)
}

func (vm *VM) loopIndex(depth int) error {
	if err := vm.rstack.need(depth + 1); err != nil {
		return err
	}
	if err := vm.checkFrames(depth/3 + 1); err != nil {
		return err
	}
	return vm.stack.push(vm.rstack.peek(depth))
}

// stringArgs resolves the top n operands as string stack references, deepest
// first, without popping them.
func (vm *VM) stringArgs(n int) ([]string, error) {
	if err := vm.stack.need(n); err != nil {
		return nil, err
	}
	s := make([]string, n)
	for i := range s {
		str, err := vm.strs.at(vm.stack.peek(n - 1 - i))
		if err != nil {
			return nil, err
		}
		s[i] = str
	}
	return s, nil
}

// handle decodes the memory handle i values below the top.
func (vm *VM) handle(i int) (mem.Handle, error) {
	if err := vm.stack.need(i + 1); err != nil {
		return mem.Handle{}, err
	}
	return mem.HandleOf(vm.stack.peek(i))
}

func (vm *VM) index(h mem.Handle, i int) (int, error) {
	c, err := vm.mem.Get(h)
	if err != nil {
		return 0, err
	}
	n, ok := num.Small(vm.stack.peek(i), 0, c.Len()-1)
	if !ok {
		return 0, mem.CellError{Handle: h, Name: c.Name, Err: mem.ErrIndexRange}
	}
	return n, nil
}

func (vm *VM) fetch() error {
	h, err := vm.handle(0)
	if err != nil {
		return err
	}
	switch h.Kind {
	case mem.Scalar:
		v, err := vm.mem.Fetch(h)
		if err != nil {
			return err
		}
		vm.stack.set(0, v)
		return nil

	case mem.Array:
		if err := vm.stack.need(2); err != nil {
			return err
		}
		i, err := vm.index(h, 1)
		if err != nil {
			return err
		}
		v, err := vm.mem.FetchAt(h, i)
		if err != nil {
			return err
		}
		vm.stack.drop(1)
		vm.stack.set(0, v)
		return nil

	default:
		s, err := vm.mem.Text(h)
		if err != nil {
			return err
		}
		if err := vm.strs.room(1); err != nil {
			return err
		}
		vm.stack.drop(1)
		return vm.pushString(s)
	}
}

func (vm *VM) store() error {
	h, err := vm.handle(0)
	if err != nil {
		return err
	}
	switch h.Kind {
	case mem.Scalar:
		if err := vm.stack.need(2); err != nil {
			return err
		}
		if err := vm.mem.Store(h, vm.stack.peek(1)); err != nil {
			return err
		}
		vm.stack.drop(2)
		return nil

	case mem.Array:
		if err := vm.stack.need(3); err != nil {
			return err
		}
		i, err := vm.index(h, 1)
		if err != nil {
			return err
		}
		if err := vm.mem.StoreAt(h, i, vm.stack.peek(2)); err != nil {
			return err
		}
		vm.stack.drop(3)
		return nil

	default:
		if err := vm.stack.need(2); err != nil {
			return err
		}
		s, err := vm.strs.at(vm.stack.peek(1))
		if err != nil {
			return err
		}
		if err := vm.mem.SetText(h, s); err != nil {
			return err
		}
		vm.stack.drop(2)
		return nil
	}
}

func (vm *VM) addStore() error {
	h, err := vm.handle(0)
	if err != nil {
		return err
	}
	switch h.Kind {
	case mem.Scalar:
		if err := vm.stack.need(2); err != nil {
			return err
		}
		v, err := vm.mem.Fetch(h)
		if err != nil {
			return err
		}
		if err := vm.mem.Store(h, new(big.Int).Add(v, vm.stack.peek(1))); err != nil {
			return err
		}
		vm.stack.drop(2)
		return nil

	case mem.Array:
		if err := vm.stack.need(3); err != nil {
			return err
		}
		i, err := vm.index(h, 1)
		if err != nil {
			return err
		}
		v, err := vm.mem.FetchAt(h, i)
		if err != nil {
			return err
		}
		if err := vm.mem.StoreAt(h, i, new(big.Int).Add(v, vm.stack.peek(2))); err != nil {
			return err
		}
		vm.stack.drop(3)
		return nil

	default:
		return mem.CellError{Handle: h, Err: mem.ErrTypeMismatch}
	}
}

// allot grows the most recently created cell into an array of n elements and
// points its accessor word at the re-tagged handle.
func (vm *VM) allot() error {
	if err := vm.stack.need(1); err != nil {
		return err
	}
	n, ok := num.Small(vm.stack.peek(0), 1, mem.MaxArraySize)
	if !ok {
		return mem.ErrBadSize
	}
	old := vm.mem.Last()
	h, err := vm.mem.Grow(old, n)
	if err != nil {
		return err
	}
	vm.stack.drop(1)
	vm.dict.Each(func(_ int, w *dict.Word) bool {
		if wh, ok := w.Cell(); ok && wh.Slot == old.Slot {
			w.Literals[w.Code[0].Arg] = h.Value()
			return false
		}
		return true
	})
	vm.logf("#", "allot %v -> %v", old, h)
	return nil
}

func (vm *VM) size() error {
	h, err := vm.handle(0)
	if err != nil {
		return err
	}
	c, err := vm.mem.Get(h)
	if err != nil {
		return err
	}
	vm.stack.set(0, big.NewInt(int64(c.Len())))
	return nil
}

// canonical returns the dictionary form of a source name.
func canonical(name string) string { return strings.ToUpper(name) }
