// Package code defines the bytecode executed by the stack machine.
package code

import "fmt"

// Op is an instruction opcode.
type Op uint8

// Instr is one bytecode instruction. Arg is a literal table index, a branch
// target, or a dictionary index, depending on Op.
type Instr struct {
	Op  Op
	Arg int
}

func (in Instr) String() string {
	if in.Op.HasArg() {
		return fmt.Sprintf("%v %v", in.Op, in.Arg)
	}
	return in.Op.String()
}

const (
	Nop Op = iota

	// literals and calls
	Lit       // push Literals[Arg]
	Cell      // push the memory handle held in Literals[Arg]
	Str       // push Texts[Arg] onto the string stack, its index onto the stack
	Print     // output Texts[Arg]
	Call      // execute dictionary word Arg
	Exit      // leave the current word
	End       // implicit end of word
	Directive // compile-time directive Arg; never executed

	// control flow; every construct has its own ops so that the decompiler
	// can rebuild source structure from bytecode alone
	If      // branch to Arg when popped value is zero
	Else    // branch to Arg
	While   // branch to Arg when popped value is zero
	Repeat  // branch back to Arg
	Until   // branch back to Arg when popped value is zero
	Again   // branch back to Arg
	Case    // marks the start of a CASE structure
	Of      // pop test; unless it equals the selector, branch to Arg; else drop selector
	EndOf   // branch to Arg
	EndCase // drop the selector
	Do      // pop start then limit; push loop frame
	Loop    // step loop frame opened by the Do at Arg
	PlusLoop
	Leave // drop the loop frame, branch to Arg
	Unloop

	// arithmetic
	Add
	Sub
	Mul
	Div
	Mod
	DivMod
	Negate
	Abs
	Min
	Max
	Inc
	Dec
	Double
	Halve
	Sqrt

	// comparison
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
	ZeroEq
	ZeroLt
	ZeroGt

	// logic and bits
	And
	Or
	Not
	BitAnd
	BitOr
	BitXor
	BitNot
	Shl
	Shr

	// stack
	Dup
	Drop
	Swap
	Over
	Rot
	RotBack
	Nip
	Tuck
	Pick
	Roll
	Dup2
	Drop2
	Swap2
	Depth
	Clear

	// return stack
	ToR
	FromR
	FetchR
	LoopI
	LoopJ

	// memory
	Fetch
	Store
	AddStore
	Allot
	Size

	// output
	Dot
	DotS
	Cr
	Emit
	Space
	Type

	// strings
	Concat
	StrLen
	StrEq
	StrDrop

	MaxOp
)

// HasArg reports whether the op's Arg is meaningful.
func (op Op) HasArg() bool {
	switch op {
	case Lit, Cell, Str, Print, Call, Directive,
		If, Else, While, Repeat, Until, Again, Of, EndOf,
		Loop, PlusLoop, Leave:
		return true
	}
	return false
}

// Branches reports whether the op's Arg is a branch target within the word.
func (op Op) Branches() bool {
	switch op {
	case If, Else, While, Repeat, Until, Again, Of, EndOf, Leave:
		return true
	}
	return false
}

// Primitive reports whether the op is a self-contained primitive, one that a
// built-in word may consist of and that may be compiled inline.
func (op Op) Primitive() bool { return op >= Unloop && op < MaxOp }

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

var names = [MaxOp]string{
	Nop:       "nop",
	Lit:       "lit",
	Cell:      "cell",
	Str:       "str",
	Print:     "print",
	Call:      "call",
	Exit:      "exit",
	End:       "end",
	Directive: "directive",
	If:        "if",
	Else:      "else",
	While:     "while",
	Repeat:    "repeat",
	Until:     "until",
	Again:     "again",
	Case:      "case",
	Of:        "of",
	EndOf:     "endof",
	EndCase:   "endcase",
	Do:        "do",
	Loop:      "loop",
	PlusLoop:  "+loop",
	Leave:     "leave",
	Unloop:    "unloop",
	Add:       "add",
	Sub:       "sub",
	Mul:       "mul",
	Div:       "div",
	Mod:       "mod",
	DivMod:    "divmod",
	Negate:    "negate",
	Abs:       "abs",
	Min:       "min",
	Max:       "max",
	Inc:       "inc",
	Dec:       "dec",
	Double:    "double",
	Halve:     "halve",
	Sqrt:      "sqrt",
	Eq:        "eq",
	Ne:        "ne",
	Lt:        "lt",
	Gt:        "gt",
	Le:        "le",
	Ge:        "ge",
	ZeroEq:    "zeq",
	ZeroLt:    "zlt",
	ZeroGt:    "zgt",
	And:       "and",
	Or:        "or",
	Not:       "not",
	BitAnd:    "band",
	BitOr:     "bor",
	BitXor:    "bxor",
	BitNot:    "bnot",
	Shl:       "shl",
	Shr:       "shr",
	Dup:       "dup",
	Drop:      "drop",
	Swap:      "swap",
	Over:      "over",
	Rot:       "rot",
	RotBack:   "-rot",
	Nip:       "nip",
	Tuck:      "tuck",
	Pick:      "pick",
	Roll:      "roll",
	Dup2:      "2dup",
	Drop2:     "2drop",
	Swap2:     "2swap",
	Depth:     "depth",
	Clear:     "clear",
	ToR:       ">r",
	FromR:     "r>",
	FetchR:    "r@",
	LoopI:     "i",
	LoopJ:     "j",
	Fetch:     "fetch",
	Store:     "store",
	AddStore:  "addstore",
	Allot:     "allot",
	Size:      "size",
	Dot:       "dot",
	DotS:      "dots",
	Cr:        "cr",
	Emit:      "emit",
	Space:     "space",
	Type:      "type",
	Concat:    "concat",
	StrLen:    "strlen",
	StrEq:     "streq",
	StrDrop:   "strdrop",
}
