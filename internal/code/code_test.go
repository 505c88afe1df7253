package code_test

import (
	"testing"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/stretchr/testify/assert"
)

func Test_Op_classes(t *testing.T) {
	for _, tc := range []struct {
		op        code.Op
		hasArg    bool
		branches  bool
		primitive bool
	}{
		{code.Nop, false, false, false},
		{code.Lit, true, false, false},
		{code.Cell, true, false, false},
		{code.Str, true, false, false},
		{code.Print, true, false, false},
		{code.Call, true, false, false},
		{code.Exit, false, false, false},
		{code.End, false, false, false},
		{code.Directive, true, false, false},
		{code.If, true, true, false},
		{code.Else, true, true, false},
		{code.While, true, true, false},
		{code.Repeat, true, true, false},
		{code.Until, true, true, false},
		{code.Again, true, true, false},
		{code.Case, false, false, false},
		{code.Of, true, true, false},
		{code.EndOf, true, true, false},
		{code.EndCase, false, false, false},
		{code.Do, false, false, false},
		{code.Loop, true, false, false},
		{code.PlusLoop, true, false, false},
		{code.Leave, true, true, false},
		{code.Unloop, false, false, true},
		{code.Add, false, false, true},
		{code.LoopI, false, false, true},
		{code.StrDrop, false, false, true},
		{code.MaxOp, false, false, false},
	} {
		t.Run(tc.op.String(), func(t *testing.T) {
			assert.Equal(t, tc.hasArg, tc.op.HasArg(), "expected HasArg")
			assert.Equal(t, tc.branches, tc.op.Branches(), "expected Branches")
			assert.Equal(t, tc.primitive, tc.op.Primitive(), "expected Primitive")
		})
	}
}

func Test_Op_names(t *testing.T) {
	seen := make(map[string]code.Op)
	for op := code.Op(0); op < code.MaxOp; op++ {
		name := op.String()
		assert.NotContains(t, name, "op(", "%d has no name", uint8(op))
		if prior, dup := seen[name]; dup {
			t.Errorf("%v names both %d and %d", name, uint8(prior), uint8(op))
		}
		seen[name] = op
		if op.Branches() {
			assert.True(t, op.HasArg(), "branching %v must carry a target", op)
		}
	}
	assert.Equal(t, "op(250)", code.Op(250).String())
}

func Test_Instr_String(t *testing.T) {
	assert.Equal(t, "lit 3", code.Instr{Op: code.Lit, Arg: 3}.String())
	assert.Equal(t, "if 7", code.Instr{Op: code.If, Arg: 7}.String())
	assert.Equal(t, "dup", code.Instr{Op: code.Dup, Arg: 9}.String())
}
