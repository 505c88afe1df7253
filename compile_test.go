package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_lexer(t *testing.T) {
	for _, tc := range []struct {
		name   string
		line   string
		tokens []token
		err    error
	}{
		{
			name: "words",
			line: "  1 2\t+  . ",
			tokens: []token{
				{tokWord, "1"}, {tokWord, "2"}, {tokWord, "+"}, {tokWord, "."},
			},
		},
		{
			name: "print",
			line: `." hello,  world" CR`,
			tokens: []token{
				{tokPrint, "hello,  world"}, {tokWord, "CR"},
			},
		},
		{
			name:   "print keeps inner leading space",
			line:   `."  x"`,
			tokens: []token{{tokPrint, " x"}},
		},
		{
			name: "strings",
			line: `"abc" " two words" "" X`,
			tokens: []token{
				{tokString, "abc"}, {tokString, "two words"}, {tokString, ""}, {tokWord, "X"},
			},
		},
		{
			name: "comments",
			line: `1 ( a (nested-looking comment ) 2 ( x) 3 \ rest of line`,
			tokens: []token{
				{tokWord, "1"}, {tokWord, "2"}, {tokWord, "3"},
			},
		},
		{
			name:   "word starting with paren",
			line:   `(X) 1`,
			tokens: []token{{tokWord, "(X)"}, {tokWord, "1"}},
		},
		{
			name:   "unterminated print",
			line:   `1 ." oops`,
			tokens: []token{{tokWord, "1"}},
			err:    errUnterminatedString,
		},
		{
			name: "unterminated string",
			line: `"oops`,
			err:  errUnterminatedString,
		},
		{
			name:   "unterminated comment",
			line:   `2 ( oops`,
			tokens: []token{{tokWord, "2"}},
			err:    errUnterminatedComment,
		},
		{
			name: "empty",
			line: "   ",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lx := lexer{line: tc.line}
			var (
				got []token
				err error
			)
			for {
				var (
					tok token
					ok  bool
				)
				tok, ok, err = lx.next()
				if err != nil || !ok {
					break
				}
				got = append(got, tok)
			}
			assert.Equal(t, tc.tokens, got, "expected tokens")
			assert.Equal(t, tc.err, err, "expected error")
		})
	}
}

func Test_literal(t *testing.T) {
	for _, tc := range []struct {
		text string
		want string
		ok   bool
	}{
		{"42", "42", true},
		{"-7", "-7", true},
		{"+7", "7", true},
		{"$FF", "255", true},
		{"$ff", "255", true},
		{"-$10", "-16", true},
		{"%1010", "10", true},
		{"99999999999999999999999999", "99999999999999999999999999", true},
		{"'a'", "97", true},
		{"<CR>", "13", true},
		{"^C", "3", true},
		{"12abc", "", false},
		{"-", "", false},
		{"$", "", false},
		{"FOO", "", false},
	} {
		t.Run(tc.text, func(t *testing.T) {
			v, ok := literal(tc.text)
			if assert.Equal(t, tc.ok, ok) && ok {
				assert.Equal(t, tc.want, v.String())
			}
		})
	}
}

func Test_compile(t *testing.T) {
	vmTestCases{
		vmTest("multi line definition").
			withLines(`: LONG`, `1 2`, `+ ;`, `LONG .`).
			expectOutput("3"),
		vmTest("defining state spans lines").
			withLines(`: OPEN 1`).
			expectThat(func(t *testing.T, vm *VM) {
				assert.True(t, vm.Defining(), "expected open definition")
				_, found := vm.dict.Find("OPEN")
				assert.False(t, found, "open definition must not be visible")
			}),
		vmTest("unknown word discards definition").
			withLines(`: X 1 NOPE 2 ;`).
			expectError(errUnknownWord).
			expectOutput("compiling X: unknown word: NOPE").
			expectWord("X", false).
			expectThat(func(t *testing.T, vm *VM) {
				assert.False(t, vm.Defining(), "expected interpreting mode")
			}),
		vmTest("rest of line after compile error is skipped").
			withLines(`: X NOPE ; 5`).
			expectError(errUnknownWord).
			expectStack(),
		vmTest("error on later line discards definition").
			withLines(`: X 1`, `NOPE`, `X`).
			expectError(errUnknownWord).
			expectOutput("compiling X: unknown word: NOPE", "unknown word: X"),
		vmTest("aborted definition releases its cells").
			withLines(`VARIABLE KEEP`, `: X VARIABLE V STRING W NOPE ;`).
			expectError(errUnknownWord).
			expectCells(1).
			expectWord("V", false).
			expectWord("W", false).
			expectWord("KEEP", true),
		vmTest("cells created in a definition survive it").
			withLines(`: X VARIABLE V ;`, `5 V ! V ?`).
			expectOutput("5").
			expectCells(1),
		vmTest("unbalanced if").
			withLines(`: BAD 1 IF 2 ;`).
			expectError(errUnbalancedControl).
			expectOutput("compiling BAD: unbalanced control structure").
			expectWord("BAD", false),
		vmTest("unbalanced do").withLines(`: BAD 3 0 DO ;`).expectError(errUnbalancedControl),
		vmTest("unbalanced begin").withLines(`: BAD BEGIN ;`).expectError(errUnbalancedControl),
		vmTest("then without if").withLines(`: BAD THEN ;`).expectError(errUnmatchedThen),
		vmTest("else without if").withLines(`: BAD ELSE ;`).expectError(errUnmatchedElse),
		vmTest("double else").withLines(`: BAD IF ELSE ELSE THEN ;`).expectError(errUnmatchedElse),
		vmTest("repeat without while").withLines(`: BAD BEGIN REPEAT ;`).expectError(errUnmatchedBegin),
		vmTest("while without begin").withLines(`: BAD WHILE ;`).expectError(errUnmatchedBegin),
		vmTest("until without begin").withLines(`: BAD UNTIL ;`).expectError(errUnmatchedBegin),
		vmTest("loop without do").withLines(`: BAD LOOP ;`).expectError(errUnmatchedLoop),
		vmTest("leave without do").withLines(`: BAD LEAVE ;`).expectError(errUnmatchedLoop),
		vmTest("crossed structures").withLines(`: BAD 3 0 DO IF LOOP THEN ;`).expectError(errUnmatchedLoop),
		vmTest("of without case").withLines(`: BAD 1 OF ENDOF ;`).expectError(errUnmatchedCase),
		vmTest("endcase without case").withLines(`: BAD ENDCASE ;`).expectError(errUnmatchedCase),
		vmTest("unterminated string in definition").
			withLines(`: BAD ." oops ;`).
			expectError(errUnterminatedString).
			expectWord("BAD", false),
		vmTest("compile only at top level").
			withLines(`IF`).
			expectError(errCompileOnly).
			expectOutput("compile only: IF"),
		vmTest("semicolon at top level").withLines(`;`).expectError(errCompileOnly),
		vmTest("recurse at top level").withLines(`RECURSE`).expectError(errCompileOnly),
		vmTest("nested colon").
			withLines(`: X : Y ;`).
			expectError(errInterpretOnly).
			expectOutput("compiling X: interpret only: :"),
		vmTest("forget while compiling").withLines(`: X FORGET DUP ;`).expectError(errInterpretOnly),
		vmTest("missing name").withLines(`:`).expectError(errMissingName),
		vmTest("variable missing name").withLines(`VARIABLE`).expectError(errMissingName),
		vmTest("duplicate name").
			withLines(`: SQUARE DUP * ;`, `: SQUARE 1 ;`, `3 SQUARE`).
			expectOutput("compiling SQUARE: duplicate name: SQUARE").
			expectStack(9),
		vmTest("duplicate of builtin").withLines(`: DUP 1 ;`).expectError(errDuplicateName),
		vmTest("duplicate variable").withLines(`VARIABLE X VARIABLE X`).expectError(errDuplicateName).expectCells(1),
		vmTest("duplicate is case insensitive").withLines(`: sq ;`, `: SQ ;`).expectError(errDuplicateName),
		vmTest("redefine shadows").
			withOptions(WithRedefine(true)).
			withLines(`: SQUARE DUP * ;`, `: USE 3 SQUARE ;`, `: SQUARE 1 ;`, `3 SQUARE USE`).
			expectStack(3, 1, 9),
		vmTest("redefinition may call the word it shadows").
			withOptions(WithRedefine(true)).
			withLines(`: F 1 ;`, `: F F 1+ ;`, `F`).
			expectStack(2),
		vmTest("a word cannot call itself by name").
			withLines(`: F F ;`).
			expectError(errUnknownWord),
		vmTest("case insensitive").
			withLines(`: sq dup * ;`, `3 SQ 4 sq 5 Sq`).
			expectStack(9, 16, 25),
		vmTest("definition too long").
			withLimits(func(lim *Limits) { lim.CodeSize = 4 }).
			withLines(`: X 1 2 3 4 5 ;`).
			expectError(errDefinitionTooLong).
			expectWord("X", false),
		vmTest("end counts toward code size").
			withLimits(func(lim *Limits) { lim.CodeSize = 4 }).
			withLines(`: X 1 2 3 4 ;`).
			expectError(errDefinitionTooLong),
		vmTest("fits code size").
			withLimits(func(lim *Limits) { lim.CodeSize = 4 }).
			withLines(`: X 1 2 3 ;`, `X`).
			expectStack(1, 2, 3),
		vmTest("dictionary full").
			withLimits(func(lim *Limits) { lim.Words = 2 }).
			withLines(`: A ;`, `VARIABLE B`, `: C ;`).
			expectError(errDictionaryFull).
			expectOutput("compiling C: dictionary full").
			expectWord("C", false),
		vmTest("dictionary full for variable").
			withLimits(func(lim *Limits) { lim.Words = 1 }).
			withLines(`: A ;`, `VARIABLE B`).
			expectError(errDictionaryFull).
			expectCells(0),
		vmTest("forget frees room").
			withLimits(func(lim *Limits) { lim.Words = 1 }).
			withLines(`: A ;`, `FORGET A`, `: B 2 ;`, `B`).
			expectStack(2),
		vmTest("immediate needs a user word").withLines(`IMMEDIATE`).expectError(errNotImmediate),
		vmTest("immediate word runs while compiling").
			withLines(`: [5] 5 ; IMMEDIATE`, `: X [5] ;`, `X`).
			expectStack(5),
		vmTest("compile time stack effects").
			withLines(`: MARK ." marked" ; IMMEDIATE`, `: X 1 MARK 2 ;`).
			expectOutput("marked").
			expectWord("X", true),
		vmTest("variable while compiling").
			withLines(`: X VARIABLE V V ;`, `X @`).
			expectStack(0),
	}.run(t)
}
