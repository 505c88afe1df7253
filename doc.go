/* Package main: bigforth -- a small FORTH over big integers

bigforth is a line-at-a-time FORTH dialect whose only data type is the
arbitrary precision integer. Every cell on the operand stack is a math/big
value, so `2 100 POW .` prints all 31 digits of the answer rather than
wrapping around.

Each line of input is one command. The compiler splits it into tokens; while
interpreting, each word runs as soon as it is found, and while defining (after
`:` and until `;`) each word is compiled into the new word's bytecode instead.
Built-in primitives are inlined as single instructions; user words are called
by dictionary index. Control words (IF ELSE THEN, BEGIN WHILE REPEAT, BEGIN
UNTIL, BEGIN AGAIN, DO LOOP +LOOP LEAVE, CASE OF ENDOF ENDCASE) are directives
the compiler runs itself, patching branch targets through a control stack.

Memory is a store of named cells: VARIABLE and CREATE make scalar cells, ALLOT
grows the newest one into an array, and STRING makes a text cell. A cell is
addressed by a handle, a number tagging the cell's kind above its slot, so
using a handle for the wrong kind of cell is caught rather than misread.

Strings live on their own stack; string words take and return indices into it
on the operand stack. The string stack is only cleared explicitly, by SDROP or
CLEAR-STACK.

Errors never stop the interpreter. A failing compile abandons the definition
in progress, releasing any cells made during it. A failing run stops the rest
of the command, leaving the stacks as the failing primitive found them.
Either way the error is written as a line of output, and the return stack is
reset before the next command.

Every identity gets its own environment (stacks, dictionary and memory), held
by a Registry; the command line tool runs one environment, or one per identity
given -multi, optionally saving them all to a CBOR image between runs.

A short session:

	> : SQUARE DUP * ;
	> 7 SQUARE .
	49
	> VARIABLE X 42 X ! X ?
	42
	> 30 FACT .
	265252859812191058636308480000000
	> SEE FACT
	: FACT DUP 1 > IF DUP 1- RECURSE * ELSE DROP 1 THEN ;

The prelude (see prelude.go) defines a handful of words, like FACT, in the
language itself; it sits below the FORGET fence along with the built-ins.
*/
package main
