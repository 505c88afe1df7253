package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/bigforth/internal/mem"
)

// vmDumper writes a human readable dump of an environment's state.
type vmDumper struct {
	vm  *VM
	out io.Writer

	addrWidth int

	// all includes built-in and prelude words, with raw code listings.
	all bool
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# VM Dump %q\n", dump.vm.name)
	dump.dumpStacks()
	dump.dumpDict()
	dump.dumpMem()
}

func (dump *vmDumper) dumpStacks() {
	vm := dump.vm
	fmt.Fprintf(dump.out, "  stack: %v\n", &vm.stack)
	fmt.Fprintf(dump.out, "  rstack: %v\n", &vm.rstack)
	fmt.Fprintf(dump.out, "  strings: %q\n", vm.strs.vals)
	if def := vm.def; def != nil {
		fmt.Fprintf(dump.out, "  defining: %v @%d %v\n", def.name, def.slot, def.word.Code)
	}
}

func (dump *vmDumper) dumpDict() {
	vm := dump.vm
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(vm.dict.Len()))
	}
	from := vm.dict.Fence
	if dump.all {
		from = 0
	}
	fmt.Fprintf(dump.out, "# Dictionary fence:%d len:%d\n", vm.dict.Fence, vm.dict.Len())
	var buf strings.Builder
	for i := from; i < vm.dict.Len(); i++ {
		w := vm.dict.Word(i)
		fmt.Fprintf(&buf, "  @% *d ", dump.addrWidth, i)
		if w.Hidden() {
			fmt.Fprintf(&buf, "%v ( open )", w.Name)
		} else {
			buf.WriteString(vm.decompile(i))
		}
		if dump.all && !w.Builtin {
			fmt.Fprintf(&buf, "\n  % *s %v", dump.addrWidth+1, "", w.Code)
		}
		buf.WriteByte('\n')
		io.WriteString(dump.out, buf.String())
		buf.Reset()
	}
}

func (dump *vmDumper) dumpMem() {
	im := dump.vm.mem.Image()
	fmt.Fprintf(dump.out, "# Memory cells:%d last:%v\n", len(im.Cells), im.Last)
	for _, ci := range im.Cells {
		h := mem.Handle{Kind: ci.Kind, Slot: ci.Slot}
		switch ci.Kind {
		case mem.Text:
			fmt.Fprintf(dump.out, "  %v %v %q\n", h, ci.Name, ci.Text)
		default:
			fmt.Fprintf(dump.out, "  %v %v %v\n", h, ci.Name, ci.Values)
		}
	}
}
