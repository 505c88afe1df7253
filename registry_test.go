package main

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/bigforth/internal/code"
)

// taggedLines collects registry output as "identity: line".
type taggedLines struct {
	mu    sync.Mutex
	lines []string
}

func (tl *taggedLines) emit(identity, line string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.lines = append(tl.lines, identity+": "+line)
}

func (tl *taggedLines) take() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	lines := tl.lines
	tl.lines = nil
	return lines
}

func interpretAll(t *testing.T, reg *Registry, identity string, lines ...string) {
	for _, line := range lines {
		reg.Interpret(context.Background(), identity, line)
	}
}

func Test_Registry_isolation(t *testing.T) {
	var out taggedLines
	reg := NewRegistry(out.emit)

	interpretAll(t, reg, "alice", `: SQ DUP * ;`, `VARIABLE X 7 X !`, `3 SQ .`)
	interpretAll(t, reg, "bob", `3 SQ .`, `X ?`, `: SQ 1 ;`, `3 SQ .`)
	interpretAll(t, reg, "alice", `4 SQ . X ?`)

	assert.Equal(t, []string{
		"alice: 9",
		"bob: unknown word: SQ",
		"bob: unknown word: X",
		"bob: 1",
		"alice: 16 7",
	}, out.take())
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"alice", "bob"}, reg.Identities())

	reg.Do("bob", func(vm *VM) {
		assert.Equal(t, "bob", vm.Name())
		assert.Equal(t, 2, vm.Depth(), "bob keeps the 3 left by the failed line")
	})
	reg.Do("alice", func(vm *VM) {
		assert.Equal(t, 0, vm.Depth())
	})
}

func Test_Registry_drop(t *testing.T) {
	var out taggedLines
	reg := NewRegistry(out.emit)
	interpretAll(t, reg, "carol", `: HELLO ." hello" ;`, `HELLO`)
	assert.Equal(t, []string{"carol: hello"}, out.take())

	assert.True(t, reg.Drop("carol"))
	assert.False(t, reg.Drop("carol"))
	assert.Equal(t, 0, reg.Len())

	interpretAll(t, reg, "carol", `HELLO`)
	assert.Equal(t, []string{"carol: unknown word: HELLO"}, out.take(), "expected a fresh environment")
}

func Test_Registry_options(t *testing.T) {
	var out taggedLines
	lim := DefaultLimits
	lim.StackDepth = 2
	reg := NewRegistry(out.emit, WithLimits(lim), WithRedefine(true))
	interpretAll(t, reg, "dan", `1 2 3`, `: DUP 42 ;`, `DUP .`)
	assert.Equal(t, []string{
		"dan: 3: operand stack overflow",
		"dan: 42",
	}, out.take())
}

func Test_Registry_concurrent(t *testing.T) {
	var out taggedLines
	reg := NewRegistry(out.emit)
	interpretAll(t, reg, "shared", `VARIABLE N`)

	const (
		workers = 8
		rounds  = 50
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				reg.Interpret(context.Background(), "shared", `1 N +!`)
			}
		}()
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("user%d", w)
			reg.Interpret(context.Background(), id, `VARIABLE MINE`)
			for i := 0; i < rounds; i++ {
				reg.Interpret(context.Background(), id, fmt.Sprintf(`%d MINE +!`, w))
			}
		}()
	}
	wg.Wait()
	out.take()

	interpretAll(t, reg, "shared", `N ?`)
	for w := 0; w < workers; w++ {
		interpretAll(t, reg, fmt.Sprintf("user%d", w), `MINE ?`)
	}
	want := []string{fmt.Sprintf("shared: %d", workers*rounds)}
	for w := 0; w < workers; w++ {
		want = append(want, fmt.Sprintf("user%d: %d", w, w*rounds))
	}
	assert.Equal(t, want, out.take())
	assert.Equal(t, workers+1, reg.Len())
}

func Test_Registry_image(t *testing.T) {
	var out taggedLines
	reg := NewRegistry(out.emit)
	interpretAll(t, reg, "alice",
		`: SQ DUP * ;`,
		`: GREET ." hi " "there" TYPE SDROP ;`,
		`VARIABLE X 42 X !`,
		`CREATE A 3 ALLOT 7 2 A !`,
		`STRING S "hello" S !`,
		`: MARKER ; IMMEDIATE`,
		`123456789012345678901234567890 5`,
	)
	interpretAll(t, reg, "bob", `: HALF 2 /`, `VARIABLE INSIDE`)
	out.take()

	reg.Do("bob", func(vm *VM) {
		require.True(t, vm.Defining(), "bob should be mid-definition")
	})

	var buf bytes.Buffer
	require.NoError(t, reg.Save(&buf))

	var out2 taggedLines
	reg2 := NewRegistry(out2.emit)
	require.NoError(t, reg2.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, []string{"alice", "bob"}, reg2.Identities())

	reg2.Do("alice", func(vm *VM) {
		assert.Equal(t, []string{"123456789012345678901234567890", "5"}, stackValues(&vm.stack))
		assert.Equal(t, []string{"hello"}, vm.strs.vals)
		i, ok := vm.dict.Find("MARKER")
		if assert.True(t, ok) {
			assert.True(t, vm.dict.Word(i).Immediate)
		}
	})
	interpretAll(t, reg2, "alice",
		`CLEAR-STACK`,
		`X ? 2 A @ . A SIZE . S @ TYPE SPACE 4 SQ . GREET`,
		`SEE GREET`,
		`VARIABLE Y 9 Y ! Y ? X ?`,
	)
	assert.Equal(t, []string{
		"alice: 42 7 3 hello 16 hi there",
		`alice: : GREET ." hi " "there" TYPE SDROP ;`,
		"alice: 9 42",
	}, out2.take())

	reg2.Do("bob", func(vm *VM) {
		assert.False(t, vm.Defining(), "open definitions are not saved")
		_, ok := vm.dict.Find("INSIDE")
		assert.False(t, ok, "cells created by an open definition are not saved")
		assert.Equal(t, 0, vm.mem.Len())
	})

	// the original registry is untouched by saving
	interpretAll(t, reg, "bob", `;`, `10 HALF .`)
	assert.Equal(t, []string{"bob: 5"}, out.take())
}

func Test_Registry_loadReplaces(t *testing.T) {
	var out taggedLines
	src := NewRegistry(out.emit)
	interpretAll(t, src, "alice", `: V 1 ;`)
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := NewRegistry(out.emit)
	interpretAll(t, dst, "alice", `: V 2 ;`, `: W 3 ;`)
	interpretAll(t, dst, "zed", `: Z 26 ;`)
	require.NoError(t, dst.Load(&buf))
	out.take()

	interpretAll(t, dst, "alice", `V . W`)
	interpretAll(t, dst, "zed", `Z .`)
	assert.Equal(t, []string{
		"alice: 1",
		"alice: unknown word: W",
		"zed: 26",
	}, out.take())
}

func Test_Registry_badImage(t *testing.T) {
	fence := New().dict.Fence
	encode := func(im registryImage) []byte {
		var buf bytes.Buffer
		require.NoError(t, cborEncMode.NewEncoder(&buf).Encode(im))
		return buf.Bytes()
	}
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("not an image")},
		{"version", encode(registryImage{Version: imageVersion + 1})},
		{"fence", encode(registryImage{Version: imageVersion, Envs: []vmImage{
			{Name: "x", Fence: fence + 1},
		}})},
		{"literal operand", encode(registryImage{Version: imageVersion, Envs: []vmImage{
			{Name: "x", Fence: fence, Words: []wordImage{
				{Name: "BAD", Code: []code.Instr{{Op: code.Lit, Arg: 3}, {Op: code.End}}},
			}},
		}})},
		{"call operand", encode(registryImage{Version: imageVersion, Envs: []vmImage{
			{Name: "x", Fence: fence, Words: []wordImage{
				{Name: "BAD", Code: []code.Instr{{Op: code.Call, Arg: fence + 5}, {Op: code.End}}},
			}},
		}})},
		{"directive op", encode(registryImage{Version: imageVersion, Envs: []vmImage{
			{Name: "x", Fence: fence, Words: []wordImage{
				{Name: "BAD", Code: []code.Instr{{Op: code.Directive}, {Op: code.End}}},
			}},
		}})},
		{"stack value", encode(registryImage{Version: imageVersion, Envs: []vmImage{
			{Name: "x", Fence: fence, Stack: []string{"12x"}},
		}})},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry(nil)
			err := reg.Load(bytes.NewReader(tc.data))
			assert.ErrorIs(t, err, errBadImage)
			assert.Equal(t, 0, reg.Len(), "a failed load leaves the registry unchanged")
		})
	}
}
