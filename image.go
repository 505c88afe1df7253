package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/dict"
	"github.com/jcorbin/bigforth/internal/mem"
)

const imageVersion = 1

var errBadImage = errors.New("invalid image")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type registryImage struct {
	Version int       `cbor:"version"`
	Envs    []vmImage `cbor:"envs"`
}

// vmImage holds the user-defined state of an environment: words above the
// fence, memory cells and the operand and string stacks. Numbers are
// carried as decimal strings.
type vmImage struct {
	Name    string         `cbor:"name"`
	Fence   int            `cbor:"fence"`
	Words   []wordImage    `cbor:"words"`
	Mem     mem.StoreImage `cbor:"mem"`
	Stack   []string       `cbor:"stack,omitempty"`
	Strings []string       `cbor:"strings,omitempty"`
}

type wordImage struct {
	Name      string       `cbor:"name"`
	Code      []code.Instr `cbor:"code"`
	Literals  []string     `cbor:"literals,omitempty"`
	Texts     []string     `cbor:"texts,omitempty"`
	Immediate bool         `cbor:"immediate,omitempty"`
}

// image copies the environment's state; an open definition, and any cells
// created inside it, are left out.
func (vm *VM) image() vmImage {
	im := vmImage{
		Name:    vm.name,
		Fence:   vm.dict.Fence,
		Mem:     vm.mem.Image(),
		Strings: append([]string(nil), vm.strs.vals...),
	}
	end := vm.dict.Len()
	if vm.def != nil {
		end = vm.def.mark
		dropped := make(map[uint32]bool)
		for i := end; i < vm.dict.Len(); i++ {
			if h, ok := vm.dict.Word(i).Cell(); ok {
				dropped[h.Slot] = true
			}
		}
		cells := im.Mem.Cells[:0:0]
		for _, ci := range im.Mem.Cells {
			if !dropped[ci.Slot] {
				cells = append(cells, ci)
			}
		}
		im.Mem.Cells = cells
	}
	for i := vm.dict.Fence; i < end; i++ {
		w := vm.dict.Word(i)
		wi := wordImage{
			Name:      w.Name,
			Code:      append([]code.Instr(nil), w.Code...),
			Texts:     append([]string(nil), w.Texts...),
			Immediate: w.Immediate,
		}
		for _, v := range w.Literals {
			wi.Literals = append(wi.Literals, v.String())
		}
		im.Words = append(im.Words, wi)
	}
	for _, v := range vm.stack.vals {
		im.Stack = append(im.Stack, v.String())
	}
	return im
}

// restore loads an image into a freshly created environment.
func (vm *VM) restore(im vmImage) error {
	if im.Fence != vm.dict.Fence {
		return fmt.Errorf("%w: built-in vocabulary differs (fence %d, want %d)", errBadImage, im.Fence, vm.dict.Fence)
	}
	if vm.dict.Len() != vm.dict.Fence {
		return fmt.Errorf("%w: environment already has user words", errBadImage)
	}
	for _, wi := range im.Words {
		w, err := wi.word(vm.dict.Len())
		if err != nil {
			return err
		}
		if _, err := vm.define(w); err != nil {
			return err
		}
	}
	if err := vm.mem.Restore(im.Mem); err != nil {
		return fmt.Errorf("%w: %v", errBadImage, err)
	}
	vm.stack.reset()
	for _, s := range im.Stack {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("%w: stack value %q", errBadImage, s)
		}
		if err := vm.stack.push(v); err != nil {
			return err
		}
	}
	vm.strs.reset()
	for _, s := range im.Strings {
		if _, err := vm.strs.push(s); err != nil {
			return err
		}
	}
	return nil
}

// word rebuilds the dictionary word to be defined at index self, checking
// that every instruction operand is in range.
func (wi wordImage) word(self int) (dict.Word, error) {
	w := dict.Word{
		Name:      wi.Name,
		Code:      wi.Code,
		Texts:     wi.Texts,
		Immediate: wi.Immediate,
	}
	for _, s := range wi.Literals {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return w, fmt.Errorf("%w: %v: literal %q", errBadImage, wi.Name, s)
		}
		w.Literals = append(w.Literals, v)
	}
	for pc, in := range w.Code {
		var ok bool
		switch op := in.Op; {
		case op >= code.MaxOp || op == code.Directive:
		case op == code.Lit || op == code.Cell:
			ok = in.Arg >= 0 && in.Arg < len(w.Literals)
		case op == code.Str || op == code.Print:
			ok = in.Arg >= 0 && in.Arg < len(w.Texts)
		case op == code.Call:
			ok = in.Arg >= 0 && in.Arg <= self
		case op == code.Loop || op == code.PlusLoop:
			ok = in.Arg >= 0 && in.Arg < pc && w.Code[in.Arg].Op == code.Do
		case op.Branches():
			ok = in.Arg >= 0 && in.Arg <= len(w.Code)
		default:
			ok = true
		}
		if !ok {
			return w, fmt.Errorf("%w: %v @%d: %v", errBadImage, wi.Name, pc, in)
		}
	}
	return w, nil
}

// Save writes every environment to w as CBOR.
func (reg *Registry) Save(w io.Writer) error {
	im := registryImage{Version: imageVersion}
	for _, id := range reg.Identities() {
		reg.Do(id, func(vm *VM) {
			im.Envs = append(im.Envs, vm.image())
		})
	}
	return cborEncMode.NewEncoder(w).Encode(im)
}

// Load reads environments written by Save, replacing any with the same
// identity.
func (reg *Registry) Load(r io.Reader) error {
	var im registryImage
	if err := cbor.NewDecoder(r).Decode(&im); err != nil {
		return fmt.Errorf("%w: %v", errBadImage, err)
	}
	if im.Version != imageVersion {
		return fmt.Errorf("%w: version %d, want %d", errBadImage, im.Version, imageVersion)
	}
	envs := make(map[string]*regEntry, len(im.Envs))
	for _, vi := range im.Envs {
		vm := reg.newVM(vi.Name)
		if err := vm.restore(vi); err != nil {
			return fmt.Errorf("environment %q: %w", vi.Name, err)
		}
		envs[vi.Name] = &regEntry{vm: vm}
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for id, ent := range envs {
		reg.envs[id] = ent
	}
	return nil
}
