// Package dict implements the word dictionary: an ordered list of named
// bytecode definitions, searched newest first.
package dict

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jcorbin/bigforth/internal/code"
	"github.com/jcorbin/bigforth/internal/mem"
)

// Errors returned by Dictionary operations.
var (
	ErrFull      = errors.New("dictionary full")
	ErrFenced    = errors.New("cannot forget built-in word")
	ErrBadIndex  = errors.New("invalid word index")
	ErrNotHidden = errors.New("word is not reserved")
)

// Word is one named definition.
type Word struct {
	Name      string
	Code      []code.Instr
	Literals  []*big.Int
	Texts     []string
	Immediate bool
	Builtin   bool

	hidden bool
}

// Cell returns the memory handle pushed by a variable accessor word, one
// whose whole body is a single Cell instruction.
func (w *Word) Cell() (mem.Handle, bool) {
	if len(w.Code) != 1 || w.Code[0].Op != code.Cell {
		return mem.Handle{}, false
	}
	i := w.Code[0].Arg
	if i < 0 || i >= len(w.Literals) {
		return mem.Handle{}, false
	}
	h, err := mem.HandleOf(w.Literals[i])
	return h, err == nil
}

// Inline returns the primitive op a built-in word consists of.
func (w *Word) Inline() (code.Op, bool) {
	if !w.Builtin || w.Immediate || len(w.Code) != 1 || !w.Code[0].Op.Primitive() {
		return 0, false
	}
	return w.Code[0].Op, true
}

// Hidden reports whether the word is a reserved slot of an open definition.
func (w *Word) Hidden() bool { return w.hidden }

// Dictionary is an append-mostly list of words.
type Dictionary struct {
	// Limit caps the number of entries; 0 means unlimited.
	Limit int

	// Fence is the number of leading entries that Truncate refuses to remove.
	Fence int

	words []*Word
}

// Len returns the number of entries, including hidden ones.
func (d *Dictionary) Len() int { return len(d.words) }

// Word returns entry i, or nil if out of range.
func (d *Dictionary) Word(i int) *Word {
	if i < 0 || i >= len(d.words) {
		return nil
	}
	return d.words[i]
}

// Define appends a word, returning its index. A word with an existing name
// shadows the earlier one.
func (d *Dictionary) Define(w Word) (int, error) {
	if d.Limit != 0 && len(d.words) >= d.Limit {
		return -1, fmt.Errorf("%w defining %v", ErrFull, w.Name)
	}
	w.hidden = false
	d.words = append(d.words, &w)
	return len(d.words) - 1, nil
}

// Reserve appends a hidden placeholder for a definition under construction;
// Find skips it until Commit.
func (d *Dictionary) Reserve(name string) (int, error) {
	i, err := d.Define(Word{Name: name})
	if err == nil {
		d.words[i].hidden = true
	}
	return i, err
}

// Commit fills a reserved slot and makes it visible.
func (d *Dictionary) Commit(i int, w Word) error {
	if i < 0 || i >= len(d.words) {
		return ErrBadIndex
	}
	if !d.words[i].hidden {
		return ErrNotHidden
	}
	w.hidden = false
	d.words[i] = &w
	return nil
}

// Find returns the index of the newest visible word with the given name.
func (d *Dictionary) Find(name string) (int, bool) {
	for i := len(d.words) - 1; i >= 0; i-- {
		if w := d.words[i]; !w.hidden && w.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Truncate removes every entry from index from onward. Each removed variable
// accessor word has its memory handle passed to release, newest first.
func (d *Dictionary) Truncate(from int, release func(mem.Handle)) error {
	if from < d.Fence {
		return ErrFenced
	}
	if from >= len(d.words) {
		return nil
	}
	for i := len(d.words) - 1; i >= from; i-- {
		if h, ok := d.words[i].Cell(); ok && release != nil {
			release(h)
		}
		d.words[i] = nil
	}
	d.words = d.words[:from]
	return nil
}

// Each calls fn with each visible word, newest first, until fn returns false.
func (d *Dictionary) Each(fn func(i int, w *Word) bool) {
	for i := len(d.words) - 1; i >= 0; i-- {
		if w := d.words[i]; !w.hidden && !fn(i, w) {
			return
		}
	}
}
