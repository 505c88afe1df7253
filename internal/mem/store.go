// Package mem implements a registry of named memory cells addressed by
// tagged handles.
package mem

import (
	"math/big"
	"unicode/utf8"
)

// MaxArraySize bounds Grow, keeping a single ALLOT from exhausting the host.
const MaxArraySize = 1 << 20

// Cell is one named storage location.
type Cell struct {
	Name   string
	Handle Handle

	scalar *big.Int
	array  []*big.Int
	text   string
}

// Len returns the number of elements: 1 for scalars, the array length, or
// the rune count of text.
func (c *Cell) Len() int {
	switch c.Handle.Kind {
	case Array:
		return len(c.array)
	case Text:
		return utf8.RuneCountInString(c.text)
	default:
		return 1
	}
}

// Store holds the live cells. Operations scan linearly; the cell count is
// bounded by Limit and expected to stay small.
type Store struct {
	// Limit caps the number of live cells; 0 means unlimited.
	Limit int

	cells []*Cell
	next  uint32
	last  Handle
}

// Len returns the number of live cells.
func (s *Store) Len() int { return len(s.cells) }

// Last returns the handle of the most recently created cell, which may no
// longer be live.
func (s *Store) Last() Handle { return s.last }

// Create allocates a new zero-valued cell of the given kind.
func (s *Store) Create(name string, kind Kind) (Handle, error) {
	if kind < Scalar || kind > Text {
		return Handle{}, ErrTypeMismatch
	}
	if s.lookup(name) >= 0 {
		return Handle{}, CellError{Handle{Kind: kind}, name, ErrDuplicateName}
	}
	if s.Limit != 0 && len(s.cells) >= s.Limit {
		return Handle{}, CellError{Handle{Kind: kind}, name, ErrFull}
	}
	s.next++
	h := Handle{Kind: kind, Slot: s.next}
	c := &Cell{Name: name, Handle: h}
	if kind == Scalar {
		c.scalar = new(big.Int)
	}
	s.cells = append(s.cells, c)
	s.last = h
	return h, nil
}

// Get returns the live cell for h, failing if the slot is not live or the
// live cell's kind disagrees with the handle's.
func (s *Store) Get(h Handle) (*Cell, error) {
	for _, c := range s.cells {
		if c.Handle.Slot != h.Slot {
			continue
		}
		if c.Handle.Kind != h.Kind {
			return nil, CellError{h, c.Name, ErrTypeMismatch}
		}
		return c, nil
	}
	return nil, CellError{h, "", ErrInvalidHandle}
}

// Named returns the live cell with the given name.
func (s *Store) Named(name string) (*Cell, bool) {
	if i := s.lookup(name); i >= 0 {
		return s.cells[i], true
	}
	return nil, false
}

func (s *Store) getKind(h Handle, kind Kind) (*Cell, error) {
	if h.Kind != kind {
		return nil, CellError{h, "", ErrTypeMismatch}
	}
	return s.Get(h)
}

// Fetch returns a scalar cell's value.
func (s *Store) Fetch(h Handle) (*big.Int, error) {
	c, err := s.getKind(h, Scalar)
	if err != nil {
		return nil, err
	}
	return c.scalar, nil
}

// Store sets a scalar cell's value.
func (s *Store) Store(h Handle, v *big.Int) error {
	c, err := s.getKind(h, Scalar)
	if err != nil {
		return err
	}
	c.scalar = v
	return nil
}

// FetchAt returns element i of an array cell.
func (s *Store) FetchAt(h Handle, i int) (*big.Int, error) {
	c, err := s.getKind(h, Array)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(c.array) {
		return nil, CellError{h, c.Name, ErrIndexRange}
	}
	return c.array[i], nil
}

// StoreAt sets element i of an array cell.
func (s *Store) StoreAt(h Handle, i int, v *big.Int) error {
	c, err := s.getKind(h, Array)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(c.array) {
		return CellError{h, c.Name, ErrIndexRange}
	}
	c.array[i] = v
	return nil
}

// Text returns a text cell's string.
func (s *Store) Text(h Handle) (string, error) {
	c, err := s.getKind(h, Text)
	if err != nil {
		return "", err
	}
	return c.text, nil
}

// SetText sets a text cell's string.
func (s *Store) SetText(h Handle, text string) error {
	c, err := s.getKind(h, Text)
	if err != nil {
		return err
	}
	c.text = text
	return nil
}

// Grow converts a scalar cell into an array of size elements, keeping the
// scalar value as element 0 and zeroing the rest. The cell keeps its slot but
// is re-tagged, so the returned handle replaces h; h itself stops
// dereferencing.
func (s *Store) Grow(h Handle, size int) (Handle, error) {
	c, err := s.getKind(h, Scalar)
	if err != nil {
		return Handle{}, err
	}
	if size <= 0 || size > MaxArraySize {
		return Handle{}, CellError{h, c.Name, ErrBadSize}
	}
	arr := make([]*big.Int, size)
	arr[0] = c.scalar
	for i := 1; i < size; i++ {
		arr[i] = new(big.Int)
	}
	c.array, c.scalar = arr, nil
	c.Handle.Kind = Array
	if s.last.Slot == c.Handle.Slot {
		s.last = c.Handle
	}
	return c.Handle, nil
}

// Free removes the named cell.
func (s *Store) Free(name string) error {
	i := s.lookup(name)
	if i < 0 {
		return CellError{Handle{}, name, ErrInvalidHandle}
	}
	s.remove(i)
	return nil
}

// Release removes the cell addressed by h, if it is still live.
func (s *Store) Release(h Handle) bool {
	for i, c := range s.cells {
		if c.Handle.Slot == h.Slot {
			s.remove(i)
			return true
		}
	}
	return false
}

func (s *Store) remove(i int) {
	c := s.cells[i]
	c.scalar, c.array, c.text = nil, nil, ""
	copy(s.cells[i:], s.cells[i+1:])
	s.cells[len(s.cells)-1] = nil
	s.cells = s.cells[:len(s.cells)-1]
}

func (s *Store) lookup(name string) int {
	for i, c := range s.cells {
		if c.Name == name {
			return i
		}
	}
	return -1
}
