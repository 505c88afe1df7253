package mem

import (
	"fmt"
	"math/big"
)

// CellImage is a serializable copy of one cell. Numbers are carried as
// decimal strings.
type CellImage struct {
	Name   string   `cbor:"name"`
	Kind   Kind     `cbor:"kind"`
	Slot   uint32   `cbor:"slot"`
	Values []string `cbor:"values,omitempty"`
	Text   string   `cbor:"text,omitempty"`
}

// StoreImage is a serializable copy of a whole Store.
type StoreImage struct {
	Next  uint32      `cbor:"next"`
	Last  Handle      `cbor:"last"`
	Cells []CellImage `cbor:"cells"`
}

// Image copies the store's state.
func (s *Store) Image() StoreImage {
	im := StoreImage{Next: s.next, Last: s.last}
	for _, c := range s.cells {
		ci := CellImage{Name: c.Name, Kind: c.Handle.Kind, Slot: c.Handle.Slot}
		switch c.Handle.Kind {
		case Scalar:
			ci.Values = []string{c.scalar.String()}
		case Array:
			ci.Values = make([]string, len(c.array))
			for i, v := range c.array {
				ci.Values[i] = v.String()
			}
		case Text:
			ci.Text = c.text
		}
		im.Cells = append(im.Cells, ci)
	}
	return im
}

// Restore replaces the store's state with an image.
func (s *Store) Restore(im StoreImage) error {
	cells := make([]*Cell, 0, len(im.Cells))
	for _, ci := range im.Cells {
		if ci.Slot == 0 || ci.Slot > im.Next {
			return fmt.Errorf("cell %q: slot %d out of range", ci.Name, ci.Slot)
		}
		c := &Cell{Name: ci.Name, Handle: Handle{Kind: ci.Kind, Slot: ci.Slot}}
		vals := make([]*big.Int, len(ci.Values))
		for i, s := range ci.Values {
			v, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return fmt.Errorf("cell %q: invalid value %q", ci.Name, s)
			}
			vals[i] = v
		}
		switch ci.Kind {
		case Scalar:
			if len(vals) != 1 {
				return fmt.Errorf("cell %q: scalar needs one value, have %d", ci.Name, len(vals))
			}
			c.scalar = vals[0]
		case Array:
			if len(vals) == 0 {
				return fmt.Errorf("cell %q: %w", ci.Name, ErrBadSize)
			}
			c.array = vals
		case Text:
			c.text = ci.Text
		default:
			return fmt.Errorf("cell %q: %w", ci.Name, ErrTypeMismatch)
		}
		cells = append(cells, c)
	}
	s.cells, s.next, s.last = cells, im.Next, im.Last
	return nil
}
