package mem

import (
	"errors"
	"fmt"
	"math/big"
)

// Kind tags the payload type of a Cell.
type Kind uint8

// Cell kinds; the zero Kind is never valid.
const (
	Scalar Kind = iota + 1
	Array
	Text
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle is an opaque reference to a Cell: the kind it was issued for, and
// the slot assigned at creation. A handle only dereferences while its slot is
// live and the live cell still has the same kind.
type Handle struct {
	Kind Kind
	Slot uint32
}

const slotBits = 32

// Value encodes the handle as a stack value.
func (h Handle) Value() *big.Int {
	return new(big.Int).SetUint64(uint64(h.Kind)<<slotBits | uint64(h.Slot))
}

func (h Handle) String() string { return fmt.Sprintf("%v#%d", h.Kind, h.Slot) }

// HandleOf decodes a stack value produced by Handle.Value.
func HandleOf(v *big.Int) (Handle, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return Handle{}, ErrInvalidHandle
	}
	u := v.Uint64()
	h := Handle{
		Kind: Kind(u >> slotBits),
		Slot: uint32(u),
	}
	if u>>slotBits > uint64(Text) || h.Kind == 0 {
		return Handle{}, ErrInvalidHandle
	}
	return h, nil
}

// Errors returned by Store operations.
var (
	ErrDuplicateName = errors.New("duplicate name")
	ErrInvalidHandle = errors.New("invalid memory handle")
	ErrTypeMismatch  = errors.New("memory type mismatch")
	ErrIndexRange    = errors.New("array index out of bounds")
	ErrBadSize       = errors.New("invalid array size")
	ErrFull          = errors.New("memory full")
)

// CellError annotates a Store error with the cell it concerns.
type CellError struct {
	Handle Handle
	Name   string
	Err    error
}

func (ce CellError) Error() string {
	if ce.Name != "" {
		return fmt.Sprintf("%v %v: %v", ce.Handle.Kind, ce.Name, ce.Err)
	}
	return fmt.Sprintf("%v: %v", ce.Handle, ce.Err)
}

func (ce CellError) Unwrap() error { return ce.Err }
