// Package num provides the arbitrary-precision integer helpers shared by the
// stack machine: literal parsing, formatting, truth values and the few
// operations that math/big does not spell the way the language wants.
//
// Values are never mutated once created; every helper returns a fresh
// *big.Int so that stack slots may alias freely.
package num

import (
	"errors"
	"math/big"
	"strings"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
)

// ErrNegativeRoot is returned by Sqrt for negative operands.
var ErrNegativeRoot = errors.New("square root of negative number")

// ErrShiftRange is returned by Shift for unreasonably large shift counts.
var ErrShiftRange = errors.New("shift count out of range")

// MaxShift bounds shift counts so that a single << cannot exhaust memory.
const MaxShift = 1 << 16

// Zero returns a new zero value.
func Zero() *big.Int { return new(big.Int) }

// Int returns a new value holding n.
func Int(n int64) *big.Int { return big.NewInt(n) }

// Bool returns 1 for true and 0 for false.
func Bool(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return new(big.Int)
}

// Truth reports whether v is non-zero.
func Truth(v *big.Int) bool { return v.Sign() != 0 }

// Parse parses an integer literal token. Plain tokens are decimal with an
// optional sign; a "$" prefix selects hexadecimal and "%" binary, e.g. "$ff",
// "-$10", "%1011".
func Parse(token string) (*big.Int, bool) {
	s := token
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "$"):
		base, s = 16, s[1:]
	case strings.HasPrefix(s, "%"):
		base, s = 2, s[1:]
	}
	if s == "" || !digitsOnly(s, base) {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		v.Neg(v)
	}
	return v, true
}

func digitsOnly(s string, base int) bool {
	for _, r := range s {
		var d int
		switch {
		case '0' <= r && r <= '9':
			d = int(r - '0')
		case 'a' <= r && r <= 'f':
			d = int(r-'a') + 10
		case 'A' <= r && r <= 'F':
			d = int(r-'A') + 10
		default:
			return false
		}
		if d >= base {
			return false
		}
	}
	return true
}

// Format renders v in decimal.
func Format(v *big.Int) string { return v.Text(10) }

// Sqrt returns the integer square root (floor) of v.
func Sqrt(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 {
		return nil, ErrNegativeRoot
	}
	return new(big.Int).Sqrt(v), nil
}

// Shift shifts v left by n bits, or right for negative n; right shifts are
// arithmetic (rounding toward negative infinity) as math/big defines them.
func Shift(v *big.Int, n *big.Int) (*big.Int, error) {
	if !n.IsInt64() {
		return nil, ErrShiftRange
	}
	k := n.Int64()
	if k > MaxShift || k < -MaxShift {
		return nil, ErrShiftRange
	}
	if k >= 0 {
		return new(big.Int).Lsh(v, uint(k)), nil
	}
	return new(big.Int).Rsh(v, uint(-k)), nil
}

// Small returns v as an int when it lies within [lo, hi].
func Small(v *big.Int, lo, hi int) (int, bool) {
	if !v.IsInt64() {
		return 0, false
	}
	n := v.Int64()
	if n < int64(lo) || n > int64(hi) {
		return 0, false
	}
	return int(n), true
}

// Inc returns v+1.
func Inc(v *big.Int) *big.Int { return new(big.Int).Add(v, one) }

// Dec returns v-1.
func Dec(v *big.Int) *big.Int { return new(big.Int).Sub(v, one) }

// IsZero reports whether v is zero.
func IsZero(v *big.Int) bool { return v.Cmp(zero) == 0 }
