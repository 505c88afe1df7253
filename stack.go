package main

import (
	"math/big"
	"strings"
)

// valueStack is a bounded LIFO of numbers. Index 0 of peek is the top.
type valueStack struct {
	name  string
	limit int
	vals  []*big.Int
}

func (s *valueStack) len() int { return len(s.vals) }

func (s *valueStack) need(n int) error {
	if len(s.vals) < n {
		return stackError{s.name, errStackUnderflow}
	}
	return nil
}

func (s *valueStack) room(n int) error {
	if s.limit != 0 && len(s.vals)+n > s.limit {
		return stackError{s.name, errStackOverflow}
	}
	return nil
}

func (s *valueStack) push(v *big.Int) error {
	if err := s.room(1); err != nil {
		return err
	}
	s.vals = append(s.vals, v)
	return nil
}

func (s *valueStack) pop() (*big.Int, error) {
	if err := s.need(1); err != nil {
		return nil, err
	}
	i := len(s.vals) - 1
	v := s.vals[i]
	s.vals[i] = nil
	s.vals = s.vals[:i]
	return v, nil
}

// peek returns the value i below the top; callers check need first.
func (s *valueStack) peek(i int) *big.Int { return s.vals[len(s.vals)-1-i] }

func (s *valueStack) set(i int, v *big.Int) { s.vals[len(s.vals)-1-i] = v }

func (s *valueStack) drop(n int) {
	for i := len(s.vals) - n; i < len(s.vals); i++ {
		s.vals[i] = nil
	}
	s.vals = s.vals[:len(s.vals)-n]
}

func (s *valueStack) reset() { s.drop(len(s.vals)) }

func (s *valueStack) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range s.vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// stringStack is a bounded LIFO of owned strings, referenced by position.
type stringStack struct {
	limit int
	vals  []string
}

func (s *stringStack) len() int { return len(s.vals) }

func (s *stringStack) room(n int) error {
	if s.limit != 0 && len(s.vals)+n > s.limit {
		return stackError{"string", errStackOverflow}
	}
	return nil
}

func (s *stringStack) push(text string) (int, error) {
	if err := s.room(1); err != nil {
		return -1, err
	}
	s.vals = append(s.vals, text)
	return len(s.vals) - 1, nil
}

func (s *stringStack) pop() error {
	if len(s.vals) == 0 {
		return stackError{"string", errStackUnderflow}
	}
	s.vals = s.vals[:len(s.vals)-1]
	return nil
}

func (s *stringStack) at(v *big.Int) (string, error) {
	if !v.IsInt64() || v.Int64() < 0 || v.Int64() >= int64(len(s.vals)) {
		return "", errStringIndex
	}
	return s.vals[v.Int64()], nil
}

func (s *stringStack) reset() { s.vals = s.vals[:0] }
