// Package runeio handles rune-level concerns of the language: character
// literal tokens, including control character mnemonics, and writing runes
// to output.
package runeio

import (
	"errors"
	"strconv"
	"strings"
)

// c0Names are the classic ASCII control mnemonics, indexed by code point.
var c0Names = [32]string{
	"NUL", "SOH", "STX", "ETX", "EOT", "ENQ", "ACK", "BEL",
	"BS", "HT", "NL", "VT", "NP", "CR", "SO", "SI",
	"DLE", "DC1", "DC2", "DC3", "DC4", "NAK", "SYN", "ETB",
	"CAN", "EM", "SUB", "ESC", "FS", "GS", "RS", "US",
}

// c1Names are the ISO-8859 extended control mnemonics, from 0x80.
var c1Names = [32]string{
	"PAD", "HOP", "BPH", "NBH", "IND", "NEL", "SSA", "ESA",
	"HTS", "HTJ", "VTS", "PLD", "PLU", "RI", "SS2", "SS3",
	"DCS", "PU1", "PU2", "STS", "CCH", "MW", "SPA", "EPA",
	"SOS", "SGCI", "SCI", "CSI", "ST", "OSC", "PM", "APC",
}

// ControlWords maps "<NAME>" mnemonics (either case) and caret forms like
// "^C" or "^[" to their runes.
var ControlWords = make(map[string]rune, 3*66)

func init() {
	add := func(name string, r rune) {
		ControlWords["<"+name+">"] = r
		ControlWords["<"+strings.ToLower(name)+">"] = r
		if caret := CaretForm(r); caret != "" {
			ControlWords[caret] = r
		}
	}
	for i, name := range c0Names {
		add(name, rune(i))
	}
	add("SP", 0x20)
	add("DEL", 0x7f)
	for i, name := range c1Names {
		add(name, rune(0x80+i))
	}
}

// CaretForm computes the ^-escaped printable form of a control rune, or ""
// for other runes.
func CaretForm(r rune) string {
	switch {
	case r < 0x20 || r == 0x7f:
		return "^" + string(r^0x40)
	case 0x80 <= r && r <= 0x9f:
		return "^[" + string(r^0xc0)
	}
	return ""
}

// ErrInvalidRune is returned by UnquoteRune for tokens that are not rune
// literals.
var ErrInvalidRune = errors.New(`rune literal must be "^X" "<NAME>" or 'X'`)

// UnquoteRune parses a rune literal token: a control mnemonic, a caret form,
// or a single quoted character using Go escapes like '\n' or 'x'.
func UnquoteRune(token string) (rune, error) {
	if r, ok := ControlWords[token]; ok {
		return r, nil
	}
	if len(token) < 3 || token[0] != '\'' || token[len(token)-1] != '\'' {
		return 0, ErrInvalidRune
	}
	value, _, tail, err := strconv.UnquoteChar(token[1:len(token)-1], '\'')
	if err != nil {
		return 0, err
	}
	if tail != "" {
		return 0, ErrInvalidRune
	}
	return value, nil
}
