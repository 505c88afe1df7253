package runeio

import "strings"

// WriteANSIRune appends a rune to sb for terminal-safe output: NEL becomes
// "\r\n", other C1 controls take their 7-bit ESC form (e.g. CSI "\x1b["),
// everything else is written as UTF-8.
func WriteANSIRune(sb *strings.Builder, r rune) {
	switch {
	case r == 0x85:
		sb.WriteString("\r\n")
	case 0x80 <= r && r <= 0x9f:
		sb.WriteByte(0x1b)
		sb.WriteByte(byte(r ^ 0xc0))
	default:
		sb.WriteRune(r)
	}
}
