package debug

import (
	"fmt"
	"strings"
)

// Peeker reads memory without side effects.
type Peeker interface {
	Peek(address uint16) byte
}

const bytesPerRow = 16

// HexDump renders length bytes from start, 16 per row, with an ASCII column.
// Rows are aligned to 16 byte boundaries; bytes outside the range are blank.
func HexDump(p Peeker, start uint16, length int) string {
	if length <= 0 {
		return ""
	}
	first := int(start)
	last := min(first+length, 0x10000) - 1

	var sb strings.Builder
	for row := first &^ (bytesPerRow - 1); row <= last; row += bytesPerRow {
		fmt.Fprintf(&sb, "%04X ", row)
		var ascii [bytesPerRow]byte
		for i := range bytesPerRow {
			address := row + i
			if address < first || address > last {
				sb.WriteString("   ")
				ascii[i] = ' '
				continue
			}
			v := p.Peek(uint16(address))
			fmt.Fprintf(&sb, " %02X", v)
			ascii[i] = '.'
			if v >= 0x20 && v < 0x7F {
				ascii[i] = v
			}
		}
		sb.WriteString("  ")
		sb.Write(ascii[:])
		sb.WriteByte('\n')
	}
	return sb.String()
}
