// Package disasm decodes and re-encodes instructions using the CPU's own
// descriptor table. Decoding never mutates emulator state.
package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/cpu"
)

// Reader is a side-effect-free view of the address space.
type Reader interface {
	Peek(address uint16) byte
}

// Line is one decoded instruction.
type Line struct {
	Address  uint16
	Bytes    []byte
	Mnemonic string
	Operands string
	Illegal  bool
}

// Length is the encoded size, 1 to 3 bytes.
func (l Line) Length() int { return len(l.Bytes) }

// Next is the address of the following instruction.
func (l Line) Next() uint16 { return l.Address + uint16(len(l.Bytes)) }

// Text is the assembly form, e.g. "LD A,$42".
func (l Line) Text() string {
	if l.Operands == "" {
		return l.Mnemonic
	}
	return l.Mnemonic + " " + l.Operands
}

func (l Line) String() string {
	return Format(l, false)
}

// At decodes the instruction at pc.
func At(r Reader, pc uint16) Line {
	in := cpu.Lookup(r.Peek(pc))
	if in.Prefixed {
		in = cpu.LookupCB(r.Peek(pc + 1))
	}

	raw := make([]byte, in.Length())
	for i := range raw {
		raw[i] = r.Peek(pc + uint16(i))
	}

	return Line{
		Address:  pc,
		Bytes:    raw,
		Mnemonic: in.Mnemonic(),
		Operands: renderOperands(in, pc, raw),
		Illegal:  in.Illegal(),
	}
}

// Range decodes count consecutive instructions starting at start.
func Range(r Reader, start uint16, count int) []Line {
	lines := make([]Line, 0, count)
	pc := start
	for range count {
		line := At(r, pc)
		lines = append(lines, line)
		pc = line.Next()
	}
	return lines
}

// Around decodes up to before instructions leading into pc, the one at pc
// and after more. Instructions have variable length, so the lead-in is found
// by trying start points behind pc until one decodes exactly onto it.
func Around(r Reader, pc uint16, before, after int) []Line {
	var lead []Line
	for back := before * 3; back > 0 && before > 0; back-- {
		if int(pc) < back {
			continue
		}
		lines, ok := walkTo(r, pc-uint16(back), pc)
		if !ok {
			continue
		}
		if len(lines) >= before {
			lead = lines[len(lines)-before:]
			break
		}
		if len(lines) > len(lead) {
			lead = lines
		}
	}
	return append(lead, Range(r, pc, after+1)...)
}

func walkTo(r Reader, start, pc uint16) ([]Line, bool) {
	var lines []Line
	address := int(start)
	for address < int(pc) {
		line := At(r, uint16(address))
		lines = append(lines, line)
		address += line.Length()
	}
	return lines, address == int(pc)
}

// Format renders a line as "ADDR  BYTES  TEXT", marking the current PC.
func Format(line Line, current bool) string {
	marker := "  "
	if current {
		marker = "> "
	}
	hex := make([]string, len(line.Bytes))
	for i, b := range line.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%s%04X  %-8s  %s", marker, line.Address, strings.Join(hex, " "), line.Text())
}

// placeholder returns the token in the template that stands for the operand.
func placeholder(in cpu.Instruction) string {
	switch in.Operand {
	case cpu.OperandImm8:
		return "d8"
	case cpu.OperandImm16:
		if strings.Contains(in.Template, "a16") {
			return "a16"
		}
		return "d16"
	case cpu.OperandRel8:
		return "r8"
	case cpu.OperandHigh8:
		return "a8"
	case cpu.OperandSigned8:
		if strings.Contains(in.Template, "+e8") {
			return "+e8"
		}
		return "e8"
	}
	return ""
}

func renderOperands(in cpu.Instruction, pc uint16, raw []byte) string {
	operands := in.Operands()
	token := placeholder(in)
	if token == "" {
		return operands
	}

	var value string
	n := raw[len(raw)-1]
	switch in.Operand {
	case cpu.OperandImm8:
		value = fmt.Sprintf("$%02X", n)
	case cpu.OperandImm16:
		value = fmt.Sprintf("$%04X", bit.Combine(raw[2], raw[1]))
	case cpu.OperandRel8:
		value = fmt.Sprintf("$%04X", bit.SignedOffset(pc+2, n))
	case cpu.OperandHigh8:
		value = fmt.Sprintf("$FF%02X", n)
	case cpu.OperandSigned8:
		value = formatSigned(n)
	}
	return strings.Replace(operands, token, value, 1)
}

func formatSigned(n byte) string {
	if v := int8(n); v < 0 {
		return fmt.Sprintf("-$%02X", -int(v))
	}
	return fmt.Sprintf("+$%02X", n)
}
