package disasm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/cpu"
)

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrOperandRange       = errors.New("operand out of range")
)

// byMnemonic indexes every descriptor, prefixed ones included, by mnemonic.
var byMnemonic = func() map[string][]cpu.Instruction {
	index := map[string][]cpu.Instruction{}
	add := func(in cpu.Instruction) {
		index[in.Mnemonic()] = append(index[in.Mnemonic()], in)
	}
	for op := range 256 {
		if op != 0xCB {
			add(cpu.Lookup(uint8(op)))
		}
		add(cpu.LookupCB(uint8(op)))
	}
	return index
}()

// Assemble encodes one instruction in the text form produced by Line.Text.
// Relative jumps are written with their absolute target, so the address the
// instruction will live at is needed.
func Assemble(address uint16, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	mnemonic, operands, _ := strings.Cut(text, " ")

	for _, in := range byMnemonic[mnemonic] {
		raw, ok, err := match(in, address, operands)
		if err != nil {
			return nil, err
		}
		if ok {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownInstruction, text)
}

// match reports whether operands fit the template of in and returns the encoding.
func match(in cpu.Instruction, address uint16, operands string) ([]byte, bool, error) {
	raw := []byte{in.Opcode}
	if in.Prefixed {
		raw = []byte{0xCB, in.Opcode}
	}

	token := placeholder(in)
	if token == "" {
		return raw, operands == in.Operands(), nil
	}

	prefix, suffix, _ := strings.Cut(in.Operands(), token)
	if !strings.HasPrefix(operands, prefix) || !strings.HasSuffix(operands, suffix) ||
		len(operands) < len(prefix)+len(suffix) {
		return nil, false, nil
	}
	value := operands[len(prefix) : len(operands)-len(suffix)]

	switch in.Operand {
	case cpu.OperandImm8:
		n, err := parseHex(value, 8)
		if err != nil {
			return nil, false, nil
		}
		return append(raw, byte(n)), true, nil

	case cpu.OperandImm16:
		n, err := parseHex(value, 16)
		if err != nil {
			return nil, false, nil
		}
		return append(raw, bit.Low(uint16(n)), bit.High(uint16(n))), true, nil

	case cpu.OperandRel8:
		target, err := parseHex(value, 16)
		if err != nil {
			return nil, false, nil
		}
		offset := int(target) - int(address) - 2
		if offset < -128 || offset > 127 {
			return nil, false, fmt.Errorf("%w: jump to $%04X from $%04X", ErrOperandRange, target, address)
		}
		return append(raw, byte(int8(offset))), true, nil

	case cpu.OperandHigh8:
		n, err := parseHex(value, 16)
		if err != nil || n < 0xFF00 {
			return nil, false, nil
		}
		return append(raw, byte(n)), true, nil

	case cpu.OperandSigned8:
		if len(value) < 2 || (value[0] != '+' && value[0] != '-') {
			return nil, false, nil
		}
		n, err := parseHex(value[1:], 8)
		if err != nil {
			return nil, false, nil
		}
		offset := int(n)
		if value[0] == '-' {
			offset = -offset
		}
		if offset < -128 || offset > 127 {
			return nil, false, fmt.Errorf("%w: offset %s", ErrOperandRange, value)
		}
		return append(raw, byte(int8(offset))), true, nil
	}
	return nil, false, nil
}

func parseHex(s string, bits int) (uint64, error) {
	s, ok := strings.CutPrefix(s, "$")
	if !ok {
		return 0, fmt.Errorf("missing $ in %q", s)
	}
	return strconv.ParseUint(s, 16, bits)
}
