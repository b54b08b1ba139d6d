package cpu

import (
	"fmt"
	"strings"

	"github.com/valerio/jeebug/jeebie/bit"
)

// Operand describes the immediate bytes that follow an opcode. Templates name
// them d8, d16/a16, r8 (relative jump), a8 (0xFF00 page) and e8 (signed SP offset).
type Operand uint8

const (
	OperandNone Operand = iota
	OperandImm8
	OperandImm16
	OperandRel8
	OperandHigh8
	OperandSigned8
)

// Size returns the number of operand bytes.
func (o Operand) Size() int {
	switch o {
	case OperandNone:
		return 0
	case OperandImm16:
		return 2
	default:
		return 1
	}
}

// Instruction describes one opcode. The same table drives execution and
// disassembly.
type Instruction struct {
	Opcode   uint8
	Prefixed bool

	// Template is the assembly form with an operand placeholder, e.g. "LD B,d8".
	Template string
	Operand  Operand

	// Cycles is the cost in clock cycles. Conditional control flow costs
	// Taken when the condition holds.
	Cycles int
	Taken  int

	illegal bool
	run     func(*CPU)
	branch  func(*CPU) bool
}

// Length is the encoded size in bytes, including the 0xCB prefix.
func (in Instruction) Length() int {
	n := 1 + in.Operand.Size()
	if in.Prefixed {
		n++
	}
	return n
}

// Illegal reports whether the opcode is undefined on the DMG.
func (in Instruction) Illegal() bool { return in.illegal }

// Conditional reports whether the cost depends on a branch condition.
func (in Instruction) Conditional() bool { return in.branch != nil }

// Mnemonic returns the operation name of Template.
func (in Instruction) Mnemonic() string {
	name, _, _ := strings.Cut(in.Template, " ")
	return name
}

// Operands returns the operand part of Template, possibly empty.
func (in Instruction) Operands() string {
	_, operands, _ := strings.Cut(in.Template, " ")
	return operands
}

// Lookup returns the descriptor of an unprefixed opcode. 0xCB describes the prefix itself.
func Lookup(opcode uint8) Instruction { return primary[opcode] }

// LookupCB returns the descriptor of a 0xCB-prefixed opcode.
func LookupCB(opcode uint8) Instruction { return prefixed[opcode] }

var (
	primary  [256]Instruction
	prefixed [256]Instruction
)

const regHL = 6

var (
	regNames       = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	pairNames      = [4]string{"BC", "DE", "HL", "SP"}
	stackPairNames = [4]string{"BC", "DE", "HL", "AF"}
	conditionNames = [4]string{"NZ", "Z", "NC", "C"}
	aluNames       = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	shiftNames     = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}
)

func def(opcode int, template string, operand Operand, cycles int, run func(*CPU)) {
	primary[opcode] = Instruction{Opcode: uint8(opcode), Template: template, Operand: operand, Cycles: cycles, run: run}
}

func defBranch(opcode int, template string, operand Operand, cycles, taken int, branch func(*CPU) bool) {
	primary[opcode] = Instruction{
		Opcode: uint8(opcode), Template: template, Operand: operand,
		Cycles: cycles, Taken: taken, branch: branch,
	}
}

func defCB(opcode int, template string, cycles int, run func(*CPU)) {
	prefixed[opcode] = Instruction{Opcode: uint8(opcode), Prefixed: true, Template: template, Cycles: cycles, run: run}
}

// memCost picks the cost for the register form or the (HL) form.
func memCost(r, register, memory int) int {
	if r == regHL {
		return memory
	}
	return register
}

func init() {
	for op := range 256 {
		primary[op] = Instruction{Opcode: uint8(op), Template: fmt.Sprintf("DB $%02X", op), illegal: true}
	}
	primary[0xCB] = Instruction{Opcode: 0xCB, Prefixed: true, Template: "PREFIX CB"}

	buildRegisterOps()
	buildPairOps()
	buildControlFlow()
	buildMisc()
	buildPrefixed()
}

func buildRegisterOps() {
	for r := range 8 {
		name := regNames[r]
		def(0x04+r*8, "INC "+name, OperandNone, memCost(r, 4, 12), func(c *CPU) { c.setReg(r, c.inc(c.reg(r))) })
		def(0x05+r*8, "DEC "+name, OperandNone, memCost(r, 4, 12), func(c *CPU) { c.setReg(r, c.dec(c.reg(r))) })
		def(0x06+r*8, "LD "+name+",d8", OperandImm8, memCost(r, 8, 12), func(c *CPU) { c.setReg(r, c.fetch()) })

		for src := range 8 {
			opcode := 0x40 + r*8 + src
			if opcode == 0x76 {
				continue
			}
			cycles := 4
			if r == regHL || src == regHL {
				cycles = 8
			}
			def(opcode, "LD "+name+","+regNames[src], OperandNone, cycles, func(c *CPU) { c.setReg(r, c.reg(src)) })
		}
	}

	for op := range 8 {
		for src := range 8 {
			def(0x80+op*8+src, aluNames[op]+regNames[src], OperandNone, memCost(src, 4, 8), func(c *CPU) { c.alu(op, c.reg(src)) })
		}
		def(0xC6+op*8, aluNames[op]+"d8", OperandImm8, 8, func(c *CPU) { c.alu(op, c.fetch()) })
	}
}

func buildPairOps() {
	for p := range 4 {
		name := pairNames[p]
		def(0x01+p*16, "LD "+name+",d16", OperandImm16, 12, func(c *CPU) { c.setPair(p, c.fetch16()) })
		def(0x03+p*16, "INC "+name, OperandNone, 8, func(c *CPU) { c.setPair(p, c.pair(p)+1) })
		def(0x0B+p*16, "DEC "+name, OperandNone, 8, func(c *CPU) { c.setPair(p, c.pair(p)-1) })
		def(0x09+p*16, "ADD HL,"+name, OperandNone, 8, func(c *CPU) { c.addHL(c.pair(p)) })

		def(0xC1+p*16, "POP "+stackPairNames[p], OperandNone, 12, func(c *CPU) { c.setStackPair(p, c.pop()) })
		def(0xC5+p*16, "PUSH "+stackPairNames[p], OperandNone, 16, func(c *CPU) { c.push(c.stackPair(p)) })
	}
}

func buildControlFlow() {
	for cc := range 4 {
		name := conditionNames[cc]
		defBranch(0x20+cc*8, "JR "+name+",r8", OperandRel8, 8, 12, func(c *CPU) bool {
			offset := c.fetch()
			if !c.condition(cc) {
				return false
			}
			c.pc = bit.SignedOffset(c.pc, offset)
			return true
		})
		defBranch(0xC0+cc*8, "RET "+name, OperandNone, 8, 20, func(c *CPU) bool {
			if !c.condition(cc) {
				return false
			}
			c.ret()
			return true
		})
		defBranch(0xC2+cc*8, "JP "+name+",a16", OperandImm16, 12, 16, func(c *CPU) bool {
			target := c.fetch16()
			if !c.condition(cc) {
				return false
			}
			c.pc = target
			return true
		})
		defBranch(0xC4+cc*8, "CALL "+name+",a16", OperandImm16, 12, 24, func(c *CPU) bool {
			target := c.fetch16()
			if !c.condition(cc) {
				return false
			}
			c.call(target)
			return true
		})
	}

	for n := range 8 {
		target := uint16(n * 8)
		def(0xC7+n*8, fmt.Sprintf("RST $%02X", target), OperandNone, 16, func(c *CPU) { c.call(target) })
	}

	def(0x18, "JR r8", OperandRel8, 12, func(c *CPU) {
		offset := c.fetch()
		c.pc = bit.SignedOffset(c.pc, offset)
	})
	def(0xC3, "JP a16", OperandImm16, 16, func(c *CPU) { c.pc = c.fetch16() })
	def(0xE9, "JP HL", OperandNone, 4, func(c *CPU) { c.pc = c.hl() })
	def(0xCD, "CALL a16", OperandImm16, 24, func(c *CPU) { c.call(c.fetch16()) })
	def(0xC9, "RET", OperandNone, 16, func(c *CPU) { c.ret() })
	def(0xD9, "RETI", OperandNone, 16, func(c *CPU) {
		c.ret()
		c.ime = true
	})
}

func buildMisc() {
	def(0x00, "NOP", OperandNone, 4, func(*CPU) {})
	def(0x10, "STOP d8", OperandImm8, 4, func(c *CPU) { c.stop() })
	def(0x76, "HALT", OperandNone, 4, func(c *CPU) { c.halt() })
	def(0xF3, "DI", OperandNone, 4, func(c *CPU) {
		c.ime = false
		c.eiPending = false
	})
	def(0xFB, "EI", OperandNone, 4, func(c *CPU) { c.eiPending = true })

	def(0x02, "LD (BC),A", OperandNone, 8, func(c *CPU) { c.bus.Write(c.pair(0), c.a) })
	def(0x12, "LD (DE),A", OperandNone, 8, func(c *CPU) { c.bus.Write(c.pair(1), c.a) })
	def(0x0A, "LD A,(BC)", OperandNone, 8, func(c *CPU) { c.a = c.bus.Read(c.pair(0)) })
	def(0x1A, "LD A,(DE)", OperandNone, 8, func(c *CPU) { c.a = c.bus.Read(c.pair(1)) })
	def(0x22, "LD (HL+),A", OperandNone, 8, func(c *CPU) {
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() + 1)
	})
	def(0x32, "LD (HL-),A", OperandNone, 8, func(c *CPU) {
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() - 1)
	})
	def(0x2A, "LD A,(HL+)", OperandNone, 8, func(c *CPU) {
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() + 1)
	})
	def(0x3A, "LD A,(HL-)", OperandNone, 8, func(c *CPU) {
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() - 1)
	})

	def(0x08, "LD (a16),SP", OperandImm16, 20, func(c *CPU) {
		address := c.fetch16()
		c.bus.Write(address, bit.Low(c.sp))
		c.bus.Write(address+1, bit.High(c.sp))
	})
	def(0xEA, "LD (a16),A", OperandImm16, 16, func(c *CPU) { c.bus.Write(c.fetch16(), c.a) })
	def(0xFA, "LD A,(a16)", OperandImm16, 16, func(c *CPU) { c.a = c.bus.Read(c.fetch16()) })
	def(0xE0, "LDH (a8),A", OperandHigh8, 12, func(c *CPU) { c.bus.Write(0xFF00|uint16(c.fetch()), c.a) })
	def(0xF0, "LDH A,(a8)", OperandHigh8, 12, func(c *CPU) { c.a = c.bus.Read(0xFF00 | uint16(c.fetch())) })
	def(0xE2, "LD (C),A", OperandNone, 8, func(c *CPU) { c.bus.Write(0xFF00|uint16(c.c), c.a) })
	def(0xF2, "LD A,(C)", OperandNone, 8, func(c *CPU) { c.a = c.bus.Read(0xFF00 | uint16(c.c)) })

	def(0xE8, "ADD SP,e8", OperandSigned8, 16, func(c *CPU) { c.sp = c.addSP(c.fetch()) })
	def(0xF8, "LD HL,SP+e8", OperandSigned8, 12, func(c *CPU) { c.setHL(c.addSP(c.fetch())) })
	def(0xF9, "LD SP,HL", OperandNone, 8, func(c *CPU) { c.sp = c.hl() })

	def(0x07, "RLCA", OperandNone, 4, func(c *CPU) { c.rotateA(0) })
	def(0x0F, "RRCA", OperandNone, 4, func(c *CPU) { c.rotateA(1) })
	def(0x17, "RLA", OperandNone, 4, func(c *CPU) { c.rotateA(2) })
	def(0x1F, "RRA", OperandNone, 4, func(c *CPU) { c.rotateA(3) })

	def(0x27, "DAA", OperandNone, 4, func(c *CPU) { c.daa() })
	def(0x2F, "CPL", OperandNone, 4, func(c *CPU) {
		c.a = ^c.a
		c.setFlag(FlagN, true)
		c.setFlag(FlagH, true)
	})
	def(0x37, "SCF", OperandNone, 4, func(c *CPU) {
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, false)
		c.setFlag(FlagC, true)
	})
	def(0x3F, "CCF", OperandNone, 4, func(c *CPU) {
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, false)
		c.setFlag(FlagC, !c.flag(FlagC))
	})
}

func buildPrefixed() {
	for r := range 8 {
		name := regNames[r]
		for op := range 8 {
			defCB(op*8+r, shiftNames[op]+" "+name, memCost(r, 8, 16), func(c *CPU) { c.setReg(r, c.shift(op, c.reg(r))) })
		}
		for b := range uint8(8) {
			index := int(b) * 8
			operands := fmt.Sprintf(" %d,%s", b, name)
			defCB(0x40+index+r, "BIT"+operands, memCost(r, 8, 12), func(c *CPU) { c.testBit(b, c.reg(r)) })
			defCB(0x80+index+r, "RES"+operands, memCost(r, 8, 16), func(c *CPU) { c.setReg(r, bit.Clear(b, c.reg(r))) })
			defCB(0xC0+index+r, "SET"+operands, memCost(r, 8, 16), func(c *CPU) { c.setReg(r, bit.Set(b, c.reg(r))) })
		}
	}
}
