package cpu

func (c *CPU) flag(f Flag) bool {
	return c.f&uint8(f) != 0
}

func (c *CPU) setFlag(f Flag, on bool) {
	if on {
		c.f |= uint8(f)
	} else {
		c.f &^= uint8(f)
	}
}

// setFlags overwrites all four flags.
func (c *CPU) setFlags(z, n, h, cy bool) {
	c.f = 0
	c.setFlag(FlagZ, z)
	c.setFlag(FlagN, n)
	c.setFlag(FlagH, h)
	c.setFlag(FlagC, cy)
}

func (c *CPU) carryIn(useCarry bool) uint8 {
	if useCarry && c.flag(FlagC) {
		return 1
	}
	return 0
}

// add returns A + value (+ carry for ADC).
func (c *CPU) add(value uint8, useCarry bool) uint8 {
	carry := c.carryIn(useCarry)
	sum := uint16(c.a) + uint16(value) + uint16(carry)
	result := uint8(sum)
	c.setFlags(result == 0, false, (c.a&0x0F)+(value&0x0F)+carry > 0x0F, sum > 0xFF)
	return result
}

// sub returns A - value (- carry for SBC). CP uses it and drops the result.
func (c *CPU) sub(value uint8, useCarry bool) uint8 {
	carry := c.carryIn(useCarry)
	diff := int(c.a) - int(value) - int(carry)
	result := uint8(diff)
	c.setFlags(result == 0, true, int(c.a&0x0F)-int(value&0x0F)-int(carry) < 0, diff < 0)
	return result
}

// alu runs one of the eight accumulator operations, in opcode order.
func (c *CPU) alu(op int, value uint8) {
	switch op {
	case 0:
		c.a = c.add(value, false)
	case 1:
		c.a = c.add(value, true)
	case 2:
		c.a = c.sub(value, false)
	case 3:
		c.a = c.sub(value, true)
	case 4:
		c.a &= value
		c.setFlags(c.a == 0, false, true, false)
	case 5:
		c.a ^= value
		c.setFlags(c.a == 0, false, false, false)
	case 6:
		c.a |= value
		c.setFlags(c.a == 0, false, false, false)
	case 7:
		c.sub(value, false)
	}
}

// inc and dec leave C untouched.
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.setFlag(FlagZ, result == 0)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, value&0x0F == 0x0F)
	return result
}

func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.setFlag(FlagZ, result == 0)
	c.setFlag(FlagN, true)
	c.setFlag(FlagH, value&0x0F == 0)
	return result
}

// addHL sets H and C from bits 11 and 15. Z is preserved.
func (c *CPU) addHL(value uint16) {
	hl := c.hl()
	sum := uint32(hl) + uint32(value)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlag(FlagC, sum > 0xFFFF)
	c.setHL(uint16(sum))
}

// addSP computes SP + signed offset for ADD SP,e8 and LD HL,SP+e8. The flags
// come from the unsigned low byte addition.
func (c *CPU) addSP(offset uint8) uint16 {
	result := uint16(int32(c.sp) + int32(int8(offset)))
	c.setFlags(false, false,
		(c.sp&0x0F)+uint16(offset&0x0F) > 0x0F,
		(c.sp&0xFF)+uint16(offset) > 0xFF)
	return result
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	a := c.a
	carry := c.flag(FlagC)
	var adjust uint8

	if c.flag(FlagN) {
		if c.flag(FlagH) {
			adjust |= 0x06
		}
		if carry {
			adjust |= 0x60
		}
		a -= adjust
	} else {
		if c.flag(FlagH) || a&0x0F > 0x09 {
			adjust |= 0x06
		}
		if carry || a > 0x99 {
			adjust |= 0x60
			carry = true
		}
		a += adjust
	}

	c.a = a
	c.setFlag(FlagZ, a == 0)
	c.setFlag(FlagH, false)
	c.setFlag(FlagC, carry)
}

// shift runs one of the eight CB rotate/shift operations, in opcode order.
// Z follows the result, N and H are cleared.
func (c *CPU) shift(op int, value uint8) uint8 {
	var result uint8
	var carry bool

	switch op {
	case 0: // RLC
		result = value<<1 | value>>7
		carry = value&0x80 != 0
	case 1: // RRC
		result = value>>1 | value<<7
		carry = value&0x01 != 0
	case 2: // RL
		result = value<<1 | c.carryIn(true)
		carry = value&0x80 != 0
	case 3: // RR
		result = value>>1 | c.carryIn(true)<<7
		carry = value&0x01 != 0
	case 4: // SLA
		result = value << 1
		carry = value&0x80 != 0
	case 5: // SRA
		result = value>>1 | value&0x80
		carry = value&0x01 != 0
	case 6: // SWAP
		result = value<<4 | value>>4
	case 7: // SRL
		result = value >> 1
		carry = value&0x01 != 0
	}

	c.setFlags(result == 0, false, false, carry)
	return result
}

// rotateA is RLCA/RRCA/RLA/RRA: the CB rotate with Z forced clear.
func (c *CPU) rotateA(op int) {
	c.a = c.shift(op, c.a)
	c.setFlag(FlagZ, false)
}

func (c *CPU) testBit(index uint8, value uint8) {
	c.setFlag(FlagZ, value&(1<<index) == 0)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, true)
}

// reg reads register operand i in opcode encoding order: B C D E H L (HL) A.
func (c *CPU) reg(i int) uint8 {
	switch i {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.bus.Read(c.hl())
	default:
		return c.a
	}
}

func (c *CPU) setReg(i int, value uint8) {
	switch i {
	case 0:
		c.b = value
	case 1:
		c.c = value
	case 2:
		c.d = value
	case 3:
		c.e = value
	case 4:
		c.h = value
	case 5:
		c.l = value
	case 6:
		c.bus.Write(c.hl(), value)
	default:
		c.a = value
	}
}

// pair reads register pair i: BC DE HL SP.
func (c *CPU) pair(i int) uint16 {
	switch i {
	case 0:
		return uint16(c.b)<<8 | uint16(c.c)
	case 1:
		return uint16(c.d)<<8 | uint16(c.e)
	case 2:
		return c.hl()
	default:
		return c.sp
	}
}

func (c *CPU) setPair(i int, value uint16) {
	switch i {
	case 0:
		c.setBC(value)
	case 1:
		c.setDE(value)
	case 2:
		c.setHL(value)
	default:
		c.sp = value
	}
}

// stackPair is pair with AF in place of SP, for PUSH and POP.
func (c *CPU) stackPair(i int) uint16 {
	if i == 3 {
		return uint16(c.a)<<8 | uint16(c.f)
	}
	return c.pair(i)
}

func (c *CPU) setStackPair(i int, value uint16) {
	if i == 3 {
		c.setAF(value)
		return
	}
	c.setPair(i, value)
}

// condition evaluates NZ Z NC C.
func (c *CPU) condition(i int) bool {
	switch i {
	case 0:
		return !c.flag(FlagZ)
	case 1:
		return c.flag(FlagZ)
	case 2:
		return !c.flag(FlagC)
	default:
		return c.flag(FlagC)
	}
}
