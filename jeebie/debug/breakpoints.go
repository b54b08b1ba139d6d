// Package debug holds the read-only inspection helpers layered over a
// running session: breakpoints, state snapshots, hex dumps and frame capture.
package debug

import (
	"maps"
	"slices"
)

// HitKind tells which kind of breakpoint stopped execution.
type HitKind int

const (
	AddressHit HitKind = iota
	OpcodeHit
)

func (k HitKind) String() string {
	if k == OpcodeHit {
		return "opcode"
	}
	return "address"
}

// Hit describes a matched breakpoint.
type Hit struct {
	Kind    HitKind
	Address uint16
	Opcode  uint8
}

// Breakpoints is a set of PC addresses and opcodes checked before each fetch.
// The zero value is not usable; call NewBreakpoints.
type Breakpoints struct {
	addresses map[uint16]struct{}
	opcodes   map[uint8]struct{}
}

func NewBreakpoints() *Breakpoints {
	return &Breakpoints{
		addresses: map[uint16]struct{}{},
		opcodes:   map[uint8]struct{}{},
	}
}

func (b *Breakpoints) Set(address uint16)   { b.addresses[address] = struct{}{} }
func (b *Breakpoints) Clear(address uint16) { delete(b.addresses, address) }

// Toggle flips the breakpoint at address and reports whether it is now set.
func (b *Breakpoints) Toggle(address uint16) bool {
	if b.Has(address) {
		b.Clear(address)
		return false
	}
	b.Set(address)
	return true
}

func (b *Breakpoints) Has(address uint16) bool {
	_, ok := b.addresses[address]
	return ok
}

func (b *Breakpoints) SetOpcode(opcode uint8)   { b.opcodes[opcode] = struct{}{} }
func (b *Breakpoints) ClearOpcode(opcode uint8) { delete(b.opcodes, opcode) }

func (b *Breakpoints) HasOpcode(opcode uint8) bool {
	_, ok := b.opcodes[opcode]
	return ok
}

// Empty reports whether nothing is set, so callers can skip the opcode peek.
func (b *Breakpoints) Empty() bool {
	return len(b.addresses) == 0 && len(b.opcodes) == 0
}

// Addresses returns the address breakpoints in ascending order.
func (b *Breakpoints) Addresses() []uint16 {
	return slices.Sorted(maps.Keys(b.addresses))
}

// Opcodes returns the opcode breakpoints in ascending order.
func (b *Breakpoints) Opcodes() []uint8 {
	return slices.Sorted(maps.Keys(b.opcodes))
}

// Match checks pc and the opcode byte stored there. Address breakpoints win.
func (b *Breakpoints) Match(pc uint16, opcode uint8) (Hit, bool) {
	if b.Has(pc) {
		return Hit{Kind: AddressHit, Address: pc, Opcode: opcode}, true
	}
	if b.HasOpcode(opcode) {
		return Hit{Kind: OpcodeHit, Address: pc, Opcode: opcode}, true
	}
	return Hit{}, false
}
