// Package serial implements a link port with nothing plugged in. Outgoing
// bytes are logged as text, which is how test ROMs report results.
package serial

import (
	"log/slog"
	"strings"

	"github.com/valerio/jeebug/jeebie/addr"
	"github.com/valerio/jeebug/jeebie/bit"
	"github.com/valerio/jeebug/jeebie/interrupt"
)

const (
	// A DMG internal-clock transfer shifts 8 bits at 8192 Hz.
	transferCycles = 4096
	// With no partner, the port shifts in ones.
	idleRX = 0xFF

	scStart    = 7
	scInternal = 0
	scUnused   = 0x7E
)

// Port is the SB/SC register pair.
type Port struct {
	irq    interrupt.Requester
	logger *slog.Logger

	sb, sc    byte
	active    bool
	countdown int
	immediate bool

	line       []byte
	transcript strings.Builder
}

type Option func(*Port)

// WithFixedTiming completes transfers after 4096 cycles instead of at once.
func WithFixedTiming() Option { return func(p *Port) { p.immediate = false } }

// WithLogger sets where finished lines are logged.
func WithLogger(logger *slog.Logger) Option { return func(p *Port) { p.logger = logger } }

// NewPort returns an idle port that raises the serial interrupt through irq
// when a transfer completes.
func NewPort(irq interrupt.Requester, opts ...Option) *Port {
	p := &Port{
		irq:       irq,
		logger:    slog.Default(),
		immediate: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

func (p *Port) Read(address uint16) byte {
	if address == addr.SC {
		return p.sc | scUnused
	}
	return p.sb
}

func (p *Port) Write(address uint16, value byte) {
	if address == addr.SC {
		p.sc = value
		p.start()
		return
	}
	p.sb = value
}

func (p *Port) Tick(cycles int) {
	if !p.active {
		return
	}
	p.countdown -= cycles
	if p.countdown <= 0 {
		p.complete()
	}
}

// Reset clears the registers and the transcript.
func (p *Port) Reset() {
	p.sb, p.sc = 0, 0
	p.active = false
	p.countdown = 0
	p.line = p.line[:0]
	p.transcript.Reset()
}

// Transcript returns every byte sent since the last reset.
func (p *Port) Transcript() string {
	return p.transcript.String()
}

// start begins a transfer once SC has both the start and internal clock bits.
// An external clock never ticks with no partner attached.
func (p *Port) start() {
	if p.active || !bit.IsSet(scStart, p.sc) || !bit.IsSet(scInternal, p.sc) {
		return
	}

	out := p.sb
	p.transcript.WriteByte(out)
	if out == 0 || out == '\n' || out == '\r' {
		p.flush()
	} else {
		p.line = append(p.line, out)
	}

	if p.immediate {
		p.complete()
		return
	}
	p.active = true
	p.countdown = transferCycles
}

func (p *Port) flush() {
	if len(p.line) > 0 {
		p.logger.Info("Serial output", "line", string(p.line))
		p.line = p.line[:0]
	}
}

func (p *Port) complete() {
	p.sb = idleRX
	p.sc = bit.Clear(scStart, p.sc)
	p.active = false
	p.countdown = 0
	p.irq.Request(interrupt.Serial)
}
