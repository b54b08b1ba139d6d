package memory

// Button is a key on the Game Boy joypad.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

func (b Button) String() string {
	return [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}[b&7]
}

const (
	selectDpad    = 0x10 // P14, active low
	selectButtons = 0x20 // P15, active low
)

// Joypad models the P1 register. Button state is active low: a cleared bit is a
// pressed key.
type Joypad struct {
	dpad    uint8
	buttons uint8
	line    uint8
}

// NewJoypad returns a joypad with every key released and no group selected.
func NewJoypad() *Joypad {
	j := &Joypad{}
	j.Reset()
	return j
}

// Reset releases every key.
func (j *Joypad) Reset() {
	j.dpad = 0x0F
	j.buttons = 0x0F
	j.line = selectDpad | selectButtons
}

// Read returns P1 as the CPU sees it.
func (j *Joypad) Read() uint8 {
	return 0xC0 | j.line | j.lines()
}

// lines returns the low nibble: the AND of every selected group.
func (j *Joypad) lines() uint8 {
	value := uint8(0x0F)
	if j.line&selectDpad == 0 {
		value &= j.dpad
	}
	if j.line&selectButtons == 0 {
		value &= j.buttons
	}
	return value
}

// Write selects which group of keys P1 reports.
func (j *Joypad) Write(value uint8) {
	j.line = value & (selectDpad | selectButtons)
}

// Set presses or releases a key. It reports whether a selected line went from
// high to low, which is what raises the joypad interrupt.
func (j *Joypad) Set(button Button, pressed bool) bool {
	before := j.lines()

	group := &j.dpad
	if button >= ButtonA {
		group = &j.buttons
	}
	mask := uint8(1) << (button & 0x03)
	if pressed {
		*group &^= mask
	} else {
		*group |= mask
	}

	return before&^j.lines() != 0
}
