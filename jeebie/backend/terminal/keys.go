package terminal

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebug/jeebie/memory"
)

// Terminals report presses but not releases, so a key counts as held until
// it stops repeating for this long.
const keyTimeout = 100 * time.Millisecond

type action int

const (
	actionNone action = iota
	actionQuit
	actionToggle
	actionStep
	actionFrame
	actionBreakpoint
	actionReset
	actionSnapshot
	actionOAM
	actionLogMore
	actionLogLess
)

var keyActions = map[tcell.Key]action{
	tcell.KeyCtrlC:  actionQuit,
	tcell.KeyEscape: actionQuit,
	tcell.KeyF12:    actionSnapshot,
}

var runeActions = map[rune]action{
	'q': actionQuit,
	' ': actionToggle,
	'n': actionStep,
	'f': actionFrame,
	'b': actionBreakpoint,
	'r': actionReset,
	'p': actionSnapshot,
	'o': actionOAM,
	'+': actionLogMore,
	'=': actionLogMore,
	'-': actionLogLess,
}

var keyButtons = map[tcell.Key]memory.Button{
	tcell.KeyUp:    memory.ButtonUp,
	tcell.KeyDown:  memory.ButtonDown,
	tcell.KeyLeft:  memory.ButtonLeft,
	tcell.KeyRight: memory.ButtonRight,
	tcell.KeyEnter: memory.ButtonStart,
	tcell.KeyTab:   memory.ButtonSelect,
}

var runeButtons = map[rune]memory.Button{
	'w': memory.ButtonUp,
	's': memory.ButtonDown,
	'a': memory.ButtonLeft,
	'd': memory.ButtonRight,
	'z': memory.ButtonA,
	'x': memory.ButtonB,
}

// decodeKey maps a key event to a console action or a joypad button.
func decodeKey(ev *tcell.EventKey) (action, memory.Button, bool) {
	if ev.Key() == tcell.KeyRune {
		if a, ok := runeActions[ev.Rune()]; ok {
			return a, 0, false
		}
		b, ok := runeButtons[ev.Rune()]
		return actionNone, b, ok
	}
	if a, ok := keyActions[ev.Key()]; ok {
		return a, 0, false
	}
	b, ok := keyButtons[ev.Key()]
	return actionNone, b, ok
}
