package viz

import "strings"

// Direction is one of the four logical movement directions.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight

	dirCount
)

var dirNames = [dirCount]string{"Up", "Down", "Left", "Right"}

// DirectionSet is the latest movement key state, one flag per logical
// direction.
type DirectionSet [dirCount]bool

// Any reports whether at least one direction is active.
func (d DirectionSet) Any() bool {
	for _, v := range d {
		if v {
			return true
		}
	}
	return false
}

// Active returns the title-cased names of the active directions in
// fixed up/down/left/right order.
func (d DirectionSet) Active() []string {
	var names []string
	for i, v := range d {
		if v {
			names = append(names, dirNames[i])
		}
	}
	return names
}

// keyAliases collapses physical key codes onto logical directions.
// WASD and the arrow keys are interchangeable. Flags are tracked per
// logical direction, not per physical key: releasing any alias clears
// the whole direction even if another alias is still held.
var keyAliases = map[string]Direction{
	"w": DirUp, "up": DirUp,
	"s": DirDown, "down": DirDown,
	"a": DirLeft, "left": DirLeft,
	"d": DirRight, "right": DirRight,
}

// MouseButton identifies a button in aggregator events.
type MouseButton int

const (
	ButtonPrimary   MouseButton = 1
	ButtonSecondary MouseButton = 2
)

// MouseState is the current drag state. The position updates only
// while the primary button is held; it survives the release.
type MouseState struct {
	X       float64
	Y       float64
	Pressed bool
}

// Aggregator turns discrete key, button, and pointer events into the
// state the manual tick reads. It has no side effects beyond the two
// state records and the teleport callback for secondary clicks.
type Aggregator struct {
	keys       DirectionSet
	mouse      MouseState
	onTeleport func(x, y float64)
}

// NewAggregator creates an aggregator. onTeleport receives secondary
// clicks and may be nil.
func NewAggregator(onTeleport func(x, y float64)) *Aggregator {
	return &Aggregator{onTeleport: onTeleport}
}

// KeyDown sets the logical direction aliased by code. Matching is
// case-insensitive; unrecognized codes are ignored.
func (a *Aggregator) KeyDown(code string) {
	if d, ok := keyAliases[strings.ToLower(code)]; ok {
		a.keys[d] = true
	}
}

// KeyUp clears the logical direction aliased by code.
func (a *Aggregator) KeyUp(code string) {
	if d, ok := keyAliases[strings.ToLower(code)]; ok {
		a.keys[d] = false
	}
}

// ButtonDown starts a drag on the primary button, recording (x, y) as
// both anchor and current position. A secondary click is not drag
// input: it routes straight to the teleport action and never touches
// the mouse state.
func (a *Aggregator) ButtonDown(btn MouseButton, x, y float64) {
	switch btn {
	case ButtonPrimary:
		a.mouse.X = x
		a.mouse.Y = y
		a.mouse.Pressed = true
	case ButtonSecondary:
		if a.onTeleport != nil {
			a.onTeleport(x, y)
		}
	}
}

// ButtonUp ends a drag. The last drag position is kept.
func (a *Aggregator) ButtonUp(btn MouseButton) {
	if btn == ButtonPrimary {
		a.mouse.Pressed = false
	}
}

// PointerMove updates the drag position. Moves with the button up are
// ignored.
func (a *Aggregator) PointerMove(x, y float64) {
	if a.mouse.Pressed {
		a.mouse.X = x
		a.mouse.Y = y
	}
}

// Directions returns the current movement key state.
func (a *Aggregator) Directions() DirectionSet { return a.keys }

// Mouse returns the current drag state.
func (a *Aggregator) Mouse() MouseState { return a.mouse }
