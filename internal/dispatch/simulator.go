package dispatch

import "github.com/dshills/controlmap/internal/mapping"

// Simulator is the narrow capability the dispatcher uses to inject
// input. Implementations own the OS APIs; the core never touches them
// directly. KeyDown/KeyUp accept mouse codes as well as keyboard codes
// so click-and-drag rides the same hold path as held keys.
type Simulator interface {
	// PressKey taps a key with the given modifiers held around it.
	PressKey(key mapping.KeyCode, mods mapping.Modifier) error

	// KeyDown presses and holds a key or mouse button.
	KeyDown(key mapping.KeyCode) error

	// KeyUp releases a key or mouse button.
	KeyUp(key mapping.KeyCode) error

	// HoldModifier presses and holds a single modifier.
	HoldModifier(mod mapping.Modifier) error

	// ReleaseModifier releases a single modifier.
	ReleaseModifier(mod mapping.Modifier) error

	// ReleaseAllModifiers releases every held modifier.
	ReleaseAllModifiers() error

	// MoveMouse moves the pointer by a relative delta in points.
	MoveMouse(dx, dy float64) error

	// Scroll scrolls by a relative delta in lines.
	Scroll(dx, dy float64) error

	// TypeText types a string verbatim (macro text steps).
	TypeText(text string) error
}
