package mapping

import "strings"

// KeyCode identifies a key or mouse button in the pipeline's own code
// space. The injection layer translates codes to OS virtual keys; the
// core never deals in platform codes.
type KeyCode int

// KeyNone means no key is bound. It is the zero value so an empty
// KeyMapping is the canonical unmapped value.
const KeyNone KeyCode = 0

// Keyboard keys.
const (
	KeyA KeyCode = iota + 1
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeySpace
	KeyReturn
	KeyTab
	KeyEscape
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Mouse buttons occupy a reserved range so the dispatcher can route
// them to the hold path (press on down, release on up).
const (
	MouseLeft KeyCode = iota + 0x1000
	MouseRight
	MouseMiddle
)

// IsMouse reports whether the code is a mouse button.
func (k KeyCode) IsMouse() bool {
	return k >= MouseLeft && k <= MouseMiddle
}

// IsKey reports whether the code is a bound keyboard key.
func (k KeyCode) IsKey() bool {
	return k > KeyNone && k < MouseLeft
}

// Modifier is a bitmask of modifier keys.
type Modifier uint8

const (
	// ModNone means no modifiers.
	ModNone Modifier = 0

	// ModShift is the shift key.
	ModShift Modifier = 1 << iota
	// ModControl is the control key.
	ModControl
	// ModOption is the option/alt key.
	ModOption
	// ModCommand is the command/super key.
	ModCommand
)

// Has reports whether all bits of m2 are set in m.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}

// Each calls fn for every single modifier bit set in m, in declaration
// order. Dispatch uses this to hold and release modifiers one at a
// time so reference counts stay per-modifier.
func (m Modifier) Each(fn func(Modifier)) {
	for _, bit := range []Modifier{ModShift, ModControl, ModOption, ModCommand} {
		if m.Has(bit) {
			fn(bit)
		}
	}
}

// String returns a "+"-joined list of modifier names, or "none".
func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModControl) {
		parts = append(parts, "control")
	}
	if m.Has(ModOption) {
		parts = append(parts, "option")
	}
	if m.Has(ModCommand) {
		parts = append(parts, "command")
	}
	return strings.Join(parts, "+")
}

// ParseModifier returns the modifier with the given name.
func ParseModifier(name string) (Modifier, bool) {
	switch strings.ToLower(name) {
	case "shift":
		return ModShift, true
	case "control", "ctrl":
		return ModControl, true
	case "option", "alt":
		return ModOption, true
	case "command", "cmd", "super", "meta":
		return ModCommand, true
	default:
		return ModNone, false
	}
}
