package mapping

import "strings"

// keyNameList maps key names (as used in profile files) to codes, the
// canonical spelling first and aliases after it. Single letters and
// digits are handled by ParseKeyCode directly and are not listed here.
var keyNameList = []struct {
	name string
	code KeyCode
}{
	{"space", KeySpace},
	{"return", KeyReturn},
	{"enter", KeyReturn},
	{"tab", KeyTab},
	{"escape", KeyEscape},
	{"esc", KeyEscape},
	{"delete", KeyDelete},
	{"up", KeyUp},
	{"down", KeyDown},
	{"left", KeyLeft},
	{"right", KeyRight},
	{"home", KeyHome},
	{"end", KeyEnd},
	{"pageup", KeyPageUp},
	{"pagedown", KeyPageDown},
	{"f1", KeyF1},
	{"f2", KeyF2},
	{"f3", KeyF3},
	{"f4", KeyF4},
	{"f5", KeyF5},
	{"f6", KeyF6},
	{"f7", KeyF7},
	{"f8", KeyF8},
	{"f9", KeyF9},
	{"f10", KeyF10},
	{"f11", KeyF11},
	{"f12", KeyF12},
	{"mouseLeft", MouseLeft},
	{"mouseRight", MouseRight},
	{"mouseMiddle", MouseMiddle},
}

// keyNames is the lowercased parse table built from keyNameList.
var keyNames = buildKeyNames()

func buildKeyNames() map[string]KeyCode {
	out := make(map[string]KeyCode, len(keyNameList))
	for _, e := range keyNameList {
		out[strings.ToLower(e.name)] = e.code
	}
	return out
}

// codeNames is the reverse table: canonical spelling per code, plus
// letters and digits.
var codeNames = buildCodeNames()

func buildCodeNames() map[KeyCode]string {
	out := make(map[KeyCode]string, len(keyNameList)+36)
	for _, e := range keyNameList {
		// The first (canonical) spelling wins for aliased codes.
		if _, ok := out[e.code]; !ok {
			out[e.code] = e.name
		}
	}
	for i := 0; i < 26; i++ {
		out[KeyA+KeyCode(i)] = string(rune('a' + i))
	}
	for i := 0; i < 10; i++ {
		out[Key0+KeyCode(i)] = string(rune('0' + i))
	}
	return out
}

// String returns the canonical profile-file name for the code.
func (k KeyCode) String() string {
	if k == KeyNone {
		return "none"
	}
	if name, ok := codeNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKeyCode returns the code for a canonical key name. Matching is
// case-insensitive.
func ParseKeyCode(name string) (KeyCode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return KeyNone, false
	}
	if len(name) == 1 {
		r := rune(name[0])
		switch {
		case r >= 'a' && r <= 'z':
			return KeyA + KeyCode(r-'a'), true
		case r >= '0' && r <= '9':
			return Key0 + KeyCode(r-'0'), true
		}
	}
	code, ok := keyNames[name]
	return code, ok
}
