package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/mapping"
)

const editDoc = `{"name":"player1","buttons":{"a":{"key":"space"},"b":{"key":"escape"}}}`

func TestSetButtonPatchAddsBinding(t *testing.T) {
	out, err := setButtonPatch([]byte(editDoc), "y=control+c")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	p, err := mapping.LoadProfile(out)
	if err != nil {
		t.Fatalf("patched document does not load: %v", err)
	}

	m, ok := p.Buttons[button.Y]
	if !ok {
		t.Fatal("y has no mapping after patch")
	}
	if m.Key != mapping.KeyC || m.Modifiers != mapping.ModControl {
		t.Errorf("y mapping = %v+%v, want control+c", m.Modifiers, m.Key)
	}
	// Existing bindings survive the edit.
	if got := p.Buttons[button.A].Key; got != mapping.KeySpace {
		t.Errorf("a mapping disturbed: key = %v", got)
	}
	if p.Name != "player1" {
		t.Errorf("profile name disturbed: %q", p.Name)
	}
}

func TestSetButtonPatchRemovesBinding(t *testing.T) {
	out, err := setButtonPatch([]byte(editDoc), "a=")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	p, err := mapping.LoadProfile(out)
	if err != nil {
		t.Fatalf("patched document does not load: %v", err)
	}
	if _, ok := p.Buttons[button.A]; ok {
		t.Error("a still mapped after removal")
	}
	if _, ok := p.Buttons[button.B]; !ok {
		t.Error("b removed alongside a")
	}
}

func TestSetButtonPatchRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"no equals", "a"},
		{"unknown button", "warp=c"},
		{"unknown key", "a=frobnicate"},
		{"unknown modifier", "a=hyper+c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := setButtonPatch([]byte(editDoc), tt.spec); err == nil {
				t.Errorf("spec %q accepted", tt.spec)
			}
		})
	}
}

func TestParseBindingLoneModifier(t *testing.T) {
	m, err := parseBinding("shift")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Key != mapping.KeyNone || m.Modifiers != mapping.ModShift {
		t.Errorf("binding = %v+%v, want a bare shift tap", m.Modifiers, m.Key)
	}
}

func TestRunSetButtonRewritesProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(editDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	if code := runSetButton(path, "x=shift+f2"); code != 0 {
		t.Fatalf("runSetButton exit = %d", code)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	p, err := mapping.LoadProfile(data)
	if err != nil {
		t.Fatalf("rewritten profile does not load: %v", err)
	}
	m := p.Buttons[button.X]
	if m.Key != mapping.KeyF2 || m.Modifiers != mapping.ModShift {
		t.Errorf("x mapping = %v+%v, want shift+f2", m.Modifiers, m.Key)
	}
}

func TestRunSetButtonRequiresProfile(t *testing.T) {
	if code := runSetButton("", "a=c"); code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
}
