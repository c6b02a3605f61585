package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/controlmap/internal/app"
	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/config"
	"github.com/dshills/controlmap/internal/mapping"
)

// keyBindings maps terminal keys to pad buttons for the simulator.
// Lowercase runes tap; uppercase runes hold the button past the
// long-hold threshold before releasing.
var runeBindings = map[rune]button.Button{
	'a': button.A,
	'b': button.B,
	'x': button.X,
	'y': button.Y,
	'q': button.LeftBumper,
	'e': button.RightBumper,
	'1': button.LeftTrigger,
	'3': button.RightTrigger,
	'v': button.View,
	'm': button.Menu,
	'g': button.Guide,
	't': button.TouchpadClick,
	',': button.LeftThumb,
	'.': button.RightThumb,
}

var keyBindings = map[tcell.Key]button.Button{
	tcell.KeyUp:    button.DPadUp,
	tcell.KeyDown:  button.DPadDown,
	tcell.KeyLeft:  button.DPadLeft,
	tcell.KeyRight: button.DPadRight,
}

// runSimulator runs the tcell fake controller: keyboard keys act as
// pad buttons and every injected action shows on screen.
func runSimulator(ctx context.Context, tuning config.Tuning, profile *mapping.Profile, logger *app.Logger) int {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	// The pipeline's actions render on screen instead of being logged.
	logger.Disable()
	sim := newScreenSim(screen)
	pipe, d, scripts := buildPipeline(tuning, profile, logger, sim)
	defer func() {
		pipe.Close()
		_ = d.Close()
		scripts.Close()
	}()
	sim.snapshot = pipe.Snapshot

	pipe.Start(ctx)
	pipe.Enable()

	events := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	holdDelay := tuning.ClassifierConfig().LongHoldThreshold + 50*time.Millisecond
	sim.redraw()

	for {
		select {
		case <-ctx.Done():
			return 0
		case ev, ok := <-events:
			if !ok {
				return 0
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				sim.redraw()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return 0
				}
				handleSimKey(ev, pipe, holdDelay)
				sim.redraw()
			}
		}
	}
}

// handleSimKey translates one terminal key into pad events.
func handleSimKey(ev *tcell.EventKey, pipe *app.Pipeline, holdDelay time.Duration) {
	now := time.Now()

	if b, ok := keyBindings[ev.Key()]; ok {
		tap(pipe, b, now)
		return
	}
	if ev.Key() != tcell.KeyRune {
		return
	}
	r := ev.Rune()
	if b, ok := runeBindings[r]; ok {
		tap(pipe, b, now)
		return
	}
	// Uppercase holds the button past the long-hold threshold.
	if r >= 'A' && r <= 'Z' {
		if b, ok := runeBindings[r+('a'-'A')]; ok {
			pipe.HandleButtonDown(button.PressEvent{Button: b, Time: now})
			time.AfterFunc(holdDelay, func() {
				pipe.HandleButtonUp(button.ReleaseEvent{
					Button:       b,
					HoldDuration: holdDelay,
					Time:         time.Now(),
				})
			})
		}
	}
}

// tap delivers an immediate press and release.
func tap(pipe *app.Pipeline, b button.Button, now time.Time) {
	pipe.HandleButtonDown(button.PressEvent{Button: b, Time: now})
	pipe.HandleButtonUp(button.ReleaseEvent{Button: b, HoldDuration: 10 * time.Millisecond, Time: now})
}

// screenSim renders injected actions to the terminal.
type screenSim struct {
	screen   tcell.Screen
	snapshot func() app.Snapshot

	mu    sync.Mutex
	lines []string
}

const simHistory = 64

func newScreenSim(screen tcell.Screen) *screenSim {
	return &screenSim{screen: screen}
}

// record appends one action line and redraws.
func (s *screenSim) record(format string, args ...any) {
	s.mu.Lock()
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
	if len(s.lines) > simHistory {
		s.lines = s.lines[len(s.lines)-simHistory:]
	}
	s.mu.Unlock()
	s.redraw()
}

func (s *screenSim) PressKey(key mapping.KeyCode, mods mapping.Modifier) error {
	if mods != mapping.ModNone {
		s.record("press %s+%s", mods, key)
	} else {
		s.record("press %s", key)
	}
	return nil
}

func (s *screenSim) KeyDown(key mapping.KeyCode) error {
	s.record("down %s", key)
	return nil
}

func (s *screenSim) KeyUp(key mapping.KeyCode) error {
	s.record("up %s", key)
	return nil
}

func (s *screenSim) HoldModifier(mod mapping.Modifier) error {
	s.record("hold %s", mod)
	return nil
}

func (s *screenSim) ReleaseModifier(mod mapping.Modifier) error {
	s.record("release %s", mod)
	return nil
}

func (s *screenSim) ReleaseAllModifiers() error {
	s.record("release all modifiers")
	return nil
}

func (s *screenSim) MoveMouse(dx, dy float64) error {
	// Pointer deltas arrive every analog tick; drawing each one would
	// swamp the history, so they are dropped from the display.
	return nil
}

func (s *screenSim) Scroll(dx, dy float64) error {
	return nil
}

func (s *screenSim) TypeText(text string) error {
	s.record("type %q", text)
	return nil
}

// redraw repaints the whole simulator screen.
func (s *screenSim) redraw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	_, height := s.screen.Size()

	header := tcell.StyleDefault.Bold(true)
	s.drawText(0, 0, header, "controlmap simulator  (Esc quits)")
	s.drawText(0, 1, tcell.StyleDefault,
		"a/b/x/y faces  arrows dpad  q/e bumpers  1/3 triggers  v/m/g center  uppercase holds")

	if s.snapshot != nil {
		snap := s.snapshot()
		status := fmt.Sprintf("profile=%s enabled=%v mods=%s", snap.ProfileName, snap.Enabled, snap.HeldModifiers)
		s.drawText(0, 2, tcell.StyleDefault.Dim(true), status)
	}

	top := 4
	visible := height - top
	start := 0
	if len(s.lines) > visible {
		start = len(s.lines) - visible
	}
	for i, line := range s.lines[start:] {
		s.drawText(0, top+i, tcell.StyleDefault, line)
	}
	s.screen.Show()
}

// drawText writes one line of text at a position.
func (s *screenSim) drawText(x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.screen.SetContent(x+i, y, r, nil, style)
	}
}
