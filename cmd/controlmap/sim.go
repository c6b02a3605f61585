package main

import (
	"github.com/dshills/controlmap/internal/app"
	"github.com/dshills/controlmap/internal/mapping"
)

// logSimulator logs every injected action instead of performing it.
// OS-level injection lives outside this binary; the log stream is what
// hardware mode produces.
type logSimulator struct {
	log *app.Logger
}

func newLogSimulator(logger *app.Logger) *logSimulator {
	return &logSimulator{log: logger.WithComponent("sim")}
}

func (s *logSimulator) PressKey(key mapping.KeyCode, mods mapping.Modifier) error {
	if mods != mapping.ModNone {
		s.log.Info("press %s+%s", mods, key)
		return nil
	}
	s.log.Info("press %s", key)
	return nil
}

func (s *logSimulator) KeyDown(key mapping.KeyCode) error {
	s.log.Info("down %s", key)
	return nil
}

func (s *logSimulator) KeyUp(key mapping.KeyCode) error {
	s.log.Info("up %s", key)
	return nil
}

func (s *logSimulator) HoldModifier(mod mapping.Modifier) error {
	s.log.Info("hold %s", mod)
	return nil
}

func (s *logSimulator) ReleaseModifier(mod mapping.Modifier) error {
	s.log.Info("release %s", mod)
	return nil
}

func (s *logSimulator) ReleaseAllModifiers() error {
	s.log.Info("release all modifiers")
	return nil
}

func (s *logSimulator) MoveMouse(dx, dy float64) error {
	s.log.Debug("mouse %+.2f %+.2f", dx, dy)
	return nil
}

func (s *logSimulator) Scroll(dx, dy float64) error {
	s.log.Debug("scroll %+.2f %+.2f", dx, dy)
	return nil
}

func (s *logSimulator) TypeText(text string) error {
	s.log.Info("type %q", text)
	return nil
}
