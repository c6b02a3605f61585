// Package script executes profile scripts. Scripts are Lua sources
// with access to a small "pad" API for injecting input. gopher-lua's
// LState is not goroutine-safe, so all execution is marshalled onto a
// single owner goroutine through a call queue.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/controlmap/internal/dispatch"
	"github.com/dshills/controlmap/internal/mapping"
)

// ErrEngineClosed is returned when running a script after Close.
var ErrEngineClosed = errors.New("script engine is closed")

// call is one queued Lua operation.
type call struct {
	fn     func(L *lua.LState) error
	result chan error
}

// Engine runs Lua scripts serialized on a single goroutine.
type Engine struct {
	sim    dispatch.Simulator
	L      *lua.LState
	queue  chan *call
	done   chan struct{}
	closed atomic.Bool

	closeOnce sync.Once
}

// NewEngine creates an engine and starts its owner goroutine. The
// engine keeps running until Close.
func NewEngine(sim dispatch.Simulator) *Engine {
	e := &Engine{
		sim:   sim,
		L:     lua.NewState(lua.Options{SkipOpenLibs: false}),
		queue: make(chan *call, 16),
		done:  make(chan struct{}),
	}
	e.registerAPI()
	go e.run()
	return e
}

// run owns the LState and drains the call queue.
func (e *Engine) run() {
	defer e.L.Close()
	for {
		select {
		case <-e.done:
			e.drain()
			return
		case c := <-e.queue:
			c.result <- c.fn(e.L)
			close(c.result)
		}
	}
}

// drain fails any calls still queued at shutdown.
func (e *Engine) drain() {
	for {
		select {
		case c := <-e.queue:
			c.result <- ErrEngineClosed
			close(c.result)
		default:
			return
		}
	}
}

// Run executes a script to completion, implementing
// dispatch.ScriptRunner. It blocks until the script finishes, ctx is
// cancelled, or the engine closes.
func (e *Engine) Run(ctx context.Context, s mapping.Script) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if s.Source == "" {
		return fmt.Errorf("script %q has no source", s.ID)
	}

	c := &call{
		fn: func(L *lua.LState) error {
			L.SetContext(ctx)
			defer L.RemoveContext()
			if err := L.DoString(s.Source); err != nil {
				return fmt.Errorf("script %q: %w", s.ID, err)
			}
			return nil
		},
		result: make(chan error, 1),
	}

	select {
	case e.queue <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineClosed
	}

	select {
	case err := <-c.result:
		return err
	case <-e.done:
		return ErrEngineClosed
	}
}

// Close shuts the engine down. Queued scripts fail with
// ErrEngineClosed.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
	})
}

// registerAPI installs the "pad" table scripts use to inject input.
func (e *Engine) registerAPI() {
	pad := e.L.NewTable()
	e.L.SetGlobal("pad", pad)
	e.L.SetField(pad, "tap", e.L.NewFunction(e.luaTap))
	e.L.SetField(pad, "text", e.L.NewFunction(e.luaText))
	e.L.SetField(pad, "sleep", e.L.NewFunction(e.luaSleep))
	e.L.SetField(pad, "move", e.L.NewFunction(e.luaMove))
	e.L.SetField(pad, "scroll", e.L.NewFunction(e.luaScroll))
}

// luaTap implements pad.tap(key, mod...): taps a key with the named
// modifiers held.
func (e *Engine) luaTap(L *lua.LState) int {
	name := L.CheckString(1)
	code, ok := mapping.ParseKeyCode(name)
	if !ok {
		L.ArgError(1, "unknown key "+name)
		return 0
	}
	var mods mapping.Modifier
	for i := 2; i <= L.GetTop(); i++ {
		mod, ok := mapping.ParseModifier(L.CheckString(i))
		if !ok {
			L.ArgError(i, "unknown modifier")
			return 0
		}
		mods |= mod
	}
	if err := e.sim.PressKey(code, mods); err != nil {
		L.RaiseError("tap: %v", err)
	}
	return 0
}

// luaText implements pad.text(s): types a string verbatim.
func (e *Engine) luaText(L *lua.LState) int {
	if err := e.sim.TypeText(L.CheckString(1)); err != nil {
		L.RaiseError("text: %v", err)
	}
	return 0
}

// luaSleep implements pad.sleep(ms), honoring context cancellation.
func (e *Engine) luaSleep(L *lua.LState) int {
	ms := L.CheckInt(1)
	if ms <= 0 {
		return 0
	}
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	ctx := L.Context()
	if ctx == nil {
		<-t.C
		return 0
	}
	select {
	case <-t.C:
	case <-ctx.Done():
		L.RaiseError("sleep: %v", ctx.Err())
	}
	return 0
}

// luaMove implements pad.move(dx, dy): relative pointer movement.
func (e *Engine) luaMove(L *lua.LState) int {
	if err := e.sim.MoveMouse(float64(L.CheckNumber(1)), float64(L.CheckNumber(2))); err != nil {
		L.RaiseError("move: %v", err)
	}
	return 0
}

// luaScroll implements pad.scroll(dx, dy): relative scrolling.
func (e *Engine) luaScroll(L *lua.LState) int {
	if err := e.sim.Scroll(float64(L.CheckNumber(1)), float64(L.CheckNumber(2))); err != nil {
		L.RaiseError("scroll: %v", err)
	}
	return 0
}
