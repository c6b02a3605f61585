package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/controlmap/internal/analog"
	"github.com/dshills/controlmap/internal/button"
	"github.com/dshills/controlmap/internal/classify"
	"github.com/dshills/controlmap/internal/dispatch"
	"github.com/dshills/controlmap/internal/mapping"
	"github.com/dshills/controlmap/internal/motion"
	"github.com/dshills/controlmap/internal/policy"
)

// ModeProvider supplies the transient overlay/mode flags read on every
// press. Owners of the overlays implement it; the pipeline never
// mutates mode state.
type ModeProvider interface {
	ModeFlags() policy.ModeFlags
}

// staticModes is the provider used when no overlays exist.
type staticModes struct{}

func (staticModes) ModeFlags() policy.ModeFlags { return policy.ModeFlags{} }

// OverlayHandler receives intercepted presses. Implemented by the
// overlay/UI layer; all methods are called from the input path and
// must not block.
type OverlayHandler interface {
	// Navigator handles a directory-navigator interception.
	Navigator(op policy.NavigatorOp, dir policy.Direction)

	// Swipe handles a swipe-typing interception.
	Swipe(op policy.SwipeOp, dir policy.Direction)

	// KeyboardNav handles an on-screen keyboard interception. command
	// is non-empty for the reserved overlay toggle markers.
	KeyboardNav(b button.Button, command string)

	// CursorNav handles d-pad cursor navigation under the visible
	// keyboard.
	CursorNav(dir policy.Direction)
}

// Options configures the pipeline.
type Options struct {
	// Classifier is the press-type classifier config.
	Classifier classify.Config

	// Pitch and Roll tune the motion gesture detector.
	Pitch motion.AxisConfig
	Roll  motion.AxisConfig

	// AnalogPoll is the analog queue tick interval.
	AnalogPoll time.Duration

	// Modes supplies overlay/mode flags. Nil means no overlays.
	Modes ModeProvider

	// Overlays receives intercepted presses. Nil drops them.
	Overlays OverlayHandler

	// Logger for pipeline events. Nil means a default logger.
	Logger *Logger
}

// Pipeline wires the classifier, orchestration policy, motion
// detector, analog conditioner and dispatcher together.
//
// Button events are serialized through the classifier's lock; analog
// processing runs on its own tick loop. The only state crossing the
// two is the profile snapshot (atomic pointer) and the engine-state
// snapshot (mutex-guarded), per the concurrency contract.
type Pipeline struct {
	log        *Logger
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher
	modes      ModeProvider
	overlays   OverlayHandler

	profile atomic.Pointer[mapping.Profile]
	enabled atomic.Bool

	// Button-path state, mutated only on the button queue.
	tapMu   sync.Mutex
	lastTap [button.Count]time.Time

	// Motion path.
	motionMu sync.Mutex
	detector *motion.Detector

	// Analog path, owned by the run loop.
	analogMu   sync.Mutex
	analogPoll time.Duration
	leftStick  button.StickSample
	rightStick button.StickSample
	lastTick   time.Time
	mouseLP    *analog.StickFilter
	touchLP    *analog.TouchFilter
	momentum   *analog.Momentum

	// Holds open on the hold path, for the state snapshot.
	holdMu sync.Mutex
	holds  map[button.Button]mapping.KeyMapping

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipeline composes a pipeline around the dispatcher and profile.
func NewPipeline(opts Options, d *dispatch.Dispatcher, profile *mapping.Profile) *Pipeline {
	if profile == nil {
		profile = mapping.NewProfile("")
	}
	log := opts.Logger
	if log == nil {
		log = NewLogger(DefaultLoggerConfig())
	}
	modes := opts.Modes
	if modes == nil {
		modes = staticModes{}
	}
	if opts.AnalogPoll <= 0 {
		opts.AnalogPoll = 8 * time.Millisecond
	}

	p := &Pipeline{
		log:        log.WithComponent("pipeline"),
		dispatcher: d,
		modes:      modes,
		overlays:   opts.Overlays,
		detector:   motion.NewDetector(opts.Pitch, opts.Roll),
		analogPoll: opts.AnalogPoll,
		mouseLP:    analog.NewStickFilter(),
		touchLP:    analog.NewTouchFilter(profile.Analog.TouchpadSmoothing),
		momentum: analog.NewMomentum(analog.MomentumConfig{
			Decay:              profile.Analog.MomentumDecay,
			StopVelocity:       profile.Analog.MomentumStopVelocity,
			BoostStartVelocity: 0.5,
			BoostMaxVelocity:   3.0,
			Boost:              profile.Analog.MomentumBoost,
		}),
		holds: make(map[button.Button]mapping.KeyMapping),
	}
	p.profile.Store(profile)
	p.classifier = classify.New(opts.Classifier, profile, p.onAction)
	return p
}

// Start launches the analog tick loop. It returns immediately.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.analogLoop(ctx)
}

// Enable starts processing input.
func (p *Pipeline) Enable() {
	p.classifier.Enable()
	p.enabled.Store(true)
	p.log.Info("engine enabled")
}

// Disable stops processing, cancels every pending classifier timer
// without firing, closes open holds and releases held modifiers.
func (p *Pipeline) Disable() {
	p.enabled.Store(false)
	p.classifier.Disable()
	p.releaseHolds()
	_ = p.dispatcher.Modifiers().ReleaseAll()
	p.motionMu.Lock()
	p.detector.Reset()
	p.motionMu.Unlock()
	p.log.Info("engine disabled")
}

// Reset clears transient classification and detector state while
// staying enabled.
func (p *Pipeline) Reset() {
	p.classifier.Reset()
	p.releaseHolds()
	p.motionMu.Lock()
	p.detector.Reset()
	p.motionMu.Unlock()
}

// Close shuts the pipeline down.
func (p *Pipeline) Close() {
	p.Disable()
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// Enabled reports whether the pipeline processes input.
func (p *Pipeline) Enabled() bool {
	return p.enabled.Load()
}

// SetProfile atomically swaps the configuration snapshot for every
// path; no torn read is possible since each path loads the pointer
// once per event.
func (p *Pipeline) SetProfile(profile *mapping.Profile) {
	if profile == nil {
		profile = mapping.NewProfile("")
	}
	p.profile.Store(profile)
	p.classifier.SetProfile(profile)

	p.analogMu.Lock()
	p.touchLP = analog.NewTouchFilter(profile.Analog.TouchpadSmoothing)
	p.mouseLP.Reset()
	p.analogMu.Unlock()

	p.log.Info("profile loaded: %s", profile.Name)
}

// Profile returns the current configuration snapshot.
func (p *Pipeline) Profile() *mapping.Profile {
	return p.profile.Load()
}

// HandleButtonDown is the hardware button-pressed callback. The
// orchestration policy runs first; only presses no overlay intercepts
// reach the classifier.
func (p *Pipeline) HandleButtonDown(ev button.PressEvent) {
	if !p.enabled.Load() {
		return
	}
	prof := p.profile.Load()
	m, has := prof.MappingFor(ev.Button)
	out := policy.Resolve(ev.Button, m, has, p.modes.ModeFlags(), prof.ChordMember(ev.Button), p.lastTapFor(ev.Button))

	switch out.Kind {
	case policy.OutcomeNavigator:
		p.overlay(func(h OverlayHandler) { h.Navigator(out.NavOp, out.Dir) })
	case policy.OutcomeSwipe:
		p.overlay(func(h OverlayHandler) { h.Swipe(out.SwipeOp, out.Dir) })
	case policy.OutcomeKeyboardNav:
		p.overlay(func(h OverlayHandler) { h.KeyboardNav(ev.Button, out.Command) })
	case policy.OutcomeCursorNav:
		p.overlay(func(h OverlayHandler) { h.CursorNav(out.Dir) })
	case policy.OutcomeMapping, policy.OutcomeUnmapped:
		// Ordinary classification. Unmapped presses still pass
		// through so chords and sequences can observe them.
		p.classifier.HandlePress(ev)
	}
}

// HandleButtonUp is the hardware button-released callback. Releases
// for presses an overlay consumed carry no recorded press and are
// ignored by the classifier.
func (p *Pipeline) HandleButtonUp(ev button.ReleaseEvent) {
	if !p.enabled.Load() {
		return
	}
	p.classifier.HandleRelease(ev)
	t := ev.Time
	if t.IsZero() {
		t = time.Now()
	}
	p.tapMu.Lock()
	p.lastTap[ev.Button] = t
	p.tapMu.Unlock()
}

// HandleMotion is the hardware gyroscope callback.
func (p *Pipeline) HandleMotion(s button.MotionSample) {
	if !p.enabled.Load() {
		return
	}
	p.motionMu.Lock()
	results := p.detector.ProcessAll(s)
	p.motionMu.Unlock()

	prof := p.profile.Load()
	for _, res := range results {
		gm, ok := prof.GestureFor(res.Kind)
		if !ok {
			p.log.Debug("gesture %s unmapped", res.Kind)
			continue
		}
		p.execute(gm.Action, prof)
	}
}

// HandleStickMove is the hardware stick callback. Samples are stored
// for the analog tick loop; the callback itself does no math.
func (p *Pipeline) HandleStickMove(s button.StickSample) {
	p.analogMu.Lock()
	defer p.analogMu.Unlock()
	switch s.Axis {
	case button.StickLeft:
		p.leftStick = s
	case button.StickRight:
		p.rightStick = s
	}
}

// HandleTouchMove is the hardware touchpad callback. Deltas are
// filtered and applied immediately; an active fling stops on touch.
func (p *Pipeline) HandleTouchMove(d button.TouchDelta) {
	if !p.enabled.Load() {
		return
	}
	p.analogMu.Lock()
	p.momentum.Stop()
	dx, dy := p.touchLP.Apply(d.DX, d.DY)
	p.analogMu.Unlock()
	_ = p.dispatcher.Simulator().MoveMouse(dx, dy)
}

// HandleTouchGesture is the hardware multi-finger gesture callback.
// Two-finger pans scroll; pinches zoom through control-scroll.
func (p *Pipeline) HandleTouchGesture(g button.TouchGesture) {
	if !p.enabled.Load() {
		return
	}
	sim := p.dispatcher.Simulator()
	switch g.Kind {
	case button.TouchPan:
		prof := p.profile.Load()
		dx, dy := analog.SuppressHorizontalScroll(g.DX, g.DY, prof.Analog.ScrollDominanceRatio)
		_ = sim.Scroll(dx, dy)
	case button.TouchPinch:
		mods := p.dispatcher.Modifiers()
		if err := mods.Hold(mapping.ModControl); err != nil {
			return
		}
		_ = sim.Scroll(0, (g.Scale-1)*pinchScrollScale)
		_ = mods.Release(mapping.ModControl)
	}
}

// HandleTouchEnd is the hardware touch-lift callback with the release
// velocity; it may start a momentum fling.
func (p *Pipeline) HandleTouchEnd(vx, vy float64) {
	if !p.enabled.Load() {
		return
	}
	p.analogMu.Lock()
	p.momentum.Start(vx, vy)
	p.touchLP.Reset()
	p.analogMu.Unlock()
}

// onAction receives classified semantic actions and routes them to
// the dispatcher. Runs on the classifier's serialization context.
func (p *Pipeline) onAction(a classify.Action) {
	prof := p.profile.Load()
	switch a.Kind {
	case classify.KindUnmapped:
		p.log.Debug("unmapped press: %s", a.Button)

	case classify.KindHoldStart:
		p.holdMu.Lock()
		p.holds[a.Button] = a.Mapping
		p.holdMu.Unlock()
		if err := p.dispatcher.StartHold(a.Mapping); err != nil {
			p.log.Error("hold start %s: %v", a.Button, err)
		}

	case classify.KindHoldEnd:
		p.holdMu.Lock()
		delete(p.holds, a.Button)
		p.holdMu.Unlock()
		if err := p.dispatcher.StopHold(a.Mapping); err != nil {
			p.log.Error("hold end %s: %v", a.Button, err)
		}

	default:
		if a.Mapping.IsEmpty() {
			return
		}
		p.execute(a.Mapping, prof)
	}
}

// execute dispatches one mapping and logs fallbacks.
func (p *Pipeline) execute(m mapping.KeyMapping, prof *mapping.Profile) {
	res, err := p.dispatcher.Execute(m, prof)
	if err != nil {
		p.log.Error("dispatch %s: %v", m.DisplayLabel(), err)
		return
	}
	if res.Kind == dispatch.ResultNoop && res.Label != "unmapped" {
		p.log.Warn("action unavailable: %s", res.Label)
	}
}

// overlay invokes fn when an overlay handler is wired.
func (p *Pipeline) overlay(fn func(OverlayHandler)) {
	if p.overlays != nil {
		fn(p.overlays)
	}
}

// lastTapFor returns the recorded previous release time for a button.
func (p *Pipeline) lastTapFor(b button.Button) time.Time {
	p.tapMu.Lock()
	defer p.tapMu.Unlock()
	return p.lastTap[b]
}

// releaseHolds closes every open hold without emitting actions.
func (p *Pipeline) releaseHolds() {
	p.holdMu.Lock()
	holds := p.holds
	p.holds = make(map[button.Button]mapping.KeyMapping)
	p.holdMu.Unlock()
	for _, m := range holds {
		_ = p.dispatcher.StopHold(m)
	}
}

// analogLoop is the analog processing queue: a fixed-interval tick
// independent of the button path.
func (p *Pipeline) analogLoop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.analogPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.analogTick(now)
		}
	}
}

// analogTick conditions the latest stick samples and momentum into
// pointer and scroll deltas.
func (p *Pipeline) analogTick(now time.Time) {
	if !p.enabled.Load() {
		p.analogMu.Lock()
		p.lastTick = now
		p.analogMu.Unlock()
		return
	}
	prof := p.profile.Load()
	settings := prof.Analog

	p.analogMu.Lock()
	dt := p.analogPoll.Seconds()
	if !p.lastTick.IsZero() {
		if d := now.Sub(p.lastTick).Seconds(); d > 0 {
			dt = d
		}
	}
	p.lastTick = now
	left := p.leftStick
	right := p.rightStick

	// Left stick drives the pointer.
	var moveX, moveY float64
	if mag, ok := analog.CircularDeadzone(left.X, left.Y, settings.StickDeadzone); ok {
		norm := analog.NormalizedMagnitude(mag, settings.StickDeadzone)
		speed := analog.MouseCurve(norm, settings.MouseAcceleration, settings.MouseSensitivity)
		fx, fy := p.mouseLP.Apply(left.X/mag, left.Y/mag, norm, dt)
		moveX = fx * speed * mouseUnitsPerSecond * dt
		moveY = fy * speed * mouseUnitsPerSecond * dt
	} else {
		p.mouseLP.Reset()
	}

	// Right stick drives scrolling.
	var scrollX, scrollY float64
	if mag, ok := analog.CircularDeadzone(right.X, right.Y, settings.StickDeadzone); ok {
		norm := analog.NormalizedMagnitude(mag, settings.StickDeadzone)
		speed := analog.ScrollCurve(norm, settings.ScrollAcceleration, settings.ScrollSensitivity)
		sx := right.X / mag * speed * scrollUnitsPerSecond * dt
		sy := right.Y / mag * speed * scrollUnitsPerSecond * dt
		scrollX, scrollY = analog.SuppressHorizontalScroll(sx, sy, settings.ScrollDominanceRatio)
	}

	// Touchpad fling momentum.
	var flingX, flingY float64
	var flinging bool
	if dx, dy, ok := p.momentum.Tick(); ok {
		flingX, flingY = dx, dy
		flinging = true
	}
	p.analogMu.Unlock()

	sim := p.dispatcher.Simulator()
	if moveX != 0 || moveY != 0 {
		_ = sim.MoveMouse(moveX, moveY)
	}
	if scrollX != 0 || scrollY != 0 {
		_ = sim.Scroll(scrollX, scrollY)
	}
	if flinging {
		_ = sim.MoveMouse(flingX, flingY)
	}
}

// Pointer and scroll speeds at multiplier 1.0, and the scroll lines
// per unit of pinch scale.
const (
	mouseUnitsPerSecond  = 1000.0
	scrollUnitsPerSecond = 50.0
	pinchScrollScale     = 10.0
)

// Snapshot is a point-in-time view of engine state for overlay and UI
// layers. Safe to call from any goroutine.
type Snapshot struct {
	// Enabled reports whether the engine processes input.
	Enabled bool

	// ProfileName is the active profile's name.
	ProfileName string

	// HeldModifiers is the union of modifiers held right now.
	HeldModifiers mapping.Modifier

	// ActiveHolds lists buttons with an open hold path.
	ActiveHolds []button.Button
}

// Snapshot returns the current engine state.
func (p *Pipeline) Snapshot() Snapshot {
	p.holdMu.Lock()
	holds := make([]button.Button, 0, len(p.holds))
	for b := range p.holds {
		holds = append(holds, b)
	}
	p.holdMu.Unlock()

	return Snapshot{
		Enabled:       p.enabled.Load(),
		ProfileName:   p.profile.Load().Name,
		HeldModifiers: p.dispatcher.Modifiers().Held(),
		ActiveHolds:   holds,
	}
}
