package analog

import "math"

// MomentumConfig tunes the flick momentum model.
type MomentumConfig struct {
	// Decay is the per-tick velocity retention factor in (0, 1).
	Decay float64

	// StopVelocity terminates momentum once speed drops below it.
	StopVelocity float64

	// BoostStartVelocity is the release speed at which boost begins
	// to apply.
	BoostStartVelocity float64

	// BoostMaxVelocity is the release speed at which the full Boost
	// factor applies.
	BoostMaxVelocity float64

	// Boost is the maximum initial-velocity scale factor. 1 disables
	// boosting.
	Boost float64
}

// DefaultMomentumConfig returns the tuned defaults.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		Decay:              0.95,
		StopVelocity:       0.01,
		BoostStartVelocity: 0.5,
		BoostMaxVelocity:   3.0,
		Boost:              1.5,
	}
}

// Momentum carries touchpad velocity forward after the finger lifts,
// decaying it exponentially each tick. One instance per touch source;
// not safe for concurrent use.
type Momentum struct {
	cfg    MomentumConfig
	vx, vy float64
	active bool
}

// NewMomentum returns an idle momentum model.
func NewMomentum(cfg MomentumConfig) *Momentum {
	if cfg.Decay <= 0 || cfg.Decay >= 1 {
		cfg.Decay = 0.95
	}
	if cfg.StopVelocity <= 0 {
		cfg.StopVelocity = 0.01
	}
	return &Momentum{cfg: cfg}
}

// Start begins momentum from the release velocity. Fast flicks are
// scaled up linearly between BoostStartVelocity and BoostMaxVelocity
// up to the Boost factor.
func (m *Momentum) Start(vx, vy float64) {
	vx = sanitize(vx)
	vy = sanitize(vy)
	speed := math.Hypot(vx, vy)
	if speed < m.cfg.StopVelocity {
		m.active = false
		return
	}
	boost := m.boostFor(speed)
	m.vx = vx * boost
	m.vy = vy * boost
	m.active = true
}

// boostFor interpolates the boost factor for a release speed.
func (m *Momentum) boostFor(speed float64) float64 {
	if m.cfg.Boost <= 1 || m.cfg.BoostMaxVelocity <= m.cfg.BoostStartVelocity {
		return 1
	}
	if speed <= m.cfg.BoostStartVelocity {
		return 1
	}
	if speed >= m.cfg.BoostMaxVelocity {
		return m.cfg.Boost
	}
	t := (speed - m.cfg.BoostStartVelocity) / (m.cfg.BoostMaxVelocity - m.cfg.BoostStartVelocity)
	return 1 + (m.cfg.Boost-1)*t
}

// Tick advances one frame and returns the displacement to apply. The
// third result is false once momentum has terminated.
func (m *Momentum) Tick() (float64, float64, bool) {
	if !m.active {
		return 0, 0, false
	}
	dx, dy := m.vx, m.vy
	m.vx *= m.cfg.Decay
	m.vy *= m.cfg.Decay
	if math.Hypot(m.vx, m.vy) < m.cfg.StopVelocity {
		m.active = false
	}
	return dx, dy, true
}

// Active reports whether momentum is still in flight.
func (m *Momentum) Active() bool {
	return m.active
}

// Stop terminates momentum immediately, e.g. when the finger touches
// down again.
func (m *Momentum) Stop() {
	m.active = false
	m.vx, m.vy = 0, 0
}
