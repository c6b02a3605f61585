package analog

import (
	"math"
	"testing"
)

func TestStickFilterFirstSamplePasses(t *testing.T) {
	f := NewStickFilter()
	x, y := f.Apply(0.5, -0.25, 0.5, 0.008)
	if x != 0.5 || y != -0.25 {
		t.Fatalf("first sample filtered: (%v, %v)", x, y)
	}
}

func TestStickFilterConverges(t *testing.T) {
	f := NewStickFilter()
	f.Apply(0, 0, 0, 0.008)

	var x, y float64
	for i := 0; i < 200; i++ {
		x, y = f.Apply(1, 0, 1, 0.008)
	}
	if math.Abs(x-1) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Fatalf("filter did not converge: (%v, %v)", x, y)
	}
}

func TestStickFilterTracksFasterAtHighMagnitude(t *testing.T) {
	slow := NewStickFilter()
	fast := NewStickFilter()
	slow.Apply(0, 0, 0, 0.008)
	fast.Apply(0, 0, 0, 0.008)

	sx, _ := slow.Apply(1, 0, 0.1, 0.008)
	fx, _ := fast.Apply(1, 0, 1.0, 0.008)
	if fx <= sx {
		t.Fatalf("high magnitude not faster: low=%v high=%v", sx, fx)
	}
}

func TestStickFilterReset(t *testing.T) {
	f := NewStickFilter()
	f.Apply(1, 1, 1, 0.008)
	f.Reset()
	x, y := f.Apply(0.2, 0.3, 0.5, 0.008)
	if x != 0.2 || y != 0.3 {
		t.Fatalf("reset filter kept history: (%v, %v)", x, y)
	}
}

func TestTouchAlpha(t *testing.T) {
	tests := []struct {
		smoothing float64
		want      float64
	}{
		{0, 1},
		{0.3, 0.7},
		{0.5, 0.5},
		{0.99, touchpadMinAlpha},
		{1, touchpadMinAlpha},
		{-1, 1},   // clamps to zero smoothing
		{2, 0.05}, // clamps to full smoothing
	}
	for _, tt := range tests {
		got := TouchAlpha(tt.smoothing)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TouchAlpha(%v) = %v, want %v", tt.smoothing, got, tt.want)
		}
	}
}

func TestTouchFilterSmoothing(t *testing.T) {
	f := NewTouchFilter(0.5)
	f.Apply(0, 0)
	dx, _ := f.Apply(10, 0)
	if dx != 5 {
		t.Fatalf("EMA step = %v, want 5", dx)
	}
}

func TestTouchFilterZeroSmoothingPassesThrough(t *testing.T) {
	f := NewTouchFilter(0)
	f.Apply(3, 4)
	dx, dy := f.Apply(10, -10)
	if dx != 10 || dy != -10 {
		t.Fatalf("passthrough filtered: (%v, %v)", dx, dy)
	}
}

func TestMomentumLifecycle(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())

	// Below the stop velocity nothing starts.
	m.Start(0.001, 0)
	if m.Active() {
		t.Fatal("momentum started below stop velocity")
	}

	m.Start(2, 0)
	if !m.Active() {
		t.Fatal("momentum did not start")
	}

	dx, _, ok := m.Tick()
	if !ok || dx <= 0 {
		t.Fatalf("first tick = (%v, %v)", dx, ok)
	}

	// Decay terminates it eventually.
	for i := 0; i < 1000 && m.Active(); i++ {
		m.Tick()
	}
	if m.Active() {
		t.Fatal("momentum never terminated")
	}
	if _, _, ok := m.Tick(); ok {
		t.Fatal("terminated momentum still ticking")
	}
}

func TestMomentumBoostScalesFastFlicks(t *testing.T) {
	cfg := DefaultMomentumConfig()
	slow := NewMomentum(cfg)
	fast := NewMomentum(cfg)

	slow.Start(0.4, 0) // below boost start
	fast.Start(5, 0)   // beyond boost max

	sx, _, _ := slow.Tick()
	fx, _, _ := fast.Tick()
	if math.Abs(sx-0.4) > 1e-9 {
		t.Errorf("slow flick boosted: %v", sx)
	}
	if math.Abs(fx-5*cfg.Boost) > 1e-9 {
		t.Errorf("fast flick = %v, want %v", fx, 5*cfg.Boost)
	}
}

func TestMomentumStop(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())
	m.Start(2, 2)
	m.Stop()
	if m.Active() {
		t.Fatal("stopped momentum still active")
	}
}
