// Package config loads the engine tuning file. Tuning covers the
// timing and threshold constants the pipeline runs on; per-user button
// mappings live in profiles, owned by the profile-management layer.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/controlmap/internal/classify"
	"github.com/dshills/controlmap/internal/motion"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "CONTROLMAP_"

// Tuning is the typed engine configuration. Zero fields fall back to
// the tuned defaults at Sanitize time.
type Tuning struct {
	// Logging.
	LogLevel string `toml:"logLevel"`

	// Classifier timing, all in milliseconds in the file.
	ChordWindowMs         int `toml:"chordWindowMs"`
	LongHoldThresholdMs   int `toml:"longHoldThresholdMs"`
	DoubleTapThresholdMs  int `toml:"doubleTapThresholdMs"`
	SequenceStepTimeoutMs int `toml:"sequenceStepTimeoutMs"`

	// Analog polling interval for the stick/touchpad queue.
	AnalogPollMs int `toml:"analogPollMs"`

	// Motion gesture detector thresholds.
	Motion MotionTuning `toml:"motion"`
}

// MotionTuning holds per-axis gesture thresholds. Velocities are in
// radians per second, durations in milliseconds.
type MotionTuning struct {
	PitchActivation    float64 `toml:"pitchActivation"`
	RollActivation     float64 `toml:"rollActivation"`
	MinPeakVelocity    float64 `toml:"minPeakVelocity"`
	CompletionRatio    float64 `toml:"completionRatio"`
	MaxDurationMs      int     `toml:"maxDurationMs"`
	CooldownMs         int     `toml:"cooldownMs"`
	OppositeCooldownMs int     `toml:"oppositeCooldownMs"`
	SettleThreshold    float64 `toml:"settleThreshold"`
}

// Default returns the tuned defaults.
func Default() Tuning {
	pitch := motion.DefaultPitchConfig()
	roll := motion.DefaultRollConfig()
	return Tuning{
		LogLevel:              "info",
		ChordWindowMs:         50,
		LongHoldThresholdMs:   500,
		DoubleTapThresholdMs:  300,
		SequenceStepTimeoutMs: 1000,
		AnalogPollMs:          8,
		Motion: MotionTuning{
			PitchActivation:    pitch.ActivationThreshold,
			RollActivation:     roll.ActivationThreshold,
			MinPeakVelocity:    pitch.MinPeakVelocity,
			CompletionRatio:    pitch.CompletionRatio,
			MaxDurationMs:      int(pitch.MaxDuration / time.Millisecond),
			CooldownMs:         int(pitch.Cooldown / time.Millisecond),
			OppositeCooldownMs: int(pitch.OppositeCooldown / time.Millisecond),
			SettleThreshold:    pitch.SettleThreshold,
		},
	}
}

// Load reads the tuning file at path, overlaying the file on defaults
// and environment overrides on the file. A missing file is not an
// error: defaults plus environment apply.
func Load(path string) (Tuning, error) {
	t := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return t, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &t); err != nil {
				return t, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&t)
	t.Sanitize()
	return t, nil
}

// Parse reads tuning from TOML bytes without touching the filesystem
// or environment.
func Parse(data []byte) (Tuning, error) {
	t := Default()
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing config: %w", err)
	}
	t.Sanitize()
	return t, nil
}

// Sanitize replaces non-positive values with defaults so a sparse or
// damaged file cannot produce degenerate timers.
func (t *Tuning) Sanitize() {
	def := Default()
	intDef := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	floatDef := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	if t.LogLevel == "" {
		t.LogLevel = def.LogLevel
	}
	intDef(&t.ChordWindowMs, def.ChordWindowMs)
	intDef(&t.LongHoldThresholdMs, def.LongHoldThresholdMs)
	intDef(&t.DoubleTapThresholdMs, def.DoubleTapThresholdMs)
	intDef(&t.SequenceStepTimeoutMs, def.SequenceStepTimeoutMs)
	intDef(&t.AnalogPollMs, def.AnalogPollMs)
	floatDef(&t.Motion.PitchActivation, def.Motion.PitchActivation)
	floatDef(&t.Motion.RollActivation, def.Motion.RollActivation)
	floatDef(&t.Motion.MinPeakVelocity, def.Motion.MinPeakVelocity)
	floatDef(&t.Motion.CompletionRatio, def.Motion.CompletionRatio)
	intDef(&t.Motion.MaxDurationMs, def.Motion.MaxDurationMs)
	intDef(&t.Motion.CooldownMs, def.Motion.CooldownMs)
	intDef(&t.Motion.OppositeCooldownMs, def.Motion.OppositeCooldownMs)
	floatDef(&t.Motion.SettleThreshold, def.Motion.SettleThreshold)
}

// ClassifierConfig converts the tuning to the classifier's config.
func (t Tuning) ClassifierConfig() classify.Config {
	return classify.Config{
		ChordWindow:         time.Duration(t.ChordWindowMs) * time.Millisecond,
		LongHoldThreshold:   time.Duration(t.LongHoldThresholdMs) * time.Millisecond,
		DoubleTapThreshold:  time.Duration(t.DoubleTapThresholdMs) * time.Millisecond,
		SequenceStepTimeout: time.Duration(t.SequenceStepTimeoutMs) * time.Millisecond,
	}
}

// MotionConfigs converts the tuning to the two axis detector configs,
// pitch then roll.
func (t Tuning) MotionConfigs() (motion.AxisConfig, motion.AxisConfig) {
	base := motion.AxisConfig{
		MinPeakVelocity:  t.Motion.MinPeakVelocity,
		CompletionRatio:  t.Motion.CompletionRatio,
		MaxDuration:      time.Duration(t.Motion.MaxDurationMs) * time.Millisecond,
		Cooldown:         time.Duration(t.Motion.CooldownMs) * time.Millisecond,
		OppositeCooldown: time.Duration(t.Motion.OppositeCooldownMs) * time.Millisecond,
		SettleThreshold:  t.Motion.SettleThreshold,
	}
	pitch := base
	pitch.ActivationThreshold = t.Motion.PitchActivation
	roll := base
	roll.ActivationThreshold = t.Motion.RollActivation
	return pitch, roll
}

// AnalogPollInterval returns the analog queue tick interval.
func (t Tuning) AnalogPollInterval() time.Duration {
	return time.Duration(t.AnalogPollMs) * time.Millisecond
}
