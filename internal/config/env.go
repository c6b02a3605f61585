package config

import (
	"os"
	"strconv"
)

// envMapping maps environment variables to tuning fields. Only the
// commonly tweaked knobs are exposed; everything else needs the file.
func applyEnv(t *Tuning) {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok && v != "" {
		t.LogLevel = v
	}
	envInt(EnvPrefix+"CHORD_WINDOW_MS", &t.ChordWindowMs)
	envInt(EnvPrefix+"LONG_HOLD_MS", &t.LongHoldThresholdMs)
	envInt(EnvPrefix+"DOUBLE_TAP_MS", &t.DoubleTapThresholdMs)
	envInt(EnvPrefix+"SEQUENCE_STEP_MS", &t.SequenceStepTimeoutMs)
	envInt(EnvPrefix+"ANALOG_POLL_MS", &t.AnalogPollMs)
}

// envInt overwrites dst when the variable holds a positive integer.
func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	*dst = n
}
