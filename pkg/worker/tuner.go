package worker

import (
	"math"
	"time"
)

// TunerConfig bounds the adaptive flush tuner.
type TunerConfig struct {
	InitialBatch    int
	MinBatch        int
	MaxBatch        int
	InitialInterval time.Duration
	MinInterval     time.Duration
	MaxInterval     time.Duration

	// A flush closer than FrequentBelow to the previous one is too frequent.
	FrequentBelow time.Duration
	// A flush with fewer than SmallBelow items is too small.
	SmallBelow int
	// A flush further than SlowAbove from the previous one, carrying at
	// least BacklogFactor times the batch threshold, is too slow.
	SlowAbove     time.Duration
	BacklogFactor float64
}

// DefaultTunerConfig returns the bounds used by [DefaultConfig].
func DefaultTunerConfig() TunerConfig {
	return TunerConfig{
		InitialBatch:    500,
		MinBatch:        50,
		MaxBatch:        20000,
		InitialInterval: 50 * time.Millisecond,
		MinInterval:     10 * time.Millisecond,
		MaxInterval:     time.Second,
		FrequentBelow:   16 * time.Millisecond,
		SmallBelow:      100,
		SlowAbove:       250 * time.Millisecond,
		BacklogFactor:   2,
	}
}

const (
	growFactor   = 1.5
	shrinkFactor = 0.75
)

// Tuner adjusts the partial-flush thresholds of a single job. It is owned
// by one job and is not safe for concurrent use.
type Tuner struct {
	cfg      TunerConfig
	batch    int
	interval time.Duration
}

// NewTuner returns a tuner starting at the configured initial thresholds.
func NewTuner(cfg TunerConfig) *Tuner {
	t := &Tuner{cfg: cfg}
	t.Reset()
	return t
}

// Reset restores the initial thresholds.
func (t *Tuner) Reset() {
	t.batch = clampInt(t.cfg.InitialBatch, t.cfg.MinBatch, t.cfg.MaxBatch)
	t.interval = clampDuration(t.cfg.InitialInterval, t.cfg.MinInterval, t.cfg.MaxInterval)
}

// Scale multiplies both thresholds by f, within bounds.
func (t *Tuner) Scale(f float64) {
	t.batch = clampInt(int(math.Ceil(float64(t.batch)*f)), t.cfg.MinBatch, t.cfg.MaxBatch)
	t.interval = clampDuration(time.Duration(float64(t.interval)*f), t.cfg.MinInterval, t.cfg.MaxInterval)
}

// Batch returns the minimum number of items per flush.
func (t *Tuner) Batch() int { return t.batch }

// Interval returns the minimum time between flushes.
func (t *Tuner) Interval() time.Duration { return t.interval }

// Adjustment is the outcome of one [Tuner.Observe] call.
type Adjustment int8

const (
	Shrunk Adjustment = -1
	Kept   Adjustment = 0
	Grown  Adjustment = 1
)

// Observe records a flush of size items, sinceLast after the previous flush,
// and adjusts the thresholds.
func (t *Tuner) Observe(size int, sinceLast time.Duration) Adjustment {
	switch {
	case sinceLast < t.cfg.FrequentBelow || size < t.cfg.SmallBelow:
		t.Scale(growFactor)
		return Grown
	case sinceLast > t.cfg.SlowAbove && float64(size) >= t.cfg.BacklogFactor*float64(t.batch):
		t.Scale(shrinkFactor)
		return Shrunk
	}
	return Kept
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	return max(lo, min(v, hi))
}
