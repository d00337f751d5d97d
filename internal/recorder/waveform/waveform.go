// Package waveform derives the display waveform of a clip and maps between
// playback positions and waveform coordinates.
package waveform

import (
	"math"
	"math/rand"
)

const (
	// DefaultMaxSamples caps the number of bars in a waveform
	DefaultMaxSamples = 100

	// SampleSpacingMs is the clip time covered by one bar
	SampleSpacingMs = 100
)

// AmplitudeSource produces n display amplitudes for a clip of durationMs
type AmplitudeSource interface {
	Amplitudes(n int, durationMs int64) []float64
}

// RandomSource produces uniformly distributed amplitudes in [Min, Max].
// The generator is seeded by the clip duration, so the same clip always
// yields the same waveform.
type RandomSource struct {
	Min float64
	Max float64
}

// DefaultSource returns the standard [0.1, 0.9] random source
func DefaultSource() RandomSource {
	return RandomSource{Min: 0.1, Max: 0.9}
}

// Amplitudes implements AmplitudeSource
func (s RandomSource) Amplitudes(n int, durationMs int64) []float64 {
	rng := rand.New(rand.NewSource(durationMs))
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Min + rng.Float64()*(s.Max-s.Min)
	}
	return out
}

// Model is an ordered sequence of amplitudes in [0, 1]
type Model struct {
	Samples []float64
}

// Count returns min(maxSamples, floor(durationMs/100)), never negative.
// maxSamples is itself capped at DefaultMaxSamples.
func Count(durationMs int64, maxSamples int) int {
	if maxSamples <= 0 || maxSamples > DefaultMaxSamples {
		maxSamples = DefaultMaxSamples
	}
	if durationMs <= 0 {
		return 0
	}
	n := durationMs / SampleSpacingMs
	if n > int64(maxSamples) {
		return maxSamples
	}
	return int(n)
}

// Build derives the waveform for a clip
func Build(src AmplitudeSource, durationMs int64, maxSamples int) Model {
	n := Count(durationMs, maxSamples)
	if n == 0 {
		return Model{}
	}

	samples := src.Amplitudes(n, durationMs)
	for i, v := range samples {
		samples[i] = clamp(v, 0, 1)
	}
	return Model{Samples: samples[:n]}
}

// Len returns the number of bars
func (m Model) Len() int {
	return len(m.Samples)
}

// IsEmpty reports whether the model has no bars
func (m Model) IsEmpty() bool {
	return len(m.Samples) == 0
}

// Played reports whether bar i lies before the playback cursor. It is
// derived from the position on every call and never stored.
func (m Model) Played(i int, positionMs, durationMs int64) bool {
	n := len(m.Samples)
	if n == 0 || durationMs <= 0 || i < 0 || i >= n {
		return false
	}
	return float64(i)/float64(n) < float64(positionMs)/float64(durationMs)
}

// PlayedCount returns how many leading bars are played
func (m Model) PlayedCount(positionMs, durationMs int64) int {
	count := 0
	for i := range m.Samples {
		if !m.Played(i, positionMs, durationMs) {
			break
		}
		count++
	}
	return count
}

// ProgressFraction returns position/duration clamped to [0, 1]
func ProgressFraction(positionMs, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return clamp(float64(positionMs)/float64(durationMs), 0, 1)
}

// TapToPosition maps a horizontal fraction of the waveform to a clip
// position, clamped to [0, durationMs]
func TapToPosition(fraction float64, durationMs int64) int64 {
	if durationMs <= 0 {
		return 0
	}
	return int64(clamp(fraction, 0, 1) * float64(durationMs))
}

// clamp maps NaN to lo
func clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
