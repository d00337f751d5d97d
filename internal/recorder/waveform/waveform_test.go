package waveform

import (
	"math"
	"testing"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name       string
		durationMs int64
		maxSamples int
		want       int
	}{
		{"zero", 0, DefaultMaxSamples, 0},
		{"negative", -500, DefaultMaxSamples, 0},
		{"below one bar", 99, DefaultMaxSamples, 0},
		{"one bar", 100, DefaultMaxSamples, 1},
		{"five seconds", 5000, DefaultMaxSamples, 50},
		{"capped", 30000, DefaultMaxSamples, 100},
		{"exactly cap", 10000, DefaultMaxSamples, 100},
		{"smaller max", 30000, 40, 40},
		{"unset max", 30000, 0, 100},
		{"max above cap", 60000, 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.durationMs, tt.maxSamples); got != tt.want {
				t.Errorf("Count(%d, %d) = %d, want %d", tt.durationMs, tt.maxSamples, got, tt.want)
			}
		})
	}
	if got := Build(DefaultSource(), 60000, 500).Len(); got != DefaultMaxSamples {
		t.Errorf("Build(60s, 500).Len() = %d, want %d", got, DefaultMaxSamples)
	}
}

func TestBuild_RangeAndDeterminism(t *testing.T) {
	src := DefaultSource()

	for _, d := range []int64{100, 2500, 5000, 60000} {
		m := Build(src, d, DefaultMaxSamples)
		if m.Len() != Count(d, DefaultMaxSamples) {
			t.Errorf("Build(%d).Len() = %d, want %d", d, m.Len(), Count(d, DefaultMaxSamples))
		}
		for i, v := range m.Samples {
			if v < 0.1 || v > 0.9 {
				t.Errorf("Build(%d) sample %d = %v, outside [0.1, 0.9]", d, i, v)
			}
		}

		again := Build(src, d, DefaultMaxSamples)
		for i := range m.Samples {
			if m.Samples[i] != again.Samples[i] {
				t.Fatalf("Build(%d) is not deterministic at %d", d, i)
			}
		}
	}

	if !Build(src, 0, DefaultMaxSamples).IsEmpty() {
		t.Error("zero duration should produce an empty waveform")
	}
}

type fixedSource float64

func (f fixedSource) Amplitudes(n int, _ int64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(f)
	}
	return out
}

func TestBuild_ClampsSource(t *testing.T) {
	m := Build(fixedSource(1.7), 1000, DefaultMaxSamples)
	for _, v := range m.Samples {
		if v != 1 {
			t.Fatalf("sample = %v, want clamped 1", v)
		}
	}
}

func TestModel_Played(t *testing.T) {
	m := Build(fixedSource(0.5), 10000, DefaultMaxSamples) // 100 bars

	tests := []struct {
		name       string
		positionMs int64
		wantCount  int
	}{
		{"start", 0, 0},
		{"quarter", 2500, 25},
		{"just past quarter", 2501, 26},
		{"end", 10000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.PlayedCount(tt.positionMs, 10000); got != tt.wantCount {
				t.Errorf("PlayedCount(%d) = %d, want %d", tt.positionMs, got, tt.wantCount)
			}
		})
	}

	if m.Played(-1, 5000, 10000) || m.Played(100, 5000, 10000) {
		t.Error("out of range indexes are never played")
	}
	if m.Played(0, 5000, 0) {
		t.Error("zero duration has no played bars")
	}
}

func TestTapToPosition(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int64
	}{
		{0, 0},
		{0.5, 2500},
		{1, 5000},
		{-0.2, 0},
		{1.4, 5000},
		{math.NaN(), 0},
		{math.Inf(1), 5000},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		if got := TapToPosition(tt.fraction, 5000); got != tt.want {
			t.Errorf("TapToPosition(%v) = %d, want %d", tt.fraction, got, tt.want)
		}
	}
	if TapToPosition(0.5, 0) != 0 {
		t.Error("TapToPosition with zero duration should be 0")
	}
}

func TestProgressFraction(t *testing.T) {
	if got := ProgressFraction(1250, 5000); got != 0.25 {
		t.Errorf("ProgressFraction() = %v, want 0.25", got)
	}
	if got := ProgressFraction(6000, 5000); got != 1 {
		t.Errorf("ProgressFraction() = %v, want 1", got)
	}
	if got := ProgressFraction(100, 0); got != 0 {
		t.Errorf("ProgressFraction() = %v, want 0", got)
	}
}
