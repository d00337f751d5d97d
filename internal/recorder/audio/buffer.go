// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     audio
// Description: Chunked sample store for in-progress recordings
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package audio

import (
	"math"
	"sync"
	"time"
)

// SampleBuffer collects captured frames without reallocating on growth.
// Frames are kept as delivered and only flattened by Samples.
type SampleBuffer struct {
	mu     sync.RWMutex
	chunks [][]float32
	count  int
}

// NewSampleBuffer creates an empty buffer
func NewSampleBuffer() *SampleBuffer {
	return &SampleBuffer{chunks: make([][]float32, 0, 64)}
}

// Write stores a frame. The buffer takes ownership of frame.
func (b *SampleBuffer) Write(frame []float32) {
	if len(frame) == 0 {
		return
	}
	b.mu.Lock()
	b.chunks = append(b.chunks, frame)
	b.count += len(frame)
	b.mu.Unlock()
}

// Samples returns all frames as one contiguous copy
func (b *SampleBuffer) Samples() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]float32, 0, b.count)
	for _, chunk := range b.chunks {
		out = append(out, chunk...)
	}
	return out
}

// Len returns the number of samples written
func (b *SampleBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Duration returns the buffered length at sampleRate
func (b *SampleBuffer) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(sampleRate)
}

// RMS returns the root mean square of the most recent window samples
func (b *SampleBuffer) RMS(window int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if window > b.count {
		window = b.count
	}
	if window <= 0 {
		return 0
	}

	var sum float64
	remaining := window
	for i := len(b.chunks) - 1; i >= 0 && remaining > 0; i-- {
		chunk := b.chunks[i]
		start := len(chunk) - remaining
		if start < 0 {
			start = 0
		}
		for _, s := range chunk[start:] {
			sum += float64(s) * float64(s)
		}
		remaining -= len(chunk) - start
	}
	return math.Sqrt(sum / float64(window))
}

// Reset drops all samples
func (b *SampleBuffer) Reset() {
	b.mu.Lock()
	b.chunks = b.chunks[:0]
	b.count = 0
	b.mu.Unlock()
}
