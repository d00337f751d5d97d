// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     audio
// Description: WAV encoding and decoding backed by beep
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Format returns the beep format for 16-bit mono PCM at sampleRate
func Format(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: Channels,
		Precision:   2,
	}
}

// WriteWAV encodes mono samples as a 16-bit PCM WAV file. A partially
// written file is removed on failure.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := wav.Encode(f, monoStreamer(samples), Format(sampleRate)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode WAV: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// monoStreamer duplicates mono samples into beep's stereo frames
func monoStreamer(samples []float32) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < len(samples) {
			v := float64(samples[pos])
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			buf[n][0], buf[n][1] = v, v
			n++
			pos++
		}
		return n, true
	})
}

// decodeFile opens and decodes a WAV file
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	stream, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode WAV: %w", err)
	}
	return stream, format, nil
}

// ReadWAVInfo returns the duration of a WAV file
func ReadWAVInfo(path string) (time.Duration, error) {
	stream, format, err := decodeFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	return format.SampleRate.D(stream.Len()), nil
}

// ReadSamples decodes a WAV file into mono float32 samples
func ReadSamples(path string) ([]float32, int, error) {
	stream, format, err := decodeFile(path)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	samples := make([]float32, 0, stream.Len())
	buf := make([][2]float64, 1024)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV: %w", err)
	}

	return samples, int(format.SampleRate), nil
}
