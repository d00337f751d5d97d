// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// DefaultFramesPerBuffer is the default capture buffer size
const DefaultFramesPerBuffer = 512

const (
	// maxReadFailures consecutive read errors end the capture loop
	maxReadFailures = 50
	readRetryDelay  = 10 * time.Millisecond
)

// Microphone delivers captured mono frames on Output while started
type Microphone interface {
	Start(ctx context.Context) error
	Stop() error
	Output() <-chan []float32
	Close() error
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	DeviceName string // empty or "default" selects the system default
}

// DefaultCaptureConfig returns the fixed speech capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: SampleRate,
		BufferSize: DefaultFramesPerBuffer,
	}
}

// Capture reads mono frames from a PortAudio input device
type Capture struct {
	cfg        CaptureConfig
	frames     chan []float32
	retryDelay time.Duration

	mu     sync.Mutex
	stream *portaudio.Stream
	stop   chan struct{}
	done   chan struct{}
	closed bool

	errMu sync.Mutex
	err   error
}

// NewCapture initializes PortAudio for capture. Close releases it.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Capture{
		cfg:        cfg,
		frames:     make(chan []float32, 256),
		retryDelay: readRetryDelay,
	}, nil
}

// Start opens the input stream and delivers frames on Output until ctx
// ends or Stop is called.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return errors.New("capture closed")
	case c.stream != nil:
		return errors.New("capture already running")
	}

	buf := make([]float32, c.cfg.BufferSize)
	stream, err := c.open(buf)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.setErr(nil)
	c.stream = stream
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.read(ctx, stream.Read, buf, c.stop, c.done)
	return nil
}

func (c *Capture) open(buf []float32) (*portaudio.Stream, error) {
	name := c.cfg.DeviceName
	if name == "" || name == "default" {
		return portaudio.OpenDefaultStream(Channels, 0, c.cfg.SampleRate, len(buf), buf)
	}

	device, err := findInputDevice(name)
	if err != nil {
		// unknown names fall back to the default input
		return portaudio.OpenDefaultStream(Channels, 0, c.cfg.SampleRate, len(buf), buf)
	}
	params := portaudio.LowLatencyParameters(device, nil)
	params.Input.Channels = Channels
	params.SampleRate = c.cfg.SampleRate
	params.FramesPerBuffer = len(buf)
	return portaudio.OpenStream(params, buf)
}

// read copies each filled buffer onto the frames channel. A full channel
// blocks the loop; frames are never dropped. Failed reads are retried after
// retryDelay until maxReadFailures in a row, which ends the loop and is
// reported by Err.
func (c *Capture) read(ctx context.Context, next func() error, buf []float32, stop, done chan struct{}) {
	defer close(done)

	failures := 0
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		// overflow is reported as an error but the buffer is still valid
		if err := next(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			failures++
			if failures >= maxReadFailures {
				c.setErr(fmt.Errorf("audio input failed %d times: %w", failures, err))
				return
			}
			select {
			case <-time.After(c.retryDelay):
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		failures = 0

		frame := make([]float32, len(buf))
		copy(frame, buf)

		select {
		case c.frames <- frame:
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends the read loop and closes the stream
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	close(c.stop)
	<-c.done

	stream := c.stream
	c.stream = nil
	stream.Stop()
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}

// Close stops capture and terminates PortAudio. Output is closed afterwards.
func (c *Capture) Close() error {
	stopErr := c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return stopErr
	}
	c.closed = true
	close(c.frames)

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return stopErr
}

// Output returns the channel that receives captured frames
func (c *Capture) Output() <-chan []float32 {
	return c.frames
}

// Err returns the error that ended the last read loop, if any
func (c *Capture) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Capture) setErr(err error) {
	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()
}

// Running reports whether a stream is open
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && dev.Name == name {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

// DeviceInfo holds information about an audio device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// ListDevices returns all PortAudio devices
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	var defaultIn, defaultOut string
	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil {
		defaultIn = dev.Name
	}
	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil {
		defaultOut = dev.Name
	}

	result := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		result = append(result, DeviceInfo{
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefaultInput:    dev.Name == defaultIn,
			IsDefaultOutput:   dev.Name == defaultOut,
		})
	}

	return result, nil
}
