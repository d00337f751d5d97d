// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     audio
// Description: Seekable clip playback through PortAudio
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gordonklaus/portaudio"
)

// Status is a snapshot of a player's transport
type Status struct {
	Position      time.Duration
	Duration      time.Duration
	Playing       bool
	DidJustFinish bool
}

// Player is a loaded, seekable clip
type Player interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	Status() (Status, error)
	Duration() time.Duration
	Close() error
}

// Decoder loads a clip file into a Player
type Decoder func(path string) (Player, error)

// Sink receives decoded mono frames. Write blocks for roughly the playback
// time of the frames it is given.
type Sink interface {
	Open(sampleRate float64, framesPerBuffer int) error
	Write(frames []float32) error
	Close() error
}

// PlayerConfig holds configuration for clip playback
type PlayerConfig struct {
	BufferSize int
	NewSink    func() Sink
}

// StreamPlayer streams a decoded clip into a Sink
type StreamPlayer struct {
	mu         sync.Mutex
	stream     beep.StreamSeekCloser
	format     beep.Format
	bufferSize int
	newSink    func() Sink

	playing  bool
	finished bool
	closed   bool
	lastErr  error
	stop     chan struct{}
	done     chan struct{}
}

// OpenWAV decodes a WAV clip for playback on the default output device
func OpenWAV(path string) (Player, error) {
	player, err := OpenWAVWithConfig(path, PlayerConfig{})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// OpenWAVWithConfig decodes a WAV clip for playback
func OpenWAVWithConfig(path string, cfg PlayerConfig) (*StreamPlayer, error) {
	stream, format, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return NewStreamPlayer(stream, format, cfg), nil
}

// NewStreamPlayer wraps a decoded stream
func NewStreamPlayer(stream beep.StreamSeekCloser, format beep.Format, cfg PlayerConfig) *StreamPlayer {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.NewSink == nil {
		cfg.NewSink = func() Sink { return &portaudioSink{} }
	}
	return &StreamPlayer{
		stream:     stream,
		format:     format,
		bufferSize: cfg.BufferSize,
		newSink:    cfg.NewSink,
	}
}

// Play starts or resumes playback from the current position
func (p *StreamPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("player closed")
	}
	if p.playing {
		return nil
	}

	sink := p.newSink()
	if err := sink.Open(float64(p.format.SampleRate), p.bufferSize); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	p.playing = true
	p.finished = false
	p.lastErr = nil
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(sink, p.stop, p.done)
	return nil
}

func (p *StreamPlayer) run(sink Sink, stop, done chan struct{}) {
	defer close(done)
	defer sink.Close()

	buf := make([][2]float64, p.bufferSize)
	out := make([]float32, p.bufferSize)

	for {
		select {
		case <-stop:
			return
		default:
		}

		p.mu.Lock()
		n, ok := p.stream.Stream(buf)
		p.mu.Unlock()

		for i := 0; i < n; i++ {
			out[i] = float32((buf[i][0] + buf[i][1]) / 2)
		}
		for i := n; i < len(out); i++ {
			out[i] = 0
		}

		if n > 0 {
			if err := sink.Write(out); err != nil {
				p.mu.Lock()
				p.playing = false
				p.lastErr = err
				p.mu.Unlock()
				return
			}
		}

		if !ok || n < len(buf) {
			p.mu.Lock()
			p.playing = false
			p.finished = true
			p.mu.Unlock()
			return
		}
	}
}

// Pause stops output and waits for the streaming goroutine to exit
func (p *StreamPlayer) Pause() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.playing = false
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// Seek moves the read position, clamped to the clip bounds
func (p *StreamPlayer) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("player closed")
	}

	n := p.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if n > p.stream.Len() {
		n = p.stream.Len()
	}
	if err := p.stream.Seek(n); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	p.finished = false
	return nil
}

// Status returns the current transport snapshot
func (p *StreamPlayer) Status() (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Status{}, fmt.Errorf("player closed")
	}

	return Status{
		Position:      p.format.SampleRate.D(p.stream.Position()),
		Duration:      p.format.SampleRate.D(p.stream.Len()),
		Playing:       p.playing,
		DidJustFinish: p.finished,
	}, p.lastErr
}

// Duration returns the clip length
func (p *StreamPlayer) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format.SampleRate.D(p.stream.Len())
}

// Close stops playback and releases the decoder
func (p *StreamPlayer) Close() error {
	p.Pause()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.stream.Close()
}

// portaudioSink writes frames to the default output device
type portaudioSink struct {
	stream *portaudio.Stream
	buffer []float32
}

func (s *portaudioSink) Open(sampleRate float64, framesPerBuffer int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	s.buffer = make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, Channels, sampleRate, framesPerBuffer, s.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start output stream: %w", err)
	}

	s.stream = stream
	return nil
}

func (s *portaudioSink) Write(frames []float32) error {
	copy(s.buffer, frames)
	return s.stream.Write()
}

func (s *portaudioSink) Close() error {
	if s.stream == nil {
		return nil
	}
	s.stream.Stop()
	err := s.stream.Close()
	s.stream = nil
	portaudio.Terminate()
	return err
}
