// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     session
// Description: Audio session owning capture, the finalized clip and playback
// Author:      Mike Stoffels with Claude
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/vad"
	"github.com/msto63/meetrec/internal/recorder/waveform"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

const (
	// DefaultPollInterval is the playback position polling interval
	DefaultPollInterval = 100 * time.Millisecond

	// EndRewindThresholdMs rewinds playback that starts this close to the end
	EndRewindThresholdMs = 100
)

// SpeechAnalyzer measures speech in a finished recording
type SpeechAnalyzer interface {
	Analyze(samples []float32) (vad.Report, error)
}

// Config holds the collaborators and settings of an AudioSession
type Config struct {
	Microphone audio.Microphone
	Permission audio.PermissionRequester
	Decoder    audio.Decoder            // default audio.OpenWAV
	Analyzer   SpeechAnalyzer           // optional
	Amplitudes waveform.AmplitudeSource // default waveform.DefaultSource()

	ClipDir            string
	SampleRate         int
	MaxWaveformSamples int
	PollInterval       time.Duration
	Logger             *logging.Logger
}

// Snapshot is one playback position update
type Snapshot struct {
	PositionMs int64
	DidFinish  bool
}

// RecordingHandle is a live capture in progress
type RecordingHandle struct {
	ID        string
	StartedAt time.Time

	buffer *audio.SampleBuffer
	cancel context.CancelFunc
	done   chan struct{}
}

// PlayableSound is a decoded clip with transport state
type PlayableSound struct {
	player     audio.Player
	durationMs int64
	positionMs int64
	playing    bool
}

// AudioSession owns at most one of a RecordingHandle or a finalized clip
// with its PlayableSound and waveform.
type AudioSession struct {
	mic        audio.Microphone
	permission audio.PermissionRequester
	decoder    audio.Decoder
	analyzer   SpeechAnalyzer
	amplitudes waveform.AmplitudeSource

	clipDir      string
	sampleRate   int
	maxSamples   int
	pollInterval time.Duration
	logger       *logging.Logger

	mu     sync.Mutex
	handle *RecordingHandle
	clip   *audio.Clip
	sound  *PlayableSound
	wave   waveform.Model
	closed bool

	feed       chan Snapshot
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates an AudioSession
func New(cfg Config) (*AudioSession, error) {
	if cfg.Microphone == nil {
		return nil, apperr.New(apperr.CodeConfigError, "audio session requires a microphone")
	}
	if cfg.Permission == nil {
		cfg.Permission = audio.DevicePermission{}
	}
	if cfg.Decoder == nil {
		cfg.Decoder = audio.OpenWAV
	}
	if cfg.Amplitudes == nil {
		cfg.Amplitudes = waveform.DefaultSource()
	}
	if cfg.ClipDir == "" {
		cfg.ClipDir = filepath.Join(os.TempDir(), "meetrec")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.SampleRate
	}
	if cfg.MaxWaveformSamples == 0 {
		cfg.MaxWaveformSamples = waveform.DefaultMaxSamples
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("audio-session")
	}

	return &AudioSession{
		mic:          cfg.Microphone,
		permission:   cfg.Permission,
		decoder:      cfg.Decoder,
		analyzer:     cfg.Analyzer,
		amplitudes:   cfg.Amplitudes,
		clipDir:      cfg.ClipDir,
		sampleRate:   cfg.SampleRate,
		maxSamples:   cfg.MaxWaveformSamples,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
		feed:         make(chan Snapshot, 1),
	}, nil
}

// Start requests microphone access and begins capture. A loaded clip is
// released first. Calling Start while recording is a no-op.
func (s *AudioSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperr.New(apperr.CodeInvalidStateTransition, "cannot start: session closed")
	}
	if s.handle != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.permission.RequestMicrophone(ctx); err != nil {
		s.logger.Warn("Microphone permission not granted", "error", err)
		if errors.Is(err, audio.ErrPermissionDenied) {
			return apperr.Wrap(err, apperr.CodePermissionDenied, "microphone permission")
		}
		return apperr.Wrap(err, apperr.CodeCaptureFailed, "microphone permission")
	}

	s.Discard()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return nil
	}

	s.drainStaleFrames()

	recCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := s.mic.Start(recCtx); err != nil {
		cancel()
		s.logger.Error("Failed to start capture", "error", err)
		return apperr.Wrap(err, apperr.CodeCaptureFailed, "start capture")
	}

	h := &RecordingHandle{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		buffer:    audio.NewSampleBuffer(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go s.collect(recCtx, h)

	s.handle = h
	s.logger.Info("Recording started", "recording_id", h.ID)
	return nil
}

// drainStaleFrames discards frames left over from a previous capture
func (s *AudioSession) drainStaleFrames() {
	out := s.mic.Output()
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *AudioSession) collect(ctx context.Context, h *RecordingHandle) {
	defer close(h.done)

	out := s.mic.Output()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case samples, ok := <-out:
					if !ok {
						return
					}
					h.buffer.Write(samples)
				default:
					return
				}
			}
		case samples, ok := <-out:
			if !ok {
				return
			}
			h.buffer.Write(samples)
		}
	}
}

// Stop ends capture, finalizes the recording into a clip, decodes it for
// playback and builds the waveform. On failure the session returns to idle
// with no handle and no clip.
func (s *AudioSession) Stop() (audio.Clip, error) {
	s.mu.Lock()
	h := s.handle
	if h == nil {
		s.mu.Unlock()
		return audio.Clip{}, apperr.New(apperr.CodeInvalidStateTransition, "cannot stop: not recording")
	}
	s.handle = nil
	s.mu.Unlock()

	stopErr := s.mic.Stop()
	h.cancel()
	<-h.done

	if stopErr != nil {
		s.logger.Error("Failed to stop capture", "recording_id", h.ID, "error", stopErr)
		return audio.Clip{}, apperr.Wrap(stopErr, apperr.CodeCaptureFailed, "stop capture")
	}

	samples := h.buffer.Samples()
	clip, player, err := s.finalize(h.ID, samples)
	if err != nil {
		s.logger.Error("Failed to finalize recording", "recording_id", h.ID, "error", err)
		return audio.Clip{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		if err := player.Close(); err != nil {
			s.logger.Warn("Failed to release player", "error", err)
		}
		if err := clip.Remove(); err != nil {
			s.logger.Warn("Failed to remove clip", "clip", clip.SourceRef, "error", err)
		}
		return audio.Clip{}, apperr.New(apperr.CodeInvalidStateTransition, "session closed during stop")
	}

	s.clip = &clip
	s.sound = &PlayableSound{player: player, durationMs: clip.DurationMs}
	s.wave = waveform.Build(s.amplitudes, clip.DurationMs, s.maxSamples)

	s.logger.Info("Recording finalized",
		"recording_id", h.ID,
		"duration_ms", clip.DurationMs,
		"speech_ms", clip.SpeechMs,
		"clip", clip.SourceRef)
	return clip, nil
}

func (s *AudioSession) finalize(id string, samples []float32) (audio.Clip, audio.Player, error) {
	if err := os.MkdirAll(s.clipDir, 0755); err != nil {
		return audio.Clip{}, nil, apperr.Wrap(err, apperr.CodeCaptureFailed, "create clip directory")
	}

	path := filepath.Join(s.clipDir, "clip-"+id+".wav")
	if err := audio.WriteWAV(path, samples, s.sampleRate); err != nil {
		return audio.Clip{}, nil, apperr.Wrap(err, apperr.CodeCaptureFailed, "write clip")
	}

	player, err := s.decoder(path)
	if err != nil {
		os.Remove(path)
		decodeErr := apperr.Wrap(err, apperr.CodeDecodeFailed, "decode clip")
		return audio.Clip{}, nil, apperr.Wrap(decodeErr, apperr.CodeCaptureFailed, "finalize clip")
	}

	clip := audio.Clip{
		SourceRef:  path,
		DurationMs: player.Duration().Milliseconds(),
		SampleRate: s.sampleRate,
		CreatedAt:  time.Now(),
	}

	if s.analyzer != nil {
		report, err := s.analyzer.Analyze(samples)
		if err != nil {
			s.logger.Warn("Speech analysis failed", "error", err)
		} else {
			clip.SpeechMs = report.Speech.Milliseconds()
			clip.SpeechChecked = true
		}
	}

	return clip, player, nil
}

// Play starts playback. Playback positioned within the last 100ms of the
// clip, or reported finished, restarts from the beginning.
func (s *AudioSession) Play() error {
	s.mu.Lock()
	snd := s.sound
	if snd == nil {
		s.mu.Unlock()
		return apperr.New(apperr.CodeInvalidStateTransition, "cannot play: no clip loaded")
	}
	if snd.playing {
		s.mu.Unlock()
		return nil
	}

	st, statusErr := snd.player.Status()
	if statusErr == nil {
		snd.positionMs = clampMs(st.Position.Milliseconds(), snd.durationMs)
	}
	if (statusErr == nil && st.DidJustFinish) || snd.positionMs >= snd.durationMs-EndRewindThresholdMs {
		if err := snd.player.Seek(0); err != nil {
			s.mu.Unlock()
			return apperr.Wrap(err, apperr.CodePlaybackFailed, "rewind")
		}
		snd.positionMs = 0
	}

	if err := snd.player.Play(); err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to start playback", "error", err)
		return apperr.Wrap(err, apperr.CodePlaybackFailed, "play")
	}
	snd.playing = true

	wait := s.takePollerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.pollCancel, s.pollDone = cancel, done
	go s.poll(ctx, done)
	s.mu.Unlock()

	wait()
	return nil
}

// Pause halts playback and tears down the position poller before returning
func (s *AudioSession) Pause() error {
	s.mu.Lock()
	snd := s.sound
	if snd == nil {
		s.mu.Unlock()
		return apperr.New(apperr.CodeInvalidStateTransition, "cannot pause: no clip loaded")
	}
	if !snd.playing {
		s.mu.Unlock()
		return nil
	}

	if err := snd.player.Pause(); err != nil {
		s.logger.Warn("Failed to pause player", "error", err)
	}
	if st, err := snd.player.Status(); err == nil {
		snd.positionMs = clampMs(st.Position.Milliseconds(), snd.durationMs)
	}
	snd.playing = false

	wait := s.takePollerLocked()
	s.mu.Unlock()

	wait()
	return nil
}

// Seek moves playback to targetMs clamped to [0, duration]. The playing
// state is unchanged.
func (s *AudioSession) Seek(targetMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snd := s.sound
	if snd == nil {
		return apperr.New(apperr.CodeInvalidStateTransition, "cannot seek: no clip loaded")
	}

	target := clampMs(targetMs, snd.durationMs)
	if err := snd.player.Seek(time.Duration(target) * time.Millisecond); err != nil {
		s.logger.Error("Failed to seek", "target_ms", target, "error", err)
		return apperr.Wrap(err, apperr.CodePlaybackFailed, "seek")
	}
	snd.positionMs = target
	return nil
}

// PositionFeed returns the channel of playback snapshots. Snapshots are
// produced only while playing; a slow reader sees the latest one.
func (s *AudioSession) PositionFeed() <-chan Snapshot {
	return s.feed
}

func (s *AudioSession) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.tick(ctx) {
				return
			}
		}
	}
}

// tick samples the player once. It returns false when polling must stop.
func (s *AudioSession) tick(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snd := s.sound
	if ctx.Err() != nil || snd == nil || !snd.playing {
		return false
	}

	st, err := snd.player.Status()
	if err != nil {
		if st.Playing {
			s.logger.Warn("Failed to read playback status", "error", err)
			return true
		}
		s.logger.Error("Playback stopped with error", "position_ms", snd.positionMs, "error", err)
		if st.Position > 0 {
			snd.positionMs = clampMs(st.Position.Milliseconds(), snd.durationMs)
		}
		snd.playing = false
		s.emitLocked(Snapshot{PositionMs: snd.positionMs})
		return false
	}
	snd.positionMs = clampMs(st.Position.Milliseconds(), snd.durationMs)

	if st.DidJustFinish || (!st.Playing && snd.positionMs >= snd.durationMs) {
		snd.player.Pause()
		if err := snd.player.Seek(0); err != nil {
			s.logger.Warn("Failed to rewind finished clip", "error", err)
		}
		snd.playing = false
		snd.positionMs = 0
		s.emitLocked(Snapshot{PositionMs: 0, DidFinish: true})
		return false
	}

	if !st.Playing {
		s.logger.Warn("Player stopped unexpectedly", "position_ms", snd.positionMs)
		snd.playing = false
		s.emitLocked(Snapshot{PositionMs: snd.positionMs})
		return false
	}

	s.emitLocked(Snapshot{PositionMs: snd.positionMs})
	return true
}

// emitLocked delivers a snapshot, replacing an unread one
func (s *AudioSession) emitLocked(snap Snapshot) {
	select {
	case s.feed <- snap:
		return
	default:
	}
	select {
	case <-s.feed:
	default:
	}
	select {
	case s.feed <- snap:
	default:
	}
}

// takePollerLocked cancels the current poller and returns a function that
// waits for it to exit. The wait must happen without holding s.mu.
func (s *AudioSession) takePollerLocked() func() {
	cancel, done := s.pollCancel, s.pollDone
	s.pollCancel, s.pollDone = nil, nil
	if cancel == nil {
		return func() {}
	}
	cancel()
	return func() { <-done }
}

// Discard releases any recording, clip, sound and waveform. Release errors
// are logged and swallowed.
func (s *AudioSession) Discard() {
	s.mu.Lock()
	h := s.handle
	snd := s.sound
	clip := s.clip
	s.handle, s.sound, s.clip = nil, nil, nil
	s.wave = waveform.Model{}
	wait := s.takePollerLocked()
	s.mu.Unlock()

	wait()

	if h != nil {
		if err := s.mic.Stop(); err != nil {
			s.logger.Warn("Failed to stop capture on discard", "error", err)
		}
		h.cancel()
		<-h.done
		s.logger.Info("Recording abandoned", "recording_id", h.ID)
	}
	if snd != nil {
		if err := snd.player.Close(); err != nil {
			s.logger.Warn("Failed to release player", "error", err)
		}
	}
	if clip != nil {
		if err := clip.Remove(); err != nil {
			s.logger.Warn("Failed to remove clip", "clip", clip.SourceRef, "error", err)
		}
	}
}

// Close discards everything and releases the microphone
func (s *AudioSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Discard()
	close(s.feed)
	return s.mic.Close()
}

// Clip returns the finalized clip, if any
func (s *AudioSession) Clip() (audio.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clip == nil {
		return audio.Clip{}, false
	}
	return *s.clip, true
}

// Waveform returns the waveform of the loaded clip
func (s *AudioSession) Waveform() waveform.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wave
}

// Position returns the last known playback position in ms
func (s *AudioSession) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sound == nil {
		return 0
	}
	return s.sound.positionMs
}

// DurationMs returns the loaded clip length in ms
func (s *AudioSession) DurationMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sound == nil {
		return 0
	}
	return s.sound.durationMs
}

// IsPlaying reports whether playback is active
func (s *AudioSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound != nil && s.sound.playing
}

// IsRecording reports whether capture is active
func (s *AudioSession) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// RecordingElapsed returns how long the current capture has been running
func (s *AudioSession) RecordingElapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return time.Since(s.handle.StartedAt)
}

// InputLevel returns the RMS level of the last 100ms of capture
func (s *AudioSession) InputLevel() float64 {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	if h == nil {
		return 0
	}
	return h.buffer.RMS(s.sampleRate / 10)
}

func clampMs(v, durationMs int64) int64 {
	if v < 0 {
		return 0
	}
	if v > durationMs {
		return durationMs
	}
	return v
}
