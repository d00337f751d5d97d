// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     controller
// Description: Session controller driving record, review, upload and save
// Author:      Mike Stoffels with Claude
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/session"
	"github.com/msto63/meetrec/internal/recorder/store"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/internal/recorder/waveform"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/logging"
)

// Session is the audio surface the controller drives
type Session interface {
	Start(ctx context.Context) error
	Stop() (audio.Clip, error)
	Play() error
	Pause() error
	Seek(targetMs int64) error
	Discard()
	Close() error

	PositionFeed() <-chan session.Snapshot
	Clip() (audio.Clip, bool)
	Waveform() waveform.Model
	Position() int64
	DurationMs() int64
	IsPlaying() bool
	RecordingElapsed() time.Duration
	InputLevel() float64
}

// Transcriber turns a clip into a transcript
type Transcriber interface {
	Transcribe(ctx context.Context, clip audio.Clip, opts transcribe.Options) (*transcribe.Result, error)
}

// Saver persists a titled recording and returns its id
type Saver interface {
	Save(ctx context.Context, rec store.Recording) (string, error)
}

// ViewState is everything a presentation layer needs to render
type ViewState struct {
	State      State
	PositionMs int64
	DurationMs int64
	Playing    bool
	Waveform   waveform.Model
	Result     *transcribe.Result
	Err        error

	RecordingElapsed time.Duration
	InputLevel       float64
	SpeechMs         int64
	SpeechChecked    bool
	Saving           bool
	SavedID          string
}

// HasClip reports whether playback controls apply
func (v ViewState) HasClip() bool {
	return v.State.HasClip()
}

// Listener receives the view after every change
type Listener func(ViewState)

// Config holds the controller collaborators
type Config struct {
	Session     Session
	Transcriber Transcriber
	Saver       Saver
	Logger      *logging.Logger
}

// Controller sequences one recording session at a time. Mutations are
// serialized by mu; blocking work runs with mu released while the state (or
// busy) rejects overlapping calls.
type Controller struct {
	mu          sync.Mutex
	sm          *StateMachine
	session     Session
	transcriber Transcriber
	saver       Saver
	logger      *logging.Logger

	busy         bool
	saving       bool
	result       *transcribe.Result
	lastErr      error
	savedID      string
	generation   uint64
	uploadCancel context.CancelFunc

	listenerMu sync.RWMutex
	listeners  []Listener

	stopFeed chan struct{}
	feedDone chan struct{}
	closed   bool
}

// New creates a controller and starts forwarding the session position feed
func New(cfg Config) (*Controller, error) {
	if cfg.Session == nil {
		return nil, apperr.New(apperr.CodeConfigError, "controller requires a session")
	}
	if cfg.Transcriber == nil {
		return nil, apperr.New(apperr.CodeConfigError, "controller requires a transcriber")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("controller")
	}

	c := &Controller{
		sm:          NewStateMachine(),
		session:     cfg.Session,
		transcriber: cfg.Transcriber,
		saver:       cfg.Saver,
		logger:      cfg.Logger,
		stopFeed:    make(chan struct{}),
		feedDone:    make(chan struct{}),
	}

	c.sm.AddListener(func(oldState, newState State) {
		c.logger.Debug("State transition", "from", oldState.String(), "to", newState.String())
	})

	go c.forwardPositions()

	return c, nil
}

// State returns the current state
func (c *Controller) State() State {
	return c.sm.Current()
}

// AddListener registers a view listener
func (c *Controller) AddListener(l Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// View returns the consolidated view state
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() ViewState {
	v := ViewState{
		State:   c.sm.Current(),
		Result:  c.result,
		Err:     c.lastErr,
		Saving:  c.saving,
		SavedID: c.savedID,
	}

	switch v.State {
	case StateRecording:
		v.RecordingElapsed = c.session.RecordingElapsed()
		v.InputLevel = c.session.InputLevel()
	case StateIdle:
	default:
		v.PositionMs = c.session.Position()
		v.DurationMs = c.session.DurationMs()
		v.Playing = c.session.IsPlaying()
		v.Waveform = c.session.Waveform()
		if clip, ok := c.session.Clip(); ok {
			v.SpeechMs = clip.SpeechMs
			v.SpeechChecked = clip.SpeechChecked
		}
	}
	return v
}

// publish notifies listeners with a fresh view; never call with mu held
func (c *Controller) publish() {
	view := c.View()

	c.listenerMu.RLock()
	listeners := c.listeners
	c.listenerMu.RUnlock()

	for _, l := range listeners {
		l(view)
	}
}

func (c *Controller) forwardPositions() {
	defer close(c.feedDone)

	feed := c.session.PositionFeed()
	for {
		select {
		case <-c.stopFeed:
			return
		case _, ok := <-feed:
			if !ok {
				return
			}
			c.publish()
		}
	}
}

func invalid(op string, s State) error {
	return apperr.Newf(apperr.CodeInvalidStateTransition, "cannot %s while %s", op, s)
}

// beginLocked claims the controller for a blocking operation
func (c *Controller) beginLocked(op string) error {
	if c.closed {
		return apperr.Newf(apperr.CodeInvalidStateTransition, "cannot %s: controller closed", op)
	}
	if c.busy {
		return apperr.Newf(apperr.CodeInvalidStateTransition, "cannot %s: another operation is in progress", op)
	}
	return nil
}

func (c *Controller) fail(op string, err error) {
	c.lastErr = err
	if apperr.CodeOf(err).IsProgrammingError() {
		c.logger.Warn("Rejected operation", "op", op, "error", err)
		return
	}
	c.logger.Error("Operation failed", "op", op, "code", apperr.CodeOf(err).String(), "error", err)
}

// Start begins a recording. It is a no-op while already recording.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if err := c.beginLocked("start"); err != nil {
		c.mu.Unlock()
		return err
	}
	switch s := c.sm.Current(); s {
	case StateRecording:
		c.mu.Unlock()
		return nil
	case StateIdle:
	default:
		c.mu.Unlock()
		return invalid("start", s)
	}
	c.busy = true
	c.mu.Unlock()

	err := c.session.Start(ctx)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.fail("start", err)
	} else {
		c.lastErr = nil
		c.result = nil
		c.savedID = ""
		c.sm.Transition(StateRecording)
		c.logger.Info("Recording started")
	}
	c.mu.Unlock()

	c.publish()
	return err
}

// Stop finalizes the recording and enters review
func (c *Controller) Stop() error {
	c.mu.Lock()
	if err := c.beginLocked("stop"); err != nil {
		c.mu.Unlock()
		return err
	}
	if s := c.sm.Current(); s != StateRecording {
		c.mu.Unlock()
		return invalid("stop", s)
	}
	c.busy = true
	c.mu.Unlock()

	clip, err := c.session.Stop()

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.fail("stop", err)
		c.sm.Transition(StateIdle)
	} else {
		c.sm.Transition(StateReviewing)
		c.logger.Info("Recording stopped", "duration_ms", clip.DurationMs, "path", clip.SourceRef)
	}
	c.mu.Unlock()

	c.publish()
	return err
}

// ToggleRecord starts or stops recording depending on the state
func (c *Controller) ToggleRecord(ctx context.Context) error {
	if c.State() == StateRecording {
		return c.Stop()
	}
	return c.Start(ctx)
}

// playback runs fn when a clip is loaded
func (c *Controller) playback(op string, fn func() error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperr.Newf(apperr.CodeInvalidStateTransition, "cannot %s: controller closed", op)
	}
	if s := c.sm.Current(); !s.HasClip() {
		c.mu.Unlock()
		return invalid(op, s)
	}
	err := fn()
	if err != nil {
		c.fail(op, err)
	}
	c.mu.Unlock()

	c.publish()
	return err
}

// Play starts playback of the clip
func (c *Controller) Play() error {
	return c.playback("play", c.session.Play)
}

// Pause pauses playback
func (c *Controller) Pause() error {
	return c.playback("pause", c.session.Pause)
}

// TogglePlay plays or pauses depending on the current playback state
func (c *Controller) TogglePlay() error {
	return c.playback("toggle playback", func() error {
		if c.session.IsPlaying() {
			return c.session.Pause()
		}
		return c.session.Play()
	})
}

// Seek moves the playback position; the value is clamped to the clip
func (c *Controller) Seek(targetMs int64) error {
	return c.playback("seek", func() error {
		return c.session.Seek(targetMs)
	})
}

// SeekBy moves the playback position relative to the current one
func (c *Controller) SeekBy(delta time.Duration) error {
	return c.playback("seek", func() error {
		return c.session.Seek(c.session.Position() + delta.Milliseconds())
	})
}

// SeekFraction seeks to a fraction of the clip, as from a waveform tap
func (c *Controller) SeekFraction(fraction float64) error {
	return c.playback("seek", func() error {
		return c.session.Seek(waveform.TapToPosition(fraction, c.session.DurationMs()))
	})
}

// Upload sends the clip for transcription and blocks until the request
// resolves. Failure returns to review with the error attached.
func (c *Controller) Upload(ctx context.Context, opts transcribe.Options) error {
	c.mu.Lock()
	if err := c.beginLocked("upload"); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.sm.Current()
	if s == StateUploading {
		c.mu.Unlock()
		return apperr.New(apperr.CodeInvalidStateTransition, "upload already in progress")
	}
	if s != StateReviewing {
		c.mu.Unlock()
		return invalid("upload", s)
	}
	clip, ok := c.session.Clip()
	if !ok {
		c.mu.Unlock()
		return invalid("upload without a clip", s)
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	c.uploadCancel = cancel
	gen := c.generation
	c.lastErr = nil
	c.sm.Transition(StateUploading)
	c.mu.Unlock()
	c.publish()

	c.logger.Info("Uploading clip", "duration_ms", clip.DurationMs, "lang", opts.Language)
	result, err := c.transcriber.Transcribe(uploadCtx, clip, opts)
	cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Ignoring superseded upload result")
		return apperr.New(apperr.CodeCanceled, "upload discarded")
	}
	c.uploadCancel = nil
	if err != nil {
		c.fail("upload", err)
		c.sm.Transition(StateReviewing)
	} else {
		if result == nil {
			result = &transcribe.Result{}
		}
		c.result = result
		c.sm.Transition(StateShowingResult)
		c.logger.Info("Transcription received", "topics", len(result.Topics), "chars", len(result.FullText))
	}
	c.mu.Unlock()

	c.publish()
	return err
}

// RequestSave enters title entry
func (c *Controller) RequestSave() error {
	return c.transition("save", StateShowingResult, StateSavingTitle)
}

// ReturnToResult leaves title entry without discarding anything
func (c *Controller) ReturnToResult() error {
	return c.transition("return to result", StateSavingTitle, StateShowingResult)
}

func (c *Controller) transition(op string, from, to State) error {
	c.mu.Lock()
	if err := c.beginLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	if s := c.sm.Current(); s != from || c.saving {
		c.mu.Unlock()
		return invalid(op, s)
	}
	c.lastErr = nil
	c.sm.Transition(to)
	c.mu.Unlock()

	c.publish()
	return nil
}

// ConfirmSave persists the clip and transcript under title. Success resets
// the session; failures keep title entry open with the error attached.
func (c *Controller) ConfirmSave(ctx context.Context, title string) (string, error) {
	c.mu.Lock()
	if err := c.beginLocked("save"); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if s := c.sm.Current(); s != StateSavingTitle {
		c.mu.Unlock()
		return "", invalid("save", s)
	}
	if c.saving {
		c.mu.Unlock()
		return "", apperr.New(apperr.CodeInvalidStateTransition, "save already in progress")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		err := apperr.New(apperr.CodeInvalidInput, "Please enter a title for your recording")
		c.fail("save", err)
		c.mu.Unlock()
		c.publish()
		return "", err
	}
	if c.saver == nil {
		err := apperr.New(apperr.CodeSaveFailed, "Save failed").WithReason("no storage configured")
		c.fail("save", err)
		c.mu.Unlock()
		c.publish()
		return "", err
	}

	clip, _ := c.session.Clip()
	rec := store.Recording{
		Title:           title,
		AudioRef:        clip.SourceRef,
		DurationSeconds: clip.DurationSeconds(),
	}
	if c.result != nil {
		rec.Transcription = c.result.FullText
		rec.Topics = c.result.Topics
		rec.Summary = c.result.SummaryBullets
	}

	c.saving = true
	c.lastErr = nil
	gen := c.generation
	c.mu.Unlock()
	c.publish()

	id, err := c.saver.Save(ctx, rec)

	c.mu.Lock()
	c.saving = false
	if gen != c.generation {
		c.mu.Unlock()
		return id, err
	}
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeSaveFailed) {
			err = apperr.Wrap(err, apperr.CodeSaveFailed, "Save failed").WithReason(err.Error())
		}
		c.fail("save", err)
	} else {
		c.logger.Info("Recording saved", "id", id, "title", title)
		c.resetLocked()
		c.savedID = id
	}
	c.mu.Unlock()

	c.publish()
	return id, err
}

// CancelSave abandons title entry and resets the session
func (c *Controller) CancelSave() error {
	c.mu.Lock()
	if err := c.beginLocked("cancel save"); err != nil {
		c.mu.Unlock()
		return err
	}
	if s := c.sm.Current(); s != StateSavingTitle || c.saving {
		c.mu.Unlock()
		return invalid("cancel save", s)
	}
	c.resetLocked()
	c.mu.Unlock()

	c.publish()
	return nil
}

// Discard drops the clip, transcript and any in-flight upload
func (c *Controller) Discard() error {
	c.mu.Lock()
	if err := c.beginLocked("discard"); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.sm.Current()
	if s == StateIdle || c.saving {
		c.mu.Unlock()
		return invalid("discard", s)
	}
	c.resetLocked()
	c.logger.Info("Session discarded", "from", s.String())
	c.mu.Unlock()

	c.publish()
	return nil
}

// resetLocked returns to Idle, releasing every session resource
func (c *Controller) resetLocked() {
	c.generation++
	if c.uploadCancel != nil {
		c.uploadCancel()
		c.uploadCancel = nil
	}
	c.session.Discard()
	c.result = nil
	c.lastErr = nil
	c.savedID = ""
	c.sm.Reset()
}

// Close cancels pending work and releases the session
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.generation++
	if c.uploadCancel != nil {
		c.uploadCancel()
		c.uploadCancel = nil
	}
	c.mu.Unlock()

	close(c.stopFeed)
	<-c.feedDone

	return c.session.Close()
}
