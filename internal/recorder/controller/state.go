// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     controller
// Description: Session state machine
// Author:      Mike Stoffels with Claude
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package controller

import (
	"sync"
	"time"
)

// State represents the current state of a recording session
type State int

const (
	// StateIdle - nothing recorded
	StateIdle State = iota

	// StateRecording - capturing microphone input
	StateRecording

	// StateReviewing - clip finalized, playback available
	StateReviewing

	// StateUploading - clip sent for transcription
	StateUploading

	// StateShowingResult - transcript available
	StateShowingResult

	// StateSavingTitle - collecting a title before saving
	StateSavingTitle
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateReviewing:
		return "reviewing"
	case StateUploading:
		return "uploading"
	case StateShowingResult:
		return "showing-result"
	case StateSavingTitle:
		return "saving-title"
	default:
		return "unknown"
	}
}

// Label returns a short display label for the state
func (s State) Label() string {
	switch s {
	case StateIdle:
		return "Ready"
	case StateRecording:
		return "Recording"
	case StateReviewing:
		return "Review"
	case StateUploading:
		return "Transcribing"
	case StateShowingResult:
		return "Transcript"
	case StateSavingTitle:
		return "Save"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the state
func (s State) Icon() string {
	switch s {
	case StateIdle:
		return "○"
	case StateRecording:
		return "●"
	case StateReviewing:
		return "▶"
	case StateUploading:
		return "⇡"
	case StateShowingResult:
		return "≡"
	case StateSavingTitle:
		return "✎"
	default:
		return "?"
	}
}

// HasClip reports whether a finalized clip exists in this state
func (s State) HasClip() bool {
	switch s {
	case StateReviewing, StateUploading, StateShowingResult, StateSavingTitle:
		return true
	default:
		return false
	}
}

var validTransitions = map[State][]State{
	StateIdle:          {StateRecording},
	StateRecording:     {StateReviewing, StateIdle},
	StateReviewing:     {StateUploading, StateIdle},
	StateUploading:     {StateShowingResult, StateReviewing, StateIdle},
	StateShowingResult: {StateSavingTitle, StateIdle},
	StateSavingTitle:   {StateIdle, StateShowingResult},
}

// StateChangeListener is called when state changes
type StateChangeListener func(oldState, newState State)

// StateMachine manages state transitions
type StateMachine struct {
	mu            sync.RWMutex
	currentState  State
	previousState State
	stateTime     time.Time
	listeners     []StateChangeListener
}

// NewStateMachine creates a new state machine in StateIdle
func NewStateMachine() *StateMachine {
	return &StateMachine{
		currentState: StateIdle,
		stateTime:    time.Now(),
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// Previous returns the previous state
func (sm *StateMachine) Previous() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.previousState
}

// StateTime returns when the current state was entered
func (sm *StateMachine) StateTime() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateTime
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to State) bool {
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}

// Transition changes to a new state. It returns false and leaves the state
// untouched when the transition is not allowed.
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState

	if !CanTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}

	sm.previousState = oldState
	sm.currentState = newState
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}

	return true
}

// AddListener adds a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

// Reset returns to idle from any state
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	oldState := sm.currentState
	if oldState == StateIdle {
		sm.mu.Unlock()
		return
	}
	sm.previousState = oldState
	sm.currentState = StateIdle
	sm.stateTime = time.Now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, StateIdle)
	}
}
