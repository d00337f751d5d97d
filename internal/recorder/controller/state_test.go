package controller

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRecording, "recording"},
		{StateReviewing, "reviewing"},
		{StateUploading, "uploading"},
		{StateShowingResult, "showing-result"},
		{StateSavingTitle, "saving-title"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateRecording, true},
		{StateIdle, StateUploading, false},
		{StateRecording, StateReviewing, true},
		{StateRecording, StateUploading, false},
		{StateReviewing, StateUploading, true},
		{StateReviewing, StateShowingResult, false},
		{StateUploading, StateShowingResult, true},
		{StateUploading, StateReviewing, true},
		{StateShowingResult, StateSavingTitle, true},
		{StateShowingResult, StateUploading, false},
		{StateSavingTitle, StateIdle, true},
		{StateSavingTitle, StateShowingResult, true},
		{StateSavingTitle, StateRecording, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateMachine_Transition(t *testing.T) {
	sm := NewStateMachine()

	var seen []State
	sm.AddListener(func(oldState, newState State) {
		seen = append(seen, newState)
	})

	if sm.Transition(StateUploading) {
		t.Error("Transition(idle -> uploading) = true, want false")
	}
	if sm.Current() != StateIdle {
		t.Errorf("Current() = %s after rejected transition, want idle", sm.Current())
	}

	if !sm.Transition(StateRecording) {
		t.Fatal("Transition(idle -> recording) = false, want true")
	}
	if !sm.Transition(StateReviewing) {
		t.Fatal("Transition(recording -> reviewing) = false, want true")
	}
	if sm.Previous() != StateRecording {
		t.Errorf("Previous() = %s, want recording", sm.Previous())
	}

	sm.Reset()
	if sm.Current() != StateIdle {
		t.Errorf("Current() after Reset = %s, want idle", sm.Current())
	}
	sm.Reset()

	want := []State{StateRecording, StateReviewing, StateIdle}
	if len(seen) != len(want) {
		t.Fatalf("listener saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("listener[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestState_HasClip(t *testing.T) {
	for _, s := range []State{StateIdle, StateRecording} {
		if s.HasClip() {
			t.Errorf("%s.HasClip() = true", s)
		}
	}
	for _, s := range []State{StateReviewing, StateUploading, StateShowingResult, StateSavingTitle} {
		if !s.HasClip() {
			t.Errorf("%s.HasClip() = false", s)
		}
	}
}
