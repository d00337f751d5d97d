package controller

import (
	"errors"
	"testing"

	"github.com/msto63/meetrec/internal/recorder/transcribe"
)

type recordingTransport struct {
	calls   []string
	seekErr error
	playErr error
	target  int64
}

func (r *recordingTransport) Seek(targetMs int64) error {
	r.calls = append(r.calls, "seek")
	r.target = targetMs
	return r.seekErr
}

func (r *recordingTransport) Play() error {
	r.calls = append(r.calls, "play")
	return r.playErr
}

func TestNavigator_JumpTo(t *testing.T) {
	tests := []struct {
		name      string
		seg       transcribe.Segment
		seekErr   error
		playErr   error
		wantCalls []string
	}{
		{"with start", transcribe.Segment{Text: "Intro", StartMs: 65000, HasStart: true}, nil, nil, []string{"seek", "play"}},
		{"start at zero", transcribe.Segment{Text: "Open", HasStart: true}, nil, nil, []string{"seek", "play"}},
		{"without start", transcribe.Segment{Text: "Summary"}, nil, nil, nil},
		{"seek fails", transcribe.Segment{StartMs: 10, HasStart: true}, errors.New("boom"), nil, []string{"seek"}},
		{"play fails", transcribe.Segment{StartMs: 10, HasStart: true}, nil, errors.New("boom"), []string{"seek", "play"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recordingTransport{seekErr: tt.seekErr, playErr: tt.playErr}
			NewNavigator(tr, quietLogger()).JumpTo(tt.seg)

			if len(tr.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", tr.calls, tt.wantCalls)
			}
			for i := range tt.wantCalls {
				if tr.calls[i] != tt.wantCalls[i] {
					t.Errorf("calls[%d] = %s, want %s", i, tr.calls[i], tt.wantCalls[i])
				}
			}
			if len(tr.calls) > 0 && tr.target != tt.seg.StartMs {
				t.Errorf("seek target = %d, want %d", tr.target, tt.seg.StartMs)
			}
		})
	}
}

func TestNavigator_JumpToIndex(t *testing.T) {
	result := &transcribe.Result{
		Topics:         []transcribe.Topic{{Text: "Intro", StartMs: 5000, HasStart: true}},
		SummaryBullets: []string{"Done"},
	}

	tr := &recordingTransport{}
	nav := NewNavigator(tr, quietLogger())

	if !nav.JumpToIndex(result, 0) {
		t.Error("JumpToIndex(0) = false, want true")
	}
	if tr.target != 5000 {
		t.Errorf("seek target = %d, want 5000", tr.target)
	}

	tr.calls = nil
	if nav.JumpToIndex(result, 1) {
		t.Error("JumpToIndex(summary bullet) = true, want false")
	}
	if nav.JumpToIndex(result, 9) {
		t.Error("JumpToIndex(out of range) = true, want false")
	}
	if len(tr.calls) != 0 {
		t.Errorf("calls = %v, want none", tr.calls)
	}
}
