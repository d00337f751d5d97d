package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/session"
	"github.com/msto63/meetrec/internal/recorder/store"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/apperr"
)

type stubMic struct {
	out chan []float32
}

func (m *stubMic) Start(context.Context) error { return nil }
func (m *stubMic) Stop() error                 { return nil }
func (m *stubMic) Output() <-chan []float32    { return m.out }
func (m *stubMic) Close() error                { return nil }

type allowMic struct{}

func (allowMic) RequestMicrophone(context.Context) error { return nil }

type stubPlayer struct {
	mu       sync.Mutex
	duration time.Duration
	position time.Duration
	playing  bool
}

func (p *stubPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}

func (p *stubPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return nil
}

func (p *stubPlayer) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = pos
	return nil
}

func (p *stubPlayer) Status() (audio.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return audio.Status{Position: p.position, Duration: p.duration, Playing: p.playing}, nil
}

func (p *stubPlayer) Duration() time.Duration { return p.duration }
func (p *stubPlayer) Close() error            { return nil }

// pipeline is a controller over a real session, client and store
type pipeline struct {
	ctrl  *Controller
	mic   *stubMic
	store *store.SQLiteStore
}

func newPipeline(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *pipeline {
	t.Helper()
	dir := t.TempDir()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mic := &stubMic{out: make(chan []float32, 8)}
	sess, err := session.New(session.Config{
		Microphone: mic,
		Permission: allowMic{},
		Decoder: func(path string) (audio.Player, error) {
			d, err := audio.ReadWAVInfo(path)
			if err != nil {
				return nil, err
			}
			return &stubPlayer{duration: d}, nil
		},
		ClipDir:      filepath.Join(dir, "clips"),
		PollInterval: 5 * time.Millisecond,
		Logger:       quietLogger(),
	})
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}

	client, err := transcribe.NewClient(transcribe.Config{BaseURL: server.URL, Timeout: timeout, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	recordings, err := store.New(store.Config{
		Path:     filepath.Join(dir, "recordings.db"),
		AudioDir: filepath.Join(dir, "recordings"),
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { recordings.Close() })

	ctrl, err := New(Config{Session: sess, Transcriber: client, Saver: recordings, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { ctrl.Close() })

	return &pipeline{ctrl: ctrl, mic: mic, store: recordings}
}

// record captures seconds of silence and stops
func (p *pipeline) record(t *testing.T, seconds int) {
	t.Helper()
	if err := p.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 0; i < seconds; i++ {
		p.mic.out <- make([]float32, audio.SampleRate)
	}
	if err := p.ctrl.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func respondWith(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["audioBase64"] == "" {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestController_UploadShowsExactResult(t *testing.T) {
	p := newPipeline(t, respondWith(`{"ok":true,"full_text":"hello","topics":[],"summary":{"bullets":["a"]}}`), 0)
	p.record(t, 1)

	if err := p.ctrl.Upload(context.Background(), transcribe.DefaultOptions()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	assertState(t, p.ctrl, StateShowingResult)

	want := &transcribe.Result{
		FullText:       "hello",
		Topics:         []transcribe.Topic{},
		SummaryBullets: []string{"a"},
	}
	if got := p.ctrl.View().Result; !reflect.DeepEqual(got, want) {
		t.Errorf("Result = %+v, want %+v", got, want)
	}
}

func TestController_UploadTimesOut(t *testing.T) {
	release := make(chan struct{})
	p := newPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)
	p.record(t, 1)

	err := p.ctrl.Upload(context.Background(), transcribe.DefaultOptions())
	if !apperr.HasCode(err, apperr.CodeTranscriptionTimedOut) {
		t.Fatalf("Upload() error = %v, want TRANSCRIPTION_TIMED_OUT", err)
	}

	assertState(t, p.ctrl, StateReviewing)
	view := p.ctrl.View()
	if !apperr.HasCode(view.Err, apperr.CodeTranscriptionTimedOut) {
		t.Errorf("View().Err = %v, want TRANSCRIPTION_TIMED_OUT", view.Err)
	}
	if view.Result != nil {
		t.Errorf("View().Result = %+v, want nil", view.Result)
	}
	if !view.HasClip() || view.DurationMs != 1000 {
		t.Errorf("clip lost after timeout: duration %d", view.DurationMs)
	}
}

func TestController_EndToEnd(t *testing.T) {
	p := newPipeline(t, respondWith(`{"ok":true,"full_text":"hello team",`+
		`"topics":[{"text":"Intro","start_time":1.5,"topics":[{"topic":"a"},{"topic":"a"}]}],`+
		`"summary":{"bullets":["Greeting"]}}`), 0)
	ctrl := p.ctrl
	ctx := context.Background()

	p.record(t, 3)

	view := ctrl.View()
	if view.DurationMs != 3000 {
		t.Errorf("DurationMs = %d, want 3000", view.DurationMs)
	}
	if view.Waveform.Len() != 30 {
		t.Errorf("Waveform.Len() = %d, want 30", view.Waveform.Len())
	}

	if err := ctrl.Upload(ctx, transcribe.DefaultOptions()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	result := ctrl.View().Result
	if result == nil || result.FullText != "hello team" {
		t.Fatalf("Result = %+v, want full text hello team", result)
	}
	if len(result.Topics) != 1 || !reflect.DeepEqual(result.Topics[0].Tags, []string{"a"}) {
		t.Fatalf("Topics = %+v, want one topic with tags [a]", result.Topics)
	}
	if !reflect.DeepEqual(result.SummaryBullets, []string{"Greeting"}) {
		t.Errorf("SummaryBullets = %v, want [Greeting]", result.SummaryBullets)
	}

	nav := NewNavigator(ctrl, quietLogger())
	if !nav.JumpToIndex(result, 0) {
		t.Fatal("JumpToIndex(0) = false, want true")
	}
	view = ctrl.View()
	if view.PositionMs != 1500 {
		t.Errorf("PositionMs after jump = %d, want 1500", view.PositionMs)
	}
	if !view.Playing {
		t.Error("Playing = false after jump")
	}

	if err := ctrl.RequestSave(); err != nil {
		t.Fatalf("RequestSave() error = %v", err)
	}
	id, err := ctrl.ConfirmSave(ctx, "Team sync")
	if err != nil {
		t.Fatalf("ConfirmSave() error = %v", err)
	}
	assertState(t, ctrl, StateIdle)
	if ctrl.View().Playing {
		t.Error("still playing after save reset")
	}

	saved, err := p.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if saved.Title != "Team sync" || saved.Transcription != "hello team" || saved.DurationSeconds != 3 {
		t.Errorf("saved recording = %+v", saved)
	}
	if d, err := audio.ReadWAVInfo(saved.AudioRef); err != nil || d != 3*time.Second {
		t.Errorf("stored audio duration = %v, %v; want 3s", d, err)
	}
}
