package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/internal/recorder/controller"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/internal/recorder/waveform"
	"github.com/msto63/meetrec/pkg/core/apperr"
)

type fakeController struct {
	view      controller.ViewState
	listeners []controller.Listener
	calls     []string
	fraction  float64
	seekDelta time.Duration
	title     string
	opts      transcribe.Options
	err       error
}

func (f *fakeController) View() controller.ViewState        { return f.view }
func (f *fakeController) AddListener(l controller.Listener) { f.listeners = append(f.listeners, l) }

func (f *fakeController) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) ToggleRecord(context.Context) error { return f.record("toggle-record") }
func (f *fakeController) TogglePlay() error                  { return f.record("toggle-play") }
func (f *fakeController) RequestSave() error                 { return f.record("request-save") }
func (f *fakeController) CancelSave() error                  { return f.record("cancel-save") }
func (f *fakeController) ReturnToResult() error              { return f.record("return") }
func (f *fakeController) Discard() error                     { return f.record("discard") }

func (f *fakeController) SeekBy(d time.Duration) error {
	f.seekDelta = d
	return f.record("seek-by")
}

func (f *fakeController) SeekFraction(fraction float64) error {
	f.fraction = fraction
	return f.record("seek-fraction")
}

func (f *fakeController) Upload(ctx context.Context, opts transcribe.Options) error {
	f.opts = opts
	return f.record("upload")
}

func (f *fakeController) ConfirmSave(ctx context.Context, title string) (string, error) {
	f.title = title
	return "rec-42", f.record("confirm-save")
}

type fakeNavigator struct {
	indexes []int
}

func (n *fakeNavigator) JumpToIndex(result *transcribe.Result, i int) bool {
	n.indexes = append(n.indexes, i)
	segs := result.Segments()
	return i < len(segs) && segs[i].HasStart
}

type fakePrefs struct {
	prefs recorder.Preferences
}

func (p *fakePrefs) Preferences() recorder.Preferences      { return p.prefs }
func (p *fakePrefs) UpdatePreferences(prefs recorder.Preferences) { p.prefs = prefs }

func newTestModel(state controller.State) (Model, *fakeController, *fakeNavigator) {
	ctrl := &fakeController{view: controller.ViewState{State: state}}
	if state.HasClip() {
		ctrl.view.DurationMs = 5000
		ctrl.view.Waveform = waveform.Build(waveform.DefaultSource(), 5000, 100)
	}
	nav := &fakeNavigator{}
	m := New(context.Background(), Config{
		Controller:  ctrl,
		Navigator:   nav,
		Preferences: &fakePrefs{prefs: recorder.Preferences{Language: "auto", Summarize: true}},
		Clipboard:   func(string) error { return nil },
	})
	return m, ctrl, nav
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+d":
		msg = tea.KeyMsg{Type: tea.KeyCtrlD}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func lastCall(ctrl *fakeController) string {
	if len(ctrl.calls) == 0 {
		return ""
	}
	return ctrl.calls[len(ctrl.calls)-1]
}

func TestNew_SubscribesToController(t *testing.T) {
	_, ctrl, _ := newTestModel(controller.StateIdle)
	if len(ctrl.listeners) != 1 {
		t.Fatalf("listeners = %d, want 1", len(ctrl.listeners))
	}
}

func TestModel_RecordKeyRunsOffLoop(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateIdle)

	m, cmd := press(m, "r")
	if cmd == nil {
		t.Fatal("r returned no command")
	}
	if len(ctrl.calls) != 0 {
		t.Fatal("controller called before the command ran")
	}
	if m.busy != "record" {
		t.Errorf("busy = %q, want record", m.busy)
	}

	msg := cmd()
	if lastCall(ctrl) != "toggle-record" {
		t.Errorf("calls = %v, want toggle-record", ctrl.calls)
	}

	updated, _ := m.Update(msg)
	if updated.(Model).busy != "" {
		t.Error("busy not cleared after completion")
	}
}

func TestModel_RecordKeyIgnoredOutsideRecording(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)
	_, cmd := press(m, "r")
	if cmd != nil {
		cmd()
	}
	if len(ctrl.calls) != 0 {
		t.Errorf("calls = %v, want none", ctrl.calls)
	}
}

func TestModel_PlaybackKeys(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)

	m, _ = press(m, "p")
	if lastCall(ctrl) != "toggle-play" {
		t.Errorf("p -> %v, want toggle-play", ctrl.calls)
	}

	m, _ = press(m, "left")
	if ctrl.seekDelta != -DefaultSeekStep {
		t.Errorf("left seek delta = %v, want %v", ctrl.seekDelta, -DefaultSeekStep)
	}
	press(m, "right")
	if ctrl.seekDelta != DefaultSeekStep {
		t.Errorf("right seek delta = %v, want %v", ctrl.seekDelta, DefaultSeekStep)
	}
}

func TestModel_UploadUsesPreferences(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)

	m, _ = press(m, "l")
	m, _ = press(m, "m")
	_, cmd := press(m, "u")
	if cmd == nil {
		t.Fatal("u returned no command")
	}
	cmd()

	want := transcribe.Options{Language: "nl", Summarize: false}
	if ctrl.opts != want {
		t.Errorf("upload options = %+v, want %+v", ctrl.opts, want)
	}
}

func TestModel_UploadErrorShown(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)
	ctrl.err = apperr.New(apperr.CodeNetworkUnavailable, "offline")

	m, cmd := press(m, "u")
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	if !strings.Contains(m.View(), apperr.CodeNetworkUnavailable.DefaultMessage()) {
		t.Errorf("View() missing error message:\n%s", m.View())
	}
}

func TestModel_SecondUploadKeyIgnored(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)

	m, first := press(m, "u")
	if first == nil {
		t.Fatal("u returned no command")
	}
	m, second := press(m, "u")
	if second != nil {
		t.Error("second u started another upload")
	}
	if m.busy != "upload" {
		t.Errorf("busy = %q, want upload", m.busy)
	}

	ctrl.view.State = controller.StateUploading
	m.setView(ctrl.View())
	if _, cmd := press(m, "u"); cmd != nil {
		t.Error("u while uploading started another upload")
	}

	first()
	if len(ctrl.calls) != 1 {
		t.Errorf("calls = %v, want one upload", ctrl.calls)
	}
}

func TestModel_MouseSeeksOnWaveform(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateReviewing)
	n := m.view.Waveform.Len()

	tests := []struct {
		name     string
		x, y     int
		wantCall bool
		fraction float64
	}{
		{"first bar", waveformLeft, waveformRow, true, 0},
		{"middle bar", waveformLeft + n/2, waveformRow, true, 0.5},
		{"left of waveform", waveformLeft - 1, waveformRow, false, 0},
		{"right of waveform", waveformLeft + n, waveformRow, false, 0},
		{"other row", waveformLeft + 3, waveformRow + 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl.calls = nil
			msg := tea.MouseMsg{X: tt.x, Y: tt.y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
			m.Update(msg)

			called := lastCall(ctrl) == "seek-fraction"
			if called != tt.wantCall {
				t.Fatalf("seek called = %v, want %v", called, tt.wantCall)
			}
			if called && ctrl.fraction != tt.fraction {
				t.Errorf("fraction = %v, want %v", ctrl.fraction, tt.fraction)
			}
		})
	}
}

func TestModel_WaveformRowMatchesLayout(t *testing.T) {
	m, _, _ := newTestModel(controller.StateReviewing)
	lines := strings.Split(m.View(), "\n")
	if len(lines) <= waveformRow {
		t.Fatalf("View() has %d lines", len(lines))
	}
	if !strings.ContainsAny(lines[waveformRow], string(bars)) {
		t.Errorf("line %d = %q, want waveform", waveformRow, lines[waveformRow])
	}
}

func TestModel_JumpKeys(t *testing.T) {
	m, _, nav := newTestModel(controller.StateShowingResult)
	m.view.Result = &transcribe.Result{
		Topics:         []transcribe.Topic{{Text: "Intro", StartMs: 1000, HasStart: true}},
		SummaryBullets: []string{"Done"},
	}

	m, _ = press(m, "1")
	if len(nav.indexes) != 1 || nav.indexes[0] != 0 {
		t.Errorf("jump indexes = %v, want [0]", nav.indexes)
	}
	if m.notice != "" {
		t.Errorf("notice = %q after timed jump", m.notice)
	}

	m, _ = press(m, "2")
	if m.notice == "" {
		t.Error("no notice for entry without timestamp")
	}
}

func TestModel_SaveFlow(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateShowingResult)
	m.view.Result = &transcribe.Result{FullText: "x"}

	m, _ = press(m, "s")
	if lastCall(ctrl) != "request-save" {
		t.Fatalf("s -> %v, want request-save", ctrl.calls)
	}
	ctrl.view.State = controller.StateSavingTitle
	m.view.State = controller.StateSavingTitle
	if !m.titleInput.Focused() {
		t.Fatal("title input not focused")
	}

	// letters go to the title input, not to key bindings
	for _, r := range "qd" {
		m, _ = press(m, string(r))
	}
	if len(ctrl.calls) != 1 {
		t.Errorf("calls = %v, want only request-save", ctrl.calls)
	}

	m, cmd := press(m, "enter")
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	msg := cmd()
	if ctrl.title != "qd" {
		t.Errorf("ConfirmSave title = %q, want qd", ctrl.title)
	}

	ctrl.view = controller.ViewState{State: controller.StateIdle, SavedID: "rec-42"}
	updated, _ := m.Update(msg)
	m = updated.(Model)
	if !strings.Contains(m.View(), "rec-42") {
		t.Errorf("View() missing saved id:\n%s", m.View())
	}
	if m.titleInput.Focused() {
		t.Error("title input still focused after save")
	}
}

func TestModel_TitleEscapeKeys(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"esc", "return"},
		{"ctrl+d", "cancel-save"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, ctrl, _ := newTestModel(controller.StateSavingTitle)
			press(m, tt.key)
			if lastCall(ctrl) != tt.want {
				t.Errorf("%s -> %v, want %s", tt.key, ctrl.calls, tt.want)
			}
		})
	}
}

func TestModel_CopyTranscript(t *testing.T) {
	m, _, _ := newTestModel(controller.StateShowingResult)
	m.view.Result = &transcribe.Result{FullText: "hello"}

	var copied string
	m.clipboard = func(text string) error {
		copied = text
		return nil
	}

	m, cmd := press(m, "c")
	if cmd == nil {
		t.Fatal("c returned no command")
	}
	updated, _ := m.Update(cmd())
	m = updated.(Model)

	if copied != "hello" {
		t.Errorf("copied = %q, want hello", copied)
	}
	if m.notice == "" {
		t.Error("no notice after copy")
	}

	m.clipboard = func(string) error { return errors.New("no clipboard") }
	m, cmd = press(m, "c")
	updated, _ = m.Update(cmd())
	if updated.(Model).err == nil {
		t.Error("clipboard error not surfaced")
	}
}

func TestModel_ViewUpdatesFromListener(t *testing.T) {
	m, ctrl, _ := newTestModel(controller.StateIdle)

	ctrl.listeners[0](controller.ViewState{State: controller.StateRecording})
	ctrl.listeners[0](controller.ViewState{State: controller.StateReviewing})

	msg := m.waitForView()()
	updated, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("view update did not re-arm the listener")
	}
	if got := updated.(Model).view.State; got != controller.StateReviewing {
		t.Errorf("view state = %s, want latest reviewing", got)
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m, _, _ := newTestModel(controller.StateIdle)
	_, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
