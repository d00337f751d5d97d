// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     ui
// Description: Bubbletea model for the interactive recorder
// Author:      Mike Stoffels with Claude
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/meetrec/internal/recorder"
	"github.com/msto63/meetrec/internal/recorder/controller"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/apperr"
)

// Screen layout. The waveform always occupies waveformRow, starting at
// column waveformLeft, so mouse clicks can be mapped back onto it.
const (
	waveformRow  = 3
	waveformLeft = 2

	// DefaultSeekStep is the arrow key seek distance
	DefaultSeekStep = 5 * time.Second

	refreshInterval = 200 * time.Millisecond
)

// Controller is the part of the session controller the view drives
type Controller interface {
	View() controller.ViewState
	AddListener(l controller.Listener)

	ToggleRecord(ctx context.Context) error
	TogglePlay() error
	SeekBy(delta time.Duration) error
	SeekFraction(fraction float64) error
	Upload(ctx context.Context, opts transcribe.Options) error
	RequestSave() error
	ConfirmSave(ctx context.Context, title string) (string, error)
	CancelSave() error
	ReturnToResult() error
	Discard() error
}

// Navigator jumps playback to transcript segments
type Navigator interface {
	JumpToIndex(result *transcribe.Result, i int) bool
}

// PreferenceStore reads and persists upload preferences
type PreferenceStore interface {
	Preferences() recorder.Preferences
	UpdatePreferences(p recorder.Preferences)
}

// Config holds the model collaborators
type Config struct {
	Controller  Controller
	Navigator   Navigator
	Preferences PreferenceStore
	Clipboard   func(text string) error // default atotto/clipboard
	SeekStep    time.Duration
}

// Model is the Bubbletea model for the recorder
type Model struct {
	ctx       context.Context
	ctrl      Controller
	nav       Navigator
	prefs     PreferenceStore
	clipboard func(string) error
	seekStep  time.Duration
	updates   chan controller.ViewState

	// State
	view   controller.ViewState
	width  int
	height int
	busy   string
	notice string
	err    error

	// Components
	spinner    spinner.Model
	titleInput textinput.Model
}

// New creates the model and subscribes to controller updates
func New(ctx context.Context, cfg Config) Model {
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.WriteAll
	}
	if cfg.SeekStep <= 0 {
		cfg.SeekStep = DefaultSeekStep
	}

	updates := make(chan controller.ViewState, 1)
	cfg.Controller.AddListener(func(v controller.ViewState) {
		// latest view wins
		select {
		case updates <- v:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- v:
			default:
			}
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	title := textinput.New()
	title.Placeholder = "Meeting title"
	title.CharLimit = 120
	title.Width = 48

	return Model{
		ctx:        ctx,
		ctrl:       cfg.Controller,
		nav:        cfg.Navigator,
		prefs:      cfg.Preferences,
		clipboard:  cfg.Clipboard,
		seekStep:   cfg.SeekStep,
		updates:    updates,
		view:       cfg.Controller.View(),
		spinner:    sp,
		titleInput: title,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForView(), tick())
}

func (m Model) waitForView() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		return viewMsg(<-updates)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case viewMsg:
		m.setView(controller.ViewState(msg))
		return m, m.waitForView()

	case opDoneMsg:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil && msg.op == "save" {
			m.notice = IconSaved + "Saved recording " + msg.id
		}
		m.setView(m.ctrl.View())
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = "Transcript copied to clipboard"
		}
		return m, nil

	case tickMsg:
		if m.view.State == controller.StateRecording {
			m.view = m.ctrl.View()
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) setView(v controller.ViewState) {
	m.view = v
	if v.State != controller.StateSavingTitle && m.titleInput.Focused() {
		m.titleInput.Blur()
	}
}

// run executes a blocking controller call off the update loop. Keys for
// another blocking call are ignored until the running one reports back.
func (m Model) run(op string, fn func() (string, error)) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = op
	return m, func() tea.Msg {
		id, err := fn()
		return opDoneMsg{op: op, id: id, err: err}
	}
}

// inline executes a fast controller call
func (m Model) inline(fn func() error) (tea.Model, tea.Cmd) {
	if err := fn(); err != nil {
		m.err = err
	}
	m.setView(m.ctrl.View())
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	m.err = nil
	m.notice = ""

	if m.view.State == controller.StateSavingTitle {
		return m.handleTitleKey(msg)
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "r", " ", "space":
		switch m.view.State {
		case controller.StateIdle, controller.StateRecording:
			return m.run("record", func() (string, error) {
				return "", m.ctrl.ToggleRecord(m.ctx)
			})
		}
		return m, nil

	case "p":
		return m.inline(m.ctrl.TogglePlay)

	case "left":
		return m.inline(func() error { return m.ctrl.SeekBy(-m.seekStep) })

	case "right":
		return m.inline(func() error { return m.ctrl.SeekBy(m.seekStep) })

	case "u":
		if m.view.State == controller.StateUploading {
			return m, nil
		}
		opts := transcribe.DefaultOptions()
		if m.prefs != nil {
			opts = m.prefs.Preferences().Options()
		}
		return m.run("upload", func() (string, error) {
			return "", m.ctrl.Upload(m.ctx, opts)
		})

	case "s":
		if err := m.ctrl.RequestSave(); err != nil {
			m.err = err
			return m, nil
		}
		m.titleInput.SetValue("")
		cmd := m.titleInput.Focus()
		m.view = m.ctrl.View()
		return m, cmd

	case "d":
		return m.inline(m.ctrl.Discard)

	case "c":
		return m.copyTranscript()

	case "l":
		if m.prefs != nil {
			m.prefs.UpdatePreferences(m.prefs.Preferences().NextLanguage())
		}
		return m, nil

	case "m":
		if m.prefs != nil {
			m.prefs.UpdatePreferences(m.prefs.Preferences().ToggleSummarize())
		}
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.view.Result == nil || m.nav == nil {
			return m, nil
		}
		idx := int(key[0] - '1')
		if !m.nav.JumpToIndex(m.view.Result, idx) {
			m.notice = "No timestamp for that entry"
		}
		m.view = m.ctrl.View()
		return m, nil
	}

	return m, nil
}

func (m Model) handleTitleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := m.titleInput.Value()
		return m.run("save", func() (string, error) {
			return m.ctrl.ConfirmSave(m.ctx, title)
		})

	case "esc":
		return m.inline(m.ctrl.ReturnToResult)

	case "ctrl+d":
		return m.inline(m.ctrl.CancelSave)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	n := m.view.Waveform.Len()
	if n == 0 || msg.Y != waveformRow || msg.X < waveformLeft || msg.X >= waveformLeft+n {
		return m, nil
	}
	fraction := float64(msg.X-waveformLeft) / float64(n)
	return m.inline(func() error { return m.ctrl.SeekFraction(fraction) })
}

func (m Model) copyTranscript() (tea.Model, tea.Cmd) {
	if m.view.Result == nil {
		return m, nil
	}
	text := m.view.Result.PlainText()
	write := m.clipboard
	return m, func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

// View renders the UI
func (m Model) View() string {
	lines := []string{
		m.renderHeader(),
		"",
		m.renderStatus(),
		m.renderWaveform(),
		"",
	}

	if body := m.renderBody(); body != "" {
		lines = append(lines, body, "")
	}
	if msg := m.renderMessages(); msg != "" {
		lines = append(lines, msg)
	}
	lines = append(lines, m.renderHelp())

	return strings.Join(lines, "\n")
}

func (m Model) renderHeader() string {
	state := m.view.State
	label := StateStyle.Render(state.Icon() + " " + state.Label())
	if state == controller.StateRecording {
		label = RecordingStyle.Render(state.Icon() + " " + state.Label())
	}

	header := LogoStyle.Render("meetrec") + "  " + label
	if m.prefs != nil {
		p := m.prefs.Preferences()
		summary := "off"
		if p.Summarize {
			summary = "on"
		}
		header += "  " + HelpDescStyle.Render(fmt.Sprintf("lang %s · summary %s", p.Options().Language, summary))
	}
	return header
}

func (m Model) renderStatus() string {
	v := m.view
	switch {
	case v.State == controller.StateRecording:
		return RecordingStyle.Render(IconMic+"REC") + " " +
			formatElapsed(v.RecordingElapsed) + "  " + renderLevel(v.InputLevel)

	case v.HasClip():
		icon := IconPause
		if v.Playing {
			icon = IconPlay
		}
		status := icon + transcribe.FormatTimestamp(v.PositionMs) + " / " + transcribe.FormatTimestamp(v.DurationMs)
		if v.SpeechChecked {
			status += HelpDescStyle.Render(fmt.Sprintf("  speech %s", transcribe.FormatTimestamp(v.SpeechMs)))
		}
		if v.State == controller.StateUploading || m.busy != "" || v.Saving {
			status += "  " + m.spinner.View() + " " + busyLabel(m.busy, v)
		}
		return status

	default:
		if m.busy != "" {
			return m.spinner.View() + " " + busyLabel(m.busy, v)
		}
		return HelpDescStyle.Render("Press r to start recording")
	}
}

func busyLabel(op string, v controller.ViewState) string {
	switch {
	case v.State == controller.StateUploading:
		return "Transcribing..."
	case v.Saving || op == "save":
		return "Saving..."
	case op == "record":
		return "Please wait..."
	default:
		return "Working..."
	}
}

func (m Model) renderWaveform() string {
	samples := m.view.Waveform.Samples
	if len(samples) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", waveformLeft))
	for i, amp := range samples {
		bar := string(bars[barIndex(amp)])
		if m.view.Waveform.Played(i, m.view.PositionMs, m.view.DurationMs) {
			b.WriteString(PlayedBarStyle.Render(bar))
		} else {
			b.WriteString(PendingBarStyle.Render(bar))
		}
	}
	return b.String()
}

func barIndex(amp float64) int {
	idx := int(amp * float64(len(bars)-1))
	if idx < 0 {
		return 0
	}
	if idx >= len(bars) {
		return len(bars) - 1
	}
	return idx
}

func renderLevel(level float64) string {
	const width = 20
	n := int(level * width * 4)
	if n > width {
		n = width
	}
	return LevelStyle.Render(strings.Repeat("▮", n)) + PendingBarStyle.Render(strings.Repeat("▯", width-n))
}

func formatElapsed(d time.Duration) string {
	return transcribe.FormatTimestamp(d.Milliseconds())
}

func (m Model) renderBody() string {
	v := m.view
	if v.State == controller.StateSavingTitle {
		return "Title: " + m.titleInput.View()
	}
	if v.Result == nil || (v.State != controller.StateShowingResult) {
		return ""
	}
	return m.renderResult(v.Result)
}

func (m Model) renderResult(r *transcribe.Result) string {
	width := m.width - 4
	if width < 20 {
		width = 76
	}

	var b strings.Builder
	n := 0

	if len(r.SummaryBullets) > 0 {
		b.WriteString(SectionStyle.Render("Summary"))
		for _, bullet := range r.SummaryBullets {
			b.WriteString("\n" + BodyStyle.Width(width).Render("• "+bullet))
		}
	}

	if len(r.Topics) > 0 {
		b.WriteString("\n" + SectionStyle.Render("Topics"))
		for _, t := range r.Topics {
			n++
			b.WriteString("\n" + renderEntry(n, t.Text, t.StartMs, t.HasStart))
			if len(t.Tags) > 0 {
				b.WriteString(" " + TagStyle.Render("("+strings.Join(t.Tags, ", ")+")"))
			}
		}
	}

	if len(r.KeyPoints) > 0 {
		b.WriteString("\n" + SectionStyle.Render("Key points"))
		for _, k := range r.KeyPoints {
			n++
			b.WriteString("\n" + renderEntry(n, k.Text, k.StartMs, k.HasStart))
		}
	}

	if r.FullText != "" {
		b.WriteString("\n" + SectionStyle.Render("Transcript"))
		b.WriteString("\n" + BodyStyle.Width(width).Render(r.FullText))
	}

	return PanelStyle.Render(strings.TrimPrefix(b.String(), "\n"))
}

func renderEntry(n int, text string, startMs int64, hasStart bool) string {
	prefix := "   "
	if n <= 9 && hasStart {
		prefix = HelpKeyStyle.Render(fmt.Sprintf("%d", n)) + "  "
	}
	if hasStart {
		prefix += TimestampStyle.Render("["+transcribe.FormatTimestamp(startMs)+"]") + " "
	}
	return prefix + BodyStyle.Render(text)
}

func (m Model) renderMessages() string {
	err := m.view.Err
	if err == nil {
		err = m.err
	}
	if err != nil {
		return ErrorStyle.Render(IconError + apperr.UserMessage(err))
	}
	if m.notice != "" {
		return NoticeStyle.Render(m.notice)
	}
	if m.view.State == controller.StateIdle && m.view.SavedID != "" {
		return NoticeStyle.Render(IconSaved + "Saved")
	}
	return ""
}

func (m Model) renderHelp() string {
	var items []string
	switch m.view.State {
	case controller.StateIdle:
		items = []string{RenderHelp("r", "record"), RenderHelp("l", "language"), RenderHelp("m", "summary")}
	case controller.StateRecording:
		items = []string{RenderHelp("r", "stop"), RenderHelp("d", "discard")}
	case controller.StateReviewing:
		items = []string{RenderHelp("p", "play"), RenderHelp("←/→", "seek"), RenderHelp("u", "transcribe"), RenderHelp("d", "discard")}
	case controller.StateUploading:
		items = []string{RenderHelp("p", "play"), RenderHelp("d", "discard")}
	case controller.StateShowingResult:
		items = []string{RenderHelp("1-9", "jump"), RenderHelp("p", "play"), RenderHelp("c", "copy"), RenderHelp("s", "save"), RenderHelp("d", "discard")}
	case controller.StateSavingTitle:
		items = []string{RenderHelp("enter", "save"), RenderHelp("esc", "back"), RenderHelp("ctrl+d", "discard")}
	}
	if m.view.State != controller.StateSavingTitle {
		items = append(items, RenderHelp("q", "quit"))
	}
	return strings.Join(items, "  ")
}

// Run starts the recorder TUI and blocks until it exits
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
