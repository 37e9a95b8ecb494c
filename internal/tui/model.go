// Package tui is the terminal front end. It draws view.Render output with
// bubbletea and lipgloss and forwards keys to the core and ingress
// controllers; it never changes client state itself.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rescale/pdfmerge/internal/core"
	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/ingress"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/view"
)

// Options are the dependencies of the terminal UI.
type Options struct {
	Core      *core.Controller
	Ingress   *ingress.Controller
	EventBus  *events.EventBus
	Confirmer *Confirmer // must be the controller's confirmer
	Logger    *logging.Logger

	// DropDir enables the d key. The watcher starts with the UI unless DropPaused.
	DropDir    string
	DropPaused bool
}

// Messages
type (
	busEventMsg struct{}

	opDoneMsg struct {
		op       string
		location string
		err      error
	}

	selectDoneMsg struct {
		reset bool
		err   error
	}

	dropStoppedMsg struct {
		gen int
		err error
	}
)

// Model is the bubbletea model of the terminal UI.
type Model struct {
	ctx       context.Context
	core      *core.Controller
	ingress   *ingress.Controller
	confirmer *Confirmer
	events    <-chan events.Event
	logger    *logging.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	adding  bool

	view   view.View
	cursor int

	// Pending confirmation question
	prompt *confirmRequest

	dropDir  string
	dropStop context.CancelFunc // non-nil while watching
	dropGen  int

	lastSaved string
	initCmd   tea.Cmd
	width     int
}

// New creates the model and subscribes to the event bus.
func New(ctx context.Context, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	input := textinput.New()
	input.Placeholder = "paths or patterns, space separated"
	input.Prompt = "Add files: "

	m := Model{
		ctx:       ctx,
		core:      opts.Core,
		ingress:   opts.Ingress,
		confirmer: opts.Confirmer,
		logger:    opts.Logger,
		keys:      newKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StyleHighlight)),
		input:     input,
		dropDir:   opts.DropDir,
	}
	if opts.EventBus != nil {
		m.events = opts.EventBus.SubscribeAll()
	}
	if m.dropDir != "" && !opts.DropPaused {
		var cmd tea.Cmd
		m, cmd = m.startDrop()
		m.initCmd = cmd
	}
	m = m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), waitForConfirm(m.confirmer), m.initCmd)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case busEventMsg:
		return m.refresh(), waitForEvent(m.events)

	case confirmMsg:
		req := confirmRequest(msg)
		m.prompt = &req
		return m, nil

	case opDoneMsg:
		if msg.err == nil && msg.location != "" {
			m.lastSaved = msg.location
		}
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Str("op", msg.op).Msg("Operation ended with error")
		}
		return m.refresh(), nil

	case selectDoneMsg:
		if msg.reset {
			m.input.Reset()
		}
		return m.refresh(), nil

	case dropStoppedMsg:
		if msg.gen != m.dropGen {
			return m, nil
		}
		m.dropStop = nil
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.core.Toasts().Error("Drop folder stopped: " + msg.err.Error())
		}
		return m.refresh(), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(true), waitForConfirm(m.confirmer)
		case key.Matches(msg, m.keys.No):
			return m.answer(false), waitForConfirm(m.confirmer)
		case msg.String() == "ctrl+c":
			return m.stopDrop(), tea.Quit
		}
		return m, nil
	}

	if m.adding {
		switch {
		case key.Matches(msg, m.keys.Submit):
			m.adding = false
			m.input.Blur()
			return m, m.selectPaths(m.input.Value())
		case key.Matches(msg, m.keys.Cancel):
			m.adding = false
			m.input.Blur()
			m.input.Reset()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m = m.stopDrop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Remove):
		if len(m.view.Rows) == 0 {
			return m, nil
		}
		stored := m.view.Rows[m.cursor].StoredName
		return m, m.run("remove_file", func(ctx context.Context) (string, error) {
			return "", m.core.RemoveFile(ctx, stored)
		})

	case key.Matches(msg, m.keys.Merge):
		return m, m.run("merge", m.core.Merge)

	case key.Matches(msg, m.keys.Clear):
		if !m.view.Clear.Visible {
			return m, nil
		}
		return m, m.run("clear", func(ctx context.Context) (string, error) {
			return "", m.core.ClearAll(ctx)
		})

	case key.Matches(msg, m.keys.Drop):
		if m.dropDir == "" {
			return m, nil
		}
		if m.dropStop != nil {
			return m.stopDrop().refresh(), nil
		}
		var cmd tea.Cmd
		m, cmd = m.startDrop()
		return m.refresh(), cmd

	case key.Matches(msg, m.keys.Dismiss):
		for _, t := range m.view.Toasts {
			if !t.Leaving {
				m.core.Toasts().Dismiss(t.ID)
				break
			}
		}
	}

	return m, nil
}

// answer resolves the pending confirmation.
func (m Model) answer(ok bool) Model {
	m.prompt.answer <- ok
	m.prompt = nil
	return m
}

// run executes a blocking controller operation off the UI goroutine.
func (m Model) run(op string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		location, err := fn(ctx)
		return opDoneMsg{op: op, location: location, err: err}
	}
}

// selectPaths uploads files chosen in the add prompt as a manual selection.
// An unreadable path is reported and the input kept for correction.
func (m Model) selectPaths(raw string) tea.Cmd {
	ctx, c, in := m.ctx, m.core, m.ingress
	patterns := strings.Fields(raw)
	return func() tea.Msg {
		paths, err := ingress.ExpandPatterns(patterns)
		if err != nil {
			c.Toasts().Error(err.Error())
			return selectDoneMsg{err: err}
		}
		candidates, err := ingress.LocalCandidates(paths)
		if err != nil {
			c.Toasts().Error(err.Error())
			return selectDoneMsg{err: err}
		}

		reset := false
		err = in.Select(ctx, candidates, ingress.SelectorFunc(func() { reset = true }))
		return selectDoneMsg{reset: reset, err: err}
	}
}

func (m Model) startDrop() (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.dropStop = cancel
	m.dropGen++
	gen := m.dropGen

	w := ingress.NewDropWatcher(m.dropDir, 0, m.ingress.Drop, m.logger)
	return m, func() tea.Msg {
		return dropStoppedMsg{gen: gen, err: w.Run(ctx)}
	}
}

func (m Model) stopDrop() Model {
	if m.dropStop != nil {
		m.dropStop()
		m.dropStop = nil
	}
	if m.prompt != nil {
		m = m.answer(false)
	}
	return m
}

// refresh re-renders the view from controller state.
func (m Model) refresh() Model {
	state := m.core.ViewState()
	if m.ingress != nil {
		state.DragOver = m.ingress.DragOver()
	}
	m.view = view.Render(state)

	if m.cursor >= len(m.view.Rows) {
		m.cursor = len(m.view.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return busEventMsg{}
	}
}

// Run starts the terminal UI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	if opts.EventBus != nil && m.events != nil {
		defer opts.EventBus.UnsubscribeAll(m.events)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.stopDrop()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
