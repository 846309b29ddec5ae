// Package tui renders a playback session as a bubbletea program.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sixtrece/beats-server/internal/playback"
)

const (
	seekStep   = 10 * time.Second
	volumeStep = 0.1
)

type (
	stateMsg  playback.Snapshot
	trackMsg  playback.TrackChange
	errorMsg  playback.ErrorEvent
	closedMsg struct{}
)

// Model is the bubbletea model. All state lives in the session; the model
// only caches the latest snapshot for rendering.
type Model struct {
	session *playback.Session
	sub     *playback.Subscription

	snap    playback.Snapshot
	lastErr string
	width   int
}

// New creates a model bound to session.
func New(session *playback.Session) Model {
	return Model{
		session: session,
		sub:     session.Subscribe(),
		snap:    session.Snapshot(),
		width:   80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.sub)
}

func waitForUpdate(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-sub.StateChanged:
			return stateMsg(s)
		case t := <-sub.TrackChanged:
			return trackMsg(t)
		case e := <-sub.Error:
			return errorMsg(e)
		case <-sub.Done:
			return closedMsg{}
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateMsg:
		m.snap = playback.Snapshot(msg)
		return m, waitForUpdate(m.sub)

	case trackMsg:
		m.lastErr = ""
		return m, waitForUpdate(m.sub)

	case errorMsg:
		m.lastErr = "cannot play " + msg.Track.Title
		if msg.Err != nil {
			m.lastErr += ": " + msg.Err.Error()
		}
		return m, waitForUpdate(m.sub)

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "space":
		s.TogglePlayPause()
	case "n":
		s.PlayNext()
	case "p":
		s.PlayPrevious()
	case "l":
		s.ToggleLoop()
	case "m":
		s.ToggleMute()
	case "+", "=":
		s.SetVolume(s.Snapshot().Volume + volumeStep)
	case "-":
		s.SetVolume(s.Snapshot().Volume - volumeStep)
	case "right":
		s.Seek(s.Snapshot().CurrentTime + seekStep)
	case "left":
		s.Seek(s.Snapshot().CurrentTime - seekStep)
	case "f":
		s.ToggleFullScreen()
	case "h":
		s.HidePlayer()
	default:
		return m, nil
	}

	// Render the command's effect without waiting for the subscription.
	m.snap = s.Snapshot()
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	return render(m.snap, m.lastErr, m.width)
}

// Run starts the program in the alternate screen and blocks until the user quits.
func Run(session *playback.Session) error {
	_, err := tea.NewProgram(New(session), tea.WithAltScreen()).Run()
	return err
}
