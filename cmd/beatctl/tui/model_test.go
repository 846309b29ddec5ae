package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtrece/beats-server/internal/playback"
)

func newTestModel(t *testing.T, n int) (Model, *playback.Session, *playback.SimulatedTransport) {
	t.Helper()
	tracks := make([]playback.Track, n)
	for i := range tracks {
		tracks[i] = playback.Track{
			ItemID:   int64(i + 1),
			Title:    []string{"Alpha", "Beta", "Gamma"}[i%3],
			Artist:   "Nova",
			AudioRef: []string{"/audio/a.mp3", "/audio/b.mp3", "/audio/c.mp3"}[i%3],
			Duration: time.Minute,
		}
	}
	tr := playback.NewSimulatedTransport(playback.DurationsFromTracks(tracks))
	tr.SetLoadDelay(0)
	s := playback.NewSession(tr, tr)
	tr.Attach(s)
	t.Cleanup(func() { _ = s.Close() })

	s.LoadPlaylist(tracks, 0)
	tr.Advance(time.Millisecond)

	// The model caches the snapshot it was built with.
	m := New(s)
	require.Equal(t, n > 0, m.snap.IsPlayerVisible)
	return m, s, tr
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestKeys_DriveSession(t *testing.T) {
	m, s, _ := newTestModel(t, 3)

	m = press(t, m, "n")
	assert.Equal(t, 1, s.Snapshot().CurrentIndex)
	assert.Equal(t, 1, m.snap.CurrentIndex)

	m = press(t, m, "p")
	m = press(t, m, "p")
	assert.Equal(t, 2, s.Snapshot().CurrentIndex)

	m = press(t, m, " ")
	assert.False(t, m.snap.IsPlaying)

	m = press(t, m, "l")
	assert.True(t, m.snap.IsLooping)

	m = press(t, m, "f")
	assert.True(t, m.snap.IsFullScreen)
	m = press(t, m, "h")
	assert.False(t, m.snap.IsPlayerVisible)
	assert.False(t, m.snap.IsFullScreen)
}

func TestKeys_Volume(t *testing.T) {
	m, _, tr := newTestModel(t, 1)

	m = press(t, m, "-")
	m = press(t, m, "-")
	assert.InDelta(t, 0.8, m.snap.Volume, 1e-9)

	m = press(t, m, "m")
	assert.Zero(t, m.snap.Volume)
	assert.Zero(t, tr.Volume())

	m = press(t, m, "m")
	assert.InDelta(t, 0.8, m.snap.Volume, 1e-9)

	for range 5 {
		m = press(t, m, "+")
	}
	assert.Equal(t, 1.0, m.snap.Volume)
}

func TestKeys_Seek(t *testing.T) {
	m, _, _ := newTestModel(t, 1)

	m = press(t, m, "right")
	assert.Equal(t, 10*time.Second, m.snap.CurrentTime)

	m = press(t, m, "left")
	m = press(t, m, "left")
	assert.Zero(t, m.snap.CurrentTime)
}

func TestKeys_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, 1)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestUpdate_ErrorMessageShown(t *testing.T) {
	m, _, _ := newTestModel(t, 1)

	next, cmd := m.Update(errorMsg{Track: playback.Track{Title: "Alpha"}, Err: errors.New("decode failed")})
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "cannot play Alpha: decode failed")
}

func TestView(t *testing.T) {
	m, _, _ := newTestModel(t, 3)

	out := m.View()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "0:00 / 1:00")
	assert.NotContains(t, out, "Gamma")

	m = press(t, m, "f")
	assert.Contains(t, m.View(), "Gamma")

	m = press(t, m, "h")
	assert.Contains(t, m.View(), "Player hidden")
}

func TestUpdate_StateMessageRefreshesView(t *testing.T) {
	tr := playback.NewSimulatedTransport(nil)
	tr.SetLoadDelay(0)
	s := playback.NewSession(tr, tr)
	tr.Attach(s)
	t.Cleanup(func() { _ = s.Close() })

	m := New(s)
	assert.Contains(t, m.View(), "Nothing to play")

	s.LoadPlaylist([]playback.Track{{Title: "Alpha", Artist: "Nova", AudioRef: "/audio/a.mp3"}}, 0)
	next, cmd := m.Update(stateMsg(s.Snapshot()))
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Alpha")
}

func TestView_Empty(t *testing.T) {
	s := playback.NewSession(playback.NewSimulatedTransport(nil), nil)
	assert.Contains(t, New(s).View(), "Nothing to play")
}

func TestWaitForUpdate(t *testing.T) {
	m, s, _ := newTestModel(t, 2)
	s.PlayNext()

	msg := waitForUpdate(m.sub)()

	switch msg.(type) {
	case stateMsg, trackMsg:
	default:
		t.Fatalf("unexpected message %T", msg)
	}

	require.NoError(t, s.Close())
	for {
		if _, ok := waitForUpdate(m.sub)().(closedMsg); ok {
			break
		}
	}
}
