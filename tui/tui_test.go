package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicstream/audio"
	"musicstream/controller"
	"musicstream/models"
)

type staticSource struct {
	songs []models.Track
}

func (s staticSource) ListSongs(ctx context.Context) ([]models.Track, error) {
	return s.songs, nil
}

func (s staticSource) ListAlbums(ctx context.Context) ([]models.Album, error) {
	return nil, nil
}

type gestures struct{ n int }

func (g *gestures) Gesture() { g.n++ }

func newTestModel(t *testing.T) (Model, *controller.Player, *audio.Mock, *gestures) {
	t.Helper()
	source := staticSource{songs: []models.Track{
		{ID: "a", Name: "Alpha", File: "a.mp3", Duration: "1:40"},
		{ID: "b", Name: "Bravo", File: "b.mp3"},
		{ID: "c", Name: "Charlie", File: "c.mp3"},
	}}
	device := audio.NewMock()
	device.SetDuration("a.mp3", 100)
	player := controller.New(source, controller.WithDevice(device))
	t.Cleanup(player.Close)

	g := &gestures{}
	m := New(context.Background(), player, g)
	t.Cleanup(m.Close)

	require.NoError(t, player.LoadCatalog(context.Background()))
	updated, _ := m.Update(catalogLoadedMsg{})
	return updated.(Model), player, device, g
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCatalogLoadedShowsTracks(t *testing.T) {
	m, _, _, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "Charlie")
	assert.Contains(t, view, "0:00")
	assert.Contains(t, view, "1:40")
	assert.Equal(t, 0, m.cursor)
}

func TestKeysDrivePlayer(t *testing.T) {
	m, player, device, g := newTestModel(t)

	m = press(t, m, runes("n"))
	assert.Equal(t, "b", player.State().TrackID())
	assert.Equal(t, 1, m.cursor)

	m = press(t, m, runes("p"))
	assert.Equal(t, "a", player.State().TrackID())
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, player.State().Playing)
	assert.False(t, m.state.Playing)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, player.State().Playing)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "c", player.State().TrackID())

	assert.Equal(t, []string{"a.mp3", "b.mp3", "a.mp3", "c.mp3"}, device.Loads())
	assert.Equal(t, 4, g.n)
}

func TestSeekKeys(t *testing.T) {
	m, _, device, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	require.Len(t, device.Seeks(), 1)
	assert.InDelta(t, 5.0, device.Seeks()[0], 1e-9)

	press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Len(t, device.Seeks(), 2)
}

func TestQuit(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStateMessagesAreApplied(t *testing.T) {
	m, _, _, _ := newTestModel(t)
	state := controller.State{Elapsed: controller.Clock{Minute: 2, Second: 3}}

	updated, cmd := m.Update(stateMsg(state))
	assert.NotNil(t, cmd)
	assert.Equal(t, controller.Clock{Minute: 2, Second: 3}, updated.(Model).state.Elapsed)
	assert.Contains(t, updated.(Model).View(), "Nothing playing")
}

func TestCursorFollowsAutoAdvance(t *testing.T) {
	m, player, device, _ := newTestModel(t)
	require.Equal(t, 0, m.cursor)

	player.Next()
	device.Finish()
	require.Eventually(t, func() bool { return player.State().TrackID() == "c" }, time.Second, 5*time.Millisecond)

	updated, _ := m.Update(stateMsg(player.State()))
	m = updated.(Model)
	assert.Equal(t, 2, m.cursor)

	// a snapshot for the same track leaves a browsing cursor alone
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	updated, _ = m.Update(stateMsg(player.State()))
	assert.Equal(t, 1, updated.(Model).cursor)
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fill   float64
		filled int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := progressBar(tt.fill, 10)
		assert.Equal(t, tt.filled, strings.Count(bar, "━"), tt.fill)
		assert.Equal(t, 10-tt.filled, strings.Count(bar, "─"), tt.fill)
	}
	assert.Empty(t, progressBar(50, 0))
}

func TestWindow(t *testing.T) {
	start, end := window(5, 3, 12)
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, end)

	start, end = window(30, 0, 12)
	assert.Equal(t, 0, start)
	assert.Equal(t, 12, end)

	start, end = window(30, 29, 12)
	assert.Equal(t, 18, start)
	assert.Equal(t, 30, end)

	start, end = window(30, 15, 12)
	assert.Equal(t, 9, start)
	assert.Equal(t, 21, end)
}
