// Package tui is the terminal front end of the player.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"musicstream/controller"
	"musicstream/models"
)

const (
	seekStep      = 0.05
	defaultWidth  = 60
	maxBarWidth   = 80
	visibleTracks = 12
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	currentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Gesturer is implemented by devices that gate autoplay on user activation.
type Gesturer interface {
	Gesture()
}

type catalogLoadedMsg struct {
	err error
}

type stateMsg controller.State

// Model renders a Player and maps key presses onto its commands.
type Model struct {
	ctx         context.Context
	player      *controller.Player
	device      Gesturer
	states      <-chan controller.State
	unsubscribe func()

	state  controller.State
	tracks []models.Track
	cursor int
	width  int
	err    error
	help   help.Model
	keys   keyMap
}

// New subscribes to player. Call Close once the program exits.
func New(ctx context.Context, player *controller.Player, device Gesturer) Model {
	states, unsubscribe := player.Subscribe()
	return Model{
		ctx:         ctx,
		player:      player,
		device:      device,
		states:      states,
		unsubscribe: unsubscribe,
		state:       player.State(),
		width:       defaultWidth,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

func (m Model) Close() {
	m.unsubscribe()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCatalog(), m.waitForState())
}

func (m Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		return catalogLoadedMsg{err: m.player.LoadCatalog(m.ctx)}
	}
}

func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.states
		if !ok {
			return nil
		}
		return stateMsg(state)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case catalogLoadedMsg:
		m.err = msg.err
		m.tracks = m.player.Tracks()
		m.state = m.player.State()
		m.cursor = max(0, models.TrackIndex(m.tracks, m.state.TrackID()))
		return m, nil

	case stateMsg:
		prev := m.state.TrackID()
		m.state = controller.State(msg)
		// auto-advance moves the cursor along with playback
		if id := m.state.TrackID(); id != prev {
			m.followTrack(id)
		}
		return m, m.waitForState()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.tracks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.enter):
		if m.cursor < len(m.tracks) {
			m.gesture()
			m.player.SelectTrack(m.tracks[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.toggle):
		if m.state.Playing {
			m.player.Pause()
		} else {
			m.gesture()
			m.player.Play()
		}
	case key.Matches(msg, m.keys.next):
		m.gesture()
		m.player.Next()
		m.followTrack(m.player.State().TrackID())
	case key.Matches(msg, m.keys.previous):
		m.gesture()
		m.player.Previous()
		m.followTrack(m.player.State().TrackID())
	case key.Matches(msg, m.keys.back):
		m.player.Seek(math.Max(0, m.state.Fill/100-seekStep))
	case key.Matches(msg, m.keys.forward):
		m.player.Seek(math.Min(1, m.state.Fill/100+seekStep))
	case key.Matches(msg, m.keys.reload):
		return m, m.loadCatalog()
	default:
		return m, nil
	}
	m.state = m.player.State()
	return m, nil
}

func (m *Model) gesture() {
	if m.device != nil {
		m.device.Gesture()
	}
}

func (m *Model) followTrack(id string) {
	if i := models.TrackIndex(m.tracks, id); i >= 0 {
		m.cursor = i
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("musicstream"))
	b.WriteString("\n\n")

	if m.state.Track == nil {
		b.WriteString(subtleStyle.Render("Nothing playing"))
		b.WriteString("\n")
	} else {
		status := "⏸"
		if m.state.Playing {
			status = "▶"
		}
		fmt.Fprintf(&b, "%s %s\n", status, currentStyle.Render(m.state.Track.Name))
		if m.state.Track.Album != "" {
			b.WriteString(subtleStyle.Render(m.state.Track.Album))
			b.WriteString("\n")
		}
		barWidth := min(maxBarWidth, max(10, m.width-14))
		fmt.Fprintf(&b, "%s %s %s\n",
			m.state.Elapsed, progressBar(m.state.Fill, barWidth), m.state.Total)
	}
	b.WriteString("\n")

	start, end := window(len(m.tracks), m.cursor, visibleTracks)
	current := m.state.TrackID()
	for i := start; i < end; i++ {
		t := m.tracks[i]
		line := t.Name
		if t.Duration != "" {
			line += subtleStyle.Render("  " + t.Duration)
		}
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		if t.ID == current {
			line = currentStyle.Render(t.Name)
			if t.Duration != "" {
				line += subtleStyle.Render("  " + t.Duration)
			}
		}
		b.WriteString(prefix + line + "\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// progressBar renders fill (0..100) as a bar of width cells.
func progressBar(fill float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(fill / 100 * float64(width)))
	filled = min(width, max(0, filled))
	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// window returns the [start, end) slice of n rows that keeps cursor visible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	start = max(0, min(start, n-size))
	return start, start + size
}
