package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/multiplayer"
)

// chromeRows is the height of the status and help lines under the field.
const chromeRows = 2

var (
	statusStyle = lipgloss.NewStyle().Bold(true)
	wonStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	lostStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the Bubble Tea model for one player's view of a networked match.
// Every tick it drains the event source into the client, advances the
// predicted world and redraws.
type Model struct {
	client   *multiplayer.Client
	events   multiplayer.EventSource
	server   string
	screen   *core.Screen
	keys     KeyMap
	help     help.Model
	config   core.RuntimeConfig
	last     time.Time
	quitting bool
}

// NewModel creates a view driving client with events from src.
// server is only shown in the status line.
func NewModel(client *multiplayer.Client, src multiplayer.EventSource, server string, cfg core.RuntimeConfig) Model {
	return Model{
		client: client,
		events: src,
		server: server,
		screen: core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		config: cfg,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.keys.MapKey(msg) {
	case core.ActionQuit:
		m.quitting = true
		_ = m.client.Close()
		return m, tea.Quit
	case core.ActionTurnLeft:
		m.client.TurnLeft()
	case core.ActionTurnRight:
		m.client.TurnRight()
	}
	return m, nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	for _, ev := range m.events.Poll(0) {
		m.client.HandleEvent(ev.Kind, ev.Conn)
	}

	if !m.last.IsZero() {
		m.client.Update(now.Sub(m.last))
	}
	m.last = now

	return m, tickCmd(m.config.TickRate)
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	fieldRows := m.screen.Height() - chromeRows
	if w := m.client.World(); w != nil && fieldRows > 0 {
		DrawField(m.screen, fieldRows, w, m.client.Player())
	} else {
		m.screen.DrawTextCentered(m.screen.Height()/2, "connecting to "+m.server+"...", core.ColorGray)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderScreen(m.screen),
		m.statusLine(),
		dimStyle.Render(m.help.View(m.keys)),
	)
}

func (m Model) statusLine() string {
	st := m.client.Status()
	switch st {
	case multiplayer.StatusWon:
		return wonStyle.Render("You won! Press q to leave.")
	case multiplayer.StatusLost:
		return lostStyle.Render("You died. Press q to leave.")
	case multiplayer.StatusDisconnected:
		return lostStyle.Render("Disconnected from " + m.server + ". Press q to leave.")
	}

	w := m.client.World()
	if w == nil {
		return statusStyle.Render(st.String())
	}
	line := fmt.Sprintf("snek %s  player %d/%d  %s", m.server, m.client.Player()+1, w.Players(), st)
	if s := w.Snake(m.client.Player()); s != nil {
		line += fmt.Sprintf("  length %.1f", s.TotalLength()+s.ExtraLength())
	}
	color := colorStyles[core.PlayerColor(m.client.Player())]
	return color.Bold(true).Render(line)
}

// Run starts a Bubble Tea program for client and blocks until the user quits.
func Run(client *multiplayer.Client, src multiplayer.EventSource, server string, cfg core.RuntimeConfig) error {
	model := NewModel(client, src, server, cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
