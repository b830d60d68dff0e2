package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-snek/internal/storage"
)

// History layout constants
const (
	maxMatches     = 100 // Max matches to load
	historyChrome  = 8   // Rows taken by title, tabs, borders and help
	historyMinRows = 3
)

// HistoryStore is the part of the match store the history view reads.
type HistoryStore interface {
	RecentMatches(limit int) ([]storage.Match, error)
	PlayerStats() ([]storage.PlayerStats, error)
}

type historyTab int

const (
	tabMatches historyTab = iota
	tabPlayers
	tabCount
)

func (t historyTab) String() string {
	if t == tabPlayers {
		return "Players"
	}
	return "Matches"
}

// HistoryKeyMap defines the key bindings for the history view.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Reload, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Reload, k.Quit},
	}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev tab"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HistoryModel is the Bubble Tea model for browsing recorded matches.
type HistoryModel struct {
	store    HistoryStore
	tab      historyTab
	matches  []storage.Match
	stats    []storage.PlayerStats
	err      error
	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	quitting bool
}

// NewHistoryModel creates a history view over store and loads it.
func NewHistoryModel(store HistoryStore, width, height int) HistoryModel {
	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.load()
	m.table = m.createTable()
	return m
}

func (m *HistoryModel) load() {
	m.matches, m.stats, m.err = nil, nil, nil
	if m.store == nil {
		return
	}
	if m.matches, m.err = m.store.RecentMatches(maxMatches); m.err != nil {
		return
	}
	m.stats, m.err = m.store.PlayerStats()
}

func (m HistoryModel) columns() []table.Column {
	if m.tab == tabPlayers {
		return []table.Column{
			{Title: "Player", Width: 20},
			{Title: "Matches", Width: 8},
			{Title: "Wins", Width: 6},
			{Title: "Best", Width: 6},
			{Title: "Last played", Width: 14},
		}
	}
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Date", Width: 14},
		{Title: "Length", Width: 8},
		{Title: "Players", Width: 30},
		{Title: "Winner", Width: 16},
	}
}

func (m HistoryModel) rows() []table.Row {
	if m.tab == tabPlayers {
		rows := make([]table.Row, len(m.stats))
		for i, st := range m.stats {
			rows[i] = table.Row{
				st.Player,
				fmt.Sprintf("%d", st.Matches),
				fmt.Sprintf("%d", st.Wins),
				fmt.Sprintf("%.1f", st.BestLength),
				st.LastPlayed.Format("Jan 02 15:04"),
			}
		}
		return rows
	}

	rows := make([]table.Row, len(m.matches))
	for i, mt := range m.matches {
		names := make([]string, len(mt.Players))
		for j, p := range mt.Players {
			names[j] = p.Player
		}
		winner := mt.WinnerName()
		if winner == "" {
			winner = "(" + mt.Reason + ")"
		} else if mt.Reason != "completed" {
			winner += " (" + mt.Reason + ")"
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", mt.ID),
			mt.StartedAt.Format("Jan 02 15:04"),
			mt.Duration.Round(time.Second).String(),
			strings.Join(names, ", "),
			winner,
		}
	}
	return rows
}

// createTable builds the table for the current tab and window size.
func (m HistoryModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithRows(m.rows()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-historyChrome, historyMinRows)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history view.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % tabCount
			m.table = m.createTable()
			return m, nil

		case key.Matches(msg, m.keys.PrevTab):
			m.tab = (m.tab + tabCount - 1) % tabCount
			m.table = m.createTable()
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.load()
			m.table = m.createTable()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history view.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(titleStyle.Render(centerText("MATCH HISTORY", m.width)))
	b.WriteString("\n\n")

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)
	tabs := make([]string, tabCount)
	for t := range tabCount {
		if t == m.tab {
			tabs[t] = activeTabStyle.Render(t.String())
		} else {
			tabs[t] = tabStyle.Render(t.String())
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.tableContent()))

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m HistoryModel) tableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.err != nil:
		return lostStyle.Render("cannot load history: " + m.err.Error())
	case m.tab == tabMatches && len(m.matches) == 0,
		m.tab == tabPlayers && len(m.stats) == 0:
		return emptyStyle.Render("No matches recorded yet.\nRun a server with a database to keep history.")
	}
	return m.table.View()
}

// centerText pads text on the left to center it within width.
func centerText(text string, width int) string {
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	return strings.Repeat(" ", (width-n)/2) + text
}

// RunHistory runs the match history view until the user quits.
func RunHistory(store HistoryStore, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
