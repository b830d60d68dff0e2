package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/multiplayer"
	"github.com/vovakirdan/tui-snek/internal/transport"
)

// idleSource never reports any connection activity.
type idleSource struct {
	polls int
}

func (s *idleSource) Poll(time.Duration) []transport.Event {
	s.polls++
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 60, ScreenH: 26, TickRate: 60}
}

func newIdleModel() (Model, *idleSource) {
	src := &idleSource{}
	client := multiplayer.NewClient(multiplayer.DefaultClientConfig(), quietLogger())
	return NewModel(client, src, "example:7777", testRuntime()), src
}

func TestModelConnectingView(t *testing.T) {
	m, src := newIdleModel()

	updated, cmd := m.Update(TickMsg(time.Now()))
	m = updated.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if src.polls != 1 {
		t.Errorf("polls = %d, expected 1", src.polls)
	}

	view := m.View()
	if !strings.Contains(view, "connecting to example:7777") {
		t.Errorf("view missing connecting notice:\n%s", view)
	}
	if !strings.Contains(view, "turn left") {
		t.Errorf("view missing help line:\n%s", view)
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newIdleModel()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(Model)
	if !m.Quitting() {
		t.Error("expected quitting after q")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("quitting view should be empty")
	}
}

func TestModelHelpToggle(t *testing.T) {
	m, _ := newIdleModel()
	short := m.View()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(Model)
	if !m.help.ShowAll {
		t.Fatal("expected full help after ?")
	}
	if m.View() == short {
		t.Error("full help should change the view")
	}
}

func TestModelResize(t *testing.T) {
	m, _ := newIdleModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)
	if m.screen.Width() != 100 || m.screen.Height() != 40 {
		t.Errorf("screen = %dx%d, expected 100x40", m.screen.Width(), m.screen.Height())
	}
}

// TestModelOverLoopback runs a real server on a loopback socket and drives
// two views through the handshake into a running match.
func TestModelOverLoopback(t *testing.T) {
	serverHub := transport.NewHub(transport.DefaultOptions(), quietLogger())
	defer serverHub.Close()
	addr, err := serverHub.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	cfg := multiplayer.DefaultServerConfig()
	cfg.Seed = 1
	server := multiplayer.NewServer(cfg, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Run(ctx, serverHub)
	}()
	defer func() {
		cancel()
		<-done
	}()

	views := make([]Model, 2)
	for i := range views {
		hub := transport.NewHub(transport.DefaultOptions(), quietLogger())
		defer hub.Close()
		if _, err := hub.Dial(context.Background(), addr.String()); err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		client := multiplayer.NewClient(multiplayer.DefaultClientConfig(), quietLogger())
		views[i] = NewModel(client, hub, addr.String(), testRuntime())
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		for i := range views {
			updated, _ := views[i].Update(TickMsg(time.Now()))
			views[i] = updated.(Model)
		}
		if views[0].client.Status() == multiplayer.StatusPlaying &&
			views[1].client.Status() == multiplayer.StatusPlaying {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out: statuses %v %v", views[0].client.Status(), views[1].client.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}

	seats := map[int]bool{views[0].client.Player(): true, views[1].client.Player(): true}
	if !seats[0] || !seats[1] {
		t.Errorf("seats = %v, expected 0 and 1", seats)
	}

	view := views[0].View()
	if !strings.Contains(view, "/2") || !strings.Contains(view, string(runeHead)) {
		t.Errorf("playing view missing status or snake:\n%s", view)
	}
}
