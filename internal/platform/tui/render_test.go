package tui

import (
	"strings"
	"testing"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/world"
)

func TestLayoutField(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cols, rows    int
		left          int
	}{
		{"exact fit", 42, 22, 40, 20, 0},
		{"wide terminal centers", 82, 22, 40, 20, 20},
		{"tall terminal", 42, 40, 40, 20, 0},
		{"too small", 2, 2, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := layoutField(tt.width, tt.height, 10)
			if l.cols != tt.cols || l.rows != tt.rows || l.left != tt.left {
				t.Errorf("layoutField(%d, %d) = cols %d rows %d left %d, expected %d %d %d",
					tt.width, tt.height, l.cols, l.rows, l.left, tt.cols, tt.rows, tt.left)
			}
		})
	}
}

func TestFieldCellClamps(t *testing.T) {
	l := layoutField(42, 22, 10)

	tests := []struct {
		p    core.Vec2
		x, y int
	}{
		{core.V(0, 0), 21, 11},
		{core.V(-10, 10), 1, 1},
		{core.V(10, -10), 40, 20},
		{core.V(50, 50), 40, 1},
		{core.V(-50, -50), 1, 20},
	}
	for _, tt := range tests {
		x, y := l.cell(tt.p)
		if x != tt.x || y != tt.y {
			t.Errorf("cell(%v) = (%d, %d), expected (%d, %d)", tt.p, x, y, tt.x, tt.y)
		}
	}
}

func TestDrawField(t *testing.T) {
	w := world.New(world.DefaultRules(), 2)
	w.SetApple(core.V(-9, -9))
	s := core.NewScreen(42, 22)

	DrawField(s, 22, w, 0)

	if got := s.GetCell(0, 0).Rune; got != '┌' {
		t.Errorf("top-left corner = %q, expected box corner", got)
	}
	if got := s.GetCell(41, 21).Rune; got != '┘' {
		t.Errorf("bottom-right corner = %q, expected box corner", got)
	}

	if c := s.GetCell(3, 20); c.Rune != runeApple || c.Color != core.ColorRed {
		t.Errorf("apple cell = %+v", c)
	}

	head := s.GetCell(21, 11)
	if head.Rune != runeHead || head.Color != core.PlayerColor(0) {
		t.Errorf("local head cell = %+v", head)
	}
	for _, y := range []int{12, 13} {
		if c := s.GetCell(21, y); c.Rune != runeBody {
			t.Errorf("body cell (21, %d) = %q, expected %q", y, c.Rune, runeBody)
		}
	}
	if c := s.GetCell(25, 11); c.Rune != runeHead || c.Color != core.PlayerColor(1) {
		t.Errorf("other head cell = %+v", c)
	}
}

func TestDrawFieldDeadSnake(t *testing.T) {
	w := world.New(world.DefaultRules(), 2)
	w.SetApple(core.V(-9, -9))
	w.Snake(1).Kill()
	s := core.NewScreen(42, 22)

	DrawField(s, 22, w, 0)

	if c := s.GetCell(25, 11); c.Rune != runeDead || c.Color != core.ColorGray {
		t.Errorf("dead head cell = %+v", c)
	}
}

func TestDrawFieldTooSmall(t *testing.T) {
	w := world.New(world.DefaultRules(), 1)
	s := core.NewScreen(2, 2)
	DrawField(s, 2, w, 0)
	if strings.TrimSpace(s.String()) != "" {
		t.Errorf("expected nothing drawn, got %q", s.String())
	}
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(4, 2)
	s.DrawText(0, 0, "ab", core.ColorRed)
	s.DrawText(2, 0, "cd", core.ColorDefault)
	s.DrawText(0, 1, "efgh", core.ColorGreen)

	out := RenderScreen(s)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	for _, want := range []string{"ab", "cd", "efgh"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}
