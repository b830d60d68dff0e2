package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
	"github.com/vovakirdan/tui-snek/internal/world"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// Field glyphs.
const (
	runeHead  = '@'
	runeBody  = '#'
	runeDead  = 'x'
	runeApple = '*'
)

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// fieldLayout maps world coordinates onto screen cells. Terminal cells are
// about twice as tall as wide, so one world unit spans twice as many
// columns as rows.
type fieldLayout struct {
	left, top  int // border corner
	cols, rows int // interior size
	sx, sy     float32
	halfExtent float32
}

func layoutField(width, height int, halfExtent float32) fieldLayout {
	l := fieldLayout{halfExtent: halfExtent}
	if halfExtent <= 0 || width < 3 || height < 3 {
		return l
	}
	span := 2 * halfExtent
	l.sy = min(float32(height-2)/span, float32(width-2)/(2*span))
	l.sx = 2 * l.sy
	l.cols = int(span * l.sx)
	l.rows = int(span * l.sy)
	l.left = (width - l.cols - 2) / 2
	return l
}

// cell returns the screen position of world point p, clamped to the interior.
func (l fieldLayout) cell(p core.Vec2) (int, int) {
	col := int(math.Floor(float64((p.X + l.halfExtent) * l.sx)))
	row := int(math.Floor(float64((l.halfExtent - p.Y) * l.sy)))
	return l.left + 1 + core.Clamp(col, 0, l.cols-1), l.top + 1 + core.Clamp(row, 0, l.rows-1)
}

// DrawField draws the bordered play field with every snake and the apple
// into the top height rows of s. Snake local is drawn on top.
func DrawField(s *core.Screen, height int, w *world.World, local int) {
	l := layoutField(s.Width(), height, w.Rules().HalfExtent)
	if l.cols <= 0 || l.rows <= 0 {
		return
	}
	s.DrawBox(l.left, l.top, l.cols+2, l.rows+2, core.ColorGray)

	x, y := l.cell(w.Apple())
	s.SetCell(x, y, runeApple, core.ColorRed)

	order := make([]int, 0, w.Players())
	for i := 0; i < w.Players(); i++ {
		if i != local {
			order = append(order, i)
		}
	}
	if local >= 0 && local < w.Players() {
		order = append(order, local)
	}
	for _, i := range order {
		drawSnake(s, l, w.Snake(i), core.PlayerColor(i))
	}
}

func drawSnake(s *core.Screen, l fieldLayout, sn *snake.Snake, color core.Color) {
	body := runeBody
	if sn.Dead() {
		body, color = runeDead, core.ColorGray
	}

	// Sample each segment finely enough that no cell along it is skipped.
	step := 0.5 / max(l.sx, l.sy)
	for _, seg := range sn.Chain().Segments() {
		back := seg.Back()
		dir := seg.Dir.Vec()
		for t := float32(0); t < seg.Length; t += step {
			x, y := l.cell(back.Add(dir.Scale(t)))
			s.SetCell(x, y, body, color)
		}
	}

	head := runeHead
	if sn.Dead() {
		head = runeDead
	}
	x, y := l.cell(sn.HeadPos())
	s.SetCell(x, y, head, color)
}
