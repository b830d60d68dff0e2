package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for game elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
)

// PlayerColors is the palette assigned to snakes by player id.
var PlayerColors = []Color{ColorGreen, ColorMagenta, ColorCyan, ColorYellow, ColorBlue}

// PlayerColor returns the color for a player id, cycling through the palette.
func PlayerColor(id int) Color {
	if id < 0 {
		return ColorDefault
	}
	return PlayerColors[id%len(PlayerColors)]
}
