package snake

import "github.com/vovakirdan/tui-snek/internal/core"

// Direction is one of the four cardinal headings.
// Values are the wire encoding and increase counter-clockwise.
type Direction uint8

const (
	DirUp Direction = iota
	DirLeft
	DirDown
	DirRight
)

var dirVectors = [...]core.Vec2{
	DirUp:    {X: 0, Y: 1},
	DirLeft:  {X: -1, Y: 0},
	DirDown:  {X: 0, Y: -1},
	DirRight: {X: 1, Y: 0},
}

// Valid reports whether d is one of the four cardinal values.
func (d Direction) Valid() bool {
	return d <= DirRight
}

// Vec returns the unit vector for d.
func (d Direction) Vec() core.Vec2 {
	if !d.Valid() {
		return core.Vec2{}
	}
	return dirVectors[d]
}

// Left returns the heading after a counter-clockwise quarter turn.
func (d Direction) Left() Direction {
	return (d + 1) % 4
}

// Right returns the heading after a clockwise quarter turn.
func (d Direction) Right() Direction {
	return (d + 3) % 4
}

// Perpendicular reports whether d and o are at right angles.
func (d Direction) Perpendicular(o Direction) bool {
	return d.Valid() && o.Valid() && (d+o)%2 == 1
}

// Opposite reports whether d and o point in opposite directions.
func (d Direction) Opposite(o Direction) bool {
	return d.Valid() && o.Valid() && (d+4-o)%4 == 2
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirLeft:
		return "left"
	case DirDown:
		return "down"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}
