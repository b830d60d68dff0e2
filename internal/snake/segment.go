package snake

import "github.com/vovakirdan/tui-snek/internal/core"

// BodyRadius is the half-width of every snake body capsule.
const BodyRadius float32 = 0.4

// Segment is one straight run of body between two direction changes.
// Front is the leading edge; the run extends Length units behind it,
// opposite to Dir. The same shape is used for authoritative sync records.
type Segment struct {
	ID     int32
	Dir    Direction
	Front  core.Vec2
	Length float32
}

// Back returns the trailing edge of the segment.
func (s Segment) Back() core.Vec2 {
	return s.Front.Sub(s.Dir.Vec().Scale(s.Length))
}

// DistSq returns the squared distance from p to the segment's center line.
func (s Segment) DistSq(p core.Vec2) float32 {
	return core.SegmentDistSq(s.Front, s.Back(), p)
}

// CollidesWith reports whether a circle of the given radius centered at p
// touches the segment's capsule.
func (s Segment) CollidesWith(p core.Vec2, radius float32) bool {
	r := radius + BodyRadius
	return s.DistSq(p) <= r*r
}
