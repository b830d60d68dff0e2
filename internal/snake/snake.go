// Package snake implements a single snake body: an id-ordered chain of
// straight segments with motion, turning, authoritative correction and
// capsule collision queries.
package snake

import (
	"errors"

	"github.com/vovakirdan/tui-snek/internal/core"
)

// Movement and turning constants.
const (
	DefaultSpeed float32 = 6

	// MinTurnLength is how long the head must be before any turn is allowed.
	MinTurnLength float32 = 0.4
	// RelaxedTurnLength lets a turn through even when the previous segment
	// points elsewhere.
	RelaxedTurnLength float32 = 0.9
)

// State is the full-sync description of one snake.
type State struct {
	Dir         Direction
	ExtraLength float32
	Segments    []Segment // tail first
}

// Snake owns one chain plus heading, speed and banked growth.
type Snake struct {
	chain       *Chain
	dir         Direction
	speed       float32
	extraLength float32
	dead        bool
}

// New creates a single-segment snake whose front is at pos.
func New(pos core.Vec2, length float32, dir Direction) *Snake {
	return &Snake{
		chain: NewChain(pos, dir, length, 0),
		dir:   dir,
		speed: DefaultSpeed,
	}
}

// Chain returns the snake's body. Callers must not mutate it.
func (s *Snake) Chain() *Chain {
	return s.chain
}

// Head returns the head segment.
func (s *Snake) Head() Segment {
	return s.chain.Head()
}

// HeadPos returns the head's front point.
func (s *Snake) HeadPos() core.Vec2 {
	return s.chain.Head().Front
}

// Direction returns the current heading.
func (s *Snake) Direction() Direction {
	return s.dir
}

// Speed returns the movement speed in units per second.
func (s *Snake) Speed() float32 {
	return s.speed
}

// SetSpeed changes the movement speed. Negative values are treated as zero.
func (s *Snake) SetSpeed(v float32) {
	s.speed = max(0, v)
}

// ExtraLength returns growth banked but not yet materialized.
func (s *Snake) ExtraLength() float32 {
	return s.extraLength
}

// Grow banks additional length to be released as the head advances.
func (s *Snake) Grow(amount float32) {
	s.extraLength += amount
}

// Dead reports whether the snake has died.
func (s *Snake) Dead() bool {
	return s.dead
}

// Kill marks the snake dead. It is terminal.
func (s *Snake) Kill() {
	s.dead = true
}

// TotalLength returns the summed length of every segment.
func (s *Snake) TotalLength() float32 {
	return s.chain.TotalLength()
}

// Advance moves the snake forward by speed*elapsed. Banked growth is spent
// first; once it runs out the tail shrinks by the deficit.
func (s *Snake) Advance(elapsed float32) {
	dist := s.speed * elapsed
	s.chain.GrowHead(dist)

	s.extraLength -= dist
	if s.extraLength < 0 {
		s.chain.ShrinkTail(-s.extraLength)
		s.extraLength = 0
	}
}

// CanTurn reports whether a turn to dir would be accepted: the new heading
// must be perpendicular and the head long enough to clear its own neck.
func (s *Snake) CanTurn(dir Direction) bool {
	if s.dead || !s.dir.Perpendicular(dir) {
		return false
	}
	head := s.chain.Head()
	if head.Length <= MinTurnLength {
		return false
	}
	if s.chain.Len() == 1 || head.Length > RelaxedTurnLength {
		return true
	}
	return s.chain.At(s.chain.Len()-2).Dir == dir
}

// Turn applies a predicted direction change if CanTurn allows it and
// reports whether it did.
func (s *Snake) Turn(dir Direction) bool {
	if !s.CanTurn(dir) {
		return false
	}
	s.changeDir(dir)
	return true
}

func (s *Snake) changeDir(dir Direction) {
	s.chain.AppendDirectionChange(dir)
	s.dir = dir
}

// RollbackAndTurn corrects a turn that was reported late. The head retreats
// toward target by at most maxBacktrack, and never past its own back end,
// turns to dir there, and re-advances the retreated distance along the new
// heading. It returns the point where the turn actually happened.
func (s *Snake) RollbackAndTurn(target core.Vec2, dir Direction, maxBacktrack float32) core.Vec2 {
	head := s.chain.Head()
	offset := target.Sub(head.Front)
	dist := offset.Len()

	limit := min(maxBacktrack, head.Length)
	front := target
	if dist > limit {
		front = head.Front.Add(offset.Scale(limit / dist))
		dist = limit
	}
	s.chain.setHead(front, head.Length-dist)

	s.changeDir(dir)
	s.chain.setHead(front.Add(dir.Vec().Scale(dist)), dist)
	return front
}

// CollidesWithSelf reports whether the head touches its own body. The head
// segment and the two segments behind it are skipped since a turning snake's
// neck always grazes them.
func (s *Snake) CollidesWithSelf() bool {
	p := s.HeadPos()
	for i := s.chain.Len() - 4; i >= 0; i-- {
		if s.chain.At(i).CollidesWith(p, BodyRadius) {
			return true
		}
	}
	return false
}

// CollidesWith reports whether the head touches any segment of other.
func (s *Snake) CollidesWith(other *Snake) bool {
	p := s.HeadPos()
	for i := 0; i < other.chain.Len(); i++ {
		if other.chain.At(i).CollidesWith(p, BodyRadius) {
			return true
		}
	}
	return false
}

// State captures the snake for a full sync.
func (s *Snake) State() State {
	return State{
		Dir:         s.dir,
		ExtraLength: s.extraLength,
		Segments:    s.chain.Segments(),
	}
}

// Apply reconciles the snake against an authoritative state. When
// keepDirection is set the locally predicted heading wins over the echoed
// one. If the authoritative ids do not overlap the local chain, the chain is
// replaced wholesale and resynced is true.
func (s *Snake) Apply(st State, keepDirection bool) (resynced bool, err error) {
	err = s.chain.Reconcile(st.Segments)
	if errors.Is(err, ErrDisjointRange) {
		if err = s.chain.ResetFrom(st.Segments); err != nil {
			return false, err
		}
		resynced = true
	} else if err != nil {
		return false, err
	}

	s.extraLength = st.ExtraLength
	if keepDirection {
		s.dir = s.chain.Head().Dir
	} else {
		s.dir = st.Dir
	}
	return resynced, nil
}
