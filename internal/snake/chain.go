package snake

import (
	"errors"
	"sort"

	"github.com/vovakirdan/tui-snek/internal/core"
)

var (
	// ErrDisjointRange is returned by Reconcile when the authoritative ids
	// share no overlap with the local chain. The chain is left untouched.
	ErrDisjointRange = errors.New("snake: authoritative segments do not overlap local chain")

	// ErrNoSegments is returned when an authoritative list is empty.
	ErrNoSegments = errors.New("snake: authoritative segment list is empty")

	// ErrUnordered is returned when authoritative ids are not strictly increasing.
	ErrUnordered = errors.New("snake: authoritative segment ids are not strictly increasing")
)

// Chain is the ordered body of one snake, tail first.
// Segments are stored by value in an id-ordered slice, so the chain never
// hands out references that a later splice could invalidate.
//
// Invariants: ids strictly increase from tail to head, every length is >= 0,
// and the chain always holds at least one segment.
type Chain struct {
	segs []Segment
}

// NewChain creates a single-segment chain.
func NewChain(front core.Vec2, dir Direction, length float32, id int32) *Chain {
	return &Chain{
		segs: []Segment{{ID: id, Dir: dir, Front: front, Length: max(0, length)}},
	}
}

// Len returns the number of segments.
func (c *Chain) Len() int {
	return len(c.segs)
}

// Head returns the newest segment.
func (c *Chain) Head() Segment {
	return c.segs[len(c.segs)-1]
}

// Tail returns the oldest segment.
func (c *Chain) Tail() Segment {
	return c.segs[0]
}

// At returns the i-th segment counting from the tail.
func (c *Chain) At(i int) Segment {
	return c.segs[i]
}

// Segments returns a copy of the chain, tail first.
func (c *Chain) Segments() []Segment {
	out := make([]Segment, len(c.segs))
	copy(out, c.segs)
	return out
}

// IDs returns the segment ids, tail first.
func (c *Chain) IDs() []int32 {
	ids := make([]int32, len(c.segs))
	for i, s := range c.segs {
		ids[i] = s.ID
	}
	return ids
}

// ByID looks up a segment by id.
func (c *Chain) ByID(id int32) (Segment, bool) {
	i := sort.Search(len(c.segs), func(i int) bool { return c.segs[i].ID >= id })
	if i < len(c.segs) && c.segs[i].ID == id {
		return c.segs[i], true
	}
	return Segment{}, false
}

// TotalLength returns the sum of all segment lengths.
func (c *Chain) TotalLength() float32 {
	var total float32
	for _, s := range c.segs {
		total += s.Length
	}
	return total
}

// GrowHead advances the head's front along its direction by distance and
// lengthens it by the same amount.
func (c *Chain) GrowHead(distance float32) {
	h := &c.segs[len(c.segs)-1]
	h.Front = h.Front.Add(h.Dir.Vec().Scale(distance))
	h.Length += distance
}

// ShrinkTail consumes distance from the tail end and returns how much was
// actually removed. Exhausted tail segments are dropped and the remainder
// carries to the next one. The sole remaining segment is never dropped; it
// bottoms out at zero length instead.
func (c *Chain) ShrinkTail(distance float32) float32 {
	var consumed float32
	for distance > 0 {
		t := &c.segs[0]
		if distance < t.Length {
			t.Length -= distance
			return consumed + distance
		}
		if len(c.segs) == 1 {
			consumed += t.Length
			t.Length = 0
			return consumed
		}
		distance -= t.Length
		consumed += t.Length
		c.segs = c.segs[1:]
	}
	return consumed
}

// AppendDirectionChange starts a new head segment at the current head
// position. The previous head keeps its front and length from now on.
func (c *Chain) AppendDirectionChange(dir Direction) {
	h := c.Head()
	c.segs = append(c.segs, Segment{
		ID:    h.ID + 1,
		Dir:   dir,
		Front: h.Front,
	})
}

// Reconcile merges an authoritative tail-first segment list into the chain.
//
// Both sequences are walked in id order. Authoritative segments missing
// locally are inserted, local segments the authority no longer has are
// dropped, and matching ids are overwritten in place. Local segments newer
// than the last authoritative id are unconfirmed predictions and are kept.
// Applying the same list twice yields the same chain.
//
// On ErrDisjointRange the caller should fall back to ResetFrom.
func (c *Chain) Reconcile(auth []Segment) error {
	if err := checkOrdered(auth); err != nil {
		return err
	}
	if auth[len(auth)-1].ID < c.Tail().ID || auth[0].ID > c.Head().ID {
		return ErrDisjointRange
	}

	merged := make([]Segment, 0, max(len(c.segs), len(auth)))
	i, j := 0, 0
	for j < len(auth) {
		a := auth[j]
		a.Length = max(0, a.Length)
		switch {
		case i >= len(c.segs):
			// Authority is ahead of the local head.
			merged = append(merged, a)
			j++
		case c.segs[i].ID > a.ID:
			// Authority still holds a segment already shrunk away here.
			merged = append(merged, a)
			j++
		case c.segs[i].ID < a.ID:
			// Stale local segment the authority has consumed.
			i++
		default:
			s := c.segs[i]
			s.Dir = a.Dir
			s.Front = a.Front
			s.Length = a.Length
			merged = append(merged, s)
			i++
			j++
		}
	}
	if i < len(c.segs) {
		merged = append(merged, c.segs[i:]...)
	}
	c.segs = merged
	return nil
}

// ResetFrom discards the local chain and replaces it with the authoritative
// list. Used as a forced full resync.
func (c *Chain) ResetFrom(auth []Segment) error {
	if err := checkOrdered(auth); err != nil {
		return err
	}
	segs := make([]Segment, len(auth))
	for i, a := range auth {
		a.Length = max(0, a.Length)
		segs[i] = a
	}
	c.segs = segs
	return nil
}

// setHead moves the head's front and overwrites its length.
func (c *Chain) setHead(front core.Vec2, length float32) {
	h := &c.segs[len(c.segs)-1]
	h.Front = front
	h.Length = max(0, length)
}

func checkOrdered(auth []Segment) error {
	if len(auth) == 0 {
		return ErrNoSegments
	}
	for k := 1; k < len(auth); k++ {
		if auth[k].ID <= auth[k-1].ID {
			return ErrUnordered
		}
	}
	return nil
}
