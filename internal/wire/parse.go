package wire

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
)

// MaxSyncSize bounds the declared length of a sync message so a corrupt
// prefix cannot make a receiver buffer indefinitely.
const MaxSyncSize = 1 << 20

// ErrBadDirection is returned when a sync record carries a direction byte
// outside the four headings.
var ErrBadDirection = errors.New("wire: invalid direction in sync record")

// ErrNonFinite is returned when a sync record carries a NaN or infinite
// position or length.
var ErrNonFinite = errors.New("wire: non-finite value in sync record")

// ParseServerMessage decodes the first message a client received from the
// server. It returns the message and the number of bytes it occupied.
//
// On ErrIncomplete nothing is consumed. On *UnknownTagError one byte is
// consumed so the caller can skip it and continue.
func ParseServerMessage(buf []byte) (Message, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	switch buf[0] {
	case TagWelcome:
		if len(buf) < welcomeSize {
			return nil, 0, ErrIncomplete
		}
		r := NewReader(buf[1:welcomeSize])
		m := Welcome{Players: r.Byte(), Player: r.Byte(), Apple: r.Vec2()}
		return m, welcomeSize, nil
	case TagStart:
		return Start{}, 1, nil
	case TagTurn:
		if len(buf) < playerTurnSize {
			return nil, 0, ErrIncomplete
		}
		r := NewReader(buf[1:playerTurnSize])
		m := PlayerTurn{Player: r.Byte(), Dir: snake.Direction(r.Byte()), At: r.Vec2()}
		return m, playerTurnSize, nil
	case TagApple:
		if len(buf) < appleSize {
			return nil, 0, ErrIncomplete
		}
		r := NewReader(buf[1:appleSize])
		return Apple{Pos: r.Vec2()}, appleSize, nil
	case TagSync:
		return parseSync(buf)
	case TagDied:
		return Died{}, 1, nil
	case TagWon:
		return Won{}, 1, nil
	default:
		return nil, 1, &UnknownTagError{Tag: buf[0]}
	}
}

// ParseClientMessage decodes the first message a server received from a
// client. Return values follow ParseServerMessage.
func ParseClientMessage(buf []byte) (Message, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	switch buf[0] {
	case TagHello:
		return Hello{}, 1, nil
	case TagTurn:
		if len(buf) < turnSize {
			return nil, 0, ErrIncomplete
		}
		r := NewReader(buf[1:turnSize])
		m := Turn{Dir: snake.Direction(r.Byte()), At: r.Vec2()}
		return m, turnSize, nil
	case TagSync:
		return parseSync(buf)
	default:
		return nil, 1, &UnknownTagError{Tag: buf[0]}
	}
}

func parseSync(buf []byte) (Message, int, error) {
	if len(buf) < syncHeaderSize {
		return nil, 0, ErrIncomplete
	}
	total := int(NewReader(buf[1:syncHeaderSize]).Int32())
	if total < syncHeaderSize || total > MaxSyncSize {
		return nil, 0, &FramingError{Tag: TagSync, Declared: total, Consumed: syncHeaderSize}
	}
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}

	r := NewReader(buf[:total])
	r.off = syncHeaderSize

	var m Sync
	for r.Remaining() > 0 {
		start := r.Offset()
		block := int(r.Int32())
		if r.Err() != nil || block < blockHeaderSize || start+block > total ||
			(block-blockHeaderSize)%recordSize != 0 {
			return nil, 0, &FramingError{Tag: TagSync, Declared: total, Consumed: start + max(block, 4)}
		}

		st := snake.State{
			Dir:         snake.Direction(r.Byte()),
			ExtraLength: r.Float32(),
		}
		n := (block - blockHeaderSize) / recordSize
		st.Segments = make([]snake.Segment, n)
		for i := range st.Segments {
			st.Segments[i] = snake.Segment{
				ID:     r.Int32(),
				Dir:    snake.Direction(r.Byte()),
				Front:  r.Vec2(),
				Length: r.Float32(),
			}
			seg := st.Segments[i]
			if !seg.Dir.Valid() {
				return nil, 0, fmt.Errorf("%w: snake %d segment %d", ErrBadDirection, len(m.Snakes), seg.ID)
			}
			if !seg.Front.Finite() || !core.Finite(seg.Length) {
				return nil, 0, fmt.Errorf("%w: snake %d segment %d", ErrNonFinite, len(m.Snakes), seg.ID)
			}
		}
		if !st.Dir.Valid() {
			return nil, 0, fmt.Errorf("%w: snake %d heading", ErrBadDirection, len(m.Snakes))
		}
		if !core.Finite(st.ExtraLength) {
			return nil, 0, fmt.Errorf("%w: snake %d extra length", ErrNonFinite, len(m.Snakes))
		}
		m.Snakes = append(m.Snakes, st)
	}

	if r.Err() != nil || r.Offset() != total {
		return nil, 0, &FramingError{Tag: TagSync, Declared: total, Consumed: r.Offset()}
	}
	return m, total, nil
}
