package wire

import (
	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
)

// Message tags.
const (
	TagWelcome byte = 'p'
	TagHello   byte = 'h'
	TagStart   byte = 's'
	TagTurn    byte = 'm'
	TagApple   byte = 'a'
	TagSync    byte = 'y'
	TagDied    byte = 'd'
	TagWon     byte = 'v'
)

// Encoded sizes, tag included.
const (
	welcomeSize    = 1 + 1 + 1 + 8
	turnSize       = 1 + 1 + 8
	playerTurnSize = 1 + 1 + 1 + 8
	appleSize      = 1 + 8

	syncHeaderSize  = 1 + 4
	blockHeaderSize = 4 + 1 + 4
	recordSize      = 4 + 1 + 8 + 4
)

// Message is one wire message.
type Message interface {
	Tag() byte
	// Encode returns the complete framed message.
	Encode() []byte

	size() int
	payload(w *Writer)
}

func encode(m Message) []byte {
	w := NewWriter(m.size())
	w.Byte(m.Tag())
	m.payload(w)
	return w.Bytes()
}

// Welcome is sent to a newly connected client.
type Welcome struct {
	Players uint8
	Player  uint8
	Apple   core.Vec2
}

func (Welcome) Tag() byte        { return TagWelcome }
func (m Welcome) Encode() []byte { return encode(m) }
func (Welcome) size() int        { return welcomeSize }
func (m Welcome) payload(w *Writer) {
	w.Byte(m.Players)
	w.Byte(m.Player)
	w.Vec2(m.Apple)
}

// Hello tells the server the client is ready.
type Hello struct{}

func (Hello) Tag() byte         { return TagHello }
func (m Hello) Encode() []byte  { return encode(m) }
func (Hello) size() int         { return 1 }
func (Hello) payload(w *Writer) {}

// Start tells clients the match has begun.
type Start struct{}

func (Start) Tag() byte         { return TagStart }
func (m Start) Encode() []byte  { return encode(m) }
func (Start) size() int         { return 1 }
func (Start) payload(w *Writer) {}

// Turn is a client's request to change direction at a given point.
type Turn struct {
	Dir snake.Direction
	At  core.Vec2
}

func (Turn) Tag() byte        { return TagTurn }
func (m Turn) Encode() []byte { return encode(m) }
func (Turn) size() int        { return turnSize }
func (m Turn) payload(w *Writer) {
	w.Byte(byte(m.Dir))
	w.Vec2(m.At)
}

// PlayerTurn is a corrected turn relayed by the server to the other clients.
type PlayerTurn struct {
	Player uint8
	Dir    snake.Direction
	At     core.Vec2
}

func (PlayerTurn) Tag() byte        { return TagTurn }
func (m PlayerTurn) Encode() []byte { return encode(m) }
func (PlayerTurn) size() int        { return playerTurnSize }
func (m PlayerTurn) payload(w *Writer) {
	w.Byte(m.Player)
	w.Byte(byte(m.Dir))
	w.Vec2(m.At)
}

// Apple announces a new apple position.
type Apple struct {
	Pos core.Vec2
}

func (Apple) Tag() byte        { return TagApple }
func (m Apple) Encode() []byte { return encode(m) }
func (Apple) size() int        { return appleSize }
func (m Apple) payload(w *Writer) {
	w.Vec2(m.Pos)
}

// Sync is a full snapshot of every snake in player order.
type Sync struct {
	Snakes []snake.State
}

func (Sync) Tag() byte        { return TagSync }
func (m Sync) Encode() []byte { return encode(m) }

func (m Sync) size() int {
	n := syncHeaderSize
	for _, st := range m.Snakes {
		n += blockSize(len(st.Segments))
	}
	return n
}

func (m Sync) payload(w *Writer) {
	w.Int32(int32(m.size()))
	for _, st := range m.Snakes {
		w.Int32(int32(blockSize(len(st.Segments))))
		w.Byte(byte(st.Dir))
		w.Float32(st.ExtraLength)
		for _, s := range st.Segments {
			w.Int32(s.ID)
			w.Byte(byte(s.Dir))
			w.Vec2(s.Front)
			w.Float32(s.Length)
		}
	}
}

func blockSize(segments int) int {
	return blockHeaderSize + segments*recordSize
}

// Died tells a client its snake is dead.
type Died struct{}

func (Died) Tag() byte         { return TagDied }
func (m Died) Encode() []byte  { return encode(m) }
func (Died) size() int         { return 1 }
func (Died) payload(w *Writer) {}

// Won tells a client it is the last snake alive.
type Won struct{}

func (Won) Tag() byte         { return TagWon }
func (m Won) Encode() []byte  { return encode(m) }
func (Won) size() int         { return 1 }
func (Won) payload(w *Writer) {}
