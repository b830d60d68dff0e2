package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
)

func threeSegmentState() snake.State {
	return snake.State{
		Dir:         snake.DirRight,
		ExtraLength: 0.75,
		Segments: []snake.Segment{
			{ID: 5, Dir: snake.DirUp, Front: core.V(0, 3), Length: 1.25},
			{ID: 6, Dir: snake.DirLeft, Front: core.V(-2, 3), Length: 2},
			{ID: 7, Dir: snake.DirDown, Front: core.V(-2, 2.5), Length: 0.5},
		},
	}
}

func TestSyncRoundTrip(t *testing.T) {
	msg := Sync{Snakes: []snake.State{threeSegmentState()}}
	buf := msg.Encode()

	if len(buf) != syncHeaderSize+blockHeaderSize+3*recordSize {
		t.Fatalf("encoded %d bytes, expected %d", len(buf), syncHeaderSize+blockHeaderSize+3*recordSize)
	}
	if declared := int(binary.LittleEndian.Uint32(buf[1:])); declared != len(buf) {
		t.Errorf("declared length %d, expected %d", declared, len(buf))
	}

	got, consumed, err := ParseServerMessage(buf)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("consumed %d, expected %d", consumed, len(buf))
	}
	sync, ok := got.(Sync)
	if !ok {
		t.Fatalf("decoded %T, expected Sync", got)
	}
	if len(sync.Snakes) != 1 || len(sync.Snakes[0].Segments) != 3 {
		t.Fatalf("decoded %+v", sync)
	}
	if !reflect.DeepEqual(sync, msg) {
		t.Errorf("decoded %+v, expected %+v", sync, msg)
	}
}

func TestSyncRoundTripIntoSnake(t *testing.T) {
	src := snake.New(core.V(2, 0), 2, snake.DirUp)
	src.Grow(3)
	src.Advance(0.25)
	src.Turn(snake.DirLeft)
	src.Advance(0.125)

	other := snake.New(core.V(4, 0), 2, snake.DirUp)
	buf := Sync{Snakes: []snake.State{src.State(), other.State()}}.Encode()

	msg, consumed, err := ParseClientMessage(buf)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("consumed %d, expected %d", consumed, len(buf))
	}

	dst := snake.New(core.V(2, 0), 2, snake.DirUp)
	if _, err := dst.Apply(msg.(Sync).Snakes[0], false); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !reflect.DeepEqual(dst.Chain().Segments(), src.Chain().Segments()) {
		t.Errorf("segments = %+v, expected %+v", dst.Chain().Segments(), src.Chain().Segments())
	}
	if dst.ExtraLength() != src.ExtraLength() {
		t.Errorf("ExtraLength() = %v, expected %v", dst.ExtraLength(), src.ExtraLength())
	}
}

func TestEncodeLayout(t *testing.T) {
	le := func(vals ...any) []byte {
		var b bytes.Buffer
		for _, v := range vals {
			_ = binary.Write(&b, binary.LittleEndian, v)
		}
		return b.Bytes()
	}

	tests := []struct {
		name     string
		msg      Message
		expected []byte
	}{
		{
			name:     "welcome",
			msg:      Welcome{Players: 2, Player: 1, Apple: core.V(3, -4)},
			expected: le(TagWelcome, uint8(2), uint8(1), float32(3), float32(-4)),
		},
		{
			name:     "client turn",
			msg:      Turn{Dir: snake.DirLeft, At: core.V(1.5, 2)},
			expected: le(TagTurn, uint8(1), float32(1.5), float32(2)),
		},
		{
			name:     "relayed turn",
			msg:      PlayerTurn{Player: 1, Dir: snake.DirRight, At: core.V(0, -1)},
			expected: le(TagTurn, uint8(1), uint8(3), float32(0), float32(-1)),
		},
		{
			name:     "apple",
			msg:      Apple{Pos: core.V(-9, 9)},
			expected: le(TagApple, float32(-9), float32(9)),
		},
		{"hello", Hello{}, []byte{'h'}},
		{"start", Start{}, []byte{'s'}},
		{"died", Died{}, []byte{'d'}},
		{"won", Won{}, []byte{'v'}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.msg.Encode(); !bytes.Equal(got, tc.expected) {
				t.Errorf("Encode() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestParseStream(t *testing.T) {
	var stream []byte
	sent := []Message{
		Welcome{Players: 2, Player: 0, Apple: core.V(1, 1)},
		Start{},
		Sync{Snakes: []snake.State{threeSegmentState()}},
		PlayerTurn{Player: 1, Dir: snake.DirLeft, At: core.V(2, 2)},
		Apple{Pos: core.V(-3, 5)},
		Died{},
		Won{},
	}
	for _, m := range sent {
		stream = append(stream, m.Encode()...)
	}

	var got []Message
	for len(stream) > 0 {
		m, n, err := ParseServerMessage(stream)
		if err != nil {
			t.Fatalf("ParseServerMessage() error = %v after %d messages", err, len(got))
		}
		got = append(got, m)
		stream = stream[n:]
	}
	if !reflect.DeepEqual(got, sent) {
		t.Errorf("parsed %+v, expected %+v", got, sent)
	}
}

func TestParseIncomplete(t *testing.T) {
	tests := []struct {
		name  string
		buf   []byte
		parse func([]byte) (Message, int, error)
	}{
		{"welcome", Welcome{Players: 2}.Encode(), ParseServerMessage},
		{"relayed turn", PlayerTurn{Dir: snake.DirUp}.Encode(), ParseServerMessage},
		{"apple", Apple{}.Encode(), ParseServerMessage},
		{"sync", Sync{Snakes: []snake.State{threeSegmentState()}}.Encode(), ParseServerMessage},
		{"client turn", Turn{Dir: snake.DirUp}.Encode(), ParseClientMessage},
		{"client sync", Sync{Snakes: []snake.State{threeSegmentState()}}.Encode(), ParseClientMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for n := 0; n < len(tc.buf); n++ {
				m, consumed, err := tc.parse(tc.buf[:n])
				if !errors.Is(err, ErrIncomplete) {
					t.Fatalf("prefix %d: error = %v, expected ErrIncomplete", n, err)
				}
				if m != nil || consumed != 0 {
					t.Fatalf("prefix %d: got %v consuming %d", n, m, consumed)
				}
			}
		})
	}
}

func TestParseUnknownTag(t *testing.T) {
	buf := append([]byte{'z'}, Start{}.Encode()...)

	_, n, err := ParseServerMessage(buf)
	var unknown *UnknownTagError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, expected *UnknownTagError", err)
	}
	if unknown.Tag != 'z' || n != 1 {
		t.Errorf("tag %q consumed %d, expected 'z' and 1", unknown.Tag, n)
	}

	m, _, err := ParseServerMessage(buf[n:])
	if err != nil || m != (Start{}) {
		t.Errorf("after skip: %v, %v", m, err)
	}

	// Server-only tags are unknown to the server.
	if _, n, err := ParseClientMessage([]byte{'a'}); !errors.As(err, &unknown) || n != 1 {
		t.Errorf("ParseClientMessage('a') = %d, %v", n, err)
	}
}

func TestParseSyncFraming(t *testing.T) {
	valid := Sync{Snakes: []snake.State{threeSegmentState()}}.Encode()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name: "declared shorter than header",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[1:], 3)
				return b
			},
		},
		{
			name: "declared beyond limit",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[1:], MaxSyncSize+1)
				return b
			},
		},
		{
			name: "block overruns message",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[syncHeaderSize:], uint32(len(b)))
				return b
			},
		},
		{
			name: "block not a whole number of records",
			mutate: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[syncHeaderSize:], blockHeaderSize+recordSize+3)
				return b
			},
		},
		{
			name: "trailing bytes too short for a block",
			mutate: func(b []byte) []byte {
				b = append(b, 0, 0)
				binary.LittleEndian.PutUint32(b[1:], uint32(len(b)))
				return b
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := tc.mutate(bytes.Clone(valid))
			_, consumed, err := ParseServerMessage(buf)
			var framing *FramingError
			if !errors.As(err, &framing) {
				t.Fatalf("error = %v, expected *FramingError", err)
			}
			if framing.Tag != TagSync || consumed != 0 {
				t.Errorf("framing = %+v consumed %d", framing, consumed)
			}
		})
	}
}

func TestParseSyncBadDirection(t *testing.T) {
	buf := Sync{Snakes: []snake.State{threeSegmentState()}}.Encode()
	buf[syncHeaderSize+blockHeaderSize+4] = 9 // first record's direction

	if _, _, err := ParseServerMessage(buf); !errors.Is(err, ErrBadDirection) {
		t.Errorf("error = %v, expected ErrBadDirection", err)
	}
}

func TestParseSyncNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name   string
		mutate func(st *snake.State)
	}{
		{"nan front", func(st *snake.State) { st.Segments[2].Front = core.V(nan, nan) }},
		{"infinite front", func(st *snake.State) { st.Segments[0].Front.Y = -inf }},
		{"nan length", func(st *snake.State) { st.Segments[1].Length = nan }},
		{"infinite extra length", func(st *snake.State) { st.ExtraLength = inf }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := threeSegmentState()
			tc.mutate(&st)
			buf := Sync{Snakes: []snake.State{st}}.Encode()
			if _, _, err := ParseServerMessage(buf); !errors.Is(err, ErrNonFinite) {
				t.Errorf("error = %v, expected ErrNonFinite", err)
			}
		})
	}
}

func TestEmptySync(t *testing.T) {
	buf := Sync{}.Encode()
	m, n, err := ParseServerMessage(buf)
	if err != nil || n != syncHeaderSize {
		t.Fatalf("ParseServerMessage() = %v, %d, %v", m, n, err)
	}
	if len(m.(Sync).Snakes) != 0 {
		t.Errorf("expected no snakes, got %+v", m)
	}
}
