package world

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
	"github.com/vovakirdan/tui-snek/internal/wire"
)

const tickDT float32 = 1.0 / 60

func TestNewSpawnsSnakes(t *testing.T) {
	w := New(DefaultRules(), 2)

	if w.Players() != 2 {
		t.Fatalf("Players() = %d, expected 2", w.Players())
	}
	for i, expected := range []core.Vec2{core.V(0, 0), core.V(2, 0)} {
		s := w.Snake(i)
		if s.HeadPos() != expected {
			t.Errorf("snake %d head = %v, expected %v", i, s.HeadPos(), expected)
		}
		if s.Direction() != snake.DirUp || s.TotalLength() != 2 || s.Head().ID != 0 {
			t.Errorf("snake %d = dir %v length %v id %d", i, s.Direction(), s.TotalLength(), s.Head().ID)
		}
	}
	if w.Snake(2) != nil || w.Snake(-1) != nil {
		t.Error("Snake() out of range should be nil")
	}
}

func TestPlaceAppleInsideField(t *testing.T) {
	w := New(DefaultRules(), 2)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		p := w.PlaceApple(rng)
		if p.X < -9 || p.X > 9 || p.Y < -9 || p.Y > 9 {
			t.Fatalf("apple %v outside [-9,9]", p)
		}
		if p.X != float32(int(p.X)) || p.Y != float32(int(p.Y)) {
			t.Fatalf("apple %v not on an integer point", p)
		}
		if w.Apple() != p {
			t.Fatalf("Apple() = %v, expected %v", w.Apple(), p)
		}
	}
}

func TestTickApplePickup(t *testing.T) {
	w := New(DefaultRules(), 2)
	w.SetApple(core.V(0, 1.05))

	res := w.Tick(tickDT, RoleServer)
	if !res.AppleEaten || res.Eater != 0 {
		t.Fatalf("Tick() = %+v, expected apple eaten by player 0", res)
	}
	if got := w.Snake(0).ExtraLength(); got != 1 {
		t.Errorf("ExtraLength() = %v, expected 1", got)
	}
	if got := w.Snake(1).ExtraLength(); got != 0 {
		t.Errorf("player 1 ExtraLength() = %v, expected 0", got)
	}

	w.SetApple(core.V(-8, -8))
	if res := w.Tick(tickDT, RoleServer); res.AppleEaten {
		t.Error("relocated apple was eaten again")
	}
}

func TestTickApplePickupFirstSnakeWins(t *testing.T) {
	rules := DefaultRules()
	rules.SpawnSpacing = 1
	w := New(rules, 2)
	w.SetApple(core.V(0.5, 0.5))

	res := w.Tick(tickDT, RoleClient)
	if !res.AppleEaten || res.Eater != 0 {
		t.Fatalf("Tick() = %+v, expected player 0", res)
	}
	if w.Snake(1).ExtraLength() != 0 {
		t.Error("second snake should not be credited")
	}
}

func TestTickBoundaryDeath(t *testing.T) {
	rules := DefaultRules()
	rules.HalfExtent = 1
	w := New(rules, 1)
	w.SetApple(core.V(5, 5))

	for i := 0; i < 9; i++ {
		if res := w.Tick(tickDT, RoleServer); len(res.Died) != 0 {
			t.Fatalf("tick %d: died at %v", i, w.Snake(0).HeadPos())
		}
	}

	var died []int
	for i := 0; i < 3 && len(died) == 0; i++ {
		died = w.Tick(tickDT, RoleServer).Died
	}
	if !reflect.DeepEqual(died, []int{0}) || !w.Snake(0).Dead() {
		t.Fatalf("expected player 0 to die at the boundary, head %v", w.Snake(0).HeadPos())
	}

	head := w.Snake(0).HeadPos()
	w.Tick(tickDT, RoleServer)
	if w.Snake(0).HeadPos() != head {
		t.Error("dead snake kept moving")
	}
}

func TestTickClientNeverKills(t *testing.T) {
	rules := DefaultRules()
	rules.HalfExtent = 1
	rules.SpawnSpacing = 0.5
	w := New(rules, 2)
	w.SetApple(core.V(5, 5))

	for i := 0; i < 60; i++ {
		if res := w.Tick(tickDT, RoleClient); len(res.Died) != 0 {
			t.Fatalf("client tick reported deaths %v", res.Died)
		}
	}
	if len(w.Alive()) != 2 {
		t.Errorf("Alive() = %v, expected both", w.Alive())
	}
}

func TestTickCollisionsResolvedInPlayerOrder(t *testing.T) {
	rules := DefaultRules()
	rules.SpawnSpacing = 0.5
	w := New(rules, 2)
	w.SetApple(core.V(5, 5))

	// Each head touches the other body; player 0 is judged first and its
	// corpse no longer blocks player 1.
	res := w.Tick(tickDT, RoleServer)
	if !reflect.DeepEqual(res.Died, []int{0}) {
		t.Errorf("Died = %v, expected [0]", res.Died)
	}
	if !reflect.DeepEqual(w.Alive(), []int{1}) {
		t.Errorf("Alive() = %v, expected [1]", w.Alive())
	}
}

func TestTickBoundaryDeathsInSameTick(t *testing.T) {
	rules := DefaultRules()
	rules.HalfExtent = 3
	w := New(rules, 2)
	w.SetApple(core.V(-2, -2))

	var died []int
	for i := 0; i < 60 && len(died) == 0; i++ {
		died = w.Tick(tickDT, RoleServer).Died
	}
	if !reflect.DeepEqual(died, []int{0, 1}) {
		t.Errorf("Died = %v, expected both snakes at the wall together", died)
	}
	if len(w.Alive()) != 0 {
		t.Errorf("Alive() = %v, expected none", w.Alive())
	}
}

func TestApplyTurn(t *testing.T) {
	w := New(DefaultRules(), 2)
	w.SetApple(core.V(5, 5))
	for i := 0; i < 30; i++ {
		w.Tick(tickDT, RoleServer)
	}

	head := w.Snake(0).HeadPos()
	at, err := w.ApplyTurn(0, snake.DirLeft, head.Sub(core.V(0, 0.5)), 2)
	if err != nil {
		t.Fatalf("ApplyTurn() error = %v", err)
	}
	if core.AbsF(at.Y-(head.Y-0.5)) > 1e-4 {
		t.Errorf("turn point = %v, expected y %v", at, head.Y-0.5)
	}
	if w.Snake(0).Direction() != snake.DirLeft {
		t.Errorf("Direction() = %v, expected left", w.Snake(0).Direction())
	}

	tests := []struct {
		name   string
		player int
		dir    snake.Direction
		err    error
	}{
		{"unknown player", 5, snake.DirLeft, ErrUnknownPlayer},
		{"reversal", 1, snake.DirDown, ErrBadTurn},
		{"same heading", 1, snake.DirUp, ErrBadTurn},
		{"invalid direction", 1, snake.Direction(7), ErrBadTurn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := w.ApplyTurn(tc.player, tc.dir, core.V(0, 0), 2); !errors.Is(err, tc.err) {
				t.Errorf("ApplyTurn() error = %v, expected %v", err, tc.err)
			}
		})
	}

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	before := w.Snake(1).State()
	for _, at := range []core.Vec2{core.V(nan, nan), core.V(2, nan), core.V(inf, 0), core.V(2, -inf)} {
		if _, err := w.ApplyTurn(1, snake.DirLeft, at, 2); !errors.Is(err, ErrBadTurnPoint) {
			t.Errorf("ApplyTurn(%v) error = %v, expected ErrBadTurnPoint", at, err)
		}
	}
	if after := w.Snake(1).State(); !reflect.DeepEqual(after, before) {
		t.Errorf("rejected turn changed the snake: %+v", after)
	}

	w.Snake(1).Kill()
	if _, err := w.ApplyTurn(1, snake.DirLeft, core.V(2, 0), 2); !errors.Is(err, ErrDeadSnake) {
		t.Errorf("ApplyTurn() on dead snake error = %v", err)
	}
}

func TestSyncBetweenWorlds(t *testing.T) {
	server := New(DefaultRules(), 2)
	client := New(DefaultRules(), 2)
	server.SetApple(core.V(5, 5))
	client.SetApple(core.V(5, 5))

	for i := 0; i < 20; i++ {
		server.Tick(tickDT, RoleServer)
	}
	if _, err := server.ApplyTurn(1, snake.DirRight, server.Snake(1).HeadPos(), 2); err != nil {
		t.Fatalf("ApplyTurn() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		server.Tick(tickDT, RoleServer)
	}

	// The client predicts its own turn that the server has not seen yet.
	for i := 0; i < 25; i++ {
		client.Tick(tickDT, RoleClient)
	}
	if !client.Snake(0).Turn(snake.DirLeft) {
		t.Fatal("predicted turn rejected")
	}

	buf := server.SyncMessage().Encode()
	msg, _, err := wire.ParseServerMessage(buf)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}

	resynced, err := client.ApplySync(msg.(wire.Sync), 0)
	if err != nil {
		t.Fatalf("ApplySync() error = %v", err)
	}
	if len(resynced) != 0 {
		t.Errorf("resynced = %v, expected none", resynced)
	}

	if client.Snake(0).Direction() != snake.DirLeft {
		t.Errorf("local snake lost its predicted heading: %v", client.Snake(0).Direction())
	}
	if ids := client.Snake(0).Chain().IDs(); !reflect.DeepEqual(ids, []int32{0, 1}) {
		t.Errorf("local ids = %v, expected [0 1]", ids)
	}
	if !reflect.DeepEqual(client.Snake(1).Chain().Segments(), server.Snake(1).Chain().Segments()) {
		t.Error("remote snake does not match server")
	}
	if client.Snake(1).Direction() != snake.DirRight {
		t.Errorf("remote Direction() = %v, expected right", client.Snake(1).Direction())
	}
}

func TestApplySyncCountMismatch(t *testing.T) {
	w := New(DefaultRules(), 2)
	other := New(DefaultRules(), 3)

	if _, err := w.ApplySync(other.SyncMessage(), 0); !errors.Is(err, ErrSnakeCount) {
		t.Errorf("ApplySync() error = %v, expected ErrSnakeCount", err)
	}
}
