// Package world owns the snakes and the apple of one match and advances
// them in fixed steps. The same code runs on the server, where it decides
// deaths, and on clients, where it only predicts motion.
package world

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/snake"
	"github.com/vovakirdan/tui-snek/internal/wire"
)

var (
	ErrUnknownPlayer = errors.New("world: unknown player")
	ErrDeadSnake     = errors.New("world: snake is dead")
	ErrBadTurn       = errors.New("world: turn is not perpendicular to current heading")
	ErrBadTurnPoint  = errors.New("world: turn point is not finite")
	ErrSnakeCount    = errors.New("world: sync snake count does not match world")
)

// Role tells Tick whether its verdicts on death are trusted.
type Role uint8

const (
	// RoleClient predicts motion and apple pickup only.
	RoleClient Role = iota
	// RoleServer additionally applies boundary and collision deaths.
	RoleServer
)

// Authoritative reports whether the role decides life and death.
func (r Role) Authoritative() bool {
	return r == RoleServer
}

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Rules are the play-field constants of a match.
type Rules struct {
	HalfExtent    float32 // a head at |x| or |y| >= HalfExtent dies
	AppleRange    int     // apples land on integer points in [-AppleRange, AppleRange]
	PickupRadius  float32
	Speed         float32
	InitialLength float32
	SpawnSpacing  float32
}

// DefaultRules returns the standard 20x20 field.
func DefaultRules() Rules {
	return Rules{
		HalfExtent:    10,
		AppleRange:    9,
		PickupRadius:  1,
		Speed:         snake.DefaultSpeed,
		InitialLength: 2,
		SpawnSpacing:  2,
	}
}

// Rand is the random source used for apple placement.
type Rand interface {
	Intn(n int) int
}

// TickResult reports what happened during one Tick.
type TickResult struct {
	AppleEaten bool
	Eater      int   // player that ate the apple, valid when AppleEaten
	Died       []int // players that died this tick, server role only
}

// World is one match: snakes indexed by player id plus the apple.
type World struct {
	rules  Rules
	snakes []*snake.Snake
	apple  core.Vec2
}

// New creates a world with players fresh snakes.
func New(rules Rules, players int) *World {
	w := &World{rules: rules}
	w.Reset(players)
	return w
}

// Reset discards every snake and spawns players fresh ones side by side,
// all heading up. The apple is left where it is.
func (w *World) Reset(players int) {
	w.snakes = make([]*snake.Snake, players)
	for i := range w.snakes {
		pos := core.V(float32(i)*w.rules.SpawnSpacing, 0)
		s := snake.New(pos, w.rules.InitialLength, snake.DirUp)
		s.SetSpeed(w.rules.Speed)
		w.snakes[i] = s
	}
}

// Rules returns the world's rules.
func (w *World) Rules() Rules { return w.rules }

// Players returns the number of snakes.
func (w *World) Players() int { return len(w.snakes) }

// Snake returns the snake of player i, or nil if out of range.
func (w *World) Snake(i int) *snake.Snake {
	if i < 0 || i >= len(w.snakes) {
		return nil
	}
	return w.snakes[i]
}

// Apple returns the apple position.
func (w *World) Apple() core.Vec2 { return w.apple }

// SetApple moves the apple, used by clients following the server.
func (w *World) SetApple(p core.Vec2) { w.apple = p }

// PlaceApple moves the apple to a random integer point inside the field.
func (w *World) PlaceApple(rng Rand) core.Vec2 {
	n := w.rules.AppleRange
	w.apple = core.V(float32(rng.Intn(2*n+1)-n), float32(rng.Intn(2*n+1)-n))
	return w.apple
}

// Alive returns the ids of players whose snakes are still alive.
func (w *World) Alive() []int {
	var alive []int
	for i, s := range w.snakes {
		if !s.Dead() {
			alive = append(alive, i)
		}
	}
	return alive
}

// Tick advances every live snake by dt seconds and credits at most one
// apple pickup, to the lowest player id in range. With an authoritative
// role it then kills snakes that left the field or hit a body.
func (w *World) Tick(dt float32, role Role) TickResult {
	var res TickResult

	for _, s := range w.snakes {
		if !s.Dead() {
			s.Advance(dt)
		}
	}

	r2 := w.rules.PickupRadius * w.rules.PickupRadius
	for i, s := range w.snakes {
		if s.Dead() {
			continue
		}
		if core.DistSq(s.HeadPos(), w.apple) <= r2 {
			s.Grow(1)
			res.AppleEaten = true
			res.Eater = i
			break
		}
	}

	if !role.Authoritative() {
		return res
	}

	// Snakes are judged in id order and a snake killed here no longer
	// counts as an obstacle for the ones checked after it.
	for i, s := range w.snakes {
		if s.Dead() {
			continue
		}
		if w.outOfBounds(s) || s.CollidesWithSelf() || w.hitsOther(i) {
			s.Kill()
			res.Died = append(res.Died, i)
		}
	}
	return res
}

func (w *World) outOfBounds(s *snake.Snake) bool {
	p := s.HeadPos()
	return core.AbsF(p.X) >= w.rules.HalfExtent || core.AbsF(p.Y) >= w.rules.HalfExtent
}

func (w *World) hitsOther(i int) bool {
	for j, other := range w.snakes {
		if j != i && !other.Dead() && w.snakes[i].CollidesWith(other) {
			return true
		}
	}
	return false
}

// ApplyTurn validates and applies a turn reported by player, moving the
// joint back toward at by no more than maxBacktrack. It returns where the
// turn actually happened.
func (w *World) ApplyTurn(player int, dir snake.Direction, at core.Vec2, maxBacktrack float32) (core.Vec2, error) {
	s := w.Snake(player)
	if s == nil {
		return core.Vec2{}, fmt.Errorf("%w: %d", ErrUnknownPlayer, player)
	}
	if s.Dead() {
		return core.Vec2{}, ErrDeadSnake
	}
	if !s.Direction().Perpendicular(dir) {
		return core.Vec2{}, fmt.Errorf("%w: %v to %v", ErrBadTurn, s.Direction(), dir)
	}
	if !at.Finite() {
		return core.Vec2{}, fmt.Errorf("%w: %v", ErrBadTurnPoint, at)
	}
	return s.RollbackAndTurn(at, dir, maxBacktrack), nil
}

// SyncMessage snapshots every snake for a full sync.
func (w *World) SyncMessage() wire.Sync {
	msg := wire.Sync{Snakes: make([]snake.State, len(w.snakes))}
	for i, s := range w.snakes {
		msg.Snakes[i] = s.State()
	}
	return msg
}

// ApplySync reconciles every snake against an authoritative snapshot.
// The snake of local keeps its predicted heading; pass -1 when no snake is
// locally controlled. It returns the players whose chains had to be replaced
// wholesale because the snapshot no longer overlapped them.
func (w *World) ApplySync(msg wire.Sync, local int) ([]int, error) {
	if len(msg.Snakes) != len(w.snakes) {
		return nil, fmt.Errorf("%w: got %d, have %d", ErrSnakeCount, len(msg.Snakes), len(w.snakes))
	}
	var resynced []int
	for i, st := range msg.Snakes {
		full, err := w.snakes[i].Apply(st, i == local)
		if err != nil {
			return resynced, fmt.Errorf("world: player %d: %w", i, err)
		}
		if full {
			resynced = append(resynced, i)
		}
	}
	return resynced, nil
}
