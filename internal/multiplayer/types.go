// Package multiplayer runs the networked game: an authoritative Server that
// owns the real world and a predictive Client that mirrors it.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/tui-snek/internal/world"
)

// NoWinner marks a match that ended without a surviving player.
const NoWinner = -1

// ServerConfig holds the authoritative loop's settings.
type ServerConfig struct {
	Players      int           // seats per match
	TickRate     int           // fixed simulation steps per second
	SyncInterval time.Duration // full snapshot period
	MaxBacktrack float32       // furthest a reported turn may pull a head back
	PollTimeout  time.Duration // longest a single Poll may block
	TurnRate     float64       // sustained turn messages per second per player
	TurnBurst    int
	Seed         int64 // 0 picks a time-based seed
	Rules        world.Rules
}

// DefaultServerConfig returns the standard two-player settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Players:      2,
		TickRate:     60,
		SyncInterval: 200 * time.Millisecond,
		MaxBacktrack: 2,
		PollTimeout:  10 * time.Millisecond,
		TurnRate:     20,
		TurnBurst:    10,
		Rules:        world.DefaultRules(),
	}
}

// TickDuration returns the fixed step length.
func (c ServerConfig) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// ClientConfig holds the predictive loop's settings.
type ClientConfig struct {
	TickRate int
	Rules    world.Rules
}

// DefaultClientConfig returns settings matching DefaultServerConfig.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TickRate: 60,
		Rules:    world.DefaultRules(),
	}
}

// EndReason describes why a match ended.
type EndReason int

const (
	EndReasonCompleted  EndReason = iota // one snake left alive
	EndReasonDraw                        // every snake died in the same tick
	EndReasonDisconnect                  // a seated player left mid-match
)

func (r EndReason) String() string {
	switch r {
	case EndReasonCompleted:
		return "completed"
	case EndReasonDraw:
		return "draw"
	case EndReasonDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// MatchResult is the outcome of one finished match.
type MatchResult struct {
	StartedAt   time.Time
	Duration    time.Duration
	Ticks       uint64
	Players     []string // remote address per seat
	Winner      int      // seat index, or NoWinner
	Reason      EndReason
	ApplesEaten int
	Lengths     []float32 // final body length per seat
}

// MatchResultSaver persists finished matches. Implemented by storage.Store.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResult) error
}
