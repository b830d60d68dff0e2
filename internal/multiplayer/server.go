package multiplayer

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/tui-snek/internal/transport"
	"github.com/vovakirdan/tui-snek/internal/wire"
	"github.com/vovakirdan/tui-snek/internal/world"
)

// Server runs the authoritative match. All methods must be called from the
// goroutine that polls the transport.
type Server struct {
	cfg    ServerConfig
	logger *log.Logger
	saver  MatchResultSaver // optional

	world *world.World
	rng   *rand.Rand
	lobby *lobby

	started   bool
	startedAt time.Time
	tick      uint64
	sinceSync time.Duration
	acc       time.Duration
	apples    int
	matches   int

	now func() time.Time
}

// NewServer creates a server waiting for its first players.
func NewServer(cfg ServerConfig, logger *log.Logger) *Server {
	if cfg.Players < 1 {
		cfg.Players = DefaultServerConfig().Players
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultServerConfig().SyncInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultServerConfig().PollTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		world:  world.New(cfg.Rules, cfg.Players),
		rng:    rand.New(rand.NewSource(seed)),
		lobby:  newLobby(cfg.Players),
		now:    time.Now,
	}
	s.initialize()
	return s
}

// SetResultSaver sets the optional store for finished matches.
func (s *Server) SetResultSaver(saver MatchResultSaver) {
	s.saver = saver
}

// World exposes the authoritative world for inspection.
func (s *Server) World() *world.World { return s.world }

// Started reports whether a match is in progress.
func (s *Server) Started() bool { return s.started }

// Matches returns how many matches have finished.
func (s *Server) Matches() int { return s.matches }

// initialize resets the world, places a fresh apple and frees every seat.
func (s *Server) initialize() {
	s.world.Reset(s.cfg.Players)
	apple := s.world.PlaceApple(s.rng)
	s.lobby.clear()
	s.started = false
	s.tick = 0
	s.sinceSync = 0
	s.acc = 0
	s.apples = 0
	s.logger.Debug("world initialized", "apple", apple)
}

// Run polls src and steps the simulation at the configured tick rate until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context, src EventSource) error {
	step := s.cfg.TickDuration()
	last := s.now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		timeout := s.cfg.PollTimeout
		if s.started {
			timeout = min(timeout, max(step-s.acc, 0))
		}
		for _, ev := range src.Poll(timeout) {
			s.HandleEvent(ev.Kind, ev.Conn)
		}

		now := s.now()
		elapsed := now.Sub(last)
		last = now
		if !s.started {
			continue
		}

		s.acc += elapsed
		for s.started && s.acc >= step {
			s.acc -= step
			s.Step()
		}
	}
}

// HandleEvent applies one transport observation.
func (s *Server) HandleEvent(kind transport.EventKind, p Peer) {
	switch kind {
	case transport.EventOpen:
		s.handleOpen(p)
	case transport.EventData:
		s.drain(p)
	case transport.EventClose:
		s.handleClose(p)
	}
}

func (s *Server) handleOpen(p Peer) {
	if s.started {
		s.logger.Warn("match in progress, rejecting connection", "remote", p.RemoteAddr())
		_ = p.Close()
		return
	}
	id, ok := s.lobby.join(p, s.newTurnLimiter())
	if !ok {
		s.logger.Warn("server full, rejecting connection", "remote", p.RemoteAddr())
		_ = p.Close()
		return
	}

	s.logger.Info("player joined", "player", id, "remote", p.RemoteAddr(), "seated", s.lobby.count())
	s.send(p, wire.Welcome{
		Players: uint8(s.cfg.Players),
		Player:  uint8(id),
		Apple:   s.world.Apple(),
	})
}

// newTurnLimiter returns the token bucket guarding one player's turn
// messages. A non-positive rate disables limiting.
func (s *Server) newTurnLimiter() *rate.Limiter {
	if s.cfg.TurnRate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(s.cfg.TurnRate), max(s.cfg.TurnBurst, 1))
}

func (s *Server) handleClose(p Peer) {
	id, ok := s.lobby.leave(p)
	if !ok {
		return
	}
	s.logger.Info("player left", "player", id, "remote", p.RemoteAddr())

	if !s.started {
		// Still gathering players: free the seat and start over with the rest.
		s.world.Reset(s.cfg.Players)
		return
	}

	winner := NoWinner
	for _, other := range s.world.Alive() {
		if other != id && s.lobby.peer(other) != nil {
			winner = other
			break
		}
	}
	if winner != NoWinner {
		s.send(s.lobby.peer(winner), wire.Won{})
	}
	s.finish(EndReasonDisconnect, winner)
}

// drain parses every complete message buffered on p.
func (s *Server) drain(p Peer) {
	for {
		msg, n, err := wire.ParseClientMessage(p.Buffered())
		if errors.Is(err, wire.ErrIncomplete) {
			return
		}

		var unknown *wire.UnknownTagError
		if errors.As(err, &unknown) {
			s.logger.Warn("unknown message tag", "remote", p.RemoteAddr(), "tag", unknown.Tag)
			p.Consume(n)
			continue
		}
		if err != nil {
			s.logger.Error("protocol violation, dropping connection", "remote", p.RemoteAddr(), "err", err)
			_ = p.Close()
			return
		}

		p.Consume(n)
		s.handleMessage(p, msg)
	}
}

func (s *Server) handleMessage(p Peer, msg wire.Message) {
	id, seat, ok := s.lobby.lookup(p)
	if !ok {
		s.logger.Debug("message from unseated connection", "remote", p.RemoteAddr(), "tag", string(msg.Tag()))
		return
	}

	switch m := msg.(type) {
	case wire.Hello:
		seat.ready = true
		s.logger.Info("player ready", "player", id)
		if !s.started && s.lobby.ready() {
			s.start()
		}

	case wire.Turn:
		if !s.started {
			return
		}
		if !seat.limiter.Allow() {
			s.logger.Debug("turn rate exceeded", "player", id)
			return
		}
		at, err := s.world.ApplyTurn(id, m.Dir, m.At, s.cfg.MaxBacktrack)
		if err != nil {
			s.logger.Debug("turn rejected", "player", id, "dir", m.Dir, "err", err)
			return
		}
		s.logger.Debug("turn", "player", id, "dir", m.Dir, "at", at)
		relay := wire.PlayerTurn{Player: uint8(id), Dir: m.Dir, At: at}.Encode()
		for other := 0; other < s.cfg.Players; other++ {
			if other != id {
				s.sendRaw(s.lobby.peer(other), relay)
			}
		}

	case wire.Sync:
		s.logger.Debug("ignoring client sync", "player", id)
	}
}

func (s *Server) start() {
	s.started = true
	s.startedAt = s.now()
	s.acc = 0
	s.logger.Info("match started", "players", s.cfg.Players)
	s.broadcast(wire.Start{})
}

// Step advances the match by one fixed tick: physics, apple relocation,
// deaths, match end and the periodic full sync.
func (s *Server) Step() {
	if !s.started {
		return
	}
	dt := s.cfg.TickDuration()
	res := s.world.Tick(float32(dt.Seconds()), world.RoleServer)
	s.tick++

	if res.AppleEaten {
		s.apples++
		apple := s.world.PlaceApple(s.rng)
		s.logger.Debug("apple eaten", "player", res.Eater, "next", apple)
		s.broadcast(wire.Apple{Pos: apple})
	}

	for _, id := range res.Died {
		s.logger.Info("player died", "player", id, "tick", s.tick)
		s.send(s.lobby.peer(id), wire.Died{})
	}

	alive := s.world.Alive()
	switch {
	case len(alive) == 0:
		reason := EndReasonDraw
		if s.cfg.Players == 1 {
			reason = EndReasonCompleted
		}
		s.finish(reason, NoWinner)
		return
	case len(alive) == 1 && s.cfg.Players > 1:
		s.send(s.lobby.peer(alive[0]), wire.Won{})
		s.finish(EndReasonCompleted, alive[0])
		return
	}

	s.sinceSync += dt
	if s.sinceSync >= s.cfg.SyncInterval {
		s.sinceSync -= s.cfg.SyncInterval
		s.broadcast(s.world.SyncMessage())
	}
}

func (s *Server) finish(reason EndReason, winner int) {
	result := MatchResult{
		StartedAt:   s.startedAt,
		Duration:    s.now().Sub(s.startedAt),
		Ticks:       s.tick,
		Players:     s.lobby.addrs(),
		Winner:      winner,
		Reason:      reason,
		ApplesEaten: s.apples,
		Lengths:     make([]float32, s.cfg.Players),
	}
	for i := range result.Lengths {
		result.Lengths[i] = s.world.Snake(i).TotalLength()
	}
	s.matches++
	s.logger.Info("match over", "reason", reason, "winner", winner, "ticks", s.tick, "apples", s.apples)

	if s.saver != nil {
		if err := s.saver.SaveMatchResult(result); err != nil {
			s.logger.Error("failed to save match", "err", err)
		} else {
			s.logger.Debug("match saved")
		}
	}
	s.initialize()
}

func (s *Server) send(p Peer, msg wire.Message) {
	s.sendRaw(p, msg.Encode())
}

func (s *Server) sendRaw(p Peer, b []byte) {
	if p == nil {
		return
	}
	if err := p.SendRaw(b); err != nil {
		s.logger.Debug("send failed", "remote", p.RemoteAddr(), "err", err)
	}
}

func (s *Server) broadcast(msg wire.Message) {
	b := msg.Encode()
	for id := 0; id < s.cfg.Players; id++ {
		s.sendRaw(s.lobby.peer(id), b)
	}
}
