package multiplayer

import (
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-snek/internal/snake"
	"github.com/vovakirdan/tui-snek/internal/transport"
	"github.com/vovakirdan/tui-snek/internal/wire"
	"github.com/vovakirdan/tui-snek/internal/world"
)

// Status is the client's view of the match lifecycle.
type Status int

const (
	StatusConnecting Status = iota
	StatusWaiting           // welcomed, waiting for the other players
	StatusPlaying
	StatusWon
	StatusLost
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Over reports whether the client reached a terminal status.
func (s Status) Over() bool {
	return s == StatusWon || s == StatusLost || s == StatusDisconnected
}

// Client predicts the match locally. Its own turns apply immediately and are
// reported to the server; everything else is corrected by the server's
// relays and periodic syncs. Like Server, it is single-goroutine.
type Client struct {
	cfg    ClientConfig
	logger *log.Logger

	peer    Peer
	world   *world.World
	player  int
	status  Status
	acc     time.Duration
	resyncs int
}

// NewClient creates a client waiting for its connection to open.
func NewClient(cfg ClientConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		player: -1,
	}
}

// Status returns the current lifecycle status.
func (c *Client) Status() Status { return c.status }

// World returns the predicted world, or nil before the welcome arrives.
func (c *Client) World() *world.World { return c.world }

// Player returns the local player id, or -1 before the welcome arrives.
func (c *Client) Player() int { return c.player }

// Resyncs counts snakes that had to be replaced wholesale by a sync.
func (c *Client) Resyncs() int { return c.resyncs }

// Close drops the connection to the server.
func (c *Client) Close() error {
	if c.peer == nil {
		return nil
	}
	return c.peer.Close()
}

// HandleEvent applies one transport observation.
func (c *Client) HandleEvent(kind transport.EventKind, p Peer) {
	switch kind {
	case transport.EventOpen:
		c.peer = p
		c.logger.Info("connected", "remote", p.RemoteAddr())
	case transport.EventData:
		if p != c.peer {
			return
		}
		c.drain()
	case transport.EventClose:
		if p != c.peer {
			return
		}
		c.peer = nil
		if !c.status.Over() {
			c.status = StatusDisconnected
		}
		c.logger.Info("connection closed", "status", c.status)
	}
}

func (c *Client) drain() {
	for c.peer != nil {
		msg, n, err := wire.ParseServerMessage(c.peer.Buffered())
		if errors.Is(err, wire.ErrIncomplete) {
			return
		}

		var unknown *wire.UnknownTagError
		if errors.As(err, &unknown) {
			c.logger.Warn("unknown message tag", "tag", unknown.Tag)
			c.peer.Consume(n)
			continue
		}
		if err != nil {
			c.fail("malformed server message", err)
			return
		}

		c.peer.Consume(n)
		if err := c.handleMessage(msg); err != nil {
			c.fail("bad server message", err)
			return
		}
	}
}

// fail drops the connection after a protocol violation.
func (c *Client) fail(what string, err error) {
	c.logger.Error(what, "err", err)
	if c.peer != nil {
		_ = c.peer.Close()
		c.peer = nil
	}
	c.status = StatusDisconnected
}

var errNoWorld = errors.New("multiplayer: message before welcome")

func (c *Client) handleMessage(msg wire.Message) error {
	if _, ok := msg.(wire.Welcome); !ok && c.world == nil {
		return errNoWorld
	}

	switch m := msg.(type) {
	case wire.Welcome:
		players := int(m.Players)
		if players == 0 || int(m.Player) >= players {
			return errors.New("multiplayer: welcome seat out of range")
		}
		c.world = world.New(c.cfg.Rules, players)
		c.world.SetApple(m.Apple)
		c.player = int(m.Player)
		c.status = StatusWaiting
		c.logger.Info("welcomed", "player", c.player, "players", players)
		c.send(wire.Hello{})

	case wire.Start:
		c.status = StatusPlaying
		c.acc = 0
		c.logger.Info("match started")

	case wire.PlayerTurn:
		s := c.world.Snake(int(m.Player))
		if s == nil {
			return world.ErrUnknownPlayer
		}
		if int(m.Player) == c.player || s.Dead() {
			return nil
		}
		if !s.Direction().Perpendicular(m.Dir) || !m.At.Finite() {
			// Our copy drifted; the next sync will set it right.
			c.logger.Debug("skipping relayed turn", "player", m.Player, "from", s.Direction(), "to", m.Dir)
			return nil
		}
		s.RollbackAndTurn(m.At, m.Dir, math.MaxFloat32)

	case wire.Apple:
		c.world.SetApple(m.Pos)

	case wire.Sync:
		resynced, err := c.world.ApplySync(m, c.player)
		if err != nil {
			return err
		}
		if len(resynced) > 0 {
			c.resyncs += len(resynced)
			c.logger.Debug("snakes resynced", "players", resynced)
		}

	case wire.Died:
		if s := c.world.Snake(c.player); s != nil {
			s.Kill()
		}
		c.status = StatusLost
		c.logger.Info("you died")

	case wire.Won:
		c.status = StatusWon
		c.logger.Info("you won")
	}
	return nil
}

// Update advances the predicted world by elapsed wall time in fixed steps.
func (c *Client) Update(elapsed time.Duration) {
	if c.status != StatusPlaying {
		return
	}
	step := c.tickDuration()
	c.acc += elapsed
	for c.acc >= step {
		c.acc -= step
		c.world.Tick(float32(step.Seconds()), world.RoleClient)
	}
}

func (c *Client) tickDuration() time.Duration {
	if c.cfg.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.cfg.TickRate)
}

// TurnLeft turns the local snake counter-clockwise.
func (c *Client) TurnLeft() bool {
	if s := c.local(); s != nil {
		return c.Turn(s.Direction().Left())
	}
	return false
}

// TurnRight turns the local snake clockwise.
func (c *Client) TurnRight() bool {
	if s := c.local(); s != nil {
		return c.Turn(s.Direction().Right())
	}
	return false
}

// Turn points the local snake at dir and reports the turn to the server.
// It returns false when the snake may not turn right now.
func (c *Client) Turn(dir snake.Direction) bool {
	s := c.local()
	if s == nil || c.status != StatusPlaying {
		return false
	}
	if !s.Turn(dir) {
		return false
	}
	c.send(wire.Turn{Dir: dir, At: s.HeadPos()})
	return true
}

func (c *Client) local() *snake.Snake {
	if c.world == nil {
		return nil
	}
	return c.world.Snake(c.player)
}

func (c *Client) send(msg wire.Message) {
	if c.peer == nil {
		return
	}
	if err := c.peer.SendRaw(msg.Encode()); err != nil {
		c.logger.Debug("send failed", "err", err)
	}
}
