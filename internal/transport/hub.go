package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// EventKind is what a poll observed on a connection.
type EventKind uint8

const (
	EventOpen EventKind = iota
	EventData
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventData:
		return "data"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one observation returned by Poll. For EventData the new bytes
// are already appended to Conn.Buffered.
type Event struct {
	Kind EventKind
	Conn *Conn
	Err  error // set on EventClose when the stream failed
}

type event struct {
	kind EventKind
	conn *Conn
	data []byte
	err  error
}

// Options tune a Hub.
type Options struct {
	SendQueue      int           // queued writes per connection
	ReadBufferSize int           // TCP read chunk size
	WSReadLimit    int64         // largest accepted WebSocket message
	WSPath         string        // HTTP path upgraded to WebSocket
	WriteTimeout   time.Duration // per write; 0 disables
	DialTimeout    time.Duration
}

// DefaultOptions returns settings suited to a handful of players.
func DefaultOptions() Options {
	return Options{
		SendQueue:      256,
		ReadBufferSize: 4096,
		WSReadLimit:    1 << 20,
		WSPath:         "/ws",
		WriteTimeout:   5 * time.Second,
		DialTimeout:    5 * time.Second,
	}
}

// Hub owns a set of connections and funnels their activity into Poll.
type Hub struct {
	opts   Options
	logger *log.Logger

	in       chan event
	done     chan struct{}
	doneOnce sync.Once
	nextID   atomic.Uint32

	mu        sync.Mutex
	conns     map[ConnID]*Conn
	listeners []net.Listener
	servers   []*http.Server

	upgrader websocket.Upgrader
}

// NewHub creates an idle hub. Call Listen, ListenWS or Dial to add
// connections.
func NewHub(opts Options, logger *log.Logger) *Hub {
	if opts.SendQueue < 1 {
		opts.SendQueue = DefaultOptions().SendQueue
	}
	if opts.ReadBufferSize < 1 {
		opts.ReadBufferSize = DefaultOptions().ReadBufferSize
	}
	if opts.WSReadLimit < 1 {
		opts.WSReadLimit = DefaultOptions().WSReadLimit
	}
	if opts.WSPath == "" {
		opts.WSPath = DefaultOptions().WSPath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		opts:   opts,
		logger: logger,
		in:     make(chan event, 256),
		done:   make(chan struct{}),
		conns:  make(map[ConnID]*Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are not browsers; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) push(ev event) bool {
	select {
	case h.in <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) attach(kind string, s stream) *Conn {
	c := newConn(ConnID(h.nextID.Add(1)), kind, s, h.opts.SendQueue)

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	if !h.push(event{kind: EventOpen, conn: c}) {
		c.Close()
		return c
	}
	go c.readLoop(h)
	go c.writeLoop()
	return c
}

// Listen accepts TCP connections on addr and returns the bound address.
func (h *Hub) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, ln)
	h.mu.Unlock()

	go h.acceptLoop(ln)
	h.logger.Info("listening", "proto", "tcp", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

func (h *Hub) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-h.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			h.logger.Warn("accept failed", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		h.attach("tcp", newTCPStream(conn, h.opts))
	}
}

// Handler returns the HTTP handler that upgrades requests on the WebSocket
// path into hub connections.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(h.opts.WSPath, func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		h.attach("ws", newWSStream(ws, h.opts))
	})
	return mux
}

// ListenWS serves WebSocket connections on addr and returns the bound
// address.
func (h *Hub) ListenWS(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen ws %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.mu.Lock()
	h.servers = append(h.servers, srv)
	h.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("websocket server stopped", "err", err)
		}
	}()
	h.logger.Info("listening", "proto", "ws", "addr", ln.Addr().String(), "path", h.opts.WSPath)
	return ln.Addr(), nil
}

// Dial connects to a server. Addresses starting with ws:// or wss:// use
// WebSocket; anything else is a TCP host:port.
func (h *Hub) Dial(ctx context.Context, addr string) (*Conn, error) {
	if h.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.DialTimeout)
		defer cancel()
	}

	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
		}
		return h.attach("ws", newWSStream(ws, h.opts)), nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return h.attach("tcp", newTCPStream(conn, h.opts)), nil
}

// Poll waits up to timeout for connection activity and returns everything
// that happened. Data is appended to the receiving Conn's buffer before the
// event is returned. Poll must only be called from one goroutine.
func (h *Hub) Poll(timeout time.Duration) []Event {
	var out []Event

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case ev := <-h.in:
			out = h.apply(out, ev)
		case <-timer.C:
			return nil
		case <-h.done:
			return nil
		}
	}

	for {
		select {
		case ev := <-h.in:
			out = h.apply(out, ev)
		default:
			return out
		}
	}
}

func (h *Hub) apply(out []Event, ev event) []Event {
	switch ev.kind {
	case EventData:
		ev.conn.recv = append(ev.conn.recv, ev.data...)
	case EventClose:
		h.mu.Lock()
		delete(h.conns, ev.conn.id)
		h.mu.Unlock()
	}
	return append(out, Event{Kind: ev.kind, Conn: ev.conn, Err: ev.err})
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close stops every listener and closes every connection.
func (h *Hub) Close() error {
	h.doneOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, ln := range h.listeners {
			_ = ln.Close()
		}
		for _, srv := range h.servers {
			_ = srv.Close()
		}
		for _, c := range h.conns {
			_ = c.Close()
		}
		h.conns = make(map[ConnID]*Conn)
	})
	return nil
}
