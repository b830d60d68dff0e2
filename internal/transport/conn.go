// Package transport provides the duplex byte streams the game sessions run
// on. Connections are accepted or dialed over TCP or WebSocket, read by
// background goroutines, and surfaced to a single owner goroutine through
// Hub.Poll, which is the only place receive buffers change.
package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrClosed    = errors.New("transport: connection closed")
	ErrQueueFull = errors.New("transport: send queue full")
)

// ConnID identifies a connection within one Hub.
type ConnID uint32

// stream is the raw duplex link under a Conn.
type stream interface {
	// read blocks for the next chunk of bytes.
	read() ([]byte, error)
	write(p []byte) error
	close() error
	remoteAddr() string
}

// Conn is one connection. SendRaw may be called from any goroutine; the
// receive buffer is only valid on the goroutine that calls Hub.Poll.
type Conn struct {
	id     ConnID
	kind   string
	stream stream

	recv []byte

	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newConn(id ConnID, kind string, s stream, queue int) *Conn {
	return &Conn{
		id:      id,
		kind:    kind,
		stream:  s,
		sendCh:  make(chan []byte, queue),
		closeCh: make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Conn) ID() ConnID { return c.id }

// Kind returns "tcp" or "ws".
func (c *Conn) Kind() string { return c.kind }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.stream.remoteAddr() }

// SendRaw queues b for writing and returns immediately. A peer that lets
// its queue fill up is disconnected, since dropping bytes would corrupt the
// stream.
func (c *Conn) SendRaw(b []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.sendCh <- b:
		return nil
	case <-c.closeCh:
		return ErrClosed
	default:
		c.Close()
		return ErrQueueFull
	}
}

// Buffered returns the bytes received and not yet consumed.
func (c *Conn) Buffered() []byte { return c.recv }

// Consume drops the first n buffered bytes.
func (c *Conn) Consume(n int) {
	if n >= len(c.recv) {
		c.recv = c.recv[:0]
		return
	}
	c.recv = append(c.recv[:0], c.recv[n:]...)
}

// Close shuts the connection down. The Hub reports EventClose once the
// reader goroutine notices. Safe to call multiple times.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
		err = c.stream.close()
	})
	return err
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool { return c.closed.Load() }

func (c *Conn) readLoop(h *Hub) {
	defer c.Close()
	for {
		data, err := c.stream.read()
		if len(data) > 0 && !h.push(event{kind: EventData, conn: c, data: data}) {
			return
		}
		if err != nil {
			h.push(event{kind: EventClose, conn: c, err: err})
			return
		}
	}
}

func (c *Conn) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.closeCh:
			return
		case b := <-c.sendCh:
			if err := c.stream.write(b); err != nil {
				return
			}
		}
	}
}

type tcpStream struct {
	conn         net.Conn
	buf          []byte
	writeTimeout time.Duration
}

func newTCPStream(conn net.Conn, opts Options) *tcpStream {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &tcpStream{conn: conn, buf: make([]byte, opts.ReadBufferSize), writeTimeout: opts.WriteTimeout}
}

func (s *tcpStream) read() ([]byte, error) {
	n, err := s.conn.Read(s.buf)
	if n == 0 {
		return nil, err
	}
	data := make([]byte, n)
	copy(data, s.buf[:n])
	return data, err
}

func (s *tcpStream) write(p []byte) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	_, err := s.conn.Write(p)
	return err
}

func (s *tcpStream) close() error       { return s.conn.Close() }
func (s *tcpStream) remoteAddr() string { return s.conn.RemoteAddr().String() }

// wsStream carries the byte stream in binary WebSocket messages. Message
// boundaries carry no meaning; payloads are concatenated on receipt.
type wsStream struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newWSStream(conn *websocket.Conn, opts Options) *wsStream {
	conn.SetReadLimit(opts.WSReadLimit)
	return &wsStream{conn: conn, writeTimeout: opts.WriteTimeout}
}

func (s *wsStream) read() ([]byte, error) {
	for {
		mt, payload, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage && len(payload) > 0 {
			return payload, nil
		}
	}
}

func (s *wsStream) write(p []byte) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (s *wsStream) close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *wsStream) remoteAddr() string { return s.conn.RemoteAddr().String() }
