// Package ws owns the websocket connection to the chat server: one live
// connection per session, explicit state transitions, and raw frame IO.
// Reconnection policy lives above this layer.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chat-client/repository"
)

var (
	// ErrMissingCredential means Open was called with no stored token. No
	// connection attempt is made.
	ErrMissingCredential = errors.New("no credential: log in before connecting")

	// ErrNotConnected means a send was attempted outside the Open state.
	// The frame is not queued.
	ErrNotConnected = errors.New("not connected")
)

type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	writeWait      = 30 * time.Second
	pingInterval   = 240 * time.Second
	maxFrameSize   = 1 << 20
	sendBufferSize = 256
)

// Handlers are the session's notifications to its owner. They are invoked
// from the session's own goroutines, one event at a time.
type Handlers struct {
	OnOpen  func()
	OnClose func()
	OnError func(err error)
	OnFrame func(raw []byte)
}

// Session is one logical connection to ws://<host>/ws?token=<token>.
// Open and Close are idempotent; writes are serialized through a single
// writer goroutine.
type Session struct {
	endpoint string
	creds    repository.CredentialRepository
	handlers Handlers
	log      *zap.Logger

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
}

// NewSession prepares a session against endpoint (e.g. "ws://host:8080/ws").
// No connection is made until Open.
func NewSession(endpoint string, creds repository.CredentialRepository, handlers Handlers, log *zap.Logger) *Session {
	return &Session{
		endpoint: endpoint,
		creds:    creds,
		handlers: handlers,
		log:      log,
		state:    StateClosed,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open dials the server. Calling it while Connecting or Open is a no-op, so
// repeated invocations never produce a second connection. It fails fast with
// ErrMissingCredential when no token is stored.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateOpen || s.state == StateConnecting {
		s.mu.Unlock()
		return nil
	}

	cred, err := s.creds.Get()
	if err != nil {
		s.mu.Unlock()
		return ErrMissingCredential
	}

	s.state = StateConnecting
	s.mu.Unlock()

	u, err := url.Parse(s.endpoint)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("bad endpoint %q: %w", s.endpoint, err)
	}
	q := u.Query()
	q.Set("token", cred.Token)
	u.RawQuery = q.Encode()

	s.log.Info("connecting", zap.String("url", u.Host+u.Path))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("connect: %w", err)
	}

	conn.SetReadLimit(maxFrameSize)

	send := make(chan []byte, sendBufferSize)
	done := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.state = StateOpen
	s.send = send
	s.done = done
	s.mu.Unlock()

	go s.readPump(conn)
	go s.writePump(conn, send, done)

	s.log.Info("connected")
	if s.handlers.OnOpen != nil {
		s.handlers.OnOpen()
	}
	return nil
}

// Send queues one frame for the writer goroutine. Valid only while Open;
// there is no retry on failure.
func (s *Session) Send(frame []byte) error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return ErrNotConnected
	}
	ch := s.send
	s.mu.Unlock()

	select {
	case ch <- frame:
		return nil
	default:
		return fmt.Errorf("send buffer full: %w", ErrNotConnected)
	}
}

// Close tears the connection down. Only an Open session transitions; closing
// anything else is a no-op, which makes double-close and teardown-while-idle
// safe.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	conn := s.conn
	done := s.done
	s.mu.Unlock()

	close(done)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	conn.Close()

	s.log.Info("closed")
	if s.handlers.OnClose != nil {
		s.handlers.OnClose()
	}
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// shutdown handles a server- or network-initiated teardown. The Open check
// keeps OnClose from firing twice when Close already ran.
func (s *Session) shutdown(err error) {
	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	done := s.done
	s.mu.Unlock()

	close(done)
	conn.Close()

	if err != nil {
		s.log.Warn("connection lost", zap.Error(err))
		if s.handlers.OnError != nil {
			s.handlers.OnError(err)
		}
	} else {
		s.log.Info("connection closed by server")
	}
	if s.handlers.OnClose != nil {
		s.handlers.OnClose()
	}
}

// readPump delivers inbound frames to OnFrame in network arrival order.
func (s *Session) readPump(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) &&
				!websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// Clean close handshake from the peer.
				s.shutdown(nil)
			} else {
				s.shutdown(err)
			}
			return
		}
		if s.handlers.OnFrame != nil {
			s.handlers.OnFrame(raw)
		}
	}
}

// writePump is the only goroutine writing to the connection.
func (s *Session) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.shutdown(fmt.Errorf("write: %w", err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.shutdown(fmt.Errorf("ping: %w", err))
				return
			}
		case <-done:
			return
		}
	}
}
