// Package socket is the realtime connection to the game server. Messages are
// JSON envelopes carrying an event name and a payload.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Lifecycle events fired by the socket itself.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
)

// Time allowed to write a message to the server.
const writeWait = 10 * time.Second

// ErrNotConnected is returned by Emit when there is no open connection.
var ErrNotConnected = errors.New("socket not connected")

// Envelope is the wire format of every message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the raw payload of an event. Handlers run on the read
// goroutine; lifecycle handlers run on the goroutine that caused the change.
type Handler func(data json.RawMessage)

// Socket is a single realtime connection. The zero value is not usable; call New.
type Socket struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *log.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string][]Handler

	writeMu sync.Mutex
}

// Option configures a Socket.
type Option func(*Socket)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Socket) { s.logger = l }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Socket) { s.dialer = d }
}

// WithHeader sets headers sent with the handshake, e.g. Authorization.
func WithHeader(h http.Header) Option {
	return func(s *Socket) { s.header = h }
}

// New creates a disconnected socket for the given ws:// or wss:// URL.
func New(url string, opts ...Option) *Socket {
	s := &Socket{
		url:      url,
		dialer:   websocket.DefaultDialer,
		logger:   log.Default(),
		handlers: make(map[string][]Handler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connected reports whether the socket has an open connection.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// On registers h for event. Handlers may be registered before Connect and
// stay registered across reconnects.
func (s *Socket) On(event string, h Handler) {
	s.mu.Lock()
	s.handlers[event] = append(s.handlers[event], h)
	s.mu.Unlock()
}

// Connect dials the server. It is a no-op when already connected.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		s.logger.Printf("connection error: %v", err)
		s.fire(EventConnectError, errorPayload(err))
		return fmt.Errorf("socket.Connect: %w", err)
	}

	s.mu.Lock()
	if s.conn != nil {
		// Lost a race with a concurrent Connect; keep the first connection.
		s.mu.Unlock()
		conn.Close() //nolint:errcheck
		return nil
	}
	s.conn = conn
	s.mu.Unlock()

	s.logger.Printf("connected to server %s", s.url)
	s.fire(EventConnect, nil)
	go s.readLoop(conn)
	return nil
}

// Emit sends event with payload. It does not wait for any acknowledgement.
func (s *Socket) Emit(event string, payload any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("socket.Emit %s: %w", event, ErrNotConnected)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("socket.Emit %s: marshal payload: %w", event, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := conn.WriteJSON(Envelope{Event: event, Data: data}); err != nil {
		return fmt.Errorf("socket.Emit %s: %w", event, err)
	}
	return nil
}

// Disconnect closes the connection. It does nothing when not connected.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return
	}

	s.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)) //nolint:errcheck // best-effort close frame
	s.writeMu.Unlock()
	conn.Close() //nolint:errcheck

	s.logger.Printf("disconnected from server")
	s.fire(EventDisconnect, nil)
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			owned := s.conn == conn
			if owned {
				s.conn = nil
			}
			s.mu.Unlock()
			// Disconnect already reported a locally closed connection.
			if owned {
				conn.Close() //nolint:errcheck
				s.logger.Printf("disconnected from server: %v", err)
				s.fire(EventDisconnect, errorPayload(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.logger.Printf("socket: bad message: %v", err)
			continue
		}
		if env.Event == "" {
			continue
		}
		s.fire(env.Event, env.Data)
	}
}

func (s *Socket) fire(event string, data json.RawMessage) {
	s.mu.Lock()
	hs := append([]Handler(nil), s.handlers[event]...)
	s.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func errorPayload(err error) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": err.Error()}) //nolint:errcheck // string map always marshals
	return data
}
