package social

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// stream is one plain-JSON websocket to the user service. Every text frame
// read from it is handed to onMessage on the read goroutine.
type stream struct {
	name      string
	url       string
	header    http.Header
	dialer    *websocket.Dialer
	logger    *log.Logger
	onMessage func(data []byte)

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (s *stream) open(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		s.logger.Printf("%s: connection error: %v", s.name, err)
		return fmt.Errorf("social: dial %s: %w", s.name, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.logger.Printf("%s: connected", s.name)
	go s.readLoop(conn)
	return nil
}

func (s *stream) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *stream) send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("social: send %s: %w", s.name, ErrClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("social: send %s: %w", s.name, err)
	}
	return nil
}

func (s *stream) close() {
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

	s.logger.Printf("%s: disconnected", s.name)
}

func (s *stream) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			owned := s.conn == conn
			if owned {
				s.conn = nil
			}
			s.mu.Unlock()
			if owned {
				conn.Close() //nolint:errcheck
				s.logger.Printf("%s: disconnected: %v", s.name, err)
			}
			return
		}
		s.onMessage(message)
	}
}
