package wsbridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session is one connected client
type session struct {
	id     string
	conn   *websocket.Conn
	bridge *Bridge
	send   chan []byte

	once sync.Once
	done chan struct{}
}

func newSession(id string, conn *websocket.Conn, b *Bridge) *session {
	return &session{
		id:     id,
		conn:   conn,
		bridge: b,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// trySend queues data without blocking. It reports false when the buffer
// is full.
func (s *session) trySend(data []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *session) sendEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		s.bridge.logger.Error("Failed to encode message", "type", env.Type, "error", err)
		return
	}
	s.trySend(data)
}

func (s *session) sendError(msg string) {
	s.sendEnvelope(Envelope{Type: TypeError, Data: ErrorData{Message: msg}})
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// readPump reads client messages until the connection fails
func (s *session) readPump() {
	defer func() {
		s.bridge.unregister(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.bridge.logger.Warn("Unexpected close", "session", s.id, "error", err)
			}
			return
		}
		s.bridge.handle(s, message)
	}
}

// writePump delivers queued messages and keeps the connection alive
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
