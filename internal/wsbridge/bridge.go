// Package wsbridge lets a remote UI play a human seat over a websocket.
// Game events are forwarded to every connected client and action messages
// are submitted to the seat's HumanProvider.
package wsbridge

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem/internal/game"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 256
)

// Bridge is an http.Handler and a game.EventSubscriber
type Bridge struct {
	seat     int
	human    *game.HumanProvider
	restart  func()
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
}

// Option configures a Bridge
type Option func(*Bridge)

// WithRestart lets clients send {"type":"restart"} to restart the game
func WithRestart(fn func()) Option {
	return func(b *Bridge) { b.restart = fn }
}

// WithCheckOrigin overrides the upgrader's origin check
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(b *Bridge) { b.upgrader.CheckOrigin = fn }
}

// New creates a bridge for the human at seat
func New(seat int, human *game.HumanProvider, logger *log.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		seat:   seat,
		human:  human,
		logger: logger.WithPrefix("wsbridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sessions returns the number of connected clients
func (b *Bridge) Sessions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// ServeHTTP upgrades the request and serves the client until it disconnects
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	s := newSession(uuid.NewString(), conn, b)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return
	}
	b.sessions[s.id] = s
	b.mu.Unlock()
	b.logger.Info("Client connected", "session", s.id, "remote", r.RemoteAddr)

	s.sendEnvelope(Envelope{Type: TypeWelcome, Data: Welcome{Session: s.id, Seat: b.seat}})
	if req, ok := b.human.Pending(); ok {
		s.sendEnvelope(Envelope{Type: TypeState, Data: req.View})
		s.sendEnvelope(Envelope{
			Type: game.EventTypeActionRequired.String(),
			Data: game.ActionRequiredEvent{Hand: req.View.HandNumber, Seat: req.Seat, Legal: req.Legal, Pot: req.View.Pot},
		})
	}

	go s.writePump()
	s.readPump()
}

// OnEvent forwards event to every client. Clients that cannot keep up are
// disconnected rather than blocking the game.
func (b *Bridge) OnEvent(event game.GameEvent) {
	data, err := encodeEvent(event, b.seat)
	if err != nil {
		b.logger.Error("Failed to encode event", "type", event.EventType(), "error", err)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.sessions {
		if !s.trySend(data) {
			b.logger.Warn("Client too slow, disconnecting", "session", s.id)
			s.close()
		}
	}
}

// Close disconnects every client and refuses new ones
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	sessions := make([]*session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

func (b *Bridge) unregister(s *session) {
	b.mu.Lock()
	delete(b.sessions, s.id)
	b.mu.Unlock()
	b.logger.Info("Client disconnected", "session", s.id)
}

// handle processes one client message
func (b *Bridge) handle(s *session, raw []byte) {
	msg, err := decodeClientMessage(raw)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	switch msg.Type {
	case TypeAction:
		action, err := msg.ToAction()
		if err != nil {
			s.sendError(err.Error())
			return
		}
		if err := b.human.Submit(action); err != nil {
			if !errors.Is(err, game.ErrIllegalAction) && !errors.Is(err, game.ErrNoPendingDecision) {
				b.logger.Error("Submit failed", "session", s.id, "error", err)
			}
			s.sendError(err.Error())
			return
		}
		b.logger.Debug("Action submitted", "session", s.id, "action", action)
	case TypeRestart:
		if b.restart == nil {
			s.sendError("restart is not enabled")
			return
		}
		b.logger.Info("Restart requested", "session", s.id)
		b.restart()
	default:
		s.sendError("unknown message type " + msg.Type)
	}
}
