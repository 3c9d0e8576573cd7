package wsbridge

import (
	"encoding/json"
	"fmt"

	"github.com/lox/holdem/internal/game"
)

// Message types that are not game events
const (
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeError   = "error"
	TypeAction  = "action"
	TypeRestart = "restart"
)

// Envelope is every server-to-client message
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Welcome is sent once when a client connects
type Welcome struct {
	Session string `json:"session"`
	Seat    int    `json:"seat"`
}

// ErrorData describes a rejected client message
type ErrorData struct {
	Message string `json:"message"`
}

// ClientMessage is a client-to-server message, e.g.
// {"type":"action","action":"raise","amount":120}
type ClientMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

// ToAction converts an action message into a game action
func (m ClientMessage) ToAction() (game.Action, error) {
	kind, err := game.ParseActionKind(m.Action)
	if err != nil {
		return game.Action{}, err
	}
	a := game.Action{Kind: kind}
	if kind == game.Raise {
		if m.Amount <= 0 {
			return game.Action{}, fmt.Errorf("%w: raise needs a positive amount", game.ErrIllegalAction)
		}
		a.Amount = m.Amount
	}
	return a, nil
}

// hiddenCard is a CardDealtEvent for another seat with the card removed
type hiddenCard struct {
	Hand  int        `json:"hand"`
	Seat  int        `json:"seat"`
	Phase game.Phase `json:"phase"`
}

// encodeEvent wraps an event for the client at seat, hiding hole cards
// dealt to other seats.
func encodeEvent(event game.GameEvent, seat int) ([]byte, error) {
	var data any = event
	if e, ok := event.(game.CardDealtEvent); ok && e.Seat != game.BoardSeat && e.Seat != seat {
		data = hiddenCard{Hand: e.Hand, Seat: e.Seat, Phase: e.Phase}
	}
	return json.Marshal(Envelope{Type: event.EventType().String(), Data: data})
}
