package game

import (
	"slices"
	"sync"
	"time"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeHandStart      EventType = "hand_start"
	EventTypeBlindPosted    EventType = "blind_posted"
	EventTypeCardDealt      EventType = "card_dealt"
	EventTypeActionRequired EventType = "action_required"
	EventTypeActionTaken    EventType = "action_taken"
	EventTypeActionRejected EventType = "action_rejected"
	EventTypeStreetChange   EventType = "street_change"
	EventTypeShowdown       EventType = "showdown"
	EventTypePotAwarded     EventType = "pot_awarded"
	EventTypeHandEnd        EventType = "hand_end"
	EventTypeGameOver       EventType = "game_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a game
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
	HandNumber() int
}

// HandStartEvent is published once blinds are assigned for a new hand
type HandStartEvent struct {
	Hand           int          `json:"hand"`
	Dealer         int          `json:"dealer"`
	SmallBlindSeat int          `json:"small_blind_seat"`
	BigBlindSeat   int          `json:"big_blind_seat"`
	SmallBlind     int          `json:"small_blind"`
	BigBlind       int          `json:"big_blind"`
	Players        []PlayerView `json:"players"`
	timestamp      time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }
func (e HandStartEvent) HandNumber() int      { return e.Hand }

// BlindPostedEvent is published for each forced bet
type BlindPostedEvent struct {
	Hand        int    `json:"hand"`
	Seat        int    `json:"seat"`
	Blind       string `json:"blind"` // "small" or "big"
	Amount      int    `json:"amount"`
	StackBefore int    `json:"stack_before"`
	AllIn       bool   `json:"all_in"`
	timestamp   time.Time
}

func (e BlindPostedEvent) EventType() EventType { return EventTypeBlindPosted }
func (e BlindPostedEvent) Timestamp() time.Time { return e.timestamp }
func (e BlindPostedEvent) HandNumber() int      { return e.Hand }

// BoardSeat is the Seat of a CardDealtEvent for a community card
const BoardSeat = -1

// CardDealtEvent is published for every hole or community card. Burned
// cards are not published.
type CardDealtEvent struct {
	Hand      int       `json:"hand"`
	Seat      int       `json:"seat"`
	Card      deck.Card `json:"card"`
	Phase     Phase     `json:"phase"`
	timestamp time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }
func (e CardDealtEvent) HandNumber() int      { return e.Hand }

// ActionRequiredEvent is published before a seat is asked to decide
type ActionRequiredEvent struct {
	Hand      int          `json:"hand"`
	Seat      int          `json:"seat"`
	Legal     LegalActions `json:"legal"`
	Pot       int          `json:"pot"`
	timestamp time.Time
}

func (e ActionRequiredEvent) EventType() EventType { return EventTypeActionRequired }
func (e ActionRequiredEvent) Timestamp() time.Time { return e.timestamp }
func (e ActionRequiredEvent) HandNumber() int      { return e.Hand }

// ActionTakenEvent is published after an action is applied
type ActionTakenEvent struct {
	Hand        int    `json:"hand"`
	Seat        int    `json:"seat"`
	Name        string `json:"name"`
	Action      Action `json:"action"`
	Committed   int    `json:"committed"`
	StackBefore int    `json:"stack_before"`
	StackAfter  int    `json:"stack_after"`
	Pot         int    `json:"pot"`
	CurrentBet  int    `json:"current_bet"`
	Phase       Phase  `json:"phase"`
	timestamp   time.Time
}

func (e ActionTakenEvent) EventType() EventType { return EventTypeActionTaken }
func (e ActionTakenEvent) Timestamp() time.Time { return e.timestamp }
func (e ActionTakenEvent) HandNumber() int      { return e.Hand }

// ActionRejectedEvent is published when a submitted action was illegal
// and the seat is asked again.
type ActionRejectedEvent struct {
	Hand      int    `json:"hand"`
	Seat      int    `json:"seat"`
	Action    Action `json:"action"`
	Reason    string `json:"reason"`
	timestamp time.Time
}

func (e ActionRejectedEvent) EventType() EventType { return EventTypeActionRejected }
func (e ActionRejectedEvent) Timestamp() time.Time { return e.timestamp }
func (e ActionRejectedEvent) HandNumber() int      { return e.Hand }

// StreetChangeEvent is published when the flop, turn or river is revealed
type StreetChangeEvent struct {
	Hand      int         `json:"hand"`
	Phase     Phase       `json:"phase"`
	Board     []deck.Card `json:"board"`
	Pot       int         `json:"pot"`
	timestamp time.Time
}

func (e StreetChangeEvent) EventType() EventType { return EventTypeStreetChange }
func (e StreetChangeEvent) Timestamp() time.Time { return e.timestamp }
func (e StreetChangeEvent) HandNumber() int      { return e.Hand }

// ShowdownEvent reveals one player's cards and best hand
type ShowdownEvent struct {
	Hand      int              `json:"hand"`
	Seat      int              `json:"seat"`
	HoleCards []deck.Card      `json:"hole_cards"`
	Result    evaluator.Result `json:"result"`
	timestamp time.Time
}

func (e ShowdownEvent) EventType() EventType { return EventTypeShowdown }
func (e ShowdownEvent) Timestamp() time.Time { return e.timestamp }
func (e ShowdownEvent) HandNumber() int      { return e.Hand }

// PotAwardedEvent is published for each pot paid out
type PotAwardedEvent struct {
	Hand        int                `json:"hand"`
	Award       PotAward           `json:"award"`
	Eligible    []int              `json:"eligible"`
	Uncontested bool               `json:"uncontested"`
	Category    evaluator.Category `json:"category"`
	timestamp   time.Time
}

func (e PotAwardedEvent) EventType() EventType { return EventTypePotAwarded }
func (e PotAwardedEvent) Timestamp() time.Time { return e.timestamp }
func (e PotAwardedEvent) HandNumber() int      { return e.Hand }

// HandEndEvent is published once all pots are paid
type HandEndEvent struct {
	Hand      int         `json:"hand"`
	Board     []deck.Card `json:"board"`
	Winnings  map[int]int `json:"winnings"`
	Stacks    []int       `json:"stacks"`
	Showdown  bool        `json:"showdown"`
	timestamp time.Time
}

func (e HandEndEvent) EventType() EventType { return EventTypeHandEnd }
func (e HandEndEvent) Timestamp() time.Time { return e.timestamp }
func (e HandEndEvent) HandNumber() int      { return e.Hand }

// GameOverEvent is published when fewer than two seats have chips. Winner
// is -1 when nobody has chips left.
type GameOverEvent struct {
	Hand      int    `json:"hand"`
	Winner    int    `json:"winner"`
	Name      string `json:"name,omitempty"`
	timestamp time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }
func (e GameOverEvent) HandNumber() int      { return e.Hand }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is an in-memory event bus. Subscribers are called
// synchronously on the publishing goroutine and may subscribe or
// unsubscribe from within OnEvent.
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = slices.Delete(slices.Clone(bus.subscribers), i, i+1)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subscribers := bus.subscribers
	bus.mu.RUnlock()
	for _, subscriber := range subscribers {
		subscriber.OnEvent(event)
	}
}
