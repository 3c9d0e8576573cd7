package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/lox/holdem/internal/deck"
)

// Phase is the stage of the current hand
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name in JSON output
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Table holds the full state of a game: seats, button, board and the
// betting state of the current street. A Table is not safe for concurrent
// use; the Orchestrator owns it while a hand is running.
type Table struct {
	Players    []*Player
	Board      []deck.Card
	Pot        int
	CurrentBet int
	MinRaise   int
	Dealer     int
	Active     int
	Phase      Phase
	HandNumber int

	SmallBlind    int
	BigBlind      int
	StartingChips int

	deck       *deck.Deck
	inProgress bool
}

// NewTable seats one player per name, each with startingChips
func NewTable(names []string, startingChips, smallBlind, bigBlind int) *Table {
	players := make([]*Player, len(names))
	for i, name := range names {
		players[i] = &Player{Seat: i, Name: name, Chips: startingChips}
	}
	return &Table{
		Players:       players,
		SmallBlind:    smallBlind,
		BigBlind:      bigBlind,
		StartingChips: startingChips,
		MinRaise:      bigBlind,
	}
}

// Seats returns the number of seats at the table
func (t *Table) Seats() int {
	return len(t.Players)
}

// Player returns the player in seat, or nil for an unknown seat
func (t *Table) Player(seat int) *Player {
	if seat < 0 || seat >= len(t.Players) {
		return nil
	}
	return t.Players[seat]
}

// NextActiveSeat walks clockwise from the seat after from and returns the
// first seat that can still act. It reports false when nobody can act.
func (t *Table) NextActiveSeat(from int) (int, bool) {
	return t.nextSeat(from, (*Player).CanAct)
}

// NextSeatInHand walks clockwise from the seat after from and returns the
// first seat that has not folded. All-in seats count.
func (t *Table) NextSeatInHand(from int) (int, bool) {
	return t.nextSeat(from, (*Player).InHand)
}

func (t *Table) nextSeat(from int, match func(*Player) bool) (int, bool) {
	n := len(t.Players)
	for step := 1; step <= n; step++ {
		seat := ((from+step)%n + n) % n
		if match(t.Players[seat]) {
			return seat, true
		}
	}
	return -1, false
}

// PlayersInHand returns the players still contesting the pot, in seat order
func (t *Table) PlayersInHand() []*Player {
	return t.filter((*Player).InHand)
}

// Actors returns the players who can still act, in seat order
func (t *Table) Actors() []*Player {
	return t.filter((*Player).CanAct)
}

// SeatsWithChips returns the players that can be dealt into a hand
func (t *Table) SeatsWithChips() []*Player {
	return t.filter((*Player).HasChips)
}

func (t *Table) filter(match func(*Player) bool) []*Player {
	var out []*Player
	for _, p := range t.Players {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

// TotalChips is the sum of every stack plus the pot
func (t *Table) TotalChips() int {
	total := t.Pot
	for _, p := range t.Players {
		total += p.Chips
	}
	return total
}

// ResetForHand clears per-hand state and installs a fresh deck. Players
// without chips are folded for the hand.
func (t *Table) ResetForHand(d *deck.Deck) {
	t.HandNumber++
	t.Board = nil
	t.Pot = 0
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.Phase = PhasePreflop
	t.deck = d
	t.inProgress = true
	for _, p := range t.Players {
		p.resetForHand()
	}
}

// ResetStreet clears street bets when moving to the next phase
func (t *Table) ResetStreet(phase Phase) {
	t.Phase = phase
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	for _, p := range t.Players {
		p.Bet = 0
	}
}

// ResetStacks returns every seat to the starting stack and puts the table
// back in its initial idle state.
func (t *Table) ResetStacks() {
	t.HandNumber = 0
	t.Board = nil
	t.Pot = 0
	t.CurrentBet = 0
	t.MinRaise = t.BigBlind
	t.Phase = PhaseIdle
	t.Dealer = 0
	t.Active = 0
	t.inProgress = false
	for _, p := range t.Players {
		p.Chips = t.StartingChips
		p.HoleCards = nil
		p.Bet = 0
		p.TotalBet = 0
		p.Folded = p.Removed
		p.AllIn = false
	}
}

// VoidHand refunds every contribution of an abandoned hand so stacks are
// as they were before the blinds. The hand number is released for the
// next hand.
func (t *Table) VoidHand() {
	if t.inProgress && t.HandNumber > 0 {
		t.HandNumber--
	}
	for _, p := range t.Players {
		p.Chips += p.TotalBet
		p.Bet = 0
		p.TotalBet = 0
		p.AllIn = false
		p.HoleCards = nil
	}
	t.Pot = 0
	t.CurrentBet = 0
	t.Board = nil
	t.Phase = PhaseIdle
	t.inProgress = false
}

// InProgress reports whether a hand has started and not yet paid out
func (t *Table) InProgress() bool {
	return t.inProgress
}

// MoveDealer places the button for a new hand. With randomize set the
// button goes to a random seat holding chips; otherwise it advances
// clockwise to the next seat holding chips.
func (t *Table) MoveDealer(rng *rand.Rand, randomize bool) int {
	if randomize {
		candidates := t.SeatsWithChips()
		if len(candidates) > 0 {
			t.Dealer = candidates[rng.IntN(len(candidates))].Seat
		}
		return t.Dealer
	}
	if seat, ok := t.nextSeat(t.Dealer, (*Player).HasChips); ok {
		t.Dealer = seat
	}
	return t.Dealer
}

// BlindSeats returns the small and big blind seats for the current dealer:
// the next two seats clockwise that are dealt in. With two players the
// dealer posts the big blind.
func (t *Table) BlindSeats() (sb, bb int) {
	sb, _ = t.NextSeatInHand(t.Dealer)
	bb, _ = t.NextSeatInHand(sb)
	return sb, bb
}

// PostBlind commits up to amount from seat and adds it to the pot
func (t *Table) PostBlind(seat, amount int) int {
	posted := t.Players[seat].commit(amount)
	t.Pot += posted
	return posted
}

// DealOrder returns the seats dealt into the hand starting left of the
// dealer and going clockwise.
func (t *Table) DealOrder() []int {
	var seats []int
	n := len(t.Players)
	for step := 1; step <= n; step++ {
		seat := (t.Dealer + step) % n
		if t.Players[seat].InHand() {
			seats = append(seats, seat)
		}
	}
	return seats
}

// Draw takes the next card from the hand's deck
func (t *Table) Draw() (deck.Card, error) {
	if t.deck == nil {
		return deck.Card{}, fmt.Errorf("%w: no deck installed", ErrInvariant)
	}
	c, err := t.deck.Draw()
	if err != nil {
		return deck.Card{}, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return c, nil
}

// Reveal burns one card and turns n cards onto the board
func (t *Table) Reveal(n int) ([]deck.Card, error) {
	if _, err := t.Draw(); err != nil {
		return nil, err
	}
	cards := make([]deck.Card, 0, n)
	for range n {
		c, err := t.Draw()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	t.Board = append(t.Board, cards...)
	return cards, nil
}

// TableView is a snapshot handed to decision makers. HoleCards holds only
// the viewing seat's cards.
type TableView struct {
	Seat       int          `json:"seat"`
	HandNumber int          `json:"hand"`
	Phase      Phase        `json:"phase"`
	Board      []deck.Card  `json:"board"`
	HoleCards  []deck.Card  `json:"hole_cards"`
	Pot        int          `json:"pot"`
	CurrentBet int          `json:"current_bet"`
	MinRaise   int          `json:"min_raise"`
	BigBlind   int          `json:"big_blind"`
	Dealer     int          `json:"dealer"`
	Active     int          `json:"active"`
	Players    []PlayerView `json:"players"`
}

// View snapshots the table from seat's point of view
func (t *Table) View(seat int) TableView {
	v := TableView{
		Seat:       seat,
		HandNumber: t.HandNumber,
		Phase:      t.Phase,
		Board:      slices.Clone(t.Board),
		Pot:        t.Pot,
		CurrentBet: t.CurrentBet,
		MinRaise:   t.MinRaise,
		BigBlind:   t.BigBlind,
		Dealer:     t.Dealer,
		Active:     t.Active,
		Players:    make([]PlayerView, len(t.Players)),
	}
	for i, p := range t.Players {
		v.Players[i] = p.view()
	}
	if p := t.Player(seat); p != nil {
		v.HoleCards = p.holeCards()
	}
	return v
}

// Me returns the viewing seat's public state
func (v TableView) Me() PlayerView {
	if v.Seat < 0 || v.Seat >= len(v.Players) {
		return PlayerView{}
	}
	return v.Players[v.Seat]
}
