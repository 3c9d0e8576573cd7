package game

import (
	"slices"

	"github.com/lox/holdem/internal/deck"
)

// Player is a seat at the table. Seat numbers are stable for the table's
// lifetime; everything except Chips and Removed is reset every hand.
type Player struct {
	Seat      int
	Name      string
	Chips     int
	HoleCards []deck.Card
	Bet       int // committed on the current street
	TotalBet  int // committed this hand
	Folded    bool
	AllIn     bool
	Removed   bool // permanently folded until re-added
}

// CanAct reports whether the player can still make betting decisions
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn && !p.Removed && p.Chips > 0
}

// InHand reports whether the player still contests the pot. All-in
// players are in the hand even though they can no longer act.
func (p *Player) InHand() bool {
	return !p.Folded && !p.Removed
}

// HasChips reports whether the player can be dealt into a hand
func (p *Player) HasChips() bool {
	return !p.Removed && p.Chips > 0
}

// commit moves up to amount chips from the stack into the current bet and
// returns the amount actually moved. Running out of chips sets AllIn.
func (p *Player) commit(amount int) int {
	amount = min(amount, p.Chips)
	if amount <= 0 {
		return 0
	}
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Chips == 0 {
		p.AllIn = true
	}
	return amount
}

func (p *Player) resetForHand() {
	p.HoleCards = nil
	p.Bet = 0
	p.TotalBet = 0
	p.AllIn = false
	if p.Chips < 0 {
		p.Chips = 0
	}
	// busted and removed seats sit the hand out
	p.Folded = p.Removed || p.Chips == 0
}

// PlayerView is a read-only copy of a player's public state
type PlayerView struct {
	Seat     int    `json:"seat"`
	Name     string `json:"name"`
	Chips    int    `json:"chips"`
	Bet      int    `json:"bet"`
	TotalBet int    `json:"total_bet"`
	Folded   bool   `json:"folded"`
	AllIn    bool   `json:"all_in"`
	Removed  bool   `json:"removed"`
}

func (p *Player) view() PlayerView {
	return PlayerView{
		Seat:     p.Seat,
		Name:     p.Name,
		Chips:    p.Chips,
		Bet:      p.Bet,
		TotalBet: p.TotalBet,
		Folded:   p.Folded,
		AllIn:    p.AllIn,
		Removed:  p.Removed,
	}
}

func (p *Player) holeCards() []deck.Card {
	return slices.Clone(p.HoleCards)
}
