package phh

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
)

// ErrIncomplete is returned for hands that never reached their payout
var ErrIncomplete = errors.New("phh: hand did not finish")

// FromRecord converts a finished hand's event log into a hand history.
// Seats that were not dealt in are left out.
func FromRecord(rec game.HandRecord, table string) (*HandHistory, error) {
	var (
		start *game.HandStartEvent
		end   *game.HandEndEvent
		hole  = make(map[int][]deck.Card)
		blind = make(map[int]int)
	)
	for _, e := range rec.Events {
		switch e := e.(type) {
		case game.HandStartEvent:
			start = &e
		case game.HandEndEvent:
			end = &e
		case game.CardDealtEvent:
			if e.Seat != game.BoardSeat {
				hole[e.Seat] = append(hole[e.Seat], e.Card)
			}
		case game.BlindPostedEvent:
			blind[e.Seat] += e.Amount
		}
	}
	if start == nil || end == nil {
		return nil, fmt.Errorf("%w: hand %d", ErrIncomplete, rec.Number)
	}

	order := seatOrder(*start)
	player := make(map[int]int, len(order))
	h := &HandHistory{
		Variant:   "NT",
		Table:     table,
		SeatCount: len(start.Players),
		MinBet:    start.BigBlind,
		HandID:    strconv.Itoa(rec.Number),
	}
	h.SetTimestamp(start.Timestamp())
	for i, p := range order {
		player[p.Seat] = i + 1
		h.Seats = append(h.Seats, p.Seat+1)
		h.Players = append(h.Players, p.Name)
		h.Antes = append(h.Antes, 0)
		h.BlindsOrStraddles = append(h.BlindsOrStraddles, blind[p.Seat])
		h.StartingStacks = append(h.StartingStacks, p.Chips)
		finish := 0
		if p.Seat < len(end.Stacks) {
			finish = end.Stacks[p.Seat]
		}
		h.FinishingStacks = append(h.FinishingStacks, finish)
		h.Winnings = append(h.Winnings, end.Winnings[p.Seat])
	}

	for _, p := range order {
		if len(hole[p.Seat]) > 0 {
			h.Actions = append(h.Actions, fmt.Sprintf("d dh p%d %s", player[p.Seat], cards(hole[p.Seat])))
		}
	}

	streetBet := make(map[int]int, len(blind))
	currentBet := 0
	for seat, amount := range blind {
		streetBet[seat] = amount
		currentBet = max(currentBet, amount)
	}
	dealt := 0
	for _, e := range rec.Events {
		switch e := e.(type) {
		case game.StreetChangeEvent:
			if len(e.Board) > dealt {
				h.Actions = append(h.Actions, "d db "+cards(e.Board[dealt:]))
				dealt = len(e.Board)
			}
			clear(streetBet)
			currentBet = 0
		case game.ActionTakenEvent:
			streetBet[e.Seat] += e.Committed
			h.Actions = append(h.Actions, FormatAction(player[e.Seat], e.Action.Kind, streetBet[e.Seat], currentBet))
			currentBet = e.CurrentBet
		case game.ShowdownEvent:
			h.Actions = append(h.Actions, fmt.Sprintf("p%d sm %s", player[e.Seat], cards(e.HoleCards)))
		}
	}
	// board cards not announced by a street change
	if len(end.Board) > dealt {
		h.Actions = append(h.Actions, "d db "+cards(end.Board[dealt:]))
	}
	return h, nil
}

// seatOrder returns the dealt-in players starting with the small blind
func seatOrder(start game.HandStartEvent) []game.PlayerView {
	n := len(start.Players)
	first := start.SmallBlindSeat
	var order []game.PlayerView
	for i := range n {
		p := start.Players[(first+i)%n]
		if p.Folded || p.Removed {
			continue
		}
		order = append(order, p)
	}
	return order
}
