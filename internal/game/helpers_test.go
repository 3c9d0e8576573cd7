package game

import (
	"io"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/randutil"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// contributions builds players who have already put the given totals into
// the pot; a negative value marks the player as folded with -value chips in.
func contributions(totals ...int) []*Player {
	players := make([]*Player, len(totals))
	for i, total := range totals {
		p := &Player{Seat: i, Chips: 1000}
		if total < 0 {
			p.Folded = true
			total = -total
		}
		p.TotalBet = total
		players[i] = p
	}
	return players
}

// stackedSource deals hole cards and board from fixed cards. holes is in
// deal order (starting left of the dealer, first card to everyone, then the
// second); board is flop, turn and river without burns.
func stackedSource(holes, board string) func(*rand.Rand) *deck.Deck {
	return func(*rand.Rand) *deck.Deck {
		cards := deck.MustParseCards(holes)
		b := deck.MustParseCards(board)
		burn := deck.MustParseCards("2c")[0]
		cards = append(cards, burn, b[0], b[1], b[2], burn, b[3], burn, b[4])
		return deck.Stacked(cards...)
	}
}

// recorder collects published events
type recorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *recorder) OnEvent(e GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]GameEvent(nil), r.events...)
}

func (r *recorder) ofType(et EventType) []GameEvent {
	var out []GameEvent
	for _, e := range r.all() {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func stacks(t *Table) []int {
	out := make([]int, len(t.Players))
	for i, p := range t.Players {
		out[i] = p.Chips
	}
	return out
}

func mustCards(s string) []deck.Card {
	return deck.MustParseCards(s)
}

func newTestRand(seed int64) *rand.Rand {
	return randutil.New(seed)
}
