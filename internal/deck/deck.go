package deck

import (
	"errors"
	"math/rand/v2"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrDeckExhausted is returned when drawing from an empty deck
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is an ordered sequence of cards consumed front to back. A deck
// belongs to a single hand and is never refilled once exhausted.
type Deck struct {
	cards []Card
}

// New returns a freshly shuffled 52-card deck
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}

	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}

	// Fisher-Yates
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Deck{cards: cards}
}

// Stacked returns a deck that deals the given cards in order. It is
// intended for deterministic tests and replays.
func Stacked(cards ...Card) *Deck {
	c := make([]Card, len(cards))
	copy(c, cards)
	return &Deck{cards: c}
}

// Draw removes and returns the top card
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// DrawN draws n cards. On exhaustion no cards are consumed.
func (d *Deck) DrawN(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrDeckExhausted
	}
	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
