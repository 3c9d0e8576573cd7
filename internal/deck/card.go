package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck construction order
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single-letter suit code used in card notation
func (s Suit) Letter() byte {
	switch s {
	case Spades:
		return 's'
	case Hearts:
		return 'h'
	case Diamonds:
		return 'd'
	case Clubs:
		return 'c'
	default:
		return '?'
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. The numeric value is the rank's poker value,
// so Two is 2 and Ace is 14.
type Rank uint8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Nine:
		return string(rune('0' + r))
	case r == Ten:
		return "T"
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card is an immutable playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display form of a card (e.g. "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Code returns the two-character ASCII notation of a card (e.g. "As")
func (c Card) Code() string {
	return c.Rank.String() + string(c.Suit.Letter())
}

// Value returns the numeric poker value of the card (2..14)
func (c Card) Value() int {
	return int(c.Rank)
}

// MarshalText encodes the card as its ASCII code
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.Code()), nil
}

// UnmarshalText decodes a card from its ASCII code
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// IsValid reports whether the card has a known rank and suit
func (c Card) IsValid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit <= Clubs
}

// ParseCard parses a single card such as "As", "td" or "10h".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 3 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	rankPart, suitPart := s[:len(s)-1], s[len(s)-1]
	rank, err := parseRank(rankPart)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := parseSuit(suitPart)
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses whitespace-separated or concatenated card notation,
// e.g. "As Ks" or "AsKsQsJsTs".
func ParseCards(s string) ([]Card, error) {
	var cards []Card
	for _, field := range strings.Fields(s) {
		for len(field) > 0 {
			n := 2
			if strings.HasPrefix(field, "10") {
				n = 3
			}
			if len(field) < n {
				return nil, fmt.Errorf("incomplete card %q", field)
			}
			card, err := ParseCard(field[:n])
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
			field = field[n:]
		}
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

func parseRank(s string) (Rank, error) {
	if s == "10" {
		return Ten, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	switch c := s[0]; c {
	case 'A', 'a':
		return Ace, nil
	case 'K', 'k':
		return King, nil
	case 'Q', 'q':
		return Queen, nil
	case 'J', 'j':
		return Jack, nil
	case 'T', 't':
		return Ten, nil
	default:
		if c >= '2' && c <= '9' {
			return Rank(c - '0'), nil
		}
		return 0, fmt.Errorf("unknown rank %q", s)
	}
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 's', 'S':
		return Spades, nil
	case 'h', 'H':
		return Hearts, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'c', 'C':
		return Clubs, nil
	default:
		return 0, fmt.Errorf("unknown suit %q", c)
	}
}
