// Package evaluator scores Texas Hold'em hands.
//
// Every 5-card subset of the supplied cards is scored independently and the
// best one wins. Scores are plain integers: each category owns a band of
// 1,000,000 and the tiebreak inside a band packs the relevant ranks in base
// 15, so any two results compare correctly with < and >.
package evaluator

import (
	"slices"

	"github.com/lox/holdem/internal/deck"
)

// Category is the class of a poker hand, ordered from weakest to strongest.
type Category uint8

const (
	Incomplete Category = iota
	HighCard
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable category name
func (c Category) String() string {
	switch c {
	case Incomplete:
		return "Incomplete"
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the category by name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

const (
	// CategoryBand is the score width reserved for each category
	CategoryBand = 1_000_000

	// positional weights for base-15 tiebreak packing
	w0 = 1
	w1 = 15
	w2 = 15 * 15
	w3 = 15 * 15 * 15
	w4 = 15 * 15 * 15 * 15
)

// Result is the best 5-card hand found in a set of cards
type Result struct {
	Category Category    `json:"category"`
	Score    int         `json:"score"`
	Cards    []deck.Card `json:"cards"` // the five cards making the hand, most significant first
}

// Compare returns 1 if r beats other, -1 if other beats r and 0 on a tie
func (r Result) Compare(other Result) int {
	switch {
	case r.Score > other.Score:
		return 1
	case r.Score < other.Score:
		return -1
	default:
		return 0
	}
}

// String returns the category name
func (r Result) String() string {
	return r.Category.String()
}

// Evaluate returns the best 5-card hand among cards. Fewer than five cards
// yields an Incomplete result with a zero score.
func Evaluate(cards []deck.Card) Result {
	n := len(cards)
	if n < 5 {
		return Result{Category: Incomplete}
	}

	var best Result
	combo := make([]deck.Card, 5)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						combo[0], combo[1], combo[2], combo[3], combo[4] = cards[a], cards[b], cards[c], cards[d], cards[e]
						if r := EvaluateFive(combo); r.Score > best.Score {
							best = r
						}
					}
				}
			}
		}
	}
	return best
}

// EvaluateFive scores exactly five cards. It panics on any other length.
func EvaluateFive(cards []deck.Card) Result {
	if len(cards) != 5 {
		panic("EvaluateFive requires exactly 5 cards")
	}

	var counts [deck.Ace + 1]int
	for _, c := range cards {
		counts[c.Rank]++
	}

	// Order by group size then rank so that quads, trips and pairs lead
	// and kickers trail in descending order.
	ordered := slices.Clone(cards)
	slices.SortStableFunc(ordered, func(x, y deck.Card) int {
		if counts[x.Rank] != counts[y.Rank] {
			return counts[y.Rank] - counts[x.Rank]
		}
		return int(y.Rank) - int(x.Rank)
	})

	values := make([]int, 5) // descending by group, then rank
	for i, c := range ordered {
		values[i] = c.Value()
	}

	groups := groupSizes(ordered, counts[:])
	flush := isFlush(cards)
	straight := groups[0] == 1 && values[0]-values[4] == 4
	wheel := groups[0] == 1 && values[0] == int(deck.Ace) && values[1] == int(deck.Five)

	if wheel {
		// ace plays low: 5-4-3-2-A
		ordered = append(ordered[1:], ordered[0])
	}

	var category Category
	var tiebreak int
	switch {
	case flush && straight && values[0] == int(deck.Ace):
		category = RoyalFlush
	case flush && (straight || wheel):
		category = StraightFlush
		tiebreak = straightHigh(values, wheel)
	case groups[0] == 4:
		category = FourOfAKind
		tiebreak = values[0]*w1 + values[4]
	case groups[0] == 3 && groups[1] == 2:
		category = FullHouse
		tiebreak = values[0]*w1 + values[3]
	case flush:
		category = Flush
		tiebreak = packFive(values)
	case straight || wheel:
		category = Straight
		tiebreak = straightHigh(values, wheel)
	case groups[0] == 3:
		category = ThreeOfAKind
		tiebreak = values[0]*w3 + values[3]*w2 + values[4]*w1
	case groups[0] == 2 && groups[1] == 2:
		category = TwoPair
		tiebreak = values[0]*w3 + values[2]*w2 + values[4]*w1
	case groups[0] == 2:
		category = OnePair
		tiebreak = values[0]*w3 + values[2]*w2 + values[3]*w1 + values[4]*w0
	default:
		category = HighCard
		tiebreak = packFive(values)
	}

	return Result{
		Category: category,
		Score:    int(category)*CategoryBand + tiebreak,
		Cards:    ordered,
	}
}

// groupSizes returns the sizes of rank groups in the order they appear in
// ordered, e.g. [3 2] for a full house or [1 1 1 1 1] for five distinct ranks.
func groupSizes(ordered []deck.Card, counts []int) []int {
	sizes := make([]int, 0, 5)
	for i := 0; i < len(ordered); i += counts[ordered[i].Rank] {
		sizes = append(sizes, counts[ordered[i].Rank])
	}
	for len(sizes) < 2 {
		sizes = append(sizes, 0)
	}
	return sizes
}

func isFlush(cards []deck.Card) bool {
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}
	return true
}

func straightHigh(values []int, wheel bool) int {
	if wheel {
		return int(deck.Five)
	}
	return values[0]
}

func packFive(v []int) int {
	return v[0]*w4 + v[1]*w3 + v[2]*w2 + v[3]*w1 + v[4]*w0
}
