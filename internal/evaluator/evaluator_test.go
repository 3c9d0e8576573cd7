package evaluator

import (
	"testing"

	"github.com/lox/holdem/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cards(s string) []deck.Card {
	return deck.MustParseCards(s)
}

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cards    string
		expected Category
	}{
		{"royal flush", "AsKsQsJsTs9h8h", RoyalFlush},
		{"straight flush", "9s8s7s6s5s4h3h", StraightFlush},
		{"steel wheel", "As2s3s4s5sKhKd", StraightFlush},
		{"four of a kind", "AsAhAdAcKs2h3h", FourOfAKind},
		{"full house", "AsAhAdKsKh2h3h", FullHouse},
		{"flush", "AsKsQs8s6s4h3h", Flush},
		{"straight", "AsKhQdJcTs9h8h", Straight},
		{"wheel", "Ah2d3c4s5h9dKc", Straight},
		{"three of a kind", "AsAhAdKs9c7h5h", ThreeOfAKind},
		{"two pair", "AsAhKdKs9c7h5h", TwoPair},
		{"one pair", "AsAhKdQs9c7h5h", OnePair},
		{"high card", "AsKhQd9s7c5h3h", HighCard},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := Evaluate(cards(tc.cards))
			assert.Equal(t, tc.expected, r.Category)
			assert.Len(t, r.Cards, 5)
			assert.GreaterOrEqual(t, r.Score, int(tc.expected)*CategoryBand)
			assert.Less(t, r.Score, int(tc.expected+1)*CategoryBand)
		})
	}
}

func TestEvaluateIncomplete(t *testing.T) {
	t.Parallel()

	r := Evaluate(cards("As Kd"))
	assert.Equal(t, Incomplete, r.Category)
	assert.Zero(t, r.Score)
	assert.Empty(t, r.Cards)
}

func TestCategoryOrdering(t *testing.T) {
	t.Parallel()

	// Weakest example of each category must still beat the strongest
	// example of the category below it.
	ladder := []struct {
		weakest, strongest string
	}{
		{"7c5d4h3s2c", "AsKdQhJc9s"}, // high card
		{"2c2d3h4s5c", "AsAdKhQcJs"}, // one pair
		{"3c3d2h2s4c", "AsAdKhKcQs"}, // two pair
		{"2c2d2h3s4c", "AsAdAhKcQs"}, // three of a kind
		{"Ac2d3h4s5c", "AsKdQhJcTs"}, // straight
		{"7c5c4c3c2c", "AcKcQcJc9c"}, // flush
		{"2c2d2h3s3c", "AsAdAhKcKs"}, // full house
		{"2c2d2h2s3c", "AsAdAhAcKs"}, // four of a kind
		{"Ac2c3c4c5c", "KcQcJcTc9c"}, // straight flush
		{"AhKhQhJhTh", "AsKsQsJsTs"}, // royal flush
	}

	for i := 1; i < len(ladder); i++ {
		lower := EvaluateFive(cards(ladder[i-1].strongest))
		upper := EvaluateFive(cards(ladder[i].weakest))
		assert.Equal(t, 1, upper.Compare(lower), "%s should beat %s", upper.Category, lower.Category)
	}
}

func TestTiebreaks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		better string
		worse  string
	}{
		{"quad rank beats kicker", "3c3d3h3s2c", "2c2d2h2sAc"},
		{"quad kicker", "9c9d9h9sKc", "9c9d9h9sQc"},
		{"full house trips first", "3c3d3h2s2c", "2c2d2hAsAc"},
		{"full house pair second", "KcKdKh3s3c", "KcKdKh2s2c"},
		{"flush fifth card", "AcJc9c7c4c", "AcJc9c7c3c"},
		{"straight high card", "6c5d4h3s2c", "5c4d3h2sAc"},
		{"trips kicker", "7c7d7hAs2c", "7c7d7hKsQc"},
		{"two pair low pair", "AcAdQhQs2c", "AcAdJhJsKc"},
		{"two pair kicker", "AcAdQhQs5c", "AcAdQhQs4c"},
		{"pair rank", "3c3dAhKsQc", "2c2dAhKsQc"},
		{"pair third kicker", "TcTdAhKs5c", "TcTdAhKs4c"},
		{"high card second card", "AcQd9h7s5c", "AcJd9h7s5c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := EvaluateFive(cards(tc.better))
			w := EvaluateFive(cards(tc.worse))
			assert.Greater(t, b.Score, w.Score)
		})
	}
}

func TestAceLowStraight(t *testing.T) {
	t.Parallel()

	wheel := EvaluateFive(cards("Ah2d3c4s5h"))
	sixHigh := EvaluateFive(cards("2d3c4s5h6c"))
	ace := EvaluateFive(cards("AhKdQcJsTh"))

	require.Equal(t, Straight, wheel.Category)
	assert.Equal(t, int(Straight)*CategoryBand+5, wheel.Score)
	assert.Less(t, wheel.Score, sixHigh.Score)
	assert.Less(t, sixHigh.Score, ace.Score)

	// ace is played low, so it is listed last
	assert.Equal(t, deck.Five, wheel.Cards[0].Rank)
	assert.Equal(t, deck.Ace, wheel.Cards[4].Rank)
}

func TestBestOfSevenPrefersStraightFlush(t *testing.T) {
	t.Parallel()

	// Contains an ace-high heart flush and a 9-high heart straight flush.
	r := Evaluate(cards("Ah9h8h7h6h5h2c"))
	require.Equal(t, StraightFlush, r.Category)
	assert.Equal(t, int(StraightFlush)*CategoryBand+9, r.Score)
	assert.Equal(t, cards("9h8h7h6h5h"), r.Cards)
}

func TestBestCardsOrdering(t *testing.T) {
	t.Parallel()

	r := Evaluate(cards("Kd 2c Ks 7h 2h 9s Kh"))
	require.Equal(t, FullHouse, r.Category)
	assert.Equal(t, []deck.Rank{deck.King, deck.King, deck.King, deck.Two, deck.Two},
		[]deck.Rank{r.Cards[0].Rank, r.Cards[1].Rank, r.Cards[2].Rank, r.Cards[3].Rank, r.Cards[4].Rank})
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	hand := cards("Jc Jd 4s 4h 9c Ts 8d")
	first := Evaluate(hand)
	for range 5 {
		assert.Equal(t, first, Evaluate(hand))
	}
}

func TestEvaluateMatchesBruteForceOrderOnSixCards(t *testing.T) {
	t.Parallel()

	// With six cards the result must equal the best of the six 5-card subsets.
	hand := cards("As Ad Kc Kh 7s 7d")
	best := 0
	for skip := range hand {
		five := make([]deck.Card, 0, 5)
		for i, c := range hand {
			if i != skip {
				five = append(five, c)
			}
		}
		best = max(best, EvaluateFive(five).Score)
	}
	r := Evaluate(hand)
	assert.Equal(t, best, r.Score)
	assert.Equal(t, TwoPair, r.Category)
}

func TestCategoryStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Royal Flush", RoyalFlush.String())
	assert.Equal(t, "One Pair", OnePair.String())
	assert.Equal(t, "Incomplete", Incomplete.String())
}
