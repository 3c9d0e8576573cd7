package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
	"github.com/lox/holdem/internal/randutil"
)

func result(score int) evaluator.Result {
	return evaluator.Result{Category: evaluator.Category(score / evaluator.CategoryBand), Score: score}
}

func TestCalculatePots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		totals []int
		want   []Pot
	}{
		{
			name:   "equal contributions make one pot",
			totals: []int{100, 100, 100},
			want:   []Pot{{Amount: 300, Eligible: []int{0, 1, 2}}},
		},
		{
			name:   "short all-in creates a side pot",
			totals: []int{100, 100, 500},
			want: []Pot{
				{Amount: 300, Eligible: []int{0, 1, 2}},
				{Amount: 400, Eligible: []int{2}},
			},
		},
		{
			name:   "three levels",
			totals: []int{50, 200, 200},
			want: []Pot{
				{Amount: 150, Eligible: []int{0, 1, 2}},
				{Amount: 300, Eligible: []int{1, 2}},
			},
		},
		{
			name:   "folded money goes to the main pot only",
			totals: []int{-40, 100, 300, 300},
			want: []Pot{
				{Amount: 340, Eligible: []int{1, 2, 3}},
				{Amount: 400, Eligible: []int{2, 3}},
			},
		},
		{
			name:   "everyone distinct",
			totals: []int{10, 20, 30, 40},
			want: []Pot{
				{Amount: 40, Eligible: []int{0, 1, 2, 3}},
				{Amount: 30, Eligible: []int{1, 2, 3}},
				{Amount: 20, Eligible: []int{2, 3}},
				{Amount: 10, Eligible: []int{3}},
			},
		},
		{
			name:   "only dead money",
			totals: []int{-30, 0, -20},
			want:   []Pot{{Amount: 50, Eligible: []int{1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculatePots(contributions(tt.totals...)))
		})
	}
}

func TestAllInSidePotScenario(t *testing.T) {
	t.Parallel()

	// X short-stacked all-in, Y calls, Z raises to 200, Y calls
	table := NewTable([]string{"X", "Y", "Z"}, 500, 10, 20)
	table.Players[0].Chips = 50
	table.ResetForHand(nil)

	steps := []struct {
		seat   int
		action Action
	}{
		{0, AllInAction()},
		{1, CallAction()},
		{2, RaiseTo(200)},
		{1, CallAction()},
	}
	for _, s := range steps {
		_, err := table.Apply(s.seat, s.action)
		require.NoError(t, err, "seat %d %v", s.seat, s.action)
	}

	pots := CalculatePots(table.Players)
	require.Equal(t, []Pot{
		{Amount: 150, Eligible: []int{0, 1, 2}},
		{Amount: 300, Eligible: []int{1, 2}},
	}, pots)
	assert.Equal(t, table.Pot, potTotal(pots))

	// X holds the best hand, Y beats Z
	results := map[int]evaluator.Result{
		0: result(9_000_000),
		1: result(5_000_000),
		2: result(2_000_000),
	}
	awards := AwardPots(pots, results, 0, 3)
	assert.Equal(t, map[int]int{0: 150, 1: 300}, Winnings(awards))
}

func TestSidePotOnlyForDeepestStack(t *testing.T) {
	t.Parallel()

	pots := CalculatePots(contributions(100, 100, 500))
	results := map[int]evaluator.Result{
		0: result(3_000_000),
		1: result(2_000_000),
		2: result(6_000_000),
	}
	assert.Equal(t, map[int]int{2: 700}, Winnings(AwardPots(pots, results, 0, 3)))

	// the short stacks win the main pot but cannot touch the side pot
	results[2] = result(1_000_000)
	assert.Equal(t, map[int]int{0: 300, 2: 400}, Winnings(AwardPots(pots, results, 0, 3)))
}

func TestAwardPotsSplitsTies(t *testing.T) {
	t.Parallel()

	pots := []Pot{{Amount: 300, Eligible: []int{0, 1, 2}}}
	results := map[int]evaluator.Result{
		0: result(4_000_100),
		1: result(4_000_100),
		2: result(4_000_000),
	}
	awards := AwardPots(pots, results, 2, 3)
	require.Len(t, awards, 1)
	assert.ElementsMatch(t, []int{0, 1}, awards[0].Winners)
	assert.Equal(t, map[int]int{0: 150, 1: 150}, awards[0].Shares)
}

func TestAwardPotsOddChip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dealer int
		want   map[int]int
	}{
		{"first winner left of the dealer gets the chip", 0, map[int]int{1: 51, 3: 50}},
		{"wraps clockwise", 1, map[int]int{1: 50, 3: 51}},
		{"dealer is last in line", 3, map[int]int{1: 51, 3: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pots := []Pot{{Amount: 101, Eligible: []int{0, 1, 2, 3}}}
			results := map[int]evaluator.Result{
				0: result(100), 1: result(500), 2: result(200), 3: result(500),
			}
			awards := AwardPots(pots, results, tt.dealer, 4)
			assert.Equal(t, tt.want, awards[0].Shares)
		})
	}
}

func TestAwardPotsSingleEligibleSkipsEvaluation(t *testing.T) {
	t.Parallel()

	pots := []Pot{{Amount: 80, Eligible: []int{2}}}
	awards := AwardPots(pots, nil, 0, 3)
	assert.Equal(t, map[int]int{2: 80}, Winnings(awards))
}

func TestAwardUncontested(t *testing.T) {
	t.Parallel()

	award := AwardUncontested(1, 230)
	assert.Equal(t, []int{1}, award.Winners)
	assert.Equal(t, map[int]int{1: 230}, award.Shares)
}

func TestPotConservation(t *testing.T) {
	t.Parallel()

	rng := randutil.New(7)
	for iter := range 500 {
		n := 2 + rng.IntN(8)
		players := make([]*Player, n)
		total := 0
		for i := range players {
			p := &Player{Seat: i, TotalBet: rng.IntN(6) * 50}
			p.Folded = rng.IntN(4) == 0
			total += p.TotalBet
			players[i] = p
		}
		// at least one live player so the money has somewhere to go
		players[rng.IntN(n)].Folded = false

		pots := CalculatePots(players)
		require.Equal(t, total, potTotal(pots), "iteration %d", iter)

		results := make(map[int]evaluator.Result)
		for _, p := range players {
			if p.InHand() {
				results[p.Seat] = result(rng.IntN(4))
			}
		}
		for _, pot := range pots {
			for _, seat := range pot.Eligible {
				require.False(t, players[seat].Folded, "folded seat %d eligible", seat)
			}
		}

		paid := 0
		for _, amount := range Winnings(AwardPots(pots, results, rng.IntN(n), n)) {
			paid += amount
		}
		require.Equal(t, total, paid, "iteration %d", iter)
	}
}

func TestShowdownResultsFeedAwards(t *testing.T) {
	t.Parallel()

	board := deck.MustParseCards("Kh Kd 7s 2c 9h")
	hands := map[int][]deck.Card{
		0: deck.MustParseCards("Ks Qd"),
		1: deck.MustParseCards("7h 7d"),
		2: deck.MustParseCards("Ah Qh"),
	}
	results := make(map[int]evaluator.Result)
	for seat, hole := range hands {
		results[seat] = evaluator.Evaluate(append(hole, board...))
	}

	pots := CalculatePots(contributions(200, 200, 200))
	awards := AwardPots(pots, results, 0, 3)
	assert.Equal(t, map[int]int{1: 600}, Winnings(awards))
	assert.Equal(t, evaluator.FullHouse, results[1].Category)
}
