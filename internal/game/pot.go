package game

import (
	"slices"

	"github.com/lox/holdem/internal/evaluator"
)

// Pot is a main or side pot with the seats eligible to win it
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"`
}

// CalculatePots builds the main pot and any side pots from each player's
// contribution this hand. Folded contributions are dead money added to the
// first pot; folded players are never eligible.
func CalculatePots(players []*Player) []Pot {
	var live []*Player
	dead := 0
	for _, p := range players {
		if p.InHand() {
			live = append(live, p)
		} else {
			dead += p.TotalBet
		}
	}
	slices.SortStableFunc(live, func(a, b *Player) int {
		return a.TotalBet - b.TotalBet
	})

	var pots []Pot
	prev := 0
	for i, p := range live {
		level := p.TotalBet
		if level <= prev {
			continue
		}
		contenders := live[i:]
		pot := Pot{Amount: (level - prev) * len(contenders)}
		for _, c := range contenders {
			pot.Eligible = append(pot.Eligible, c.Seat)
		}
		slices.Sort(pot.Eligible)
		pots = append(pots, pot)
		prev = level
	}

	switch {
	case len(pots) > 0:
		pots[0].Amount += dead
	case dead > 0:
		pot := Pot{Amount: dead}
		for _, p := range live {
			pot.Eligible = append(pot.Eligible, p.Seat)
		}
		slices.Sort(pot.Eligible)
		pots = append(pots, pot)
	}
	return pots
}

// PotAward is the outcome of one pot
type PotAward struct {
	Pot     int         `json:"pot"`
	Amount  int         `json:"amount"`
	Winners []int       `json:"winners"`
	Shares  map[int]int `json:"shares"`
}

// AwardPots splits each pot among the eligible seats holding the best
// hand. Tied winners share by floor division; remaining odd chips go one
// at a time to the tied winners in clockwise order starting left of the
// dealer. A pot with a single eligible seat goes to it without comparing
// hands.
func AwardPots(pots []Pot, results map[int]evaluator.Result, dealer, seats int) []PotAward {
	awards := make([]PotAward, 0, len(pots))
	for i, pot := range pots {
		award := PotAward{Pot: i, Amount: pot.Amount, Shares: map[int]int{}}
		switch len(pot.Eligible) {
		case 0:
			// nobody can claim it; leave it visible in the award list
		case 1:
			award.Winners = []int{pot.Eligible[0]}
		default:
			award.Winners = bestSeats(pot.Eligible, results)
		}
		if len(award.Winners) == 0 {
			awards = append(awards, award)
			continue
		}

		slices.SortFunc(award.Winners, func(a, b int) int {
			return clockwiseDistance(dealer, a, seats) - clockwiseDistance(dealer, b, seats)
		})
		share := pot.Amount / len(award.Winners)
		remainder := pot.Amount % len(award.Winners)
		for j, seat := range award.Winners {
			award.Shares[seat] = share
			if j < remainder {
				award.Shares[seat]++
			}
		}
		awards = append(awards, award)
	}
	return awards
}

// AwardUncontested gives the whole pot to the last seat standing
func AwardUncontested(seat, amount int) PotAward {
	return PotAward{Amount: amount, Winners: []int{seat}, Shares: map[int]int{seat: amount}}
}

// Winnings totals the shares of every award per seat
func Winnings(awards []PotAward) map[int]int {
	out := make(map[int]int)
	for _, a := range awards {
		for seat, amt := range a.Shares {
			out[seat] += amt
		}
	}
	return out
}

func bestSeats(eligible []int, results map[int]evaluator.Result) []int {
	best := -1
	var winners []int
	for _, seat := range eligible {
		r, ok := results[seat]
		if !ok {
			continue
		}
		switch {
		case r.Score > best:
			best = r.Score
			winners = []int{seat}
		case r.Score == best:
			winners = append(winners, seat)
		}
	}
	return winners
}

// clockwiseDistance is how many steps clockwise seat is from the dealer,
// with the dealer itself last.
func clockwiseDistance(dealer, seat, seats int) int {
	d := ((seat-dealer)%seats + seats) % seats
	if d == 0 {
		return seats
	}
	return d
}
