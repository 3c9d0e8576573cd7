// Package statistics aggregates per-seat results over many hands.
package statistics

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// MaxPositions is the number of distinct table positions tracked
const MaxPositions = 10

// HandResult is one seat's outcome of one hand
type HandResult struct {
	NetBB          float64 // big blinds won or lost
	Position       int     // seats after the dealer: 0 dealer, 1 small blind, ...
	WentToShowdown bool
	PotChips       int
	BigBlind       int
}

// PositionStats tracks results for one table position
type PositionStats struct {
	Hands int
	SumBB float64
}

// Statistics tracks results in big blinds for one seat
type Statistics struct {
	Hands  int
	SumBB  float64
	SumBB2 float64   // sum of squares, for variance
	Values []float64 // every result, for median and percentiles

	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64 // wins and losses at showdown
	NonShowdownBB   float64 // wins and losses without showdown

	Positions [MaxPositions]PositionStats

	MaxPotChips int
	BigPots     int // pots of at least 50 big blinds
}

// Mean returns big blinds won per hand
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// BBPer100 returns big blinds won per hundred hands
func (s *Statistics) BBPer100() float64 {
	return s.Mean() * 100
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
// using Student's t distribution
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	if s.Hands < 2 {
		return mean, mean
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(s.Hands - 1)}
	margin := t.Quantile(0.975) * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates one hand
func (s *Statistics) Add(r HandResult) {
	s.Hands++
	s.SumBB += r.NetBB
	s.SumBB2 += r.NetBB * r.NetBB
	s.Values = append(s.Values, r.NetBB)

	if r.NetBB > 0 {
		if r.WentToShowdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}
	if r.WentToShowdown {
		s.ShowdownBB += r.NetBB
	} else {
		s.NonShowdownBB += r.NetBB
	}

	if r.Position >= 0 && r.Position < MaxPositions {
		s.Positions[r.Position].Hands++
		s.Positions[r.Position].SumBB += r.NetBB
	}

	s.MaxPotChips = max(s.MaxPotChips, r.PotChips)
	if r.BigBlind > 0 && r.PotChips >= 50*r.BigBlind {
		s.BigPots++
	}
}

// Merge adds every hand recorded in other
func (s *Statistics) Merge(other *Statistics) {
	s.Hands += other.Hands
	s.SumBB += other.SumBB
	s.SumBB2 += other.SumBB2
	s.Values = append(s.Values, other.Values...)
	s.ShowdownWins += other.ShowdownWins
	s.NonShowdownWins += other.NonShowdownWins
	s.ShowdownBB += other.ShowdownBB
	s.NonShowdownBB += other.NonShowdownBB
	for i := range s.Positions {
		s.Positions[i].Hands += other.Positions[i].Hands
		s.Positions[i].SumBB += other.Positions[i].SumBB
	}
	s.MaxPotChips = max(s.MaxPotChips, other.MaxPotChips)
	s.BigPots += other.BigPots
}

// Median returns the median result
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the result at percentile p (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// PositionMean returns big blinds per hand from one position
func (s *Statistics) PositionMean(position int) float64 {
	if position < 0 || position >= MaxPositions {
		return 0
	}
	ps := s.Positions[position]
	if ps.Hands == 0 {
		return 0
	}
	return ps.SumBB / float64(ps.Hands)
}

// Validate checks the bookkeeping is consistent
func (s *Statistics) Validate() error {
	if math.Abs(s.SumBB-s.ShowdownBB-s.NonShowdownBB) > 1e-6 {
		return fmt.Errorf("ledger mismatch: total=%.6f, showdown=%.6f, non-showdown=%.6f",
			s.SumBB, s.ShowdownBB, s.NonShowdownBB)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values length (%d) does not match hands (%d)", len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("wins (%d) exceed hands (%d)", wins, s.Hands)
	}
	positionHands := 0
	for _, ps := range s.Positions {
		positionHands += ps.Hands
	}
	if positionHands != s.Hands {
		return fmt.Errorf("position hands (%d) do not match hands (%d)", positionHands, s.Hands)
	}
	return nil
}
