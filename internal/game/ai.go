package game

import (
	"math/rand/v2"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
)

// Hand strength thresholds for the heuristic policy
const (
	strongHand = 0.7
	mediumHand = 0.4
	weakHand   = 0.2

	// maxRaiseJitter is the exclusive upper bound on the random amount a
	// strong hand adds over a minimum raise
	maxRaiseJitter = 50
)

// HeuristicPolicy is the built-in opponent. It scores its hand, then calls,
// raises or folds with fixed thresholds and a little randomness. It is not
// safe for concurrent use because it owns its random source.
type HeuristicPolicy struct {
	rng *rand.Rand
}

// NewHeuristicPolicy creates the built-in opponent policy
func NewHeuristicPolicy(rng *rand.Rand) *HeuristicPolicy {
	return &HeuristicPolicy{rng: rng}
}

// Decide picks an action for the viewing seat
func (p *HeuristicPolicy) Decide(view TableView, legal LegalActions) Action {
	me := view.Me()
	strength := HandStrength(view.HoleCards, view.Board)
	toCall := legal.ToCall
	roll := p.rng.Float64()

	checkOrCall := func(reason string) Action {
		if toCall == 0 {
			return Action{Kind: Check, Reason: reason}
		}
		return Action{Kind: Call, Reason: reason}
	}
	fold := func(reason string) Action {
		return Action{Kind: Fold, Reason: reason}
	}

	switch {
	case strength > strongHand:
		if roll > 0.3 {
			target := view.CurrentBet + view.MinRaise + p.rng.IntN(maxRaiseJitter)
			return p.raise(target, me, legal, "strong hand")
		}
		return checkOrCall("strong hand, slow play")

	case strength > mediumHand:
		switch {
		case toCall == 0:
			return checkOrCall("medium hand")
		case float64(toCall) <= float64(me.Chips)*0.2 || roll > 0.3:
			return checkOrCall("medium hand, price is fine")
		default:
			return fold("medium hand, too expensive")
		}

	case strength > weakHand:
		switch {
		case toCall == 0 && roll > 0.7:
			target := view.CurrentBet + view.MinRaise
			if target <= me.Chips+me.Bet {
				return p.raise(target, me, legal, "bluff")
			}
			return checkOrCall("weak hand")
		case toCall == 0:
			return checkOrCall("weak hand")
		case float64(toCall) <= float64(me.Chips)*0.1:
			return checkOrCall("weak hand, cheap call")
		default:
			return fold("weak hand")
		}

	default:
		switch {
		case toCall == 0:
			return checkOrCall("very weak hand")
		case float64(toCall) <= float64(me.Chips)*0.05 && roll > 0.5:
			return checkOrCall("very weak hand, cheap call")
		default:
			return fold("very weak hand")
		}
	}
}

// raise targets a raise-to total capped at the stack. A capped raise that
// cannot meet the minimum becomes an all-in.
func (p *HeuristicPolicy) raise(target int, me PlayerView, legal LegalActions, reason string) Action {
	target = min(target, me.Chips+me.Bet)
	switch {
	case target >= me.Chips+me.Bet:
		return Action{Kind: AllIn, Reason: reason}
	case legal.CanRaise && target >= legal.MinRaiseTo:
		return Action{Kind: Raise, Amount: target, Reason: reason}
	case legal.ToCall == 0:
		return Action{Kind: Check, Reason: reason}
	default:
		return Action{Kind: Call, Reason: reason}
	}
}

// HandStrength scores hole cards plus board in [0, 1]. Preflop it rates
// pairs, high cards and suited connectors; postflop it is the made hand's
// category over ten.
func HandStrength(hole, board []deck.Card) float64 {
	if len(hole)+len(board) < 2 || len(hole) < 2 {
		return 0.3
	}
	if len(board) == 0 {
		return preflopStrength(hole[0], hole[1])
	}
	cards := make([]deck.Card, 0, len(hole)+len(board))
	cards = append(cards, hole...)
	cards = append(cards, board...)
	return float64(evaluator.Evaluate(cards).Category) / 10
}

func preflopStrength(a, b deck.Card) float64 {
	high, low := a.Value(), b.Value()
	if low > high {
		high, low = low, high
	}
	suited := a.Suit == b.Suit
	bonus := 0.0
	if suited {
		bonus = 0.1
	}

	switch {
	case high == low:
		return 0.4 + float64(high)/14*0.4
	case high >= 12 && low >= 10:
		return 0.5 + bonus
	case high >= 10:
		return 0.35 + bonus
	case suited && high-low <= 2:
		return 0.35
	default:
		return 0.2
	}
}
