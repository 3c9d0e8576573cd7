package game

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// DefaultMaxRejections is how many illegal actions an externally
// controlled seat may submit before the default action is applied.
const DefaultMaxRejections = 3

// RoundConfig wires a BettingRound to its collaborators. Only Providers is
// required.
type RoundConfig struct {
	Providers     []ActionProvider // indexed by seat
	Events        EventBus
	Logger        *log.Logger
	Clock         quartz.Clock
	Generation    uint64
	MaxRejections int

	// Checkpoint is called after every suspension. A non-nil error aborts
	// the round before any further table mutation.
	Checkpoint func() error
}

// BettingRound drives one street of betting to completion
type BettingRound struct {
	table *Table
	cfg   RoundConfig
}

// NewBettingRound prepares a betting round on the table's current street.
// The round starts with the seat in table.Active.
func NewBettingRound(table *Table, cfg RoundConfig) *BettingRound {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.MaxRejections <= 0 {
		cfg.MaxRejections = DefaultMaxRejections
	}
	return &BettingRound{table: table, cfg: cfg}
}

// Run asks each eligible seat for decisions until betting is complete:
// one player left in the hand, nobody able to act, or every actor has
// acted since the last raise with their bet matching the current bet.
func (r *BettingRound) Run(ctx context.Context) error {
	t := r.table

	actors := t.Actors()
	if len(actors) == 0 || (len(actors) == 1 && actors[0].Bet >= t.CurrentBet) {
		r.cfg.Logger.Debug("Skipping betting round", "phase", t.Phase, "actors", len(actors))
		return nil
	}

	acted := make(map[int]bool, len(t.Players))
	if p := t.Player(t.Active); p == nil || !p.CanAct() {
		next, ok := t.NextActiveSeat(t.Active)
		if !ok {
			return nil
		}
		t.Active = next
	}

	for {
		seat := t.Active
		action, err := r.decide(ctx, seat)
		if err != nil {
			return err
		}

		out, err := t.Apply(seat, action)
		if err != nil {
			// decide only returns validated actions
			return fmt.Errorf("%w: seat %d: %w", ErrInvariant, seat, err)
		}
		if out.Raised {
			clear(acted)
		}
		acted[seat] = true
		r.publish(ActionTakenEvent{
			Hand:        t.HandNumber,
			Seat:        seat,
			Name:        t.Players[seat].Name,
			Action:      out.Action,
			Committed:   out.Committed,
			StackBefore: out.StackBefore,
			StackAfter:  out.StackAfter,
			Pot:         t.Pot,
			CurrentBet:  t.CurrentBet,
			Phase:       t.Phase,
			timestamp:   r.cfg.Clock.Now(),
		})
		r.cfg.Logger.Debug("Action applied",
			"seat", seat,
			"action", out.Action,
			"committed", out.Committed,
			"pot", t.Pot)

		if len(t.PlayersInHand()) <= 1 {
			return nil
		}
		next, ok := t.NextActiveSeat(seat)
		if !ok {
			return nil
		}
		if r.complete(acted) {
			return nil
		}
		t.Active = next
	}
}

func (r *BettingRound) complete(acted map[int]bool) bool {
	actors := r.table.Actors()
	if len(actors) == 0 {
		return true
	}
	for _, p := range actors {
		if !acted[p.Seat] || p.Bet != r.table.CurrentBet {
			return false
		}
	}
	return true
}

// decide obtains a legal action for seat. Engine-controlled seats have
// illegal actions coerced; others are re-prompted and finally defaulted.
func (r *BettingRound) decide(ctx context.Context, seat int) (Action, error) {
	t := r.table
	legal := t.LegalActions(seat)
	var provider ActionProvider
	if seat < len(r.cfg.Providers) {
		provider = r.cfg.Providers[seat]
	}
	if provider == nil {
		a := legal.Default()
		a.Reason = "no provider"
		return a, nil
	}
	selfControlled := false
	if sc, ok := provider.(SelfControlled); ok {
		selfControlled = sc.SelfControlled()
	}

	req := DecisionRequest{
		Generation: r.cfg.Generation,
		Seat:       seat,
		Legal:      legal,
		View:       t.View(seat),
	}
	for attempt := 1; ; attempt++ {
		r.publish(ActionRequiredEvent{
			Hand:      t.HandNumber,
			Seat:      seat,
			Legal:     legal,
			Pot:       t.Pot,
			timestamp: r.cfg.Clock.Now(),
		})

		action, err := provider.RequestAction(ctx, req)
		if cerr := r.checkpoint(ctx); cerr != nil {
			return Action{}, cerr
		}
		switch {
		case errors.Is(err, ErrDecisionCancelled):
			a := legal.Default()
			a.Reason = "cancelled"
			return a, nil
		case err != nil:
			return Action{}, fmt.Errorf("seat %d decision: %w", seat, err)
		}

		verr := legal.Validate(action)
		if verr == nil {
			return action, nil
		}
		if selfControlled {
			coerced := legal.Nearest(action)
			coerced.Reason = action.Reason
			r.cfg.Logger.Warn("Coerced illegal action", "seat", seat, "action", action, "to", coerced, "error", verr)
			return coerced, nil
		}

		r.cfg.Logger.Warn("Rejected illegal action", "seat", seat, "action", action, "attempt", attempt, "error", verr)
		r.publish(ActionRejectedEvent{
			Hand:      t.HandNumber,
			Seat:      seat,
			Action:    action,
			Reason:    verr.Error(),
			timestamp: r.cfg.Clock.Now(),
		})
		if attempt >= r.cfg.MaxRejections {
			a := legal.Default()
			a.Reason = "too many illegal actions"
			return a, nil
		}
	}
}

func (r *BettingRound) checkpoint(ctx context.Context) error {
	if r.cfg.Checkpoint != nil {
		if err := r.cfg.Checkpoint(); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStaleHand, err)
	}
	return nil
}

func (r *BettingRound) publish(e GameEvent) {
	if r.cfg.Events != nil {
		r.cfg.Events.Publish(e)
	}
}
