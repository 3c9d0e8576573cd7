package game

import "errors"

var (
	// ErrIllegalAction is returned when an action violates the current
	// legal-action constraints.
	ErrIllegalAction = errors.New("illegal action")

	// ErrStaleHand signals that the hand run was superseded by a newer one.
	// It is a normal cancellation outcome, not a failure.
	ErrStaleHand = errors.New("hand superseded")

	// ErrGameOver is returned when fewer than two seats have chips.
	ErrGameOver = errors.New("game over: fewer than two players with chips")

	// ErrInvariant marks an internal invariant violation such as an
	// exhausted deck or a chip-conservation mismatch.
	ErrInvariant = errors.New("invariant violation")

	// ErrNoPendingDecision is returned when an action is submitted while
	// no decision is outstanding.
	ErrNoPendingDecision = errors.New("no decision pending")

	// ErrDecisionOutstanding is returned when a second decision is
	// requested while one is already waiting.
	ErrDecisionOutstanding = errors.New("decision already outstanding")

	// ErrDecisionCancelled is returned to a waiting round when the pending
	// decision was force-resolved.
	ErrDecisionCancelled = errors.New("decision cancelled")

	// ErrUnknownSeat is returned for seat indexes outside the table.
	ErrUnknownSeat = errors.New("unknown seat")
)
