// Package game implements the Texas Hold'em table engine.
//
// The engine is split into small pieces that mirror how a hand flows:
//
//   - Table: seats, stacks, dealer button, community cards and the
//     turn-order walks (NextActiveSeat, NextSeatInHand).
//   - LegalActions and Table.Apply: the chip arithmetic of a single action.
//   - BettingRound: drives one street until betting is complete, asking an
//     ActionProvider for each decision.
//   - CalculatePots and AwardPots: main/side pot construction and splitting.
//   - Orchestrator: sequences blinds, dealing, the four streets and the
//     showdown, then starts the next hand after a settle delay.
//
// # Cancellation
//
// Every hand run carries a generation number. Starting a new hand bumps the
// generation and cancels the previous run's context; each suspension point
// (waiting for a decision, an AI think pause, a dealing or settle delay)
// re-checks the generation when it resumes and abandons the hand with
// ErrStaleHand if it has been superseded. A superseded hand never mutates
// the table after its last suspension point.
//
// # Basic Usage
//
//	table := game.NewTable([]string{"You", "AI 1", "AI 2"}, 1000, 10, 20)
//	human := game.NewHumanProvider(quartz.NewReal(), 30*time.Second, logger)
//	ai := game.NewPolicyProvider(game.NewHeuristicPolicy(rng), quartz.NewReal(), 800*time.Millisecond)
//	o := game.NewOrchestrator(table, []game.ActionProvider{human, ai, ai}, game.WithLogger(logger))
//	o.Start(ctx)
//	...
//	human.Submit(game.CallAction())
package game
