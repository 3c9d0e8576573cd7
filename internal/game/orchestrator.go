package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
	"github.com/lox/holdem/internal/randutil"
)

// Timing holds the pauses between steps of a hand
type Timing struct {
	DealDelay   time.Duration // after each hole card
	StreetDelay time.Duration // after revealing flop, turn or river
	SettleDelay time.Duration // between the payout and the next hand
}

// DefaultTiming returns the pacing used for interactive play
func DefaultTiming() Timing {
	return Timing{
		DealDelay:   200 * time.Millisecond,
		StreetDelay: 500 * time.Millisecond,
		SettleDelay: 5 * time.Second,
	}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock sets the clock used for delays and event timestamps
func WithClock(clock quartz.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithEventBus publishes events to bus instead of a private bus
func WithEventBus(bus EventBus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithRand sets the random source for shuffling and the first button
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithTiming overrides the default pacing
func WithTiming(timing Timing) Option {
	return func(o *Orchestrator) { o.timing = timing }
}

// WithMaxHands stops automatic progression after n hands; zero means no
// limit
func WithMaxHands(n int) Option {
	return func(o *Orchestrator) { o.maxHands = n }
}

// WithInitialDealer puts the first button on seat instead of a random seat
func WithInitialDealer(seat int) Option {
	return func(o *Orchestrator) { o.initialDealer = seat }
}

// WithDeckSource replaces the shuffled deck, typically with a stacked deck
// in tests
func WithDeckSource(source func(*rand.Rand) *deck.Deck) Option {
	return func(o *Orchestrator) { o.newDeck = source }
}

// WithHistoryLimit sets how many hands the history keeps
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) { o.historyLimit = n }
}

// HandSummary is the result of a completed hand
type HandSummary struct {
	Hand     int
	Dealer   int
	Board    []deck.Card
	Pots     []Pot
	Awards   []PotAward
	Winnings map[int]int
	Results  map[int]evaluator.Result
	Showdown bool
}

type seatChange struct {
	seat   int
	remove bool
}

// Orchestrator sequences hands on a table: blinds, dealing, betting on
// each street, showdown, then the next hand after a settle delay. It owns
// the table while a hand is running.
type Orchestrator struct {
	table         *Table
	providers     []ActionProvider
	bus           EventBus
	history       *HandHistory
	logger        *log.Logger
	clock         quartz.Clock
	rng           *rand.Rand
	timing        Timing
	maxHands      int
	initialDealer int
	historyLimit  int
	newDeck       func(*rand.Rand) *deck.Deck

	// lifecycle serializes Start, Restart, Stop and PlayHand
	lifecycle sync.Mutex

	mu          sync.Mutex
	generation  uint64
	cancel      context.CancelFunc
	done        chan struct{}
	err         error // why the last hand sequence ended
	seatChanges []seatChange
	firstHand   bool
}

// NewOrchestrator creates an orchestrator for table. providers is indexed
// by seat and must have one entry per seat.
func NewOrchestrator(table *Table, providers []ActionProvider, opts ...Option) *Orchestrator {
	if len(providers) != table.Seats() {
		panic(fmt.Sprintf("need %d action providers, got %d", table.Seats(), len(providers)))
	}
	o := &Orchestrator{
		table:         table,
		providers:     slices.Clone(providers),
		timing:        DefaultTiming(),
		initialDealer: -1,
		firstHand:     true,
		newDeck:       deck.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.logger = o.logger.WithPrefix("table")
	if o.clock == nil {
		o.clock = quartz.NewReal()
	}
	if o.rng == nil {
		o.rng = randutil.New(randutil.Seed())
	}
	if o.bus == nil {
		o.bus = NewEventBus()
	}
	o.history = NewHandHistory(o.historyLimit)
	o.bus.Subscribe(o.history)
	return o
}

// Table returns the table. Callers must not mutate it while a hand runs.
func (o *Orchestrator) Table() *Table { return o.table }

// Events returns the bus hand events are published on
func (o *Orchestrator) Events() EventBus { return o.bus }

// History returns the recent hand history
func (o *Orchestrator) History() *HandHistory { return o.history }

// Generation returns the identifier of the current hand run
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Start begins automatic hand progression, superseding any hand in flight.
// An abandoned hand is voided and its contributions refunded.
func (o *Orchestrator) Start(ctx context.Context) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	gen := o.supersede()
	o.launch(ctx, gen)
}

// Restart resets every stack to the starting amount, clears the history
// and begins a fresh game with a random button.
func (o *Orchestrator) Restart(ctx context.Context) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	gen := o.supersede()
	o.table.ResetStacks()
	o.history.Reset()
	o.firstHand = true
	o.logger.Info("Game restarted", "seats", o.table.Seats(), "chips", o.table.StartingChips)
	o.launch(ctx, gen)
}

// Stop cancels the running hand sequence and waits for it to exit
func (o *Orchestrator) Stop() {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	o.supersede()
}

// Done is closed when the current hand sequence exits
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return o.done
}

// Err reports why the last hand sequence ended: ErrGameOver, the failure
// that aborted it, or nil when it reached the hand limit or was stopped.
// It is only meaningful once Done is closed.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// PlayHand plays exactly one hand synchronously, superseding any running
// sequence. It returns ErrGameOver when fewer than two seats have chips.
func (o *Orchestrator) PlayHand(ctx context.Context) (*HandSummary, error) {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	gen := o.supersede()
	return o.playHand(ctx, gen)
}

// RemoveSeat takes seat out of play from the next hand on
func (o *Orchestrator) RemoveSeat(seat int) error {
	return o.queueSeatChange(seat, true)
}

// AddSeat brings a removed seat back with a starting stack from the next
// hand on
func (o *Orchestrator) AddSeat(seat int) error {
	return o.queueSeatChange(seat, false)
}

func (o *Orchestrator) queueSeatChange(seat int, remove bool) error {
	if seat < 0 || seat >= o.table.Seats() {
		return fmt.Errorf("%w: %d", ErrUnknownSeat, seat)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seatChanges = append(o.seatChanges, seatChange{seat: seat, remove: remove})
	return nil
}

// supersede invalidates the current hand run, waits for it to exit and
// voids any hand it abandoned. It returns the new generation.
func (o *Orchestrator) supersede() uint64 {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if o.table.InProgress() {
		o.logger.Info("Voiding abandoned hand", "hand", o.table.HandNumber, "pot", o.table.Pot)
		o.table.VoidHand()
	}
	return gen
}

func (o *Orchestrator) launch(parent context.Context, gen uint64) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	o.mu.Lock()
	o.cancel, o.done = cancel, done
	o.err = nil
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		o.run(ctx, gen)
	}()
}

func (o *Orchestrator) run(ctx context.Context, gen uint64) {
	for {
		summary, err := o.playHand(ctx, gen)
		switch {
		case errors.Is(err, ErrStaleHand):
			o.logger.Debug("Hand superseded", "generation", gen)
			return
		case errors.Is(err, ErrGameOver):
			o.finish(gen, err)
			return
		case err != nil && ctx.Err() != nil:
			o.logger.Debug("Hand cancelled", "generation", gen, "error", err)
			return
		case err != nil:
			o.logger.Error("Hand failed", "hand", o.table.HandNumber, "error", err)
			o.finish(gen, err)
			return
		}
		o.logger.Info("Hand complete", "hand", summary.Hand, "winnings", summary.Winnings)

		if o.maxHands > 0 && o.table.HandNumber >= o.maxHands {
			o.logger.Info("Reached hand limit", "hands", o.maxHands)
			return
		}
		if err := o.pause(ctx, gen, o.timing.SettleDelay, "settle"); err != nil {
			return
		}
		next, ok := o.advance(gen)
		if !ok {
			return
		}
		gen = next
	}
}

// finish records why the sequence for gen ended
func (o *Orchestrator) finish(gen uint64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation == gen {
		o.err = err
	}
}

// advance moves to the next generation if gen is still current
func (o *Orchestrator) advance(gen uint64) (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return 0, false
	}
	o.generation++
	return o.generation, true
}

func (o *Orchestrator) checkpoint(ctx context.Context, gen uint64) error {
	o.mu.Lock()
	current := o.generation
	o.mu.Unlock()
	if current != gen {
		return ErrStaleHand
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStaleHand, err)
	}
	return nil
}

// pause sleeps for d and then verifies the hand is still current
func (o *Orchestrator) pause(ctx context.Context, gen uint64, d time.Duration, tag string) error {
	_ = sleep(ctx, o.clock, d, "table", tag)
	return o.checkpoint(ctx, gen)
}

func (o *Orchestrator) publish(e GameEvent) {
	o.bus.Publish(e)
}

func (o *Orchestrator) applySeatChanges() {
	o.mu.Lock()
	changes := o.seatChanges
	o.seatChanges = nil
	o.mu.Unlock()

	for _, c := range changes {
		p := o.table.Players[c.seat]
		if c.remove {
			p.Removed = true
			p.Folded = true
			o.logger.Info("Seat removed", "seat", c.seat, "player", p.Name)
			continue
		}
		if p.Removed {
			p.Removed = false
			p.Chips = o.table.StartingChips
			o.logger.Info("Seat added", "seat", c.seat, "player", p.Name, "chips", p.Chips)
		}
	}
}

// playHand runs one hand. A hand aborted by an invariant violation is
// voided so no chips are left in the pot.
func (o *Orchestrator) playHand(ctx context.Context, gen uint64) (*HandSummary, error) {
	summary, err := o.runHand(ctx, gen)
	if errors.Is(err, ErrInvariant) && o.table.InProgress() {
		o.logger.Error("Voiding failed hand", "hand", o.table.HandNumber, "pot", o.table.Pot)
		o.table.VoidHand()
	}
	return summary, err
}

func (o *Orchestrator) runHand(ctx context.Context, gen uint64) (*HandSummary, error) {
	t := o.table
	o.applySeatChanges()

	if left := t.SeatsWithChips(); len(left) < 2 {
		t.Phase = PhaseIdle
		over := GameOverEvent{Hand: t.HandNumber, Winner: -1, timestamp: o.clock.Now()}
		if len(left) == 1 {
			over.Winner, over.Name = left[0].Seat, left[0].Name
		}
		o.logger.Info("Game over", "winner", over.Name)
		o.publish(over)
		return nil, ErrGameOver
	}

	startChips := t.TotalChips()
	t.ResetForHand(o.newDeck(o.rng))

	randomize := o.firstHand
	if randomize && o.initialDealer >= 0 {
		t.Dealer = o.initialDealer
		if !t.Players[t.Dealer].HasChips() {
			t.MoveDealer(o.rng, false)
		}
	} else {
		t.MoveDealer(o.rng, randomize)
	}
	o.firstHand = false

	sb, bb := t.BlindSeats()
	start := HandStartEvent{
		Hand:           t.HandNumber,
		Dealer:         t.Dealer,
		SmallBlindSeat: sb,
		BigBlindSeat:   bb,
		SmallBlind:     t.SmallBlind,
		BigBlind:       t.BigBlind,
		timestamp:      o.clock.Now(),
	}
	for _, p := range t.Players {
		start.Players = append(start.Players, p.view())
	}
	o.logger.Info("Starting hand", "hand", t.HandNumber, "dealer", t.Dealer, "sb", sb, "bb", bb)
	o.publish(start)

	o.postBlind(sb, t.SmallBlind, "small")
	o.postBlind(bb, t.BigBlind, "big")
	t.CurrentBet = t.BigBlind
	t.MinRaise = t.BigBlind
	t.Active, _ = t.NextSeatInHand(bb)

	if err := o.dealHoleCards(ctx, gen); err != nil {
		return nil, err
	}
	if err := o.bettingRound(ctx, gen); err != nil {
		return nil, err
	}

	streets := []struct {
		phase Phase
		cards int
	}{
		{PhaseFlop, 3},
		{PhaseTurn, 1},
		{PhaseRiver, 1},
	}
	for _, street := range streets {
		if len(t.PlayersInHand()) <= 1 {
			break
		}
		t.ResetStreet(street.phase)
		cards, err := t.Reveal(street.cards)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			o.publish(CardDealtEvent{Hand: t.HandNumber, Seat: BoardSeat, Card: c, Phase: t.Phase, timestamp: o.clock.Now()})
		}
		t.Active, _ = t.NextSeatInHand(t.Dealer)
		o.publish(StreetChangeEvent{
			Hand:      t.HandNumber,
			Phase:     t.Phase,
			Board:     slices.Clone(t.Board),
			Pot:       t.Pot,
			timestamp: o.clock.Now(),
		})
		if err := o.pause(ctx, gen, o.timing.StreetDelay, "street"); err != nil {
			return nil, err
		}
		if err := o.bettingRound(ctx, gen); err != nil {
			return nil, err
		}
	}

	summary, err := o.showdown()
	if err != nil {
		return nil, err
	}
	if total := t.TotalChips(); total != startChips {
		return summary, fmt.Errorf("%w: chips went from %d to %d in hand %d", ErrInvariant, startChips, total, t.HandNumber)
	}
	return summary, nil
}

func (o *Orchestrator) postBlind(seat, amount int, blind string) {
	t := o.table
	before := t.Players[seat].Chips
	posted := t.PostBlind(seat, amount)
	o.publish(BlindPostedEvent{
		Hand:        t.HandNumber,
		Seat:        seat,
		Blind:       blind,
		Amount:      posted,
		StackBefore: before,
		AllIn:       t.Players[seat].AllIn,
		timestamp:   o.clock.Now(),
	})
}

// dealHoleCards deals one card at a time to each seat in the hand,
// starting left of the dealer, in two passes
func (o *Orchestrator) dealHoleCards(ctx context.Context, gen uint64) error {
	t := o.table
	order := t.DealOrder()
	for range 2 {
		for _, seat := range order {
			c, err := t.Draw()
			if err != nil {
				return err
			}
			p := t.Players[seat]
			p.HoleCards = append(p.HoleCards, c)
			o.publish(CardDealtEvent{Hand: t.HandNumber, Seat: seat, Card: c, Phase: PhasePreflop, timestamp: o.clock.Now()})
			if err := o.pause(ctx, gen, o.timing.DealDelay, "deal"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Orchestrator) bettingRound(ctx context.Context, gen uint64) error {
	round := NewBettingRound(o.table, RoundConfig{
		Providers:  o.providers,
		Events:     o.bus,
		Logger:     o.logger,
		Clock:      o.clock,
		Generation: gen,
		Checkpoint: func() error { return o.checkpoint(ctx, gen) },
	})
	return round.Run(ctx)
}

func (o *Orchestrator) showdown() (*HandSummary, error) {
	t := o.table
	t.ResetStreet(PhaseShowdown)
	summary := &HandSummary{
		Hand:   t.HandNumber,
		Dealer: t.Dealer,
		Board:  slices.Clone(t.Board),
	}

	inHand := t.PlayersInHand()
	switch len(inHand) {
	case 0:
		return nil, fmt.Errorf("%w: nobody left in hand %d", ErrInvariant, t.HandNumber)
	case 1:
		winner := inHand[0].Seat
		award := AwardUncontested(winner, t.Pot)
		summary.Awards = []PotAward{award}
		o.publish(PotAwardedEvent{
			Hand:        t.HandNumber,
			Award:       award,
			Eligible:    []int{winner},
			Uncontested: true,
			timestamp:   o.clock.Now(),
		})
	default:
		summary.Showdown = true
		summary.Results = make(map[int]evaluator.Result, len(inHand))
		for _, seat := range t.DealOrder() {
			p := t.Players[seat]
			cards := append(p.holeCards(), t.Board...)
			result := evaluator.Evaluate(cards)
			summary.Results[seat] = result
			o.publish(ShowdownEvent{
				Hand:      t.HandNumber,
				Seat:      seat,
				HoleCards: p.holeCards(),
				Result:    result,
				timestamp: o.clock.Now(),
			})
		}

		summary.Pots = CalculatePots(t.Players)
		if total := potTotal(summary.Pots); total != t.Pot {
			return nil, fmt.Errorf("%w: pots total %d but pot is %d", ErrInvariant, total, t.Pot)
		}
		summary.Awards = AwardPots(summary.Pots, summary.Results, t.Dealer, t.Seats())
		for i, award := range summary.Awards {
			e := PotAwardedEvent{
				Hand:      t.HandNumber,
				Award:     award,
				Eligible:  summary.Pots[i].Eligible,
				timestamp: o.clock.Now(),
			}
			if len(award.Winners) > 0 {
				e.Category = summary.Results[award.Winners[0]].Category
			}
			o.publish(e)
		}
	}

	summary.Winnings = Winnings(summary.Awards)
	paid := 0
	for seat, amount := range summary.Winnings {
		t.Players[seat].Chips += amount
		paid += amount
	}
	if paid != t.Pot {
		return nil, fmt.Errorf("%w: paid %d from a pot of %d", ErrInvariant, paid, t.Pot)
	}
	t.Pot = 0
	t.inProgress = false

	end := HandEndEvent{
		Hand:      t.HandNumber,
		Board:     slices.Clone(t.Board),
		Winnings:  summary.Winnings,
		Showdown:  summary.Showdown,
		timestamp: o.clock.Now(),
	}
	for _, p := range t.Players {
		end.Stacks = append(end.Stacks, p.Chips)
	}
	o.publish(end)
	return summary, nil
}

func potTotal(pots []Pot) int {
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	return total
}
