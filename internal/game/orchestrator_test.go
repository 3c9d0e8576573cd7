package game

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/evaluator"
)

// passive checks when it can and calls otherwise
var passive = providerFunc(func(_ context.Context, req DecisionRequest) (Action, error) {
	if req.Legal.CanCheck {
		return CheckAction(), nil
	}
	return CallAction(), nil
})

// handEnds signals each completed hand
type handEnds chan HandEndEvent

func (h handEnds) OnEvent(e GameEvent) {
	if end, ok := e.(HandEndEvent); ok {
		h <- end
	}
}

func TestPlayHandShowdown(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B"}, 1000, 10, 20)
	events := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(events)

	// dealer B: A is dealt first
	o := NewOrchestrator(table, []ActionProvider{passive, passive},
		WithInitialDealer(1),
		WithTiming(Timing{}),
		WithEventBus(bus),
		WithLogger(quietLogger()),
		WithDeckSource(stackedSource("As Kd Ah Kc", "Ks 7c 7d 9h 3s")),
	)

	summary, err := o.PlayHand(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Showdown)
	assert.Equal(t, evaluator.FullHouse, summary.Results[1].Category)
	assert.Equal(t, evaluator.TwoPair, summary.Results[0].Category)
	assert.Equal(t, map[int]int{1: 40}, summary.Winnings)
	assert.Equal(t, []int{980, 1020}, stacks(table))
	assert.Equal(t, PhaseShowdown, table.Phase)
	assert.False(t, table.InProgress())

	var types []EventType
	for _, e := range events.all() {
		switch e.EventType() {
		case EventTypeHandStart, EventTypeBlindPosted, EventTypeStreetChange, EventTypePotAwarded, EventTypeHandEnd:
			types = append(types, e.EventType())
		}
	}
	assert.Equal(t, []EventType{
		EventTypeHandStart,
		EventTypeBlindPosted, EventTypeBlindPosted,
		EventTypeStreetChange, EventTypeStreetChange, EventTypeStreetChange,
		EventTypePotAwarded,
		EventTypeHandEnd,
	}, types)

	dealt := events.ofType(EventTypeCardDealt)
	require.Len(t, dealt, 9)
	assert.Equal(t, 0, dealt[0].(CardDealtEvent).Seat, "first card goes left of the dealer")
	assert.Equal(t, BoardSeat, dealt[4].(CardDealtEvent).Seat)
}

func TestPlayHandSidePots(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"X", "Y", "Z"}, 500, 10, 20)
	table.Players[0].Chips = 50

	// dealer X, Y small blind, Z big blind; X acts first
	providers := []ActionProvider{
		NewScriptedProvider(AllInAction()),
		NewScriptedProvider(CallAction(), CallAction()),
		NewScriptedProvider(RaiseTo(200)),
	}
	o := NewOrchestrator(table, providers,
		WithInitialDealer(0),
		WithTiming(Timing{}),
		WithLogger(quietLogger()),
		// deal order Y, Z, X
		WithDeckSource(stackedSource("Kh Qh Ah Kd Qd Ad", "2s 7c 9d 3h 5s")),
	)

	summary, err := o.PlayHand(context.Background())
	require.NoError(t, err)

	require.Equal(t, []Pot{
		{Amount: 150, Eligible: []int{0, 1, 2}},
		{Amount: 300, Eligible: []int{1, 2}},
	}, summary.Pots)
	assert.Equal(t, map[int]int{0: 150, 1: 300}, summary.Winnings)
	assert.Equal(t, []int{150, 600, 300}, stacks(table))
}

func TestPlayHandUncontested(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
	providers := []ActionProvider{NewScriptedProvider(FoldAction()), passive, NewScriptedProvider(FoldAction())}
	o := NewOrchestrator(table, providers,
		WithInitialDealer(2),
		WithTiming(Timing{}),
		WithLogger(quietLogger()),
	)

	// dealer C, A small blind, B big blind; C and A fold to the big blind
	summary, err := o.PlayHand(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Showdown)
	assert.Empty(t, summary.Board)
	assert.Equal(t, map[int]int{1: 30}, summary.Winnings)
	assert.Equal(t, []int{990, 1010, 1000}, stacks(table))
}

func TestChipConservationAcrossHands(t *testing.T) {
	t.Parallel()

	names := []string{"A", "B", "C", "D", "E"}
	table := NewTable(names, 300, 10, 20)
	providers := make([]ActionProvider, len(names))
	for i := range providers {
		providers[i] = NewPolicyProvider(NewHeuristicPolicy(newTestRand(int64(i))), nil, 0)
	}
	o := NewOrchestrator(table, providers,
		WithRand(newTestRand(99)),
		WithTiming(Timing{}),
		WithLogger(quietLogger()),
	)

	for hand := range 300 {
		_, err := o.PlayHand(context.Background())
		if err != nil {
			require.ErrorIs(t, err, ErrGameOver, "hand %d", hand)
			break
		}
		require.Equal(t, 1500, table.TotalChips(), "hand %d", hand)
		for _, p := range table.Players {
			require.GreaterOrEqual(t, p.Chips, 0)
		}
	}
}

func TestGameOver(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
	table.Players[0].Chips = 0
	table.Players[2].Chips = 0
	events := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(events)
	o := NewOrchestrator(table, []ActionProvider{passive, passive, passive},
		WithEventBus(bus), WithLogger(quietLogger()))

	_, err := o.PlayHand(context.Background())
	require.ErrorIs(t, err, ErrGameOver)

	over := events.ofType(EventTypeGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, 1, over[0].(GameOverEvent).Winner)
	assert.Equal(t, "B", over[0].(GameOverEvent).Name)
	assert.Equal(t, 0, table.HandNumber)
}

func TestExhaustedDeckVoidsHand(t *testing.T) {
	t.Parallel()

	// four cards cannot deal three players in
	short := func(*rand.Rand) *deck.Deck {
		return deck.Stacked(deck.MustParseCards("As Ks Qs Js")...)
	}
	table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
	o := NewOrchestrator(table, []ActionProvider{passive, passive, passive},
		WithInitialDealer(0),
		WithTiming(Timing{}),
		WithLogger(quietLogger()),
		WithDeckSource(short),
	)

	_, err := o.PlayHand(context.Background())
	require.ErrorIs(t, err, ErrInvariant)
	require.ErrorIs(t, err, deck.ErrDeckExhausted)
	assert.False(t, table.InProgress())
	assert.Zero(t, table.Pot)
	assert.Equal(t, []int{1000, 1000, 1000}, stacks(table), "blinds are refunded")
	assert.Equal(t, 0, table.HandNumber)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o.Start(ctx)
	select {
	case <-o.Done():
	case <-ctx.Done():
		t.Fatal("failed hand did not end the sequence")
	}
	require.ErrorIs(t, o.Err(), ErrInvariant)
	assert.ErrorIs(t, o.Err(), deck.ErrDeckExhausted)
	assert.Equal(t, []int{1000, 1000, 1000}, stacks(table))
	assert.False(t, table.InProgress())
}

func TestSequenceEndReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		chips    []int
		maxHands int
		want     error
	}{
		{name: "game over", chips: []int{0, 3000, 0}, want: ErrGameOver},
		{name: "hand limit", chips: []int{1000, 1000, 1000}, maxHands: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
			for i, c := range tt.chips {
				table.Players[i].Chips = c
			}
			o := NewOrchestrator(table, []ActionProvider{passive, passive, passive},
				WithMaxHands(tt.maxHands),
				WithTiming(Timing{}),
				WithLogger(quietLogger()),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			o.Start(ctx)
			select {
			case <-o.Done():
			case <-ctx.Done():
				t.Fatal("sequence did not end")
			}
			if tt.want == nil {
				assert.NoError(t, o.Err())
				return
			}
			assert.ErrorIs(t, o.Err(), tt.want)
		})
	}
}

func TestSeatChangesApplyNextHand(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
	o := NewOrchestrator(table, []ActionProvider{passive, passive, passive},
		WithTiming(Timing{}), WithLogger(quietLogger()))

	require.NoError(t, o.RemoveSeat(1))
	assert.ErrorIs(t, o.RemoveSeat(9), ErrUnknownSeat)

	_, err := o.PlayHand(context.Background())
	require.NoError(t, err)
	assert.True(t, table.Players[1].Removed)
	assert.Empty(t, table.Players[1].HoleCards)
	assert.Equal(t, 1000, table.Players[1].Chips)
	assert.Equal(t, 2000, table.Players[0].Chips+table.Players[2].Chips)

	table.Players[1].Chips = 0
	require.NoError(t, o.AddSeat(1))
	_, err = o.PlayHand(context.Background())
	require.NoError(t, err)
	assert.False(t, table.Players[1].Removed)
	assert.Len(t, table.Players[1].HoleCards, 2)
}

func TestAutomaticProgression(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B", "C", "D"}, 1000, 10, 20)
	events := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(events)
	o := NewOrchestrator(table, []ActionProvider{passive, passive, passive, passive},
		WithInitialDealer(0),
		WithMaxHands(5),
		WithTiming(Timing{}),
		WithEventBus(bus),
		WithLogger(quietLogger()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o.Start(ctx)
	select {
	case <-o.Done():
	case <-ctx.Done():
		t.Fatal("hands did not finish")
	}

	starts := events.ofType(EventTypeHandStart)
	require.Len(t, starts, 5)
	for i, e := range starts {
		assert.Equal(t, i%4, e.(HandStartEvent).Dealer, "button moves clockwise")
		assert.Equal(t, i+1, e.HandNumber())
	}
	assert.Len(t, o.History().Hands(), 5)
	assert.Equal(t, 4000, table.TotalChips())
}

func TestNewHandSupersedesPendingDecision(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	human := NewHumanProvider(mClock, 0, quietLogger())
	table := NewTable([]string{"You", "B", "C"}, 1000, 10, 20)
	events := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(events)

	// dealer C, so the human posts the small blind and acts after C
	o := NewOrchestrator(table, []ActionProvider{human, passive, passive},
		WithInitialDealer(2),
		WithClock(mClock),
		WithTiming(Timing{}),
		WithEventBus(bus),
		WithLogger(quietLogger()),
	)

	o.Start(ctx)
	first, err := human.WaitPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.View.HandNumber)
	staleEvents := len(events.all())

	o.Start(ctx)
	second, err := human.WaitPending(ctx)
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)
	assert.Equal(t, 1, second.View.HandNumber, "the voided hand number is reused")

	// the abandoned hand was refunded before the new one started
	starts := events.ofType(EventTypeHandStart)
	require.Len(t, starts, 2)
	for _, p := range starts[1].(HandStartEvent).Players {
		assert.Equal(t, 1000, p.Chips, p.Name)
	}
	fresh := events.all()[staleEvents:]
	require.NotEmpty(t, fresh)
	_, ok := fresh[0].(HandStartEvent)
	assert.True(t, ok, "stale hand emitted %s", fresh[0].EventType())
	assert.Equal(t, 3000, table.TotalChips())

	hands := o.History().Hands()
	require.Len(t, hands, 1)
	assert.Equal(t, 1, hands[0].Number)
	assert.IsType(t, HandStartEvent{}, hands[0].Events[0])

	o.Stop()
	_, pending := human.Pending()
	assert.False(t, pending)
	assert.False(t, table.InProgress())
	assert.Equal(t, []int{1000, 1000, 1000}, stacks(table))
}

func TestHumanTimeoutInHand(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	human := NewHumanProvider(mClock, 30*time.Second, quietLogger())
	table := NewTable([]string{"You", "B"}, 1000, 10, 20)
	ends := make(handEnds, 4)
	bus := NewEventBus()
	bus.Subscribe(ends)

	// dealer B, the human is small blind and acts first facing the big blind
	o := NewOrchestrator(table, []ActionProvider{human, passive},
		WithInitialDealer(1),
		WithClock(mClock),
		WithTiming(Timing{SettleDelay: time.Minute}),
		WithEventBus(bus),
		WithLogger(quietLogger()),
	)
	o.Start(ctx)
	defer o.Stop()

	_, err := human.WaitPending(ctx)
	require.NoError(t, err)
	mClock.Advance(30 * time.Second).MustWait(ctx)

	select {
	case end := <-ends:
		assert.Equal(t, map[int]int{1: 30}, end.Winnings)
		assert.False(t, end.Showdown)
	case <-ctx.Done():
		t.Fatal("hand did not finish after timeout")
	}

	last, ok := o.History().Last()
	require.True(t, ok)
	actions := last.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, Fold, actions[0].Action.Kind)
	assert.Equal(t, "timeout", actions[0].Action.Reason)
}

func TestRestartResetsStacks(t *testing.T) {
	t.Parallel()

	table := NewTable([]string{"A", "B", "C"}, 1000, 10, 20)
	o := NewOrchestrator(table, []ActionProvider{passive, passive, passive},
		WithMaxHands(1),
		WithTiming(Timing{}),
		WithLogger(quietLogger()),
	)
	for range 3 {
		_, err := o.PlayHand(context.Background())
		require.NoError(t, err)
	}
	table.Players[0].Chips = 0
	table.Players[1].Chips = 3000

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o.Restart(ctx)
	select {
	case <-o.Done():
	case <-ctx.Done():
		t.Fatal("restarted game did not finish its hand")
	}

	assert.Equal(t, 1, table.HandNumber)
	assert.Equal(t, 3000, table.TotalChips())
	assert.Len(t, o.History().Hands(), 1)
}
