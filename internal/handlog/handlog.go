// Package handlog records the game event stream as JSON lines, one record
// per event, for replay and offline analysis.
package handlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
)

// Options configures a Recorder
type Options struct {
	TableID       string // added to every record when set
	HideHoleCards bool   // omit the card of hole-card deals
}

// Recorder is a game.EventSubscriber that writes each event as a zerolog
// JSON record.
type Recorder struct {
	mu     sync.Mutex
	logger zerolog.Logger
	opts   Options
	buf    *bufio.Writer
	closer io.Closer
}

// New creates a recorder writing to w
func New(w io.Writer, opts Options) *Recorder {
	ctx := zerolog.New(zerolog.SyncWriter(w)).With()
	if opts.TableID != "" {
		ctx = ctx.Str("table", opts.TableID)
	}
	return &Recorder{logger: ctx.Logger(), opts: opts}
}

// Open creates a recorder appending to the file at path, creating parent
// directories as needed. Close flushes and closes the file.
func Open(path string, opts Options) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("handlog: create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("handlog: open %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	r := New(buf, opts)
	r.buf = buf
	r.closer = f
	return r, nil
}

// Flush writes any buffered records
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf == nil {
		return nil
	}
	return r.buf.Flush()
}

// Close flushes buffered records and closes the underlying file, if any
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.buf != nil {
		err = r.buf.Flush()
		r.buf = nil
	}
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
		r.closer = nil
	}
	return err
}

// OnEvent implements game.EventSubscriber
func (r *Recorder) OnEvent(event game.GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.logger.Log().
		Str("event", event.EventType().String()).
		Int("hand", event.HandNumber())
	if ts := event.Timestamp(); !ts.IsZero() {
		e = e.Time(zerolog.TimestampFieldName, ts)
	}

	switch ev := event.(type) {
	case game.HandStartEvent:
		names := make([]string, len(ev.Players))
		stacks := make([]int, len(ev.Players))
		for i, p := range ev.Players {
			names[i] = p.Name
			stacks[i] = p.Chips
		}
		e.Int("dealer", ev.Dealer).
			Int("small_blind_seat", ev.SmallBlindSeat).
			Int("big_blind_seat", ev.BigBlindSeat).
			Int("small_blind", ev.SmallBlind).
			Int("big_blind", ev.BigBlind).
			Strs("names", names).
			Ints("stacks", stacks).
			Send()
	case game.BlindPostedEvent:
		e.Int("seat", ev.Seat).
			Str("blind", ev.Blind).
			Int("amount", ev.Amount).
			Bool("all_in", ev.AllIn).
			Send()
	case game.CardDealtEvent:
		e = e.Int("seat", ev.Seat).Str("phase", ev.Phase.String())
		if ev.Seat == game.BoardSeat || !r.opts.HideHoleCards {
			e = e.Str("card", ev.Card.Code())
		}
		e.Send()
	case game.ActionRequiredEvent:
		e.Int("seat", ev.Seat).
			Int("to_call", ev.Legal.ToCall).
			Int("min_raise_to", ev.Legal.MinRaiseTo).
			Int("max_raise_to", ev.Legal.MaxRaiseTo).
			Int("pot", ev.Pot).
			Send()
	case game.ActionTakenEvent:
		e.Int("seat", ev.Seat).
			Str("name", ev.Name).
			Str("action", ev.Action.Kind.String()).
			Int("amount", ev.Action.Amount).
			Int("committed", ev.Committed).
			Int("stack", ev.StackAfter).
			Int("pot", ev.Pot).
			Int("current_bet", ev.CurrentBet).
			Str("phase", ev.Phase.String()).
			Str("reason", ev.Action.Reason).
			Send()
	case game.ActionRejectedEvent:
		e.Int("seat", ev.Seat).
			Str("action", ev.Action.Kind.String()).
			Int("amount", ev.Action.Amount).
			Str("reason", ev.Reason).
			Send()
	case game.StreetChangeEvent:
		e.Str("phase", ev.Phase.String()).
			Strs("board", codes(ev.Board)).
			Int("pot", ev.Pot).
			Send()
	case game.ShowdownEvent:
		e.Int("seat", ev.Seat).
			Strs("hole", codes(ev.HoleCards)).
			Str("category", ev.Result.Category.String()).
			Int("score", ev.Result.Score).
			Strs("best", codes(ev.Result.Cards)).
			Send()
	case game.PotAwardedEvent:
		e.Int("pot", ev.Award.Pot).
			Int("amount", ev.Award.Amount).
			Ints("winners", ev.Award.Winners).
			Ints("eligible", ev.Eligible).
			Bool("uncontested", ev.Uncontested).
			Str("category", ev.Category.String()).
			Send()
	case game.HandEndEvent:
		e.Strs("board", codes(ev.Board)).
			Ints("stacks", ev.Stacks).
			Dict("winnings", winnings(ev.Winnings)).
			Bool("showdown", ev.Showdown).
			Send()
	case game.GameOverEvent:
		e.Int("winner", ev.Winner).
			Str("name", ev.Name).
			Send()
	default:
		e.Interface("data", event).Send()
	}
}

func codes(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}

func winnings(w map[int]int) *zerolog.Event {
	d := zerolog.Dict()
	for seat, amount := range w {
		d.Int(fmt.Sprint(seat), amount)
	}
	return d
}
