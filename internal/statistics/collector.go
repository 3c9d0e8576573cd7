package statistics

import (
	"sync"

	"github.com/lox/holdem/internal/game"
)

// Collector is a game.EventSubscriber that records every seat's result of
// every completed hand. Hands that never reach HandEnd, such as voided
// ones, are not counted.
type Collector struct {
	mu    sync.Mutex
	seats map[int]*Statistics
	names map[int]string

	current  *game.HandStartEvent
	showdown map[int]bool
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		seats:    make(map[int]*Statistics),
		names:    make(map[int]string),
		showdown: make(map[int]bool),
	}
}

// OnEvent implements game.EventSubscriber
func (c *Collector) OnEvent(event game.GameEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := event.(type) {
	case game.HandStartEvent:
		c.current = &e
		clear(c.showdown)
		for _, p := range e.Players {
			c.names[p.Seat] = p.Name
		}
	case game.ShowdownEvent:
		c.showdown[e.Seat] = true
	case game.HandEndEvent:
		if c.current == nil || c.current.Hand != e.Hand {
			return
		}
		c.record(*c.current, e)
		c.current = nil
	}
}

func (c *Collector) record(start game.HandStartEvent, end game.HandEndEvent) {
	pot := 0
	for _, amount := range end.Winnings {
		pot += amount
	}
	positions := dealtInPositions(start)
	for _, p := range start.Players {
		if p.Folded || p.Seat >= len(end.Stacks) {
			continue // not dealt in
		}
		net := end.Stacks[p.Seat] - p.Chips
		s := c.seats[p.Seat]
		if s == nil {
			s = &Statistics{}
			c.seats[p.Seat] = s
		}
		s.Add(HandResult{
			NetBB:          float64(net) / float64(start.BigBlind),
			Position:       positions[p.Seat],
			WentToShowdown: c.showdown[p.Seat],
			PotChips:       pot,
			BigBlind:       start.BigBlind,
		})
	}
}

// dealtInPositions numbers the seats dealt into the hand clockwise from the
// dealer, who is position zero. Busted and removed seats are skipped.
func dealtInPositions(start game.HandStartEvent) map[int]int {
	first := 0
	for i, p := range start.Players {
		if p.Seat == start.Dealer {
			first = i
			break
		}
	}
	positions := make(map[int]int, len(start.Players))
	for i := range start.Players {
		p := start.Players[(first+i)%len(start.Players)]
		if !p.Folded {
			positions[p.Seat] = len(positions)
		}
	}
	return positions
}

// Seat returns a copy of the statistics for seat
func (c *Collector) Seat(seat int) (Statistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.seats[seat]
	if !ok {
		return Statistics{}, false
	}
	out := *s
	out.Values = append([]float64(nil), s.Values...)
	return out, true
}

// Name returns the last name seen for seat
func (c *Collector) Name(seat int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.names[seat]
}

// MergeInto adds this collector's per-seat statistics into dst, keyed by
// seat.
func (c *Collector) MergeInto(dst map[int]*Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seat, s := range c.seats {
		if dst[seat] == nil {
			dst[seat] = &Statistics{}
		}
		dst[seat].Merge(s)
	}
}
