package game

import (
	"slices"
	"sync"
)

// DefaultHistoryLimit is how many hands a HandHistory keeps by default
const DefaultHistoryLimit = 50

// HandRecord is the event log of one hand
type HandRecord struct {
	Number int
	Events []GameEvent
}

// Actions returns the actions taken during the hand in order
func (r HandRecord) Actions() []ActionTakenEvent {
	var actions []ActionTakenEvent
	for _, e := range r.Events {
		if a, ok := e.(ActionTakenEvent); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Winnings returns what each seat collected, or nil if the hand did not
// finish.
func (r HandRecord) Winnings() map[int]int {
	for _, e := range slices.Backward(r.Events) {
		if end, ok := e.(HandEndEvent); ok {
			return end.Winnings
		}
	}
	return nil
}

// Complete reports whether the hand reached its payout
func (r HandRecord) Complete() bool {
	return r.Winnings() != nil
}

// HandHistory records the events of the most recent hands. It subscribes
// to an EventBus and is safe to read while hands are running.
type HandHistory struct {
	mu    sync.Mutex
	limit int
	hands []*HandRecord
}

// NewHandHistory keeps up to limit hands; non-positive means the default
func NewHandHistory(limit int) *HandHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HandHistory{limit: limit}
}

// OnEvent implements EventSubscriber
func (h *HandHistory) OnEvent(event GameEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := event.(HandStartEvent); ok {
		// a voided hand gives its number to the next one
		if n := len(h.hands); n > 0 && h.hands[n-1].Number == event.HandNumber() {
			h.hands = h.hands[:n-1]
		}
		h.hands = append(h.hands, &HandRecord{Number: event.HandNumber()})
		if len(h.hands) > h.limit {
			h.hands = slices.Delete(h.hands, 0, len(h.hands)-h.limit)
		}
	}
	if len(h.hands) == 0 {
		return
	}
	last := h.hands[len(h.hands)-1]
	if last.Number == event.HandNumber() {
		last.Events = append(last.Events, event)
	}
}

// Hands returns the recorded hands, oldest first
func (h *HandHistory) Hands() []HandRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HandRecord, len(h.hands))
	for i, r := range h.hands {
		out[i] = HandRecord{Number: r.Number, Events: slices.Clone(r.Events)}
	}
	return out
}

// Last returns the most recent hand
func (h *HandHistory) Last() (HandRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hands) == 0 {
		return HandRecord{}, false
	}
	r := h.hands[len(h.hands)-1]
	return HandRecord{Number: r.Number, Events: slices.Clone(r.Events)}, true
}

// Reset forgets every recorded hand
func (h *HandHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hands = nil
}
