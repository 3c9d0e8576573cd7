package game

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// HumanProvider waits for a decision submitted from outside the engine,
// such as a console prompt or a websocket client. At most one decision is
// outstanding at a time.
type HumanProvider struct {
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	pending *pendingDecision
	waiting chan struct{} // closed and replaced whenever a decision becomes pending
}

type pendingDecision struct {
	req   DecisionRequest
	reply chan decisionReply
}

type decisionReply struct {
	action Action
	err    error
}

// NewHumanProvider creates a provider that waits up to timeout for each
// decision. A zero timeout waits indefinitely.
func NewHumanProvider(clock quartz.Clock, timeout time.Duration, logger *log.Logger) *HumanProvider {
	return &HumanProvider{
		clock:   clock,
		timeout: timeout,
		logger:  logger.WithPrefix("human"),
		waiting: make(chan struct{}),
	}
}

// RequestAction publishes a pending decision and blocks until Submit,
// Cancel, the timeout or ctx resolves it. On timeout the default action
// (check if free, otherwise fold) is returned.
func (h *HumanProvider) RequestAction(ctx context.Context, req DecisionRequest) (Action, error) {
	if err := ctx.Err(); err != nil {
		return Action{}, err
	}

	var timeout <-chan struct{}
	if h.timeout > 0 {
		fired := make(chan struct{})
		timer := h.clock.AfterFunc(h.timeout, func() {
			close(fired)
		}, "human", "decision")
		defer timer.Stop()
		timeout = fired
	}

	p := &pendingDecision{req: req, reply: make(chan decisionReply, 1)}
	h.mu.Lock()
	if h.pending != nil {
		h.mu.Unlock()
		return Action{}, ErrDecisionOutstanding
	}
	h.pending = p
	close(h.waiting)
	h.waiting = make(chan struct{})
	h.mu.Unlock()
	defer h.clear(p)

	h.logger.Debug("Waiting for decision", "seat", req.Seat, "toCall", req.Legal.ToCall)

	select {
	case r := <-p.reply:
		return r.action, r.err
	case <-timeout:
		if r, ok := h.settle(p); ok {
			return r.action, r.err
		}
		h.logger.Warn("Decision timed out", "seat", req.Seat, "timeout", h.timeout)
		a := req.Legal.Default()
		a.Reason = "timeout"
		return a, nil
	case <-ctx.Done():
		if r, ok := h.settle(p); ok {
			return r.action, r.err
		}
		return Action{}, ctx.Err()
	}
}

// settle withdraws p so later submissions are refused. If Submit or Cancel
// resolved it first, their reply is returned with ok set.
func (h *HumanProvider) settle(p *pendingDecision) (decisionReply, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == p {
		h.pending = nil
		return decisionReply{}, false
	}
	return <-p.reply, true
}

// Submit resolves the pending decision. Actions outside the legal set are
// refused with ErrIllegalAction and the decision stays pending.
func (h *HumanProvider) Submit(a Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return ErrNoPendingDecision
	}
	if err := h.pending.req.Legal.Validate(a); err != nil {
		return err
	}
	h.pending.reply <- decisionReply{action: a}
	h.pending = nil
	return nil
}

// Cancel force-resolves the pending decision with ErrDecisionCancelled. It
// reports whether a decision was pending.
func (h *HumanProvider) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return false
	}
	h.pending.reply <- decisionReply{err: ErrDecisionCancelled}
	h.pending = nil
	return true
}

// Pending returns the outstanding decision request, if any
func (h *HumanProvider) Pending() (DecisionRequest, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return DecisionRequest{}, false
	}
	return h.pending.req, true
}

// WaitPending blocks until a decision is pending or ctx is done
func (h *HumanProvider) WaitPending(ctx context.Context) (DecisionRequest, error) {
	for {
		h.mu.Lock()
		if h.pending != nil {
			req := h.pending.req
			h.mu.Unlock()
			return req, nil
		}
		waiting := h.waiting
		h.mu.Unlock()

		select {
		case <-waiting:
		case <-ctx.Done():
			return DecisionRequest{}, ctx.Err()
		}
	}
}

func (h *HumanProvider) clear(p *pendingDecision) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == p {
		h.pending = nil
	}
}
