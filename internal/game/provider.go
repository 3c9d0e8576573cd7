package game

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// DecisionRequest asks a seat for an action
type DecisionRequest struct {
	Generation uint64       `json:"generation"`
	Seat       int          `json:"seat"`
	Legal      LegalActions `json:"legal"`
	View       TableView    `json:"view"`
}

// ActionProvider supplies decisions for a seat. RequestAction may block
// until the decision is available and must return promptly with ctx.Err()
// once ctx is cancelled.
type ActionProvider interface {
	RequestAction(ctx context.Context, req DecisionRequest) (Action, error)
}

// SelfControlled is implemented by providers whose decisions come from the
// engine's own policies. Their illegal actions are coerced to the nearest
// legal action instead of being re-prompted.
type SelfControlled interface {
	SelfControlled() bool
}

// Policy decides an action from a table snapshot without blocking
type Policy interface {
	Decide(view TableView, legal LegalActions) Action
}

// PolicyProvider adapts a Policy into an ActionProvider, pausing for a
// think delay before each decision.
type PolicyProvider struct {
	policy     Policy
	clock      quartz.Clock
	thinkDelay time.Duration
}

// NewPolicyProvider creates a provider for an engine-controlled seat
func NewPolicyProvider(policy Policy, clock quartz.Clock, thinkDelay time.Duration) *PolicyProvider {
	return &PolicyProvider{policy: policy, clock: clock, thinkDelay: thinkDelay}
}

// RequestAction waits out the think delay and asks the policy
func (p *PolicyProvider) RequestAction(ctx context.Context, req DecisionRequest) (Action, error) {
	if err := sleep(ctx, p.clock, p.thinkDelay, "policy", "think"); err != nil {
		return Action{}, err
	}
	return p.policy.Decide(req.View, req.Legal), nil
}

func (p *PolicyProvider) SelfControlled() bool { return true }

// ScriptedProvider replays a fixed list of actions and then falls back to
// the default action. It is used by tests and replays.
type ScriptedProvider struct {
	actions []Action
	next    int
}

// NewScriptedProvider creates a provider that returns actions in order
func NewScriptedProvider(actions ...Action) *ScriptedProvider {
	return &ScriptedProvider{actions: actions}
}

// RequestAction returns the next scripted action
func (s *ScriptedProvider) RequestAction(ctx context.Context, req DecisionRequest) (Action, error) {
	if err := ctx.Err(); err != nil {
		return Action{}, err
	}
	if s.next >= len(s.actions) {
		return req.Legal.Default(), nil
	}
	a := s.actions[s.next]
	s.next++
	return a, nil
}

// Remaining reports how many scripted actions have not been used
func (s *ScriptedProvider) Remaining() int {
	return len(s.actions) - s.next
}

// sleep blocks for d on clock or until ctx is done
func sleep(ctx context.Context, clock quartz.Clock, d time.Duration, tags ...string) error {
	if d <= 0 {
		return ctx.Err()
	}
	fired := make(chan struct{})
	timer := clock.AfterFunc(d, func() {
		close(fired)
	}, tags...)
	defer timer.Stop()

	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
