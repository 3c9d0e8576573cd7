package game

import (
	"fmt"
	"strings"
)

// ActionKind enumerates the betting actions
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Raise
	AllIn
)

func (k ActionKind) String() string {
	switch k {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case AllIn:
		return "allin"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON output
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by String
func (k *ActionKind) UnmarshalText(text []byte) error {
	kind, err := ParseActionKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseActionKind parses an action name. "all-in" and "bet" are accepted
// as aliases of allin and raise.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold", "f":
		return Fold, nil
	case "check", "x":
		return Check, nil
	case "call", "c":
		return Call, nil
	case "raise", "bet", "r":
		return Raise, nil
	case "allin", "all-in", "all_in", "a":
		return AllIn, nil
	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, s)
	}
}

// Action is a betting decision. Amount is the raise-to total for Raise and
// ignored otherwise. Reason is free text carried into the event stream.
type Action struct {
	Kind   ActionKind `json:"action"`
	Amount int        `json:"amount,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

func FoldAction() Action  { return Action{Kind: Fold} }
func CheckAction() Action { return Action{Kind: Check} }
func CallAction() Action  { return Action{Kind: Call} }
func AllInAction() Action { return Action{Kind: AllIn} }

// RaiseTo raises the current bet to total
func RaiseTo(total int) Action { return Action{Kind: Raise, Amount: total} }

func (a Action) String() string {
	if a.Kind == Raise {
		return fmt.Sprintf("raise to %d", a.Amount)
	}
	return a.Kind.String()
}

// LegalActions describes what the acting seat may do. Raise bounds are
// raise-to totals for the street.
type LegalActions struct {
	ToCall     int  `json:"to_call"`
	CanCheck   bool `json:"can_check"`
	CanCall    bool `json:"can_call"`
	CanRaise   bool `json:"can_raise"`
	CanAllIn   bool `json:"can_allin"`
	MinRaiseTo int  `json:"min_raise_to"`
	MaxRaiseTo int  `json:"max_raise_to"`
}

// LegalActions computes the legal action set for seat
func (t *Table) LegalActions(seat int) LegalActions {
	p := t.Player(seat)
	if p == nil || !p.CanAct() {
		return LegalActions{}
	}
	toCall := max(t.CurrentBet-p.Bet, 0)
	maxTo := p.Bet + p.Chips
	minTo := t.CurrentBet + t.MinRaise
	return LegalActions{
		ToCall:     toCall,
		CanCheck:   toCall == 0,
		CanCall:    toCall > 0,
		CanRaise:   maxTo >= minTo,
		CanAllIn:   p.Chips > 0,
		MinRaiseTo: minTo,
		MaxRaiseTo: maxTo,
	}
}

// Validate returns an ErrIllegalAction describing why a is not allowed
func (l LegalActions) Validate(a Action) error {
	switch a.Kind {
	case Fold:
		return nil
	case Check:
		if !l.CanCheck {
			return fmt.Errorf("%w: cannot check facing %d", ErrIllegalAction, l.ToCall)
		}
	case Call:
		if !l.CanCall {
			return fmt.Errorf("%w: nothing to call", ErrIllegalAction)
		}
	case Raise:
		if !l.CanRaise {
			return fmt.Errorf("%w: raising is not possible", ErrIllegalAction)
		}
		if a.Amount < l.MinRaiseTo {
			return fmt.Errorf("%w: raise to %d is below the minimum %d", ErrIllegalAction, a.Amount, l.MinRaiseTo)
		}
		if a.Amount > l.MaxRaiseTo {
			return fmt.Errorf("%w: raise to %d exceeds the stack (max %d)", ErrIllegalAction, a.Amount, l.MaxRaiseTo)
		}
	case AllIn:
		if !l.CanAllIn {
			return fmt.Errorf("%w: no chips to move all-in", ErrIllegalAction)
		}
	default:
		return fmt.Errorf("%w: unknown action %v", ErrIllegalAction, a.Kind)
	}
	return nil
}

// Default is the action applied when a decision times out or keeps being
// rejected: check when it is free, fold otherwise.
func (l LegalActions) Default() Action {
	if l.CanCheck {
		return CheckAction()
	}
	return FoldAction()
}

// Nearest maps an illegal action to the closest legal one. It is used for
// engine-controlled seats whose policies should never stall the table.
func (l LegalActions) Nearest(a Action) Action {
	if l.Validate(a) == nil {
		return a
	}
	switch a.Kind {
	case Check, Call:
		if l.CanCheck {
			return CheckAction()
		}
		if l.CanCall {
			return CallAction()
		}
	case Raise:
		switch {
		case l.CanRaise && a.Amount < l.MinRaiseTo:
			return RaiseTo(l.MinRaiseTo)
		case l.CanAllIn && (a.Amount > l.MaxRaiseTo || !l.CanRaise):
			return AllInAction()
		}
	}
	return l.Default()
}

// ActionOutcome records the effect of an applied action
type ActionOutcome struct {
	Seat        int
	Action      Action
	Committed   int
	StackBefore int
	StackAfter  int
	Raised      bool // the action increased the current bet
}

// Apply validates and applies an action for seat. Illegal actions leave the
// table untouched.
func (t *Table) Apply(seat int, a Action) (ActionOutcome, error) {
	p := t.Player(seat)
	if p == nil {
		return ActionOutcome{}, fmt.Errorf("%w: %d", ErrUnknownSeat, seat)
	}
	if !p.CanAct() {
		return ActionOutcome{}, fmt.Errorf("%w: seat %d cannot act", ErrIllegalAction, seat)
	}
	if err := t.LegalActions(seat).Validate(a); err != nil {
		return ActionOutcome{}, err
	}

	out := ActionOutcome{Seat: seat, Action: a, StackBefore: p.Chips}
	switch a.Kind {
	case Fold:
		p.Folded = true
	case Check:
	case Call:
		out.Committed = p.commit(t.CurrentBet - p.Bet)
	case Raise:
		prev := t.CurrentBet
		out.Committed = p.commit(a.Amount - p.Bet)
		t.MinRaise = max(t.MinRaise, p.Bet-prev)
		t.CurrentBet = p.Bet
		out.Raised = true
	case AllIn:
		out.Committed = p.commit(p.Chips)
		if p.Bet > t.CurrentBet {
			t.MinRaise = max(t.MinRaise, p.Bet-t.CurrentBet)
			t.CurrentBet = p.Bet
			out.Raised = true
		}
	}
	t.Pot += out.Committed
	out.StackAfter = p.Chips
	return out, nil
}
