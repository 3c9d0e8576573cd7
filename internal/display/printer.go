// Package display renders the game event stream as styled console text.
package display

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
)

// Options controls what a Printer shows
type Options struct {
	// Perspective is the seat whose hole cards are shown. Other seats' cards
	// appear only at showdown. -1 shows every seat (spectator mode).
	Perspective  int
	ShowReasons  bool // include AI reasoning after actions
	ShowRequired bool // print a prompt line when a seat must act
}

// Printer is a game.EventSubscriber that writes one line per event
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	opts  Options
	style styles
	names map[int]string
	holes map[int][]deck.Card
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, opts Options) *Printer {
	return &Printer{
		w:     w,
		opts:  opts,
		style: newStyles(lipgloss.NewRenderer(w)),
		names: make(map[int]string),
		holes: make(map[int][]deck.Card),
	}
}

// OnEvent implements game.EventSubscriber
func (p *Printer) OnEvent(event game.GameEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if line := p.format(event); line != "" {
		fmt.Fprintln(p.w, line)
	}
}

func (p *Printer) format(event game.GameEvent) string {
	switch e := event.(type) {
	case game.HandStartEvent:
		clear(p.holes)
		for _, pl := range e.Players {
			p.names[pl.Seat] = pl.Name
		}
		return p.FormatHandStart(e)
	case game.BlindPostedEvent:
		text := fmt.Sprintf("%s: posts %s blind $%d", p.name(e.Seat), e.Blind, e.Amount)
		if e.AllIn {
			text += " and is all-in"
		}
		return p.style.info.Render(text)
	case game.CardDealtEvent:
		if e.Seat == game.BoardSeat {
			return ""
		}
		p.holes[e.Seat] = append(p.holes[e.Seat], e.Card)
		if len(p.holes[e.Seat]) == 2 && p.visible(e.Seat) {
			return fmt.Sprintf("Dealt to %s [%s]", p.name(e.Seat), p.cards(p.holes[e.Seat]))
		}
		return ""
	case game.ActionRequiredEvent:
		if !p.opts.ShowRequired {
			return ""
		}
		return p.style.warning.Render(p.FormatPrompt(e))
	case game.ActionTakenEvent:
		return p.style.action.Render(p.FormatAction(e))
	case game.ActionRejectedEvent:
		return p.style.warning.Render(fmt.Sprintf("%s: %s rejected (%s)", p.name(e.Seat), e.Action, e.Reason))
	case game.StreetChangeEvent:
		return p.style.street.Render(p.FormatStreetChange(e))
	case game.ShowdownEvent:
		return fmt.Sprintf("%s: shows [%s] (%s)", p.name(e.Seat), p.cards(e.HoleCards), e.Result.Category)
	case game.PotAwardedEvent:
		return p.style.winner.Render(p.FormatPotAwarded(e))
	case game.HandEndEvent:
		return p.FormatHandEnd(e)
	case game.GameOverEvent:
		if e.Winner < 0 {
			return p.style.header.Render(" Game over ")
		}
		return p.style.header.Render(fmt.Sprintf(" Game over: %s wins ", e.Name))
	default:
		return ""
	}
}

// FormatHandStart formats a hand start event
func (p *Printer) FormatHandStart(e game.HandStartEvent) string {
	header := p.style.header.Render(fmt.Sprintf(" Hand #%d ", e.Hand))
	return fmt.Sprintf("\n%s %d players • $%d/$%d • dealer %s",
		header, len(e.Players), e.SmallBlind, e.BigBlind, p.name(e.Dealer))
}

// FormatAction formats an applied action
func (p *Printer) FormatAction(e game.ActionTakenEvent) string {
	name := e.Name
	if name == "" {
		name = p.name(e.Seat)
	}
	timeout := e.Action.Reason == "timeout"

	var text string
	switch e.Action.Kind {
	case game.Fold:
		text = name + ": folds"
		if timeout {
			text = name + ": times out and folds"
		}
	case game.Check:
		text = name + ": checks"
		if timeout {
			text = name + ": times out and checks"
		}
	case game.Call:
		text = fmt.Sprintf("%s: calls $%d (pot now: $%d)", name, e.Committed, e.Pot)
	case game.Raise:
		text = fmt.Sprintf("%s: raises to $%d (pot now: $%d)", name, e.CurrentBet, e.Pot)
	case game.AllIn:
		text = fmt.Sprintf("%s: goes all-in for $%d (pot now: $%d)", name, e.Committed, e.Pot)
	default:
		text = fmt.Sprintf("%s: %s", name, e.Action)
	}
	if p.opts.ShowReasons && e.Action.Reason != "" && !timeout {
		text += p.style.info.Render(" (" + e.Action.Reason + ")")
	}
	return text
}

// FormatPrompt formats the options of a seat that must act
func (p *Printer) FormatPrompt(e game.ActionRequiredEvent) string {
	var opts []string
	l := e.Legal
	opts = append(opts, "fold")
	if l.CanCheck {
		opts = append(opts, "check")
	}
	if l.CanCall {
		opts = append(opts, fmt.Sprintf("call $%d", l.ToCall))
	}
	if l.CanRaise {
		opts = append(opts, fmt.Sprintf("raise $%d-$%d", l.MinRaiseTo, l.MaxRaiseTo))
	}
	if l.CanAllIn {
		opts = append(opts, "allin")
	}
	return fmt.Sprintf("%s to act (pot $%d): %s", p.name(e.Seat), e.Pot, strings.Join(opts, ", "))
}

// FormatStreetChange formats a newly revealed street
func (p *Printer) FormatStreetChange(e game.StreetChangeEvent) string {
	label := strings.ToUpper(e.Phase.String())
	if n := len(e.Board); n > 3 {
		return fmt.Sprintf("*** %s *** [%s] [%s]", label, p.cards(e.Board[:n-1]), p.card(e.Board[n-1]))
	}
	return fmt.Sprintf("*** %s *** [%s]", label, p.cards(e.Board))
}

// FormatPotAwarded formats one paid pot
func (p *Printer) FormatPotAwarded(e game.PotAwardedEvent) string {
	pot := "main pot"
	if e.Award.Pot > 0 {
		pot = fmt.Sprintf("side pot %d", e.Award.Pot)
	}
	var parts []string
	for _, seat := range e.Award.Winners {
		parts = append(parts, fmt.Sprintf("%s wins $%d", p.name(seat), e.Award.Shares[seat]))
	}
	text := fmt.Sprintf("%s ($%d): %s", pot, e.Award.Amount, strings.Join(parts, ", "))
	if !e.Uncontested {
		text += " with " + e.Category.String()
	}
	return text
}

// FormatHandEnd formats the stacks after a hand
func (p *Printer) FormatHandEnd(e game.HandEndEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Hand #%d complete ===", e.Hand)
	for _, seat := range slices.Sorted(maps.Keys(e.Winnings)) {
		fmt.Fprintf(&b, "\n  %s +$%d", p.name(seat), e.Winnings[seat])
	}
	if len(e.Stacks) > 0 {
		stacks := make([]string, len(e.Stacks))
		for seat, chips := range e.Stacks {
			stacks[seat] = fmt.Sprintf("%s $%d", p.name(seat), chips)
		}
		b.WriteString("\n" + p.style.info.Render("  stacks: "+strings.Join(stacks, " | ")))
	}
	return b.String()
}

func (p *Printer) visible(seat int) bool {
	return p.opts.Perspective < 0 || p.opts.Perspective == seat
}

func (p *Printer) name(seat int) string {
	if n, ok := p.names[seat]; ok {
		return n
	}
	return fmt.Sprintf("Seat %d", seat)
}

func (p *Printer) card(c deck.Card) string {
	if c.Suit.IsRed() {
		return p.style.redCard.Render(c.String())
	}
	return p.style.blackCrd.Render(c.String())
}

func (p *Printer) cards(cards []deck.Card) string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = p.card(c)
	}
	return strings.Join(out, " ")
}
