package phh

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lox/holdem/internal/deck"
	"github.com/lox/holdem/internal/game"
)

// Encode writes the hand history to the provided writer in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(hand *HandHistory) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, hand); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a hand history written by Encode
func Decode(data []byte) (*HandHistory, error) {
	var hand HandHistory
	if _, err := toml.Decode(string(data), &hand); err != nil {
		return nil, fmt.Errorf("phh: %w", err)
	}
	return &hand, nil
}

// FormatAction converts a betting action to its PHH string. streetBet is
// the seat's total bet on the street after the action and currentBet the
// bet it faced. An all-in that does not exceed the bet faced is a call.
func FormatAction(player int, kind game.ActionKind, streetBet, currentBet int) string {
	p := fmt.Sprintf("p%d", player)
	switch kind {
	case game.Fold:
		return p + " f"
	case game.Check, game.Call:
		return p + " cc"
	case game.Raise:
		return fmt.Sprintf("%s cbr %d", p, streetBet)
	case game.AllIn:
		if streetBet > currentBet {
			return fmt.Sprintf("%s cbr %d", p, streetBet)
		}
		return p + " cc"
	default:
		return fmt.Sprintf("# %s %s %d", p, kind, streetBet)
	}
}

func cards(cs []deck.Card) string {
	var b strings.Builder
	for _, c := range cs {
		b.WriteString(c.Code())
	}
	return b.String()
}
