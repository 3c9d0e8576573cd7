// Package config loads table configuration from HCL files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdem/internal/game"
)

// Seat kinds
const (
	KindHuman = "human"
	KindAI    = "ai"
)

// Config represents the complete table configuration
type Config struct {
	Table  *TableSettings  `hcl:"table,block"`
	Timing *TimingSettings `hcl:"timing,block"`
	Seats  []SeatConfig    `hcl:"seat,block"`
	Log    *LogSettings    `hcl:"log,block"`
}

// TableSettings contains stakes and limits
type TableSettings struct {
	StartingChips int   `hcl:"starting_chips,optional"`
	SmallBlind    int   `hcl:"small_blind,optional"`
	BigBlind      int   `hcl:"big_blind,optional"`
	MaxHands      int   `hcl:"max_hands,optional"`
	Seed          int64 `hcl:"seed,optional"`
}

// TimingSettings holds Go duration strings for the game's pacing
type TimingSettings struct {
	ThinkDelay      string `hcl:"think_delay,optional"`
	DealDelay       string `hcl:"deal_delay,optional"`
	StreetDelay     string `hcl:"street_delay,optional"`
	SettleDelay     string `hcl:"settle_delay,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
}

// SeatConfig defines one seat, in clockwise order
type SeatConfig struct {
	Name string `hcl:"name,label"`
	Kind string `hcl:"kind,optional"`
}

// LogSettings contains logging configuration
type LogSettings struct {
	Level   string `hcl:"level,optional"`
	HandLog string `hcl:"hand_log,optional"`
}

// Delays are the parsed timing settings
type Delays struct {
	Think           time.Duration
	Deal            time.Duration
	Street          time.Duration
	Settle          time.Duration
	DecisionTimeout time.Duration // zero waits forever
}

// Game returns the orchestrator's share of the delays
func (d Delays) Game() game.Timing {
	return game.Timing{
		DealDelay:   d.Deal,
		StreetDelay: d.Street,
		SettleDelay: d.Settle,
	}
}

// DefaultConfig returns the classic four-seat game: one human against
// three AI opponents.
func DefaultConfig() *Config {
	c := &Config{
		Seats: []SeatConfig{
			{Name: "You", Kind: KindHuman},
			{Name: "AI 1", Kind: KindAI},
			{Name: "AI 2", Kind: KindAI},
			{Name: "AI 3", Kind: KindAI},
		},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields the
// default configuration.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

// Parse reads configuration from HCL source
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (*Config, error) {
	var config Config
	if diags := gohcl.DecodeBody(body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	if len(config.Seats) == 0 {
		config.Seats = DefaultConfig().Seats
	}
	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills in missing values
func (c *Config) applyDefaults() {
	if c.Table == nil {
		c.Table = &TableSettings{}
	}
	if c.Table.StartingChips == 0 {
		c.Table.StartingChips = 1000
	}
	if c.Table.SmallBlind == 0 {
		c.Table.SmallBlind = 10
	}
	if c.Table.BigBlind == 0 {
		c.Table.BigBlind = c.Table.SmallBlind * 2
	}

	if c.Timing == nil {
		c.Timing = &TimingSettings{}
	}
	if c.Timing.ThinkDelay == "" {
		c.Timing.ThinkDelay = "800ms"
	}
	if c.Timing.DealDelay == "" {
		c.Timing.DealDelay = "200ms"
	}
	if c.Timing.StreetDelay == "" {
		c.Timing.StreetDelay = "500ms"
	}
	if c.Timing.SettleDelay == "" {
		c.Timing.SettleDelay = "5s"
	}
	if c.Timing.DecisionTimeout == "" {
		c.Timing.DecisionTimeout = "0s"
	}

	for i := range c.Seats {
		if c.Seats[i].Kind == "" {
			c.Seats[i].Kind = KindAI
		}
	}

	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if len(c.Seats) < 2 || len(c.Seats) > 10 {
		return fmt.Errorf("table needs between 2 and 10 seats, got %d", len(c.Seats))
	}
	if c.Table.StartingChips <= 0 {
		return fmt.Errorf("starting chips must be positive")
	}
	if c.Table.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Table.BigBlind <= c.Table.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if c.Table.MaxHands < 0 {
		return fmt.Errorf("max hands cannot be negative")
	}

	names := make(map[string]bool, len(c.Seats))
	humans := 0
	for _, seat := range c.Seats {
		if names[seat.Name] {
			return fmt.Errorf("seat %q is defined twice", seat.Name)
		}
		names[seat.Name] = true
		switch seat.Kind {
		case KindHuman:
			humans++
		case KindAI:
		default:
			return fmt.Errorf("seat %s: invalid kind %q", seat.Name, seat.Kind)
		}
	}
	if humans > 1 {
		return fmt.Errorf("at most one human seat is supported, got %d", humans)
	}

	if _, err := c.Delays(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Delays parses the timing settings
func (c *Config) Delays() (Delays, error) {
	var d Delays
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"think_delay", c.Timing.ThinkDelay, &d.Think},
		{"deal_delay", c.Timing.DealDelay, &d.Deal},
		{"street_delay", c.Timing.StreetDelay, &d.Street},
		{"settle_delay", c.Timing.SettleDelay, &d.Settle},
		{"decision_timeout", c.Timing.DecisionTimeout, &d.DecisionTimeout},
	}
	for _, f := range fields {
		v, err := time.ParseDuration(f.value)
		if err != nil {
			return Delays{}, fmt.Errorf("timing %s: %w", f.name, err)
		}
		if v < 0 {
			return Delays{}, fmt.Errorf("timing %s cannot be negative", f.name)
		}
		*f.dst = v
	}
	return d, nil
}

// SeatNames returns the seat names in clockwise order
func (c *Config) SeatNames() []string {
	names := make([]string, len(c.Seats))
	for i, s := range c.Seats {
		names[i] = s.Name
	}
	return names
}

// HumanSeat returns the index of the human seat, or -1 if every seat is AI
func (c *Config) HumanSeat() int {
	for i, s := range c.Seats {
		if s.Kind == KindHuman {
			return i
		}
	}
	return -1
}

// WithoutHumans returns a copy where every seat is played by the AI
func (c *Config) WithoutHumans() *Config {
	out := *c
	out.Seats = make([]SeatConfig, len(c.Seats))
	for i, s := range c.Seats {
		s.Kind = KindAI
		out.Seats[i] = s
	}
	return &out
}
