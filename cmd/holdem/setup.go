package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem/internal/config"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/randutil"
)

// tableOverrides are command-line values that take precedence over the
// configuration file. Zero values leave the file's setting alone.
type tableOverrides struct {
	Chips      int    `help:"Starting chips per seat (overrides config)"`
	SmallBlind int    `help:"Small blind (overrides config)"`
	BigBlind   int    `help:"Big blind (overrides config)"`
	MaxHands   int    `help:"Stop after this many hands (overrides config)"`
	Seed       *int64 `help:"Deterministic RNG seed (overrides config)"`
}

func (o tableOverrides) apply(cfg *config.Config) {
	if o.Chips > 0 {
		cfg.Table.StartingChips = o.Chips
	}
	if o.SmallBlind > 0 {
		cfg.Table.SmallBlind = o.SmallBlind
	}
	if o.BigBlind > 0 {
		cfg.Table.BigBlind = o.BigBlind
	}
	if o.MaxHands > 0 {
		cfg.Table.MaxHands = o.MaxHands
	}
	if o.Seed != nil {
		cfg.Table.Seed = *o.Seed
	}
}

func loadConfig(path string, overrides tableOverrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	overrides.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setupLogger(w io.Writer, level string, debug bool, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          prefix,
	})
}

// seedRand returns the configured generator, or a time-seeded one when the
// seed is zero. The seed is returned for logging.
func seedRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = randutil.Seed()
	}
	return randutil.New(seed), seed
}

// tableSetup is everything needed to run one table
type tableSetup struct {
	Config *config.Config
	Delays config.Delays
	Clock  quartz.Clock
	Logger *log.Logger
	Rand   *rand.Rand
	Bus    game.EventBus
}

// newTable builds the orchestrator for cfg. It returns the human provider
// when the configuration has a human seat.
func newTable(s tableSetup) (*game.Orchestrator, *game.HumanProvider) {
	cfg := s.Config
	table := game.NewTable(cfg.SeatNames(), cfg.Table.StartingChips, cfg.Table.SmallBlind, cfg.Table.BigBlind)

	var human *game.HumanProvider
	providers := make([]game.ActionProvider, len(cfg.Seats))
	for i, seat := range cfg.Seats {
		switch seat.Kind {
		case config.KindHuman:
			human = game.NewHumanProvider(s.Clock, s.Delays.DecisionTimeout, s.Logger)
			providers[i] = human
		default:
			policy := game.NewHeuristicPolicy(randutil.Derive(s.Rand))
			providers[i] = game.NewPolicyProvider(policy, s.Clock, s.Delays.Think)
		}
	}

	orch := game.NewOrchestrator(table, providers,
		game.WithClock(s.Clock),
		game.WithLogger(s.Logger),
		game.WithEventBus(s.Bus),
		game.WithRand(s.Rand),
		game.WithTiming(s.Delays.Game()),
		game.WithMaxHands(cfg.Table.MaxHands),
	)
	return orch, human
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// shutdownTimeout bounds how long a server waits for connections to close
const shutdownTimeout = 5 * time.Second

// handSequence is the part of the orchestrator the front ends drive
type handSequence interface {
	Done() <-chan struct{}
	Err() error
	Restart(ctx context.Context)
}

// waitGame blocks until ctx is done or the hand sequence ends for good,
// returning ctx's error or why the sequence ended. A restart replaces the
// sequence, so a closed Done channel only counts when it is still the
// current one.
func waitGame(ctx context.Context, seq handSequence) error {
	for {
		done := seq.Done()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if seq.Done() == done {
				return seq.Err()
			}
		}
	}
}

// superviseGame keeps a served table alive until ctx is done. After game
// over or the hand limit the table idles until restarts fires. A failed
// hand ends supervision with its error.
func superviseGame(ctx context.Context, seq handSequence, restarts <-chan struct{}, logger *log.Logger) error {
	for {
		err := waitGame(ctx, seq)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && !errors.Is(err, game.ErrGameOver):
			return err
		}
		logger.Info("Table idle, waiting for a restart", "game_over", err != nil)
		select {
		case <-restarts:
		case <-ctx.Done():
			return nil
		}
	}
}
