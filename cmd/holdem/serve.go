package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/holdem/internal/display"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/handlog"
	"github.com/lox/holdem/internal/wsbridge"
)

// ServeCmd runs one table whose human seat is played over a websocket
type ServeCmd struct {
	tableOverrides `embed:""`
	Addr           string `default:":8080" help:"Listen address"`
	Path           string `default:"/ws" help:"Websocket endpoint path"`
	Quiet          bool   `help:"Do not print the hand to the console"`
	AnyOrigin      bool   `help:"Accept websocket connections from any origin"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config, c.tableOverrides)
	if err != nil {
		return err
	}
	seat := cfg.HumanSeat()
	if seat < 0 {
		return errors.New("serve needs a human seat in the configuration")
	}
	delays, err := cfg.Delays()
	if err != nil {
		return err
	}

	tableID := uuid.NewString()
	logger := setupLogger(os.Stderr, cfg.Log.Level, cli.Debug, "holdem").With("table", tableID)
	rng, seed := seedRand(cfg.Table.Seed)

	bus := game.NewEventBus()
	if !c.Quiet {
		bus.Subscribe(display.NewPrinter(os.Stdout, display.Options{Perspective: -1, ShowReasons: true}))
	}
	if cfg.Log.HandLog != "" {
		rec, err := handlog.Open(cfg.Log.HandLog, handlog.Options{TableID: tableID})
		if err != nil {
			return err
		}
		defer rec.Close()
		bus.Subscribe(rec)
	}

	orch, human := newTable(tableSetup{
		Config: cfg,
		Delays: delays,
		Clock:  quartz.NewReal(),
		Logger: logger,
		Rand:   rng,
		Bus:    bus,
	})

	ctx, cancel := signalContext(logger)
	defer cancel()

	restarts := make(chan struct{}, 1)
	restart := func() {
		orch.Restart(ctx)
		select {
		case restarts <- struct{}{}:
		default:
		}
	}

	var opts []wsbridge.Option
	opts = append(opts, wsbridge.WithRestart(restart))
	if c.AnyOrigin {
		opts = append(opts, wsbridge.WithCheckOrigin(func(*http.Request) bool { return true }))
	}
	bridge := wsbridge.New(seat, human, logger, opts...)
	bus.Subscribe(bridge)

	mux := http.NewServeMux()
	mux.Handle(c.Path, bridge)
	srv := &http.Server{Addr: c.Addr, Handler: mux}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	logger.Info("Serving table",
		"address", c.Addr,
		"path", c.Path,
		"seat", seat,
		"seed", seed,
		"small_blind", cfg.Table.SmallBlind,
		"big_blind", cfg.Table.BigBlind,
	)

	orch.Start(ctx)

	gameErr := make(chan error, 1)
	go func() {
		gameErr <- superviseGame(ctx, orch, restarts, logger)
	}()

	select {
	case err = <-gameErr:
		if err != nil {
			logger.Error("Game failed", "error", err)
		}
	case err = <-serverErr:
	}

	logger.Info("Shutting down server...")
	orch.Stop()
	bridge.Close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := srv.Shutdown(shutdownCtx); err == nil {
		err = serr
	}
	return err
}
