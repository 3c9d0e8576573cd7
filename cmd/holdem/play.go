package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem/internal/display"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/handlog"
	"github.com/lox/holdem/internal/phh"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)

// PlayCmd runs an interactive game at the terminal
type PlayCmd struct {
	tableOverrides `embed:""`
	Reasons        bool   `help:"Show AI reasoning after each action"`
	LogFile        string `type:"path" help:"Write logs here instead of discarding them"`
	PHH            string `name:"phh" type:"path" help:"Export every hand as a PHH file into this directory"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config, c.tableOverrides)
	if err != nil {
		return err
	}
	if cfg.HumanSeat() < 0 {
		return errors.New("play needs a human seat; use simulate for AI-only tables")
	}
	delays, err := cfg.Delays()
	if err != nil {
		return err
	}

	logOut := io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := setupLogger(logOut, cfg.Log.Level, cli.Debug, "holdem")

	rng, seed := seedRand(cfg.Table.Seed)
	logger.Info("Starting interactive game", "seats", len(cfg.Seats), "seed", seed)

	bus := game.NewEventBus()
	human := cfg.HumanSeat()
	bus.Subscribe(display.NewPrinter(os.Stdout, display.Options{Perspective: human, ShowReasons: c.Reasons}))
	if cfg.Log.HandLog != "" {
		rec, err := handlog.Open(cfg.Log.HandLog, handlog.Options{})
		if err != nil {
			return err
		}
		defer rec.Close()
		bus.Subscribe(rec)
	}
	if c.PHH != "" {
		x, err := phh.NewExporter(c.PHH, "", logger)
		if err != nil {
			return err
		}
		bus.Subscribe(x)
	}

	orch, provider := newTable(tableSetup{
		Config: cfg,
		Delays: delays,
		Clock:  quartz.NewReal(),
		Logger: logger,
		Rand:   rng,
		Bus:    bus,
	})

	fmt.Println(titleStyle.Render("♠ ♥ Texas Hold'em ♦ ♣"))
	fmt.Println("Actions: fold, check, call, raise <amount>, allin. Type restart or quit.")

	ctx, cancel := signalContext(logger)
	defer cancel()

	orch.Start(ctx)
	defer orch.Stop()

	prompt := &prompter{
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		human:   provider,
		printer: display.NewPrinter(os.Stdout, display.Options{Perspective: human}),
		game:    orch,
		logger:  logger,
	}
	return prompt.run(ctx)
}

// prompter reads actions from the terminal for the human seat. It is the
// only reader of in, both while a decision is pending and once the game is
// over.
type prompter struct {
	in      *bufio.Scanner
	out     io.Writer
	human   *game.HumanProvider
	printer *display.Printer
	game    handSequence
	logger  *log.Logger
}

// run prompts until the player quits, input ends, ctx is done or a hand
// fails. A failed hand's error is returned.
func (p *prompter) run(ctx context.Context) error {
	for {
		req, ended, err := p.next(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case ended && err != nil && !errors.Is(err, game.ErrGameOver):
			return err
		case ended && err == nil:
			fmt.Fprintln(p.out, "Hand limit reached.")
			return nil
		case ended:
			if !p.offerRestart(ctx) {
				return nil
			}
			continue
		}

		fmt.Fprintf(p.out, "%s\n> ", p.printer.FormatPrompt(game.ActionRequiredEvent{
			Hand:  req.View.HandNumber,
			Seat:  req.Seat,
			Legal: req.Legal,
			Pot:   req.View.Pot,
		}))
		if !p.in.Scan() {
			return nil
		}

		line := strings.TrimSpace(p.in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "restart":
			p.game.Restart(ctx)
			continue
		}

		action, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		if err := p.human.Submit(action); err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		p.logger.Debug("Human action", "action", action)
	}
}

// next blocks until the human has a decision to make or the hand sequence
// ends. ended is set with the sequence's error in the latter case.
func (p *prompter) next(ctx context.Context) (req game.DecisionRequest, ended bool, err error) {
	waitCtx, stop := context.WithCancel(ctx)
	defer stop()

	pending := make(chan game.DecisionRequest, 1)
	go func() {
		if req, err := p.human.WaitPending(waitCtx); err == nil {
			pending <- req
		}
	}()
	finished := make(chan error, 1)
	go func() {
		finished <- waitGame(waitCtx, p.game)
	}()

	select {
	case req = <-pending:
		return req, false, nil
	case err = <-finished:
		if ctx.Err() != nil {
			return req, false, ctx.Err()
		}
		return req, true, err
	}
}

// offerRestart asks whether to play again after game over. It restarts the
// game and reports true, or reports false when the player quits.
func (p *prompter) offerRestart(ctx context.Context) bool {
	for {
		fmt.Fprint(p.out, "Game over. Type restart to play again or quit.\n> ")
		if !p.in.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
		case "restart", "r":
			p.logger.Info("Restarting game")
			p.game.Restart(ctx)
			return true
		case "quit", "exit", "q":
			return false
		}
	}
}

// parseCommand parses a terminal command such as "call" or "raise 120"
func parseCommand(line string) (game.Action, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return game.Action{}, fmt.Errorf("%w: empty command", game.ErrIllegalAction)
	}
	kind, err := game.ParseActionKind(fields[0])
	if err != nil {
		return game.Action{}, err
	}
	if kind != game.Raise {
		return game.Action{Kind: kind}, nil
	}
	if len(fields) < 2 {
		return game.Action{}, fmt.Errorf("%w: raise needs an amount, e.g. raise 120", game.ErrIllegalAction)
	}
	amount, err := strconv.Atoi(strings.TrimPrefix(fields[1], "$"))
	if err != nil || amount <= 0 {
		return game.Action{}, fmt.Errorf("%w: invalid raise amount %q", game.ErrIllegalAction, fields[1])
	}
	return game.RaiseTo(amount), nil
}
