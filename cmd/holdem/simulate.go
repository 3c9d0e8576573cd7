package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem/internal/config"
	"github.com/lox/holdem/internal/fileutil"
	"github.com/lox/holdem/internal/game"
	"github.com/lox/holdem/internal/handlog"
	"github.com/lox/holdem/internal/phh"
	"github.com/lox/holdem/internal/randutil"
	"github.com/lox/holdem/internal/statistics"
)

// SimulateCmd plays AI-only tables with every delay set to zero
type SimulateCmd struct {
	tableOverrides `embed:""`
	Tables         int    `default:"4" help:"Number of tables to run concurrently"`
	Hands          int    `default:"100" help:"Hands per table"`
	Workers        int    `default:"0" help:"Maximum tables running at once (0 = unlimited)"`
	Verbose        bool   `help:"Log every hand"`
	Report         string `type:"path" help:"Also write the results as JSON to this file"`
	PHH            string `name:"phh" type:"path" help:"Export every hand as a PHH file into this directory"`
}

// tableResult summarises one simulated table
type tableResult struct {
	ID       string
	Hands    int
	Stacks   []int
	GameOver bool
	Elapsed  time.Duration
	Stats    *statistics.Collector
}

func (c *SimulateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config, c.tableOverrides)
	if err != nil {
		return err
	}
	if c.Tables < 1 || c.Hands < 1 {
		return errors.New("tables and hands must be at least 1")
	}
	cfg = cfg.WithoutHumans()

	level := cfg.Log.Level
	if !c.Verbose {
		level = "warn"
	}
	logger := setupLogger(os.Stderr, level, cli.Debug, "simulate")

	rng, seed := seedRand(cfg.Table.Seed)
	logger.Warn("Starting simulation", "tables", c.Tables, "hands", c.Hands, "seed", seed)

	var handLog io.Writer
	if cfg.Log.HandLog != "" {
		f, err := os.OpenFile(cfg.Log.HandLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open hand log: %w", err)
		}
		defer f.Close()
		handLog = zerolog.SyncWriter(f)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	results, err := simulate(ctx, simulation{
		Config:  cfg,
		Tables:  c.Tables,
		Hands:   c.Hands,
		Workers: c.Workers,
		Rand:    rng,
		Logger:  logger,
		HandLog: handLog,
		PHHDir:  c.PHH,
	})
	if err != nil {
		return err
	}

	fmt.Println(renderResults(cfg, results))
	fmt.Println(renderSeatStats(cfg, results))
	fmt.Printf("%d tables in %s (seed %d)\n", len(results), time.Since(start).Round(time.Millisecond), seed)

	if c.Report != "" {
		if err := fileutil.WriteJSONAtomic(c.Report, buildReport(cfg, seed, results)); err != nil {
			return err
		}
		logger.Warn("Wrote report", "path", c.Report)
	}
	return nil
}

// simulationReport is the JSON form of a simulation's results
type simulationReport struct {
	Seed   int64         `json:"seed"`
	Tables []tableReport `json:"tables"`
	Seats  []seatReport  `json:"seats"`
}

type tableReport struct {
	ID       string         `json:"id"`
	Hands    int            `json:"hands"`
	GameOver bool           `json:"game_over"`
	Stacks   map[string]int `json:"stacks"`
}

type seatReport struct {
	Name     string  `json:"name"`
	Hands    int     `json:"hands"`
	BBPer100 float64 `json:"bb_per_100"`
	StdDevBB float64 `json:"stddev_bb"`
	MedianBB float64 `json:"median_bb"`
}

func buildReport(cfg *config.Config, seed int64, results []tableResult) simulationReport {
	names := cfg.SeatNames()
	report := simulationReport{Seed: seed}
	for _, r := range results {
		tr := tableReport{ID: r.ID, Hands: r.Hands, GameOver: r.GameOver, Stacks: make(map[string]int)}
		for seat, chips := range r.Stacks {
			tr.Stacks[names[seat]] = chips
		}
		report.Tables = append(report.Tables, tr)
	}

	merged := make(map[int]*statistics.Statistics)
	for _, r := range results {
		r.Stats.MergeInto(merged)
	}
	for seat, name := range names {
		s, ok := merged[seat]
		if !ok {
			continue
		}
		report.Seats = append(report.Seats, seatReport{
			Name:     name,
			Hands:    s.Hands,
			BBPer100: s.BBPer100(),
			StdDevBB: s.StdDev(),
			MedianBB: s.Median(),
		})
	}
	return report
}

// simulation describes a batch of AI-only tables
type simulation struct {
	Config  *config.Config
	Tables  int
	Hands   int
	Workers int
	Rand    *rand.Rand
	Logger  *log.Logger
	HandLog io.Writer // shared JSON-lines sink, may be nil
	PHHDir  string
}

// simulate runs every table to completion. Each table gets its own
// generator derived from the batch generator so results are reproducible
// from the seed regardless of scheduling.
func simulate(ctx context.Context, sim simulation) ([]tableResult, error) {
	results := make([]tableResult, sim.Tables)
	rngs := make([]*rand.Rand, sim.Tables)
	for i := range rngs {
		rngs[i] = randutil.Derive(sim.Rand)
	}

	g, ctx := errgroup.WithContext(ctx)
	if sim.Workers > 0 {
		g.SetLimit(sim.Workers)
	}
	for i := range sim.Tables {
		g.Go(func() error {
			res, err := runTable(ctx, sim, rngs[i])
			if err != nil {
				return fmt.Errorf("table %s: %w", res.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runTable(ctx context.Context, sim simulation, rng *rand.Rand) (tableResult, error) {
	res := tableResult{ID: uuid.NewString(), Stats: statistics.NewCollector()}
	logger := sim.Logger.With("table", res.ID[:8])

	bus := game.NewEventBus()
	bus.Subscribe(res.Stats)
	if sim.HandLog != nil {
		bus.Subscribe(handlog.New(sim.HandLog, handlog.Options{TableID: res.ID}))
	}
	var export *phh.Exporter
	if sim.PHHDir != "" {
		x, err := phh.NewExporter(sim.PHHDir, res.ID[:8], logger)
		if err != nil {
			return res, err
		}
		export = x
		bus.Subscribe(export)
	}

	orch, _ := newTable(tableSetup{
		Config: sim.Config,
		Clock:  quartz.NewReal(),
		Logger: logger,
		Rand:   rng,
		Bus:    bus,
	})

	start := time.Now()
	for range sim.Hands {
		_, err := orch.PlayHand(ctx)
		if errors.Is(err, game.ErrGameOver) {
			res.GameOver = true
			break
		}
		if err != nil {
			return res, err
		}
	}
	res.Elapsed = time.Since(start)
	if export != nil {
		if err := export.Err(); err != nil {
			return res, err
		}
	}

	t := orch.Table()
	res.Hands = t.HandNumber
	for _, p := range t.Players {
		res.Stacks = append(res.Stacks, p.Chips)
	}
	return res, nil
}

// renderSeatStats reports each seat's win rate across every table
func renderSeatStats(cfg *config.Config, results []tableResult) string {
	merged := make(map[int]*statistics.Statistics)
	for _, r := range results {
		r.Stats.MergeInto(merged)
	}

	rows := make([][]string, 0, len(cfg.Seats))
	for seat, name := range cfg.SeatNames() {
		s, ok := merged[seat]
		if !ok {
			continue
		}
		lo, hi := s.ConfidenceInterval95()
		rows = append(rows, []string{
			name,
			strconv.Itoa(s.Hands),
			fmt.Sprintf("%+.1f", s.BBPer100()),
			fmt.Sprintf("[%+.1f, %+.1f]", lo*100, hi*100),
			strconv.Itoa(s.ShowdownWins),
			strconv.Itoa(s.NonShowdownWins),
		})
	}
	return renderTable([]string{"Seat", "Hands", "BB/100", "95% CI", "Showdown wins", "Uncontested wins"}, rows)
}

func renderResults(cfg *config.Config, results []tableResult) string {
	headers := []string{"Table", "Hands"}
	headers = append(headers, cfg.SeatNames()...)
	headers = append(headers, "Time")

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.ID[:8], strconv.Itoa(r.Hands)}
		for _, chips := range r.Stacks {
			row = append(row, strconv.Itoa(chips))
		}
		row = append(row, r.Elapsed.Round(time.Microsecond).String())
		rows = append(rows, row)
	}

	return renderTable(headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
