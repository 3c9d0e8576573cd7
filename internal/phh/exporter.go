package phh

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem/internal/fileutil"
	"github.com/lox/holdem/internal/game"
)

// Exporter is a game.EventSubscriber that writes every finished hand to
// its own .phh file in a directory. Voided hands are dropped.
type Exporter struct {
	dir    string
	table  string
	logger *log.Logger

	mu      sync.Mutex
	current *game.HandRecord
	written int
	err     error
}

// NewExporter creates dir if needed. Files are named after table and the
// hand number.
func NewExporter(dir, table string, logger *log.Logger) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create phh directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{dir: dir, table: table, logger: logger}, nil
}

// OnEvent implements game.EventSubscriber
func (x *Exporter) OnEvent(event game.GameEvent) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := event.(game.HandStartEvent); ok {
		x.current = &game.HandRecord{Number: event.HandNumber()}
	}
	if x.current == nil || x.current.Number != event.HandNumber() {
		return
	}
	x.current.Events = append(x.current.Events, event)

	if _, ok := event.(game.HandEndEvent); ok {
		rec := *x.current
		x.current = nil
		if err := x.write(rec); err != nil {
			x.logger.Warn("Failed to export hand", "hand", rec.Number, "error", err)
			if x.err == nil {
				x.err = err
			}
		}
	}
}

func (x *Exporter) write(rec game.HandRecord) error {
	hand, err := FromRecord(rec, x.table)
	if err != nil {
		return err
	}
	data, err := EncodeToBytes(hand)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(x.Path(rec.Number), data, 0o644); err != nil {
		return err
	}
	x.written++
	return nil
}

// Path returns the file a hand is written to
func (x *Exporter) Path(hand int) string {
	name := fmt.Sprintf("hand-%05d.phh", hand)
	if x.table != "" {
		name = x.table + "-" + name
	}
	return filepath.Join(x.dir, name)
}

// Written returns how many hands were exported
func (x *Exporter) Written() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.written
}

// Err returns the first export failure, if any
func (x *Exporter) Err() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.err
}
