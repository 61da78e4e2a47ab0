// Package registry implements the table registry: table lifecycle
// (creation, lookup, listing, and reaping of long-empty tables). Unlike the
// teacher's rules.EngineRegistry — a process-wide sync.Once singleton
// mapping game type to a rules engine — this registry is an ordinary
// injected service instance, constructed once by cmd/gameserver and handed
// to the HTTP/WebSocket layer, with no package-level state.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"poker-platform/internal/metrics"
	"poker-platform/internal/table"
)

var (
	ErrTableNotFound  = errors.New("registry: no table with this ID")
	ErrTableNameEmpty = errors.New("registry: table name must not be empty")
)

// Entry pairs a running table with the registry-level metadata that isn't
// the table controller's concern (visibility, display name, empty-since).
type Entry struct {
	ID         string
	Name       string
	Stakes     table.Config
	Public     bool
	Table      *table.Table
	CreatedAt  time.Time
	EmptySince time.Time
}

// Registry owns the set of live tables for one game server process.
type Registry struct {
	mu      sync.RWMutex
	tables  map[string]*Entry
	emptyTTL time.Duration

	seeds table.SeedSource
	bots  table.BotDecider
	sink  table.EventSink
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Registry. emptyTTL is how long a table may sit with zero
// seated players before the reaper stops and discards it; zero selects the
// default of 10 minutes.
func New(seeds table.SeedSource, bots table.BotDecider, sink table.EventSink, emptyTTL time.Duration, log zerolog.Logger) *Registry {
	if emptyTTL <= 0 {
		emptyTTL = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		tables:   make(map[string]*Entry),
		emptyTTL: emptyTTL,
		seeds:    seeds,
		bots:     bots,
		sink:     sink,
		log:      log.With().Str("component", "registry").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.wg.Add(1)
	go r.reapLoop()
	return r
}

// Close stops the reaper and every managed table.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.tables {
		e.Table.Stop()
	}
}

// CreateTable starts a new table and registers it under a fresh ID.
func (r *Registry) CreateTable(name string, cfg table.Config, public bool) (*Entry, error) {
	if name == "" {
		return nil, ErrTableNameEmpty
	}
	id := uuid.NewString()
	tbl := table.New(id, cfg, r.seeds, r.bots, r.sink, r.log)
	tbl.Start(r.ctx)

	entry := &Entry{
		ID:         id,
		Name:       name,
		Stakes:     cfg,
		Public:     public,
		Table:      tbl,
		CreatedAt:  time.Now(),
		EmptySince: time.Now(),
	}

	r.mu.Lock()
	r.tables[id] = entry
	metrics.ActiveTables.Set(float64(len(r.tables)))
	r.mu.Unlock()

	r.log.Info().Str("table_id", id).Str("name", name).Msg("table created")
	return entry, nil
}

// GetTable looks up a table by ID.
func (r *Registry) GetTable(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return e, nil
}

// ListPublic returns every public table's metadata, for lobby listings.
func (r *Registry) ListPublic() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.tables))
	for _, e := range r.tables {
		if e.Public {
			out = append(out, e)
		}
	}
	return out
}

// JoinTable seats a player at an existing table.
func (r *Registry) JoinTable(ctx context.Context, id, playerID, name string, buyIn int64, isBot bool) (int, error) {
	e, err := r.GetTable(id)
	if err != nil {
		return 0, err
	}
	seat, err := e.Table.AddPlayer(ctx, playerID, name, buyIn, isBot)
	if err == nil {
		r.touchOccupied(id)
	}
	return seat, err
}

// LeaveTable removes a player from an existing table.
func (r *Registry) LeaveTable(ctx context.Context, id, playerID string) error {
	e, err := r.GetTable(id)
	if err != nil {
		return err
	}
	return e.Table.RemovePlayer(ctx, playerID)
}

func (r *Registry) touchOccupied(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.tables[id]; ok {
		e.EmptySince = time.Time{}
	}
}

// reapLoop periodically removes tables that have had no seated players for
// longer than emptyTTL.
func (r *Registry) reapLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.reapOnce()
		}
	}
}

func (r *Registry) reapOnce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.tables {
		occupied, err := r.anySeated(e)
		if err != nil {
			continue
		}
		if occupied {
			e.EmptySince = time.Time{}
			continue
		}
		if e.EmptySince.IsZero() {
			e.EmptySince = time.Now()
			continue
		}
		if time.Since(e.EmptySince) >= r.emptyTTL {
			e.Table.Stop()
			delete(r.tables, id)
			metrics.ActiveTables.Set(float64(len(r.tables)))
			r.log.Info().Str("table_id", id).Msg("reaped empty table")
		}
	}
}

func (r *Registry) anySeated(e *Entry) (bool, error) {
	ctx, cancel := context.WithTimeout(r.ctx, 2*time.Second)
	defer cancel()
	view, err := e.Table.GetState(ctx, "")
	if err != nil {
		return false, err
	}
	for _, s := range view.Seats {
		if s != nil {
			return true, nil
		}
	}
	return false, nil
}
