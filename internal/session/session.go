// Package session implements the reconnection ledger: a short-lived record
// of where a disconnected player was sitting, so a reconnect within the
// grace window can be routed back to the same table and seat instead of
// being treated as a fresh join.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry records one disconnected player's last known position.
type Entry struct {
	PlayerID          string
	TableID           string
	SeatIndex         int
	DisconnectAt      time.Time
	ExpiresAt         time.Time
	LastObservedChips int64

	// LastObservedState is the JSON-encoded public table view (table.StateView)
	// captured at disconnect time. Kept as an opaque blob rather than a typed
	// reference to the table package so a reconnect can be replayed
	// immediately, before the table's next tick, without this package
	// depending on table's types or the table still being reachable (e.g.
	// across a process restart, restored from Store).
	LastObservedState []byte
}

// Store is implemented by anything that can durably persist ledger entries
// across process restarts. Postgres is the only production backend; tests
// and single-process deployments can pass nil.
type Store interface {
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context, playerID string) error
	LoadAll(ctx context.Context) ([]Entry, error)
}

// Ledger is the in-memory reconnection ledger, optionally backed by Store
// for crash recovery. A background reaper evicts entries whose grace
// window has elapsed.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]Entry

	grace time.Duration
	store Store
	log   zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Ledger with the given reconnection grace window. store
// may be nil to run purely in-memory.
func New(grace time.Duration, store Store, log zerolog.Logger) *Ledger {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	l := &Ledger{
		entries: make(map[string]Entry),
		grace:   grace,
		store:   store,
		log:     log.With().Str("component", "session_ledger").Logger(),
		stopCh:  make(chan struct{}),
	}
	if store != nil {
		if restored, err := store.LoadAll(context.Background()); err == nil {
			for _, e := range restored {
				if time.Now().Before(e.ExpiresAt) {
					l.entries[e.PlayerID] = e
				}
			}
		} else {
			l.log.Warn().Err(err).Msg("failed to restore reconnection ledger from store")
		}
	}
	l.wg.Add(1)
	go l.reapLoop()
	return l
}

func (l *Ledger) Close() {
	close(l.stopCh)
	l.wg.Wait()
}

// Disconnect records that playerID dropped from tableID/seatIndex, starting
// the reconnection grace window. lastState is the JSON-encoded public table
// view at disconnect time (may be nil if unavailable), stored so a reconnect
// can be answered immediately without waiting on a fresh query to the table.
func (l *Ledger) Disconnect(ctx context.Context, playerID, tableID string, seatIndex int, chips int64, lastState []byte) {
	now := time.Now()
	e := Entry{
		PlayerID:          playerID,
		TableID:           tableID,
		SeatIndex:         seatIndex,
		DisconnectAt:      now,
		ExpiresAt:         now.Add(l.grace),
		LastObservedChips: chips,
		LastObservedState: lastState,
	}

	l.mu.Lock()
	l.entries[playerID] = e
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Save(ctx, e); err != nil {
			l.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to persist disconnect entry")
		}
	}
}

// Resolve looks up a still-valid ledger entry for playerID and, if found,
// removes it (a reconnect consumes the grace window; it does not extend
// it). The bool reports whether an entry was found and not yet expired.
func (l *Ledger) Resolve(ctx context.Context, playerID string) (Entry, bool) {
	l.mu.Lock()
	e, ok := l.entries[playerID]
	if ok {
		delete(l.entries, playerID)
	}
	l.mu.Unlock()

	if !ok || time.Now().After(e.ExpiresAt) {
		return Entry{}, false
	}

	if l.store != nil {
		if err := l.store.Delete(ctx, playerID); err != nil {
			l.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to clear resolved ledger entry")
		}
	}
	return e, true
}

// Cancel discards a pending entry without resolving it, e.g. once a seat is
// given up for good (the player folded out and left by choice).
func (l *Ledger) Cancel(ctx context.Context, playerID string) {
	l.mu.Lock()
	delete(l.entries, playerID)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Delete(ctx, playerID); err != nil {
			l.log.Warn().Err(err).Str("player_id", playerID).Msg("failed to delete cancelled ledger entry")
		}
	}
}

func (l *Ledger) reapLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.reapOnce()
		}
	}
}

func (l *Ledger) reapOnce() {
	now := time.Now()
	var expired []string

	l.mu.Lock()
	for id, e := range l.entries {
		if now.After(e.ExpiresAt) {
			delete(l.entries, id)
			expired = append(expired, id)
		}
	}
	l.mu.Unlock()

	if l.store == nil {
		return
	}
	ctx := context.Background()
	for _, id := range expired {
		if err := l.store.Delete(ctx, id); err != nil {
			l.log.Warn().Err(err).Str("player_id", id).Msg("failed to delete expired ledger entry")
		}
	}
}
