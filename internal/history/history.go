// Package history retains completed hands for client-side replay and
// optionally streams them downstream for durable storage and analytics.
package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"poker-platform/internal/engine"
)

// Record is one completed hand, as reported by the engine's
// EventHandComplete payload, enriched with table context.
type Record struct {
	TableID   string
	HandNumber int
	Winners   []engine.Winner
	Pots      []engine.Pot
	FinishedAt time.Time
}

// Sink receives every completed hand for downstream persistence (Kafka,
// ClickHouse, ...). Publish must not block the caller for long; slow sinks
// should buffer internally.
type Sink interface {
	Publish(r Record)
}

// Store is an in-memory ring buffer of recent hand histories per table,
// bounded so memory use doesn't grow with table lifetime. An optional Sink
// is fanned out to for durable storage.
type Store struct {
	mu        sync.Mutex
	perTable  map[string][]Record
	maxPerTable int

	sink Sink
	log  zerolog.Logger
}

// New constructs a Store retaining up to maxPerTable records per table
// before evicting the oldest. sink may be nil.
func New(maxPerTable int, sink Sink, log zerolog.Logger) *Store {
	if maxPerTable <= 0 {
		maxPerTable = 100
	}
	return &Store{
		perTable:    make(map[string][]Record),
		maxPerTable: maxPerTable,
		sink:        sink,
		log:         log.With().Str("component", "history").Logger(),
	}
}

// Append records a completed hand, evicting the oldest entry for the table
// once maxPerTable is exceeded, and fans it out to the configured sink.
func (s *Store) Append(r Record) {
	s.mu.Lock()
	records := append(s.perTable[r.TableID], r)
	if len(records) > s.maxPerTable {
		records = records[len(records)-s.maxPerTable:]
	}
	s.perTable[r.TableID] = records
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Publish(r)
	}
}

// Recent returns up to n most recent hands for tableID, newest last.
func (s *Store) Recent(tableID string, n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.perTable[tableID]
	if n <= 0 || n > len(records) {
		n = len(records)
	}
	out := make([]Record, n)
	copy(out, records[len(records)-n:])
	return out
}

// OnHandComplete adapts an engine.Event of type EventHandComplete into a
// history Record. It has the signature of table.EventSink's Publish, so a
// sink can forward every event to it (cmd/gameserver's multiSink does).
func (s *Store) OnHandComplete(tableID string, ev engine.Event) {
	if ev.Type != engine.EventHandComplete {
		return
	}
	payload, ok := ev.Payload.(engine.HandCompletePayload)
	if !ok {
		s.log.Warn().Str("table_id", tableID).Msg("hand complete event had unexpected payload type")
		return
	}
	s.Append(Record{
		TableID:    tableID,
		HandNumber: payload.HandNumber,
		Winners:    payload.Winners,
		Pots:       payload.Pots,
		FinishedAt: time.Now(),
	})
}
