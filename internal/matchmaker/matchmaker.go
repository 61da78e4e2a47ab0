// Package matchmaker groups queued players into new tables by stake level,
// backfilling with bots when a bucket has waited too long to fill
// naturally.
package matchmaker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"poker-platform/internal/metrics"
	"poker-platform/internal/registry"
	"poker-platform/internal/table"
)

// Config controls batch sizing and the bot-backfill fallback.
type Config struct {
	SweepInterval      time.Duration
	MatchmakingTimeout time.Duration
	AIFillDelayMin     time.Duration
	AIFillDelayMax     time.Duration
	MinPlayersToStart  int
	MaxSeatsPerTable   int
}

func (c Config) withDefaults() Config {
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Second
	}
	if c.MatchmakingTimeout <= 0 {
		c.MatchmakingTimeout = 60 * time.Second
	}
	if c.AIFillDelayMin <= 0 {
		c.AIFillDelayMin = 5 * time.Second
	}
	if c.AIFillDelayMax <= c.AIFillDelayMin {
		c.AIFillDelayMax = c.AIFillDelayMin + 5*time.Second
	}
	if c.MinPlayersToStart <= 0 {
		c.MinPlayersToStart = 2
	}
	if c.MaxSeatsPerTable <= 0 {
		c.MaxSeatsPerTable = 6
	}
	return c
}

// ticket is one queued player, waiting in a single stake bucket.
type ticket struct {
	playerID  string
	name      string
	buyIn     int64
	joinedAt  time.Time
	cancelled bool
	result    chan matchResult
}

type matchResult struct {
	tableID string
	seat    int
	err     error
}

// Matchmaker queues players by bucket key (typically a stakes descriptor
// such as "5/10") and periodically forms tables from whoever is waiting.
type Matchmaker struct {
	cfg Config
	reg *registry.Registry
	log zerolog.Logger

	tableConfigFor func(bucket string) table.Config

	mu      sync.Mutex
	queues  map[string][]*ticket

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Matchmaker. tableConfigFor builds the table.Config for a
// newly formed table in a given bucket (stakes, buy-in bounds, seat count).
func New(reg *registry.Registry, cfg Config, tableConfigFor func(bucket string) table.Config, log zerolog.Logger) *Matchmaker {
	m := &Matchmaker{
		cfg:            cfg.withDefaults(),
		reg:            reg,
		tableConfigFor: tableConfigFor,
		queues:         make(map[string][]*ticket),
		stopCh:         make(chan struct{}),
		log:            log.With().Str("component", "matchmaker").Logger(),
	}
	m.wg.Add(1)
	go m.sweepLoop()
	return m
}

func (m *Matchmaker) Close() {
	close(m.stopCh)
	m.wg.Wait()
}

// Enqueue blocks until the player is seated at a newly formed table (either
// by filling naturally or by bot backfill after the matchmaking timeout),
// or ctx is cancelled.
func (m *Matchmaker) Enqueue(ctx context.Context, bucket, playerID, name string, buyIn int64) (tableID string, seat int, err error) {
	tk := &ticket{
		playerID: playerID,
		name:     name,
		buyIn:    buyIn,
		joinedAt: time.Now(),
		result:   make(chan matchResult, 1),
	}

	m.mu.Lock()
	m.queues[bucket] = append(m.queues[bucket], tk)
	m.mu.Unlock()

	select {
	case r := <-tk.result:
		return r.tableID, r.seat, r.err
	case <-ctx.Done():
		m.cancel(bucket, tk)
		return "", 0, ctx.Err()
	}
}

func (m *Matchmaker) cancel(bucket string, target *ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tickets := m.queues[bucket]
	for i, tk := range tickets {
		if tk == target {
			tk.cancelled = true
			m.queues[bucket] = append(tickets[:i], tickets[i+1:]...)
			return
		}
	}
}

func (m *Matchmaker) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepOnce()
		}
	}
}

func (m *Matchmaker) sweepOnce() {
	for bucket := range m.snapshotBuckets() {
		m.drainBucket(bucket)
		m.maybeBackfill(bucket)
	}
	m.reportQueueDepth()
}

func (m *Matchmaker) reportQueueDepth() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for bucket, tickets := range m.queues {
		metrics.MatchmakingQueueDepth.WithLabelValues(bucket).Set(float64(len(tickets)))
	}
}

func (m *Matchmaker) snapshotBuckets() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.queues))
	for b := range m.queues {
		out[b] = true
	}
	return out
}

// drainBucket forms a table from the oldest tickets in bucket, up to
// MaxSeatsPerTable, whenever at least MinPlayersToStart are waiting.
func (m *Matchmaker) drainBucket(bucket string) {
	batch := m.takeBatch(bucket, m.cfg.MinPlayersToStart, m.cfg.MaxSeatsPerTable)
	if batch == nil {
		return
	}
	m.formTable(bucket, batch, 0)
}

func (m *Matchmaker) takeBatch(bucket string, minSize, maxSize int) []*ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	tickets := m.queues[bucket]
	if len(tickets) < minSize {
		return nil
	}
	n := len(tickets)
	if n > maxSize {
		n = maxSize
	}
	batch := append([]*ticket(nil), tickets[:n]...)
	m.queues[bucket] = tickets[n:]
	return batch
}

// maybeBackfill forms an undersized table padded out with bots once the
// oldest waiting ticket in bucket has exceeded MatchmakingTimeout.
func (m *Matchmaker) maybeBackfill(bucket string) {
	m.mu.Lock()
	tickets := m.queues[bucket]
	if len(tickets) == 0 || time.Since(tickets[0].joinedAt) < m.cfg.MatchmakingTimeout {
		m.mu.Unlock()
		return
	}
	batch := append([]*ticket(nil), tickets...)
	m.queues[bucket] = nil
	m.mu.Unlock()

	botsNeeded := m.cfg.MinPlayersToStart - len(batch)
	if botsNeeded < 0 {
		botsNeeded = 0
	}
	delay := m.cfg.AIFillDelayMin + time.Duration(rand.Int63n(int64(m.cfg.AIFillDelayMax-m.cfg.AIFillDelayMin)+1))
	time.AfterFunc(delay, func() {
		m.formTable(bucket, batch, botsNeeded)
	})
}

func (m *Matchmaker) formTable(bucket string, batch []*ticket, botsNeeded int) {
	cfg := m.tableConfigFor(bucket)
	entry, err := m.reg.CreateTable(fmt.Sprintf("matched-%s", bucket), cfg, false)
	if err != nil {
		for _, tk := range batch {
			tk.result <- matchResult{err: err}
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, tk := range batch {
		seat, err := m.reg.JoinTable(ctx, entry.ID, tk.playerID, tk.name, tk.buyIn, false)
		tk.result <- matchResult{tableID: entry.ID, seat: seat, err: err}
		metrics.MatchmakingWaitSeconds.WithLabelValues(bucket).Observe(time.Since(tk.joinedAt).Seconds())
	}
	for i := 0; i < botsNeeded; i++ {
		botID := fmt.Sprintf("bot-%s-%d", entry.ID, i)
		_, _ = m.reg.JoinTable(ctx, entry.ID, botID, botDisplayName(i), cfg.MinBuyIn, true)
	}
	if botsNeeded > 0 {
		metrics.BotBackfills.WithLabelValues(bucket).Add(float64(botsNeeded))
	}
	m.log.Info().Str("table_id", entry.ID).Int("players", len(batch)).Int("bots", botsNeeded).Msg("table formed by matchmaker")
}

func botDisplayName(i int) string {
	names := []string{"Ace", "Duke", "Maverick", "Shark", "Cyrus", "Nova"}
	return names[i%len(names)]
}
