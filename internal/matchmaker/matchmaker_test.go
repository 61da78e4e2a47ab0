package matchmaker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"poker-platform/internal/engine"
	"poker-platform/internal/registry"
	"poker-platform/internal/table"
)

type fixedSeed struct{ seed int64 }

func (f fixedSeed) SeedInt64() int64 { return f.seed }

type noSink struct{}

func (noSink) Publish(string, engine.Event) {}

func testTableConfig(string) table.Config {
	return table.Config{
		Config:   engine.Config{SmallBlind: 5, BigBlind: 10, MaxSeats: 6, MinPlayers: 2},
		MinBuyIn: 100,
		MaxBuyIn: 10000,
	}
}

func TestDrainFormsTableOnceMinimumReached(t *testing.T) {
	reg := registry.New(fixedSeed{1}, nil, noSink{}, time.Minute, zerolog.Nop())
	defer reg.Close()

	mm := New(reg, Config{SweepInterval: 10 * time.Millisecond, MinPlayersToStart: 2, MaxSeatsPerTable: 6}, testTableConfig, zerolog.Nop())
	defer mm.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results := make(chan error, 2)
	go func() {
		_, _, err := mm.Enqueue(ctx, "5/10", "p1", "Alice", 500)
		results <- err
	}()
	go func() {
		_, _, err := mm.Enqueue(ctx, "5/10", "p2", "Bob", 500)
		results <- err
	}()

	for i := 0; i < 2; i++ {
		require.NoError(t, <-results)
	}
	require.Len(t, reg.ListPublic(), 0, "matched tables are private, not lobby-listed")
}

func TestBackfillAfterTimeoutPadsWithBots(t *testing.T) {
	reg := registry.New(fixedSeed{1}, nil, noSink{}, time.Minute, zerolog.Nop())
	defer reg.Close()

	mm := New(reg, Config{
		SweepInterval:      10 * time.Millisecond,
		MatchmakingTimeout: 20 * time.Millisecond,
		AIFillDelayMin:     10 * time.Millisecond,
		AIFillDelayMax:     15 * time.Millisecond,
		MinPlayersToStart:  2,
		MaxSeatsPerTable:   6,
	}, testTableConfig, zerolog.Nop())
	defer mm.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tableID, seat, err := mm.Enqueue(ctx, "5/10", "p1", "Alice", 500)
	require.NoError(t, err)
	require.Equal(t, 0, seat)
	require.NotEmpty(t, tableID)
}
