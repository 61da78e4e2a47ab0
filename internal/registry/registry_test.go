package registry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"poker-platform/internal/engine"
	"poker-platform/internal/table"
)

type fixedSeed struct{ seed int64 }

func (f fixedSeed) SeedInt64() int64 { return f.seed }

type noSink struct{}

func (noSink) Publish(string, engine.Event) {}

func stakesConfig() table.Config {
	return table.Config{
		Config: engine.Config{SmallBlind: 5, BigBlind: 10, MaxSeats: 6, MinPlayers: 2},
		MinBuyIn: 100,
		MaxBuyIn: 10000,
	}
}

func TestCreateAndJoinTable(t *testing.T) {
	reg := New(fixedSeed{1}, nil, noSink{}, time.Minute, zerolog.Nop())
	defer reg.Close()

	entry, err := reg.CreateTable("Main", stakesConfig(), true)
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	seat, err := reg.JoinTable(ctx, entry.ID, "p1", "Alice", 500, false)
	require.NoError(t, err)
	require.Equal(t, 0, seat)

	listed := reg.ListPublic()
	require.Len(t, listed, 1)
	require.Equal(t, entry.ID, listed[0].ID)
}

func TestJoinUnknownTableFails(t *testing.T) {
	reg := New(fixedSeed{1}, nil, noSink{}, time.Minute, zerolog.Nop())
	defer reg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := reg.JoinTable(ctx, "does-not-exist", "p1", "Alice", 500, false)
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestReapOnceRemovesLongEmptyTable(t *testing.T) {
	reg := New(fixedSeed{1}, nil, noSink{}, time.Millisecond, zerolog.Nop())
	defer reg.Close()

	entry, err := reg.CreateTable("Empty", stakesConfig(), true)
	require.NoError(t, err)

	// The empty-since clock starts at creation; the pass after the sleep
	// finds the table empty past the TTL.
	reg.reapOnce()
	time.Sleep(5 * time.Millisecond)
	reg.reapOnce()

	_, err = reg.GetTable(entry.ID)
	require.ErrorIs(t, err, ErrTableNotFound)
}
