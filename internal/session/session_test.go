package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDisconnectThenResolveWithinGrace(t *testing.T) {
	l := New(time.Minute, nil, zerolog.Nop())
	defer l.Close()

	l.Disconnect(context.Background(), "p1", "table-1", 3, 500, []byte(`{"phase":"preflop"}`))

	e, ok := l.Resolve(context.Background(), "p1")
	require.True(t, ok)
	require.Equal(t, "table-1", e.TableID)
	require.Equal(t, 3, e.SeatIndex)
	require.Equal(t, int64(500), e.LastObservedChips)
	require.Equal(t, []byte(`{"phase":"preflop"}`), e.LastObservedState)

	_, ok = l.Resolve(context.Background(), "p1")
	require.False(t, ok, "resolving consumes the entry")
}

func TestResolveAfterExpiryFails(t *testing.T) {
	l := New(10*time.Millisecond, nil, zerolog.Nop())
	defer l.Close()

	l.Disconnect(context.Background(), "p1", "table-1", 0, 100, nil)
	time.Sleep(30 * time.Millisecond)

	_, ok := l.Resolve(context.Background(), "p1")
	require.False(t, ok)
}

func TestResolveUnknownPlayerFails(t *testing.T) {
	l := New(time.Minute, nil, zerolog.Nop())
	defer l.Close()

	_, ok := l.Resolve(context.Background(), "ghost")
	require.False(t, ok)
}

func TestReapOnceEvictsExpiredEntries(t *testing.T) {
	l := New(10*time.Millisecond, nil, zerolog.Nop())
	defer l.Close()

	l.Disconnect(context.Background(), "p1", "table-1", 0, 100, nil)
	time.Sleep(30 * time.Millisecond)
	l.reapOnce()

	l.mu.Lock()
	_, stillThere := l.entries["p1"]
	l.mu.Unlock()
	require.False(t, stillThere)
}

func TestCancelDiscardsEntry(t *testing.T) {
	l := New(time.Minute, nil, zerolog.Nop())
	defer l.Close()

	l.Disconnect(context.Background(), "p1", "table-1", 0, 100, nil)
	l.Cancel(context.Background(), "p1")

	_, ok := l.Resolve(context.Background(), "p1")
	require.False(t, ok)
}
