package table

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"poker-platform/internal/engine"
)

type fixedSeed struct{ seed int64 }

func (f fixedSeed) SeedInt64() int64 { return f.seed }

type noSink struct{}

func (noSink) Publish(string, engine.Event) {}

func testConfig() Config {
	return Config{
		Config: engine.Config{
			SmallBlind: 5,
			BigBlind:   10,
			MaxSeats:   6,
			MinPlayers: 2,
		},
		MinBuyIn: 100,
		MaxBuyIn: 10000,
	}
}

func TestAddPlayerAssignsLowestFreeSeat(t *testing.T) {
	tbl := New("t1", testConfig(), fixedSeed{1}, nil, noSink{}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tbl.Start(ctx)
	defer tbl.Stop()

	seat, err := tbl.AddPlayer(ctx, "p1", "Alice", 1000, false)
	require.NoError(t, err)
	require.Equal(t, 0, seat)

	seat, err = tbl.AddPlayer(ctx, "p2", "Bob", 1000, false)
	require.NoError(t, err)
	require.Equal(t, 1, seat)

	require.NoError(t, tbl.RemovePlayer(ctx, "p1"))
	seat, err = tbl.AddPlayer(ctx, "p3", "Carol", 1000, false)
	require.NoError(t, err)
	require.Equal(t, 0, seat, "should reuse the lowest freed seat")
}

func TestAddPlayerRejectsDuplicateAndOutOfRangeBuyIn(t *testing.T) {
	tbl := New("t1", testConfig(), fixedSeed{1}, nil, noSink{}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tbl.Start(ctx)
	defer tbl.Stop()

	_, err := tbl.AddPlayer(ctx, "p1", "Alice", 1000, false)
	require.NoError(t, err)

	_, err = tbl.AddPlayer(ctx, "p1", "Alice", 1000, false)
	require.ErrorIs(t, err, ErrAlreadySeated)

	_, err = tbl.AddPlayer(ctx, "p2", "Bob", 1, false)
	require.ErrorIs(t, err, ErrBuyInOutOfRange)
}

func TestAutoStartAndPlayThroughHeadsUpHand(t *testing.T) {
	tbl := New("t1", testConfig(), fixedSeed{7}, nil, noSink{}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tbl.Start(ctx)
	defer tbl.Stop()

	_, err := tbl.AddPlayer(ctx, "p1", "Alice", 1000, false)
	require.NoError(t, err)
	_, err = tbl.AddPlayer(ctx, "p2", "Bob", 1000, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := tbl.GetState(ctx, "p1")
		require.NoError(t, err)
		return view.Phase == engine.PhasePreflop.String()
	}, 2*time.Second, 20*time.Millisecond, "hand should auto-start once two players are seated")

	view, err := tbl.GetState(ctx, "p1")
	require.NoError(t, err)
	actorID := view.Seats[view.CurrentActor].PlayerID

	require.NoError(t, tbl.SubmitAction(ctx, actorID, view.CurrentActor, engine.ActFold, 0))

	require.Eventually(t, func() bool {
		view, err := tbl.GetState(ctx, "p1")
		require.NoError(t, err)
		return view.Phase == engine.PhaseFinished.String()
	}, 2*time.Second, 20*time.Millisecond, "heads-up fold should end the hand immediately")
}

func TestRemovePlayerMidHandFreesSeatOnlyAfterHandConcludes(t *testing.T) {
	tbl := New("t1", testConfig(), fixedSeed{11}, nil, noSink{}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tbl.Start(ctx)
	defer tbl.Stop()

	_, err := tbl.AddPlayer(ctx, "p1", "Alice", 1000, false)
	require.NoError(t, err)
	_, err = tbl.AddPlayer(ctx, "p2", "Bob", 1000, false)
	require.NoError(t, err)
	seat3, err := tbl.AddPlayer(ctx, "p3", "Carol", 1000, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		view, err := tbl.GetState(ctx, "p1")
		require.NoError(t, err)
		return view.Phase == engine.PhasePreflop.String()
	}, 2*time.Second, 20*time.Millisecond, "hand should auto-start once players are seated")

	require.NoError(t, tbl.RemovePlayer(ctx, "p3"))

	view, err := tbl.GetState(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, view.Seats[seat3], "seat removed mid-hand must stay occupied until the hand concludes")
	require.Equal(t, "sitting_out", view.Seats[seat3].State)
	require.NotEqual(t, engine.PhaseFinished.String(), view.Phase, "removing the player must not itself end a hand with other active players left")

	// Play the remaining two players down until the hand ends.
	require.Eventually(t, func() bool {
		view, err := tbl.GetState(ctx, "p1")
		require.NoError(t, err)
		if view.Phase == engine.PhaseFinished.String() {
			return true
		}
		actorID := view.Seats[view.CurrentActor].PlayerID
		_ = tbl.SubmitAction(ctx, actorID, view.CurrentActor, engine.ActFold, 0)
		return false
	}, 2*time.Second, 20*time.Millisecond, "hand should reach a conclusion")

	view, err = tbl.GetState(ctx, "p1")
	require.NoError(t, err)
	require.Nil(t, view.Seats[seat3], "seat must be freed once the hand concludes")
}
