package engine

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, numSeats int, cfg Config) *Engine {
	t.Helper()
	e := NewEngine(cfg, zerolog.Nop())
	seats := make([]*Player, numSeats)
	e.SetSeats(seats)
	return e
}

func seatPlayer(e *Engine, idx int, id string, chips int64) {
	e.Seats[idx] = &Player{ID: id, Name: id, SeatIndex: idx, Chips: chips, State: StateWaiting}
}

func defaultConfig() Config {
	return Config{SmallBlind: 5, BigBlind: 10, MaxSeats: 6, MinPlayers: 2}
}

func TestHeadsUpFold(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 1000)
	seatPlayer(e, 1, "p2", 1000)

	if err := e.StartHand(0, 1); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if e.State.SmallBlindSeat != 0 || e.State.BigBlindSeat != 1 {
		t.Fatalf("heads-up blinds: dealer should be SB, got SB=%d BB=%d", e.State.SmallBlindSeat, e.State.BigBlindSeat)
	}
	if e.State.CurrentActor != 0 {
		t.Fatalf("heads-up: dealer/SB should act first preflop, CurrentActor=%d", e.State.CurrentActor)
	}

	if err := e.ProcessAction("p1", 0, ActFold, 0); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if e.State.Phase != PhaseFinished {
		t.Fatalf("expected hand finished after heads-up fold, got phase %v", e.State.Phase)
	}
	if e.Seats[1].Chips != 1005 {
		t.Fatalf("winner should gain the small blind, got chips=%d", e.Seats[1].Chips)
	}
	if e.Seats[0].Chips != 995 {
		t.Fatalf("loser should be down the small blind, got chips=%d", e.Seats[0].Chips)
	}
}

func TestThreeWaySidePots(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 100)
	seatPlayer(e, 1, "p2", 200)
	seatPlayer(e, 2, "p3", 300)

	if err := e.StartHand(0, 7); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	// p1 (seat0, dealer) is SB=5, p2(seat1)=BB? with 3 players: SB=active[1], BB=active[2].
	// active order clockwise from dealer(0): [0,1,2]; SB=1(p2), BB=2(p3).
	// First to act preflop = seat after BB = seat0 (p1).
	if err := e.ProcessAction("p1", 0, ActAllIn, 0); err != nil {
		t.Fatalf("p1 all-in: %v", err)
	}
	if err := e.ProcessAction("p2", 1, ActAllIn, 0); err != nil {
		t.Fatalf("p2 all-in: %v", err)
	}
	if err := e.ProcessAction("p3", 2, ActAllIn, 0); err != nil {
		t.Fatalf("p3 all-in: %v", err)
	}

	if e.State.Phase != PhaseFinished {
		t.Fatalf("expected hand to run out to finished, got phase %v", e.State.Phase)
	}

	var total int64
	for _, p := range e.Seats {
		if p != nil {
			total += p.Chips
		}
	}
	if total != 600 {
		t.Fatalf("chip conservation violated: total=%d, want 600", total)
	}
	if len(e.Pots) != 3 {
		t.Fatalf("expected 3 pot layers, got %d", len(e.Pots))
	}
	if e.Pots[0].Amount != 300 || e.Pots[1].Amount != 200 || e.Pots[2].Amount != 100 {
		t.Fatalf("unexpected pot layer amounts: %+v", e.Pots)
	}
}

func TestAllInUnderRaiseDoesNotReopenAction(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 1000)
	seatPlayer(e, 1, "p2", 1000)
	seatPlayer(e, 2, "p3", 15) // can only short all-in over the BB

	if err := e.StartHand(0, 3); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	// active order from dealer(0): [0,1,2]; SB=1(p2), BB=2(p3). First actor = seat0 (p1).
	if err := e.ProcessAction("p1", 0, ActRaise, 30); err != nil {
		t.Fatalf("p1 raise to 30: %v", err)
	}
	// p2 (SB) acts next, folds.
	if err := e.ProcessAction("p2", 1, ActFold, 0); err != nil {
		t.Fatalf("p2 fold: %v", err)
	}
	// p3 (BB, 15 chips total, already posted 10 BB) goes all-in for the remaining 5: total wager 15 < 30.
	if err := e.ProcessAction("p3", 2, ActAllIn, 0); err != nil {
		t.Fatalf("p3 all-in: %v", err)
	}
	if e.Seats[2].State != StateAllIn {
		t.Fatalf("p3 should be all-in")
	}
	// Action should not reopen to p1: street should now be closed (only p1 left voluntary, but
	// p1 already matched the bet and there is nobody left owing action), hand should have
	// advanced past preflop or finished, not be waiting on p1 again for this under-raise.
	if e.State.Phase == PhasePreflop && e.State.CurrentActor == 0 {
		t.Fatalf("all-in under the raise incorrectly reopened action to the original raiser")
	}
}

func TestShortAllInRaiseReQueuesAlreadyActedPlayerForCallOnly(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 1000)
	seatPlayer(e, 1, "p2", 1000)
	seatPlayer(e, 2, "p3", 75) // can go all-in for exactly 75

	if err := e.StartHand(0, 3); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	// active order from dealer(0): [0,1,2]; SB=1(p2), BB=2(p3). First actor = seat0 (p1).
	if err := e.ProcessAction("p1", 0, ActRaise, 60); err != nil {
		t.Fatalf("p1 raise to 60: %v", err)
	}
	if err := e.ProcessAction("p2", 1, ActFold, 0); err != nil {
		t.Fatalf("p2 fold: %v", err)
	}
	// p3 (BB, 75 chips total) shoves all-in for 75: raises CurrentBet from 60 to
	// 75, a raise size of 15 that falls short of MinRaise (50), so it does not
	// reopen the action.
	if err := e.ProcessAction("p3", 2, ActAllIn, 0); err != nil {
		t.Fatalf("p3 all-in: %v", err)
	}
	if e.State.CurrentBet != 75 {
		t.Fatalf("CurrentBet should be raised to 75 by the short all-in, got %d", e.State.CurrentBet)
	}

	// p1 already acted (raised to 60) and must be re-prompted to match the
	// gap, but is restricted to call or fold.
	if e.State.Phase != PhasePreflop || e.State.CurrentActor != 0 {
		t.Fatalf("p1 should be re-prompted after the short all-in raised the bet, got phase=%v actor=%d", e.State.Phase, e.State.CurrentActor)
	}
	if err := e.ProcessAction("p1", 0, ActRaise, 200); err != ErrActionCappedToCall {
		t.Fatalf("p1 should be capped to call/fold, got err=%v", err)
	}
	if err := e.ProcessAction("p1", 0, ActCall, 0); err != nil {
		t.Fatalf("p1 call: %v", err)
	}
	if e.Seats[0].CurrentWager != 75 {
		t.Fatalf("p1 should have matched the bet to 75 after calling, got %d", e.Seats[0].CurrentWager)
	}
}

func TestCannotActOutOfTurn(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 1000)
	seatPlayer(e, 1, "p2", 1000)
	if err := e.StartHand(0, 9); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	wrongSeat := 1 - e.State.CurrentActor
	wrongID := e.Seats[wrongSeat].ID
	if err := e.ProcessAction(wrongID, wrongSeat, ActCheck, 0); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestRaiseBelowMinimumRejected(t *testing.T) {
	e := newTestEngine(t, 6, defaultConfig())
	seatPlayer(e, 0, "p1", 1000)
	seatPlayer(e, 1, "p2", 1000)
	if err := e.StartHand(0, 11); err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	actor := e.State.CurrentActor
	id := e.Seats[actor].ID
	// Min raise preflop is to 20 (BB 10 + min raise 10); 15 is short of that.
	if err := e.ProcessAction(id, actor, ActRaise, 15); err != ErrRaiseTooSmall {
		t.Fatalf("expected ErrRaiseTooSmall, got %v", err)
	}
}
