package table

import (
	"time"

	"poker-platform/internal/engine"
)

// tick runs periodically on the table's own goroutine: it starts a new hand
// once the cooldown after the last one has elapsed, and it forces a timed-
// out actor, bot or human, to check when nothing is owed and to fold
// otherwise.
func (t *Table) tick() {
	switch t.eng.State.Phase {
	case engine.PhaseWaiting, engine.PhaseFinished:
		t.maybeAutoStart()
	default:
		t.maybeForceTimedOutActor()
	}
}

func (t *Table) maybeAutoStart() {
	if time.Since(t.handEndedAt) < t.Config.AutoStartCooldown {
		return
	}
	seed := int64(0)
	if t.seeds != nil {
		seed = t.seeds.SeedInt64()
	}
	if err := t.eng.StartHand(t.nextDealerSeat(), seed); err != nil {
		return
	}
	t.dealerSeat = t.eng.State.DealerSeat
	t.drainEvents()
	t.afterEngineStep()
}

// nextDealerSeat advances the button to the next occupied, eligible seat
// clockwise of the previous dealer.
func (t *Table) nextDealerSeat() int {
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		idx := (t.dealerSeat + i) % n
		if t.seats[idx] != nil && t.seats[idx].Chips > 0 && t.seats[idx].State != engine.StateSittingOut {
			return idx
		}
	}
	return t.dealerSeat
}

func (t *Table) maybeForceTimedOutActor() {
	if t.eng.State.ActionDeadline.IsZero() || time.Now().Before(t.eng.State.ActionDeadline) {
		return
	}
	seat := t.eng.State.CurrentActor
	p := t.seats[seat]
	if p == nil {
		return
	}
	action := engine.ActFold
	if t.eng.State.CurrentBet == p.CurrentWager {
		action = engine.ActCheck
	}
	t.eng.ProcessAction(p.ID, seat, action, 0)
	t.drainEvents()
	t.afterEngineStep()
}

// afterEngineStep runs bookkeeping common to every engine mutation: setting
// up the next action deadline, scheduling a bot's turn, and recording when
// a hand finishes so the auto-start cooldown can be measured from it.
func (t *Table) afterEngineStep() {
	if t.eng.State.Phase == engine.PhaseFinished {
		t.handEndedAt = time.Now()
		t.cancelBotTimer()
		t.freePendingRemovals()
		return
	}
	if !isActiveHandPhase(t.eng.State.Phase) {
		return
	}

	t.eng.State.ActionDeadline = time.Now().Add(t.Config.ActionTimeout)

	seat := t.eng.State.CurrentActor
	p := t.seats[seat]
	if p == nil || !p.IsBot {
		t.cancelBotTimer()
		return
	}
	t.scheduleBotTurn(seat)
}

// freePendingRemovals clears any seat that was left occupied (sitting out)
// by a mid-hand RemovePlayer, now that the hand they were folded out of has
// concluded.
func (t *Table) freePendingRemovals() {
	for i, p := range t.seats {
		if p != nil && p.PendingRemoval {
			t.seats[i] = nil
		}
	}
}
