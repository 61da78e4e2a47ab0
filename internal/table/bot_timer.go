package table

import (
	"math/rand"
	"time"

	"poker-platform/internal/engine"
)

// scheduleBotTurn arms a one-shot timer that submits the bot's decided
// action after a human-like delay. The timer is tagged with the hand
// number and seat it was armed for; cancelBotTimer (called whenever the
// actor changes, the hand ends, or a human acts first) stops it before it
// can fire against stale state.
func (t *Table) scheduleBotTurn(seat int) {
	t.cancelBotTimer()
	if t.bots == nil {
		return
	}
	handNumber := t.eng.State.HandNumber
	delay := t.randomBotDelay()

	t.botTimerHand = handNumber
	t.botTimerSeat = seat
	playerID := t.botPlayerID(seat)
	t.botTimer = time.AfterFunc(delay, func() {
		select {
		case t.actionCh <- actionReq{
			playerID:     playerID,
			seat:         seat,
			isBotTrigger: true,
			resp:         make(chan error, 1),
		}:
		case <-t.stopCh:
		}
	})
}

// botPlayerID reads the seated player's ID. It is only called on the table
// goroutine: scheduleBotTurn resolves the ID before arming the timer, so the
// AfterFunc closure never reads t.seats. The decision itself is made later,
// back on the table goroutine, by runBotDecision.
func (t *Table) botPlayerID(seat int) string {
	if p := t.seats[seat]; p != nil {
		return p.ID
	}
	return ""
}

func (t *Table) cancelBotTimer() {
	if t.botTimer != nil {
		t.botTimer.Stop()
		t.botTimer = nil
	}
}

func (t *Table) randomBotDelay() time.Duration {
	lo, hi := t.Config.BotActDelayMin, t.Config.BotActDelayMax
	if lo <= 0 {
		lo = 800 * time.Millisecond
	}
	if hi <= lo {
		hi = lo + 1200*time.Millisecond
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

// runBotDecision is invoked on the table's own goroutine (from the action
// channel case in loop) for every actionReq tagged isBotTrigger, resolving
// it via the injected BotDecider against the current, authoritative engine
// state. If the hand or actor has moved on since the timer was armed (a
// human acted first, or a new hand started), the request is stale and
// folds harmlessly — ProcessAction will in fact reject it with
// ErrNotYourTurn, since it is no longer this seat's turn.
func (t *Table) runBotDecision(req actionReq) actionReq {
	if t.bots == nil || t.botTimerHand != t.eng.State.HandNumber || t.botTimerSeat != req.seat {
		req.action = engine.ActFold
		req.amount = 0
		return req
	}
	view := t.buildState(req.playerID)
	action, amount := t.bots.Decide(view, req.seat)
	req.action = action
	req.amount = amount
	return req
}
