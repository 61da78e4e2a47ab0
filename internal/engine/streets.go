package engine

// closeStreet is called once a betting round has no one left who owes
// action. It either advances to the next street, fast-forwards through the
// remaining streets when no further betting is possible, or moves to
// showdown.
func (e *Engine) closeStreet() {
	for _, seat := range e.nonFoldedSeats() {
		e.Seats[seat].CurrentWager = 0
	}

	if e.State.Phase == PhaseRiver {
		e.goToShowdown()
		return
	}

	if e.countVoluntaryActors() <= 1 {
		e.runOutRemainingStreets()
		return
	}

	e.advanceStreet()
}

// countVoluntaryActors counts non-folded players who still have chips
// behind and are not all-in — i.e. who could still make a decision.
func (e *Engine) countVoluntaryActors() int {
	n := 0
	for _, seat := range e.nonFoldedSeats() {
		if e.Seats[seat].State == StateActive {
			n++
		}
	}
	return n
}

func (e *Engine) advanceStreet() {
	e.State.CurrentBet = 0
	e.State.MinRaise = e.Config.BigBlind
	e.State.LastRaiseAmount = 0

	var next Phase
	var dealCount int
	switch e.State.Phase {
	case PhasePreflop:
		next, dealCount = PhaseFlop, 3
	case PhaseFlop:
		next, dealCount = PhaseTurn, 1
	case PhaseTurn:
		next, dealCount = PhaseRiver, 1
	default:
		e.goToShowdown()
		return
	}
	e.dealCommunity(next, dealCount)

	active := e.activeSeats()
	e.owesAction = make(map[int]bool, len(active))
	e.callOnly = nil
	for _, seat := range active {
		e.owesAction[seat] = true
	}
	if len(active) > 0 {
		e.State.CurrentActor = active[0]
	}

	e.emit(EventPhaseChange, PhaseChangePayload{Phase: next, CommunityCards: len(e.State.CommunityCards)})
}

func (e *Engine) dealCommunity(phase Phase, n int) {
	e.deck.Burn()
	for i := 0; i < n; i++ {
		e.State.CommunityCards = append(e.State.CommunityCards, e.deck.Deal())
	}
	e.State.Phase = phase
	e.emit(EventCardsDealt, CardsDealtPayload{Phase: phase, Cards: n})
}

// runOutRemainingStreets deals every remaining community card (with burns,
// no further betting) because at most one player can still act voluntarily.
func (e *Engine) runOutRemainingStreets() {
	for e.State.Phase != PhaseRiver {
		var next Phase
		var n int
		switch e.State.Phase {
		case PhasePreflop:
			next, n = PhaseFlop, 3
		case PhaseFlop:
			next, n = PhaseTurn, 1
		case PhaseTurn:
			next, n = PhaseRiver, 1
		}
		e.dealCommunity(next, n)
	}
	e.goToShowdown()
}

func (e *Engine) goToShowdown() {
	e.State.Phase = PhaseShowdown
	e.owesAction = nil
	e.callOnly = nil
	e.emit(EventPhaseChange, PhaseChangePayload{Phase: PhaseShowdown, CommunityCards: len(e.State.CommunityCards)})
	e.settleShowdown()
}
