package engine

import "poker-platform/internal/card"

// finishBySoleSurvivor ends the hand without evaluation: every remaining
// chip in play goes to the last player who did not fold.
func (e *Engine) finishBySoleSurvivor(seat int) {
	p := e.Seats[seat]
	var total int64
	for _, s := range e.seatOrderFrom(0) {
		total += e.Seats[s].TotalHandWager
	}
	p.Chips += total

	winners := []Winner{{PlayerID: p.ID, Amount: total}}
	e.Pots = nil
	e.State.Phase = PhaseFinished
	e.emit(EventHandComplete, HandCompletePayload{
		HandNumber: e.State.HandNumber,
		Winners:    winners,
		Pots:       nil,
		ShowedDown: false,
	})
}

// settleShowdown evaluates every non-folded player's best hand, builds the
// pot layers, and distributes each layer to its highest-ranked eligible
// player(s), splitting ties evenly with any odd remainder going to the
// player closest clockwise to the dealer.
func (e *Engine) settleShowdown() {
	ranks := make(map[string]card.HandRank, len(e.nonFoldedSeats()))
	bestFive := make(map[string][5]card.Card)
	for _, seat := range e.nonFoldedSeats() {
		p := e.Seats[seat]
		all := append(append([]card.Card{}, p.HoleCards...), e.State.CommunityCards...)
		rank, err := card.Evaluate(all)
		if err != nil {
			e.log.Error().Err(err).Str("player", p.ID).Msg("hand evaluation failed")
			continue
		}
		ranks[p.ID] = rank
		bestFive[p.ID] = rank.Best
	}

	pots := e.buildPots()
	e.Pots = pots

	winnerTotals := make(map[string]int64)
	var winners []Winner
	for _, pot := range pots {
		best := bestEligible(pot, ranks)
		if len(best) == 0 {
			continue
		}
		share := pot.Amount / int64(len(best))
		remainder := pot.Amount % int64(len(best))

		orderedBest := e.orderClockwiseFromDealer(best)
		for i, pid := range orderedBest {
			amount := share
			if i == 0 {
				amount += remainder
			}
			winnerTotals[pid] += amount
		}
	}

	for pid, amount := range winnerTotals {
		if seat := e.seatForPlayer(pid); seat >= 0 {
			e.Seats[seat].Chips += amount
		}
		rank := ranks[pid]
		best := bestFive[pid]
		winners = append(winners, Winner{
			PlayerID: pid,
			Amount:   amount,
			HandType: rank.Category.String(),
			BestFive: best[:],
		})
	}

	e.State.Phase = PhaseFinished
	e.emit(EventHandComplete, HandCompletePayload{
		HandNumber: e.State.HandNumber,
		Winners:    winners,
		Pots:       pots,
		ShowedDown: true,
	})
}

func bestEligible(pot Pot, ranks map[string]card.HandRank) []string {
	var best []string
	var bestRank card.HandRank
	first := true
	for pid := range pot.Eligible {
		rank, ok := ranks[pid]
		if !ok {
			continue
		}
		if first || rank.Compare(bestRank) > 0 {
			best = []string{pid}
			bestRank = rank
			first = false
		} else if rank.Equal(bestRank) {
			best = append(best, pid)
		}
	}
	return best
}

func (e *Engine) seatForPlayer(playerID string) int {
	for _, seat := range e.seatOrderFrom(0) {
		if e.Seats[seat].ID == playerID {
			return seat
		}
	}
	return -1
}

// orderClockwiseFromDealer orders playerIDs by seat position clockwise from
// the dealer, used to assign an odd remainder chip deterministically.
func (e *Engine) orderClockwiseFromDealer(playerIDs []string) []string {
	want := make(map[string]bool, len(playerIDs))
	for _, pid := range playerIDs {
		want[pid] = true
	}
	var ordered []string
	for _, seat := range e.seatOrderFrom(e.State.DealerSeat + 1) {
		p := e.Seats[seat]
		if p != nil && want[p.ID] {
			ordered = append(ordered, p.ID)
		}
	}
	return ordered
}
