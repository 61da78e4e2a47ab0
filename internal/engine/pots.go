package engine

import "sort"

// buildPots partitions every seated player's TotalHandWager into pot layers
// by ascending all-in threshold. Thresholds come from players who went
// all-in; everyone (folded or not) who contributed at or above a threshold
// funds that layer, but only non-folded contributors at or above it are
// eligible to win it. Whatever remains above the highest threshold forms a
// final layer open only to players who were never capped (non-all-in,
// non-folded) and contributed beyond it.
func (e *Engine) buildPots() []Pot {
	seated := e.seatOrderFrom(0)
	if len(seated) == 0 {
		return nil
	}

	thresholdSet := make(map[int64]bool)
	for _, seat := range seated {
		p := e.Seats[seat]
		if p.State == StateAllIn && p.TotalHandWager > 0 {
			thresholdSet[p.TotalHandWager] = true
		}
	}
	thresholds := make([]int64, 0, len(thresholdSet))
	for t := range thresholdSet {
		thresholds = append(thresholds, t)
	}
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i] < thresholds[j] })

	var pots []Pot
	var previous int64
	for _, threshold := range thresholds {
		layer := Pot{Eligible: make(map[string]bool)}
		for _, seat := range seated {
			p := e.Seats[seat]
			if p.TotalHandWager >= threshold {
				layer.Amount += threshold - previous
				if p.State != StateFolded {
					layer.Eligible[p.ID] = true
				}
			} else if p.TotalHandWager > previous {
				layer.Amount += p.TotalHandWager - previous
			}
		}
		if layer.Amount > 0 {
			pots = append(pots, layer)
		}
		previous = threshold
	}

	final := Pot{Eligible: make(map[string]bool)}
	for _, seat := range seated {
		p := e.Seats[seat]
		if p.TotalHandWager > previous {
			final.Amount += p.TotalHandWager - previous
			if p.State != StateFolded {
				final.Eligible[p.ID] = true
			}
		}
	}
	if final.Amount > 0 {
		pots = append(pots, final)
	}

	for i := range pots {
		pots[i].IsSidePot = i > 0
	}
	return pots
}
