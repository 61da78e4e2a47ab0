package table

import (
	"poker-platform/internal/card"
	"poker-platform/internal/engine"
)

// SeatView is one seat as exposed to clients: hole cards are present only
// for the viewing player (or, for every non-folded seat, once the hand
// reaches showdown).
type SeatView struct {
	SeatIndex  int          `json:"seatIndex"`
	PlayerID   string       `json:"playerId"`
	Name       string       `json:"name"`
	Chips      int64        `json:"chips"`
	CurrentBet int64        `json:"currentBet"`
	State      string       `json:"state"`
	LastAction string       `json:"lastAction"`
	IsDealer   bool         `json:"isDealer"`
	IsSB       bool         `json:"isSmallBlind"`
	IsBB       bool         `json:"isBigBlind"`
	HoleCards  []card.Card  `json:"holeCards,omitempty"`
}

// StateView is the full table snapshot sent to a client — built fresh per
// viewer so hole-card redaction can differ per recipient.
type StateView struct {
	TableID        string      `json:"tableId"`
	Phase          string      `json:"phase"`
	HandNumber     int         `json:"handNumber"`
	CommunityCards []card.Card `json:"communityCards"`
	Pots           []PotView   `json:"pots"`
	CurrentActor   int         `json:"currentActor"`
	CurrentBet     int64       `json:"currentBet"`
	MinRaise       int64       `json:"minRaise"`
	Seats          []*SeatView `json:"seats"`
}

type PotView struct {
	Amount    int64    `json:"amount"`
	Eligible  []string `json:"eligible"`
	IsSidePot bool     `json:"isSidePot"`
}

// buildState renders the table's current state for viewerID. Hole cards are
// shown only for viewerID's own seat, unless the hand is at or past
// showdown, in which case every non-folded player's cards are public.
func (t *Table) buildState(viewerID string) StateView {
	reveal := t.eng.State.Phase == engine.PhaseShowdown || t.eng.State.Phase == engine.PhaseFinished

	seats := make([]*SeatView, len(t.seats))
	for i, p := range t.seats {
		if p == nil {
			continue
		}
		view := &SeatView{
			SeatIndex:  i,
			PlayerID:   p.ID,
			Name:       p.Name,
			Chips:      p.Chips,
			CurrentBet: p.CurrentWager,
			State:      p.State.String(),
			LastAction: p.LastAction.String(),
			IsDealer:   p.IsDealer,
			IsSB:       p.IsSmallBlind,
			IsBB:       p.IsBigBlind,
		}
		showCards := p.ID == viewerID || (reveal && p.State != engine.StateFolded)
		if showCards {
			view.HoleCards = p.HoleCards
		}
		seats[i] = view
	}

	pots := make([]PotView, len(t.eng.Pots))
	for i, pot := range t.eng.Pots {
		eligible := make([]string, 0, len(pot.Eligible))
		for pid := range pot.Eligible {
			eligible = append(eligible, pid)
		}
		pots[i] = PotView{Amount: pot.Amount, Eligible: eligible, IsSidePot: pot.IsSidePot}
	}

	return StateView{
		TableID:        t.ID,
		Phase:          t.eng.State.Phase.String(),
		HandNumber:     t.eng.State.HandNumber,
		CommunityCards: t.eng.State.CommunityCards,
		Pots:           pots,
		CurrentActor:   t.eng.State.CurrentActor,
		CurrentBet:     t.eng.State.CurrentBet,
		MinRaise:       t.eng.State.MinRaise,
		Seats:          seats,
	}
}
