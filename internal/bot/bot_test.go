package bot

import (
	"testing"

	"poker-platform/internal/card"
	"poker-platform/internal/engine"
	"poker-platform/internal/table"
)

func viewWithHole(chips, currentBet, tableCurrentBet, minRaise int64, hole []card.Card) (table.StateView, int) {
	seat := &table.SeatView{
		SeatIndex:  0,
		PlayerID:   "bot-1",
		Chips:      chips,
		CurrentBet: currentBet,
		HoleCards:  hole,
	}
	view := table.StateView{
		CurrentBet: tableCurrentBet,
		MinRaise:   minRaise,
		Seats:      []*table.SeatView{seat},
	}
	return view, 0
}

func TestFoldsWeakHandFacingBigBet(t *testing.T) {
	d := New(func(string) Difficulty { return Medium })
	hole := []card.Card{card.New(card.Seven, card.Clubs), card.New(card.Two, card.Diamonds)}
	view, seat := viewWithHole(1000, 0, 500, 10, hole)
	action, _ := d.Decide(view, seat)
	if action != engine.ActFold {
		t.Errorf("expected weak hand facing a big bet to fold, got %v", action)
	}
}

func TestChecksWhenNothingToCallWithWeakHand(t *testing.T) {
	d := New(func(string) Difficulty { return Medium })
	hole := []card.Card{card.New(card.Seven, card.Clubs), card.New(card.Two, card.Diamonds)}
	view, seat := viewWithHole(1000, 0, 0, 10, hole)
	action, _ := d.Decide(view, seat)
	if action != engine.ActCheck {
		t.Errorf("expected weak hand with nothing to call to check, got %v", action)
	}
}

func TestEasyIsIndependentOfHandStrength(t *testing.T) {
	// Same premium hand, many trials: Easy must not always raise the way
	// Expert would, since its action is chosen by fixed odds, not strength.
	d := New(func(string) Difficulty { return Easy })
	hole := []card.Card{card.New(card.Ace, card.Spades), card.New(card.Ace, card.Hearts)}

	seen := map[engine.Action]bool{}
	for i := 0; i < 200; i++ {
		view, seat := viewWithHole(1000, 0, 0, 10, hole)
		action, _ := d.Decide(view, seat)
		seen[action] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected Easy to vary its action across trials regardless of a premium hand, only saw %v", seen)
	}
}

func TestHardBluffsOccasionallyWithoutQualifyingStrength(t *testing.T) {
	d := New(func(string) Difficulty { return Hard })
	hole := []card.Card{card.New(card.Seven, card.Clubs), card.New(card.Two, card.Diamonds)}

	raised := false
	for i := 0; i < 500; i++ {
		view, seat := viewWithHole(1000, 0, 0, 10, hole)
		action, _ := d.Decide(view, seat)
		if action == engine.ActRaise || action == engine.ActAllIn {
			raised = true
			break
		}
	}
	if !raised {
		t.Errorf("expected Hard to occasionally bluff-raise a weak hand over enough trials, never did")
	}
}

func TestExpertSometimesTrapsInsteadOfRaisingPremiumHand(t *testing.T) {
	d := New(func(string) Difficulty { return Expert })
	hole := []card.Card{card.New(card.Ace, card.Spades), card.New(card.Ace, card.Hearts)}

	sawCheck := false
	for i := 0; i < 500; i++ {
		view, seat := viewWithHole(1000, 0, 0, 10, hole)
		action, _ := d.Decide(view, seat)
		if action == engine.ActCheck {
			sawCheck = true
			break
		}
	}
	if !sawCheck {
		t.Errorf("expected Expert to sometimes slow-play (check) pocket aces instead of always raising, never did")
	}
}

func TestPositionAdjustmentLowersHardsRaiseBarHeadsUp(t *testing.T) {
	sixHanded := table.StateView{
		CurrentBet: 0,
		MinRaise:   10,
		Seats: []*table.SeatView{
			{SeatIndex: 0, State: "active"},
			{SeatIndex: 1, State: "active"},
			{SeatIndex: 2, State: "active"},
			{SeatIndex: 3, State: "active"},
			{SeatIndex: 4, State: "active"},
			{SeatIndex: 5, State: "active"},
		},
	}
	headsUp := table.StateView{
		CurrentBet: 0,
		MinRaise:   10,
		Seats: []*table.SeatView{
			{SeatIndex: 0, State: "active"},
			{SeatIndex: 1, State: "active"},
		},
	}
	if positionAdjustment(Hard, headsUp) <= positionAdjustment(Hard, sixHanded) {
		t.Errorf("expected Hard's position adjustment to be larger heads-up than six-handed")
	}
	if positionAdjustment(Medium, headsUp) != 0 {
		t.Errorf("expected Medium to ignore table size, got %v", positionAdjustment(Medium, headsUp))
	}
}

func TestRaisesPremiumHandPreflop(t *testing.T) {
	d := New(func(string) Difficulty { return Medium })
	hole := []card.Card{card.New(card.Ace, card.Spades), card.New(card.Ace, card.Hearts)}
	view, seat := viewWithHole(1000, 0, 10, 10, hole)
	action, amount := d.Decide(view, seat)
	if action != engine.ActRaise {
		t.Errorf("expected pocket aces to raise, got %v", action)
	}
	if amount <= 10 {
		t.Errorf("raise target should exceed the current bet, got %d", amount)
	}
}

func TestNoHoleCardsFolds(t *testing.T) {
	d := New(nil)
	view, seat := viewWithHole(1000, 0, 10, 10, nil)
	action, _ := d.Decide(view, seat)
	if action != engine.ActFold {
		t.Errorf("expected missing hole cards to fold defensively, got %v", action)
	}
}
