package card

import "testing"

func TestHandEvaluationCategories(t *testing.T) {
	tests := []struct {
		name     string
		cards    []Card
		expected Category
	}{
		{"high card", []Card{New(Ace, Spades), New(King, Hearts), New(Queen, Diamonds), New(Jack, Clubs), New(Nine, Spades)}, HighCard},
		{"pair", []Card{New(Ace, Spades), New(Ace, Hearts), New(King, Diamonds), New(Queen, Clubs), New(Jack, Spades)}, Pair},
		{"two pair", []Card{New(Ace, Spades), New(Ace, Hearts), New(King, Diamonds), New(King, Clubs), New(Queen, Spades)}, TwoPair},
		{"trips", []Card{New(Ace, Spades), New(Ace, Hearts), New(Ace, Diamonds), New(King, Clubs), New(Queen, Spades)}, ThreeOfAKind},
		{"straight", []Card{New(Ace, Spades), New(King, Hearts), New(Queen, Diamonds), New(Jack, Clubs), New(Ten, Spades)}, Straight},
		{"wheel straight", []Card{New(Ace, Spades), New(Two, Hearts), New(Three, Diamonds), New(Four, Clubs), New(Five, Spades)}, Straight},
		{"flush", []Card{New(Ace, Spades), New(King, Spades), New(Queen, Spades), New(Jack, Spades), New(Nine, Spades)}, Flush},
		{"full house", []Card{New(Ace, Spades), New(Ace, Hearts), New(Ace, Diamonds), New(King, Clubs), New(King, Spades)}, FullHouse},
		{"quads", []Card{New(Ace, Spades), New(Ace, Hearts), New(Ace, Diamonds), New(Ace, Clubs), New(King, Spades)}, FourOfAKind},
		{"straight flush", []Card{New(Nine, Spades), New(King, Spades), New(Queen, Spades), New(Jack, Spades), New(Ten, Spades)}, StraightFlush},
		{"royal flush", []Card{New(Ace, Spades), New(King, Spades), New(Queen, Spades), New(Jack, Spades), New(Ten, Spades)}, RoyalFlush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank, err := Evaluate(tt.cards)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if rank.Category != tt.expected {
				t.Errorf("got category %v, want %v", rank.Category, tt.expected)
			}
		})
	}
}

func TestEvaluateBestOfSeven(t *testing.T) {
	hole := []Card{New(Ace, Spades), New(Ace, Hearts)}
	community := []Card{New(Ace, Diamonds), New(Ace, Clubs), New(King, Spades), New(Two, Hearts), New(Three, Diamonds)}
	rank, err := Evaluate(append(append([]Card{}, hole...), community...))
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if rank.Category != FourOfAKind {
		t.Errorf("got category %v, want FourOfAKind", rank.Category)
	}
}

func TestEvaluateRejectsWrongCount(t *testing.T) {
	if _, err := Evaluate([]Card{New(Ace, Spades)}); err == nil {
		t.Error("expected error for too few cards")
	}
	eight := []Card{
		New(Ace, Spades), New(King, Hearts), New(Queen, Diamonds), New(Jack, Clubs),
		New(Ten, Spades), New(Nine, Hearts), New(Eight, Diamonds), New(Seven, Clubs),
	}
	if _, err := Evaluate(eight); err == nil {
		t.Error("expected error for too many cards")
	}
}

func TestEvaluateRejectsDuplicates(t *testing.T) {
	cards := []Card{New(Ace, Spades), New(Ace, Spades), New(King, Hearts), New(Queen, Diamonds), New(Jack, Clubs)}
	if _, err := Evaluate(cards); err == nil {
		t.Error("expected error for duplicate card")
	}
}

func TestFullHouseBeatsFlush(t *testing.T) {
	fullHouse, _ := Evaluate([]Card{New(Ace, Spades), New(Ace, Hearts), New(Ace, Diamonds), New(King, Clubs), New(King, Spades)})
	flush, _ := Evaluate([]Card{New(Ace, Spades), New(King, Spades), New(Queen, Spades), New(Jack, Spades), New(Nine, Spades)})
	if fullHouse.Compare(flush) <= 0 {
		t.Error("full house should beat flush")
	}
}

func TestKickerBreaksTie(t *testing.T) {
	a, _ := Evaluate([]Card{New(Ace, Spades), New(Ace, Hearts), New(King, Diamonds), New(Queen, Clubs), New(Jack, Spades)})
	b, _ := Evaluate([]Card{New(Ace, Clubs), New(Ace, Diamonds), New(King, Hearts), New(Queen, Spades), New(Ten, Clubs)})
	if a.Compare(b) <= 0 {
		t.Error("jack kicker should beat ten kicker with identical pair")
	}
}
