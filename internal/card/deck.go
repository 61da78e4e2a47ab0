package card

import "math/rand"

// Deck is an ordered sequence of the 52 distinct cards plus a cursor into
// the next undealt position. A Deck is not safe for concurrent use; callers
// serialize access the way the hand engine serializes all mutation to a
// single table's state.
type Deck struct {
	cards  [52]Card
	cursor int
	rng    *rand.Rand
}

// NewDeck returns a deck in canonical order, seeded for shuffling. The same
// seed always produces the same sequence of shuffles and deals, satisfying
// the reproducibility property tests rely on.
func NewDeck(seed int64) *Deck {
	d := &Deck{rng: rand.New(rand.NewSource(seed))}
	d.Reset()
	return d
}

// Reset restores canonical suit-major order and rewinds the cursor to 0. It
// does not reshuffle.
func (d *Deck) Reset() {
	for i := range d.cards {
		d.cards[i] = FromIndex(i)
	}
	d.cursor = 0
}

// Shuffle performs a Fisher-Yates shuffle over the cursor-relative suffix
// (the undealt portion) and then rewinds the cursor to 0, so every position
// of the deck, dealt or not, becomes dealable again. Called on a freshly
// Reset deck, this shuffles all 52 cards.
func (d *Deck) Shuffle() {
	suffix := d.cards[d.cursor:]
	for i := len(suffix) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		suffix[i], suffix[j] = suffix[j], suffix[i]
	}
	d.cursor = 0
}

// Deal returns the next card and advances the cursor. Dealing past the end
// of the deck is a fatal programming error — it should never happen in a
// legal hand (at most 2*10 hole cards + 5 community cards + 3 burns = 28
// cards can ever be required, so a 52-card deck underflows only if the
// engine mis-tracks state).
func (d *Deck) Deal() Card {
	if d.cursor >= len(d.cards) {
		panic("card: deal from empty deck")
	}
	c := d.cards[d.cursor]
	d.cursor++
	return c
}

// Burn advances the cursor without exposing the card.
func (d *Deck) Burn() {
	if d.cursor >= len(d.cards) {
		panic("card: burn from empty deck")
	}
	d.cursor++
}

// Remaining reports how many cards are left to deal.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.cursor
}

// Cursor reports the current cursor position, mainly for audit logging.
func (d *Deck) Cursor() int {
	return d.cursor
}

// Snapshot returns a copy of the full 52-card order, for audit trails.
func (d *Deck) Snapshot() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards[:])
	return out
}
