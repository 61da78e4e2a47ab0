// Package bot implements the bot decider: heuristic preflop and postflop
// strategies across four difficulty levels, producing a legal action for a
// bot-controlled seat given the table's current public state.
package bot

import (
	"math/rand"
	"sync"

	"poker-platform/internal/card"
	"poker-platform/internal/engine"
	"poker-platform/internal/table"
)

// Difficulty selects how tightly/aggressively a bot plays.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
	Expert
)

// Decider implements table.BotDecider. One Decider instance is shared by
// every bot seat at every table; Difficulty is looked up per seat so
// different bots at the same table can play at different strengths.
// Decider is called concurrently from every table's own goroutine, so its
// RNG access is serialized with a mutex.
type Decider struct {
	difficultyFor func(playerID string) Difficulty
	mu            sync.Mutex
	rng           *rand.Rand
}

// New constructs a Decider. difficultyFor resolves a bot player ID to its
// configured difficulty; nil defaults every bot to Medium.
func New(difficultyFor func(playerID string) Difficulty) *Decider {
	if difficultyFor == nil {
		difficultyFor = func(string) Difficulty { return Medium }
	}
	return &Decider{difficultyFor: difficultyFor, rng: rand.New(rand.NewSource(1))}
}

// Decide chooses an action for the bot seated at seat, given the public
// view of the table (its own hole cards included, since the view was built
// for that seat's own player ID).
func (d *Decider) Decide(view table.StateView, seat int) (engine.Action, int64) {
	self := view.Seats[seat]
	if self == nil || len(self.HoleCards) != 2 {
		return engine.ActFold, 0
	}
	difficulty := d.difficultyFor(self.PlayerID)
	toCall := view.CurrentBet - self.CurrentBet

	if difficulty == Easy {
		return d.actEasy(view, self, toCall)
	}

	strength := d.handStrength(self.HoleCards, view.CommunityCards)
	strength = d.jitter(strength, difficulty)

	if toCall <= 0 {
		return d.actWhenCheckAvailable(view, self, strength, difficulty)
	}
	return d.actFacingBet(view, self, toCall, strength, difficulty)
}

// actEasy plays fixed odds with no regard to hole cards or board at all —
// Easy is weighted-random by design, not just a looser strength threshold.
func (d *Decider) actEasy(view table.StateView, self *table.SeatView, toCall int64) (engine.Action, int64) {
	roll := d.roll()
	switch {
	case roll < 0.10:
		if toCall <= 0 {
			return engine.ActCheck, 0
		}
		return engine.ActFold, 0
	case roll < 0.75:
		if toCall <= 0 {
			return engine.ActCheck, 0
		}
		return d.callOrAllIn(self, toCall)
	default:
		target := view.CurrentBet + view.MinRaise
		if target-self.CurrentBet >= self.Chips {
			return engine.ActAllIn, 0
		}
		return engine.ActRaise, target
	}
}

func (d *Decider) actWhenCheckAvailable(view table.StateView, self *table.SeatView, strength float64, diff Difficulty) (engine.Action, int64) {
	aggression := raiseThreshold(diff) - positionAdjustment(diff, view)

	if strength >= aggression {
		if diff == Expert && d.rollUnder(trapFrequency) {
			// Trap: slow-play a strong hand by checking instead of betting into it.
			return engine.ActCheck, 0
		}
		return d.raiseAction(self.CurrentBet, self, view, strength)
	}
	if d.bluffFrequency(diff) {
		return d.raiseAction(self.CurrentBet, self, view, strength)
	}
	return engine.ActCheck, 0
}

func (d *Decider) actFacingBet(view table.StateView, self *table.SeatView, toCall int64, strength float64, diff Difficulty) (engine.Action, int64) {
	potOdds := potOddsThreshold(toCall, view)
	raiseBar := raiseThreshold(diff) - positionAdjustment(diff, view)

	switch {
	case strength >= raiseBar:
		if diff == Expert && d.rollUnder(trapFrequency) {
			// Trap: call instead of raising, to keep a strong hand's range
			// looking the same as a marginal one.
			return d.callOrAllIn(self, toCall)
		}
		return d.raiseAction(view.CurrentBet, self, view, strength)
	case strength >= potOdds:
		return d.callOrAllIn(self, toCall)
	default:
		if d.bluffFrequency(diff) {
			return d.raiseAction(view.CurrentBet, self, view, strength)
		}
		return engine.ActFold, 0
	}
}

func (d *Decider) callOrAllIn(self *table.SeatView, toCall int64) (engine.Action, int64) {
	if toCall >= self.Chips {
		return engine.ActAllIn, 0
	}
	return engine.ActCall, 0
}

func (d *Decider) raiseAction(base int64, self *table.SeatView, view table.StateView, strength float64) (engine.Action, int64) {
	target := base + betSize(view, strength)
	if target > self.Chips+self.CurrentBet {
		return engine.ActAllIn, 0
	}
	return engine.ActRaise, target
}

// handStrength returns a 0..1 estimate of hand quality: preflop it's a
// closed-form function of the two hole ranks and suitedness; postflop it
// maps the evaluated category onto the same scale.
func (d *Decider) handStrength(hole []card.Card, community []card.Card) float64 {
	if len(community) == 0 {
		return preflopStrength(hole)
	}
	all := append(append([]card.Card{}, hole...), community...)
	if len(all) < 5 {
		return preflopStrength(hole)
	}
	rank, err := card.Evaluate(all)
	if err != nil {
		return preflopStrength(hole)
	}
	return postflopStrength(rank)
}

// preflopStrength scores a starting hand: pairs scale with rank, otherwise
// it's the sum of both ranks normalized; suited hands get a bonus, and
// hands whose ranks are 1 to 4 apart get a separate small bonus.
func preflopStrength(hole []card.Card) float64 {
	r1, r2 := hole[0].Rank, hole[1].Rank
	if r1 < r2 {
		r1, r2 = r2, r1
	}
	base := (float64(r1) + float64(r2)) / (2 * float64(card.Ace))
	if r1 == r2 {
		base = 0.5 + float64(r1)/(2*float64(card.Ace))
	}
	if hole[0].Suit == hole[1].Suit {
		base += 0.05
	}
	gap := float64(r1 - r2)
	if gap > 0 && gap <= 4 {
		base += 0.03
	}
	if base > 1 {
		base = 1
	}
	return base
}

// postflopStrength maps a 10-category evaluated hand onto 0..1, with a
// small slide within every category for the top kicker so hands of the
// same category aren't all scored identically.
func postflopStrength(rank card.HandRank) float64 {
	base := float64(rank.Category) / float64(card.RoyalFlush)
	if len(rank.Kickers) > 0 {
		base += (float64(rank.Kickers[0]) / float64(card.Ace)) * 0.05
	}
	if base > 1 {
		base = 1
	}
	return base
}

// trapFrequency is how often Expert slow-plays a hand that otherwise clears
// its raise bar, disguising its range by calling/checking instead.
const trapFrequency = 0.3

// positionAdjustment lowers Hard and Expert's raise bar as the hand shrinks
// toward heads-up: fewer live opponents means more hands are worth
// attacking regardless of raw strength. Easy and Medium ignore table size.
func positionAdjustment(diff Difficulty, view table.StateView) float64 {
	if diff != Hard && diff != Expert {
		return 0
	}
	active := 0
	for _, s := range view.Seats {
		if s != nil && (s.State == "active" || s.State == "all_in") {
			active++
		}
	}
	switch {
	case active <= 2:
		return 0.12
	case active <= 4:
		return 0.05
	default:
		return 0
	}
}

// bluffFrequency reports whether this decision should raise despite not
// clearing the raise bar: Hard bluffs rarely, Expert bluffs a bit more often
// to keep its raise frequency from correlating perfectly with strength.
// Easy and Medium never bluff this way (Easy's randomness already covers it).
func (d *Decider) bluffFrequency(diff Difficulty) bool {
	switch diff {
	case Hard:
		return d.rollUnder(0.07)
	case Expert:
		return d.rollUnder(0.10)
	default:
		return false
	}
}

// roll returns a uniform [0,1) draw from the shared RNG.
func (d *Decider) roll() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64()
}

// rollUnder reports whether a fresh roll() falls under p.
func (d *Decider) rollUnder(p float64) bool {
	return d.roll() < p
}

func raiseThreshold(diff Difficulty) float64 {
	switch diff {
	case Easy:
		return 0.85
	case Medium:
		return 0.72
	case Hard:
		return 0.62
	default: // Expert
		return 0.55
	}
}

func potOddsThreshold(toCall int64, view table.StateView) float64 {
	pot := view.CurrentBet
	for _, p := range view.Pots {
		pot += p.Amount
	}
	if pot <= 0 {
		return 0.3
	}
	odds := float64(toCall) / float64(pot+toCall)
	if odds < 0.15 {
		odds = 0.15
	}
	return odds
}

// betSize returns how much more to put in beyond matching the current bet,
// scaled to the pot and the bot's hand strength.
func betSize(view table.StateView, strength float64) int64 {
	pot := view.CurrentBet
	for _, p := range view.Pots {
		pot += p.Amount
	}
	size := int64(float64(pot) * (0.5 + strength*0.5))
	if size < view.MinRaise {
		size = view.MinRaise
	}
	return size
}

// jitter adds small per-decision noise so bots of the same difficulty
// don't play byte-identically from seat to seat.
func (d *Decider) jitter(strength float64, diff Difficulty) float64 {
	spread := 0.1
	if diff == Expert {
		spread = 0.03
	}
	d.mu.Lock()
	noise := d.rng.Float64()
	d.mu.Unlock()
	strength += (noise*2 - 1) * spread
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return strength
}
