package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"poker-platform/internal/card"
)

// Engine runs the per-hand state machine for one table. It does not own the
// seat array across hands — the table controller does — but it mutates the
// *Player values in place via SetSeats, so chip changes persist once the
// controller calls StartHand again for the next hand.
type Engine struct {
	Config Config
	Seats  []*Player

	State HandState
	Pots  []Pot

	owesAction map[int]bool
	// callOnly marks seats that already acted on the current bet before it
	// was raised again by a short all-in that didn't reopen the action —
	// they owe action to match the new bet but may only call or fold, not
	// raise, until the next street or a full raise clears the restriction.
	callOnly map[int]bool
	deck     *card.Deck
	events   []Event
	log      zerolog.Logger
}

// NewEngine constructs an Engine for one table. Config.MaxSeats determines
// the fixed seat-array length SetSeats must be called with.
func NewEngine(cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		Config: cfg,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// SetSeats installs the controller's seat array. The slice is retained by
// reference; the engine mutates Player fields in place.
func (e *Engine) SetSeats(seats []*Player) {
	e.Seats = seats
}

func (e *Engine) seatCount() int {
	return len(e.Seats)
}

// seatOrderFrom returns occupied seat indices starting at `from`, walking
// clockwise (increasing index, wrapping) exactly once around the table.
func (e *Engine) seatOrderFrom(from int) []int {
	n := e.seatCount()
	if n == 0 {
		return nil
	}
	var out []int
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if e.Seats[idx] != nil {
			out = append(out, idx)
		}
	}
	return out
}

func (e *Engine) player(seat int) *Player {
	if seat < 0 || seat >= e.seatCount() {
		return nil
	}
	return e.Seats[seat]
}

// eligiblePlayersFrom returns seat indices (clockwise from `from`) of seated
// players who can be dealt into a new hand.
func (e *Engine) eligiblePlayersFrom(from int) []int {
	var out []int
	for _, seat := range e.seatOrderFrom(from) {
		if e.Seats[seat].eligibleToPlay() {
			out = append(out, seat)
		}
	}
	return out
}

// activeSeats returns seats currently in the StateActive standing (still
// holding cards, not folded, not all-in) in clockwise order from dealer+1.
func (e *Engine) activeSeats() []int {
	var out []int
	for _, seat := range e.seatOrderFrom(e.State.DealerSeat + 1) {
		if e.Seats[seat].State == StateActive {
			out = append(out, seat)
		}
	}
	return out
}

// nonFoldedSeats returns every seat still live in the hand (active or
// all-in), clockwise from dealer+1.
func (e *Engine) nonFoldedSeats() []int {
	var out []int
	for _, seat := range e.seatOrderFrom(e.State.DealerSeat + 1) {
		p := e.Seats[seat]
		if p.State == StateActive || p.State == StateAllIn {
			out = append(out, seat)
		}
	}
	return out
}

// StartHand deals a new hand. dealerSeat is chosen by the table controller
// (button rotation is its responsibility, not the engine's); deckSeed seeds
// the shuffle and should come from a CSPRNG draw so production hands are
// unpredictable while remaining replayable given the seed.
func (e *Engine) StartHand(dealerSeat int, deckSeed int64) error {
	if e.State.Phase != PhaseWaiting && e.State.Phase != PhaseFinished {
		return ErrHandInProgress
	}

	eligible := e.eligiblePlayersFrom(0)
	if len(eligible) < e.Config.MinPlayers {
		return ErrInsufficientPlayers
	}

	for _, seat := range e.seatOrderFrom(0) {
		e.Seats[seat].Reset()
	}
	for _, seat := range eligible {
		e.Seats[seat].State = StateActive
	}

	e.State = HandState{
		Phase:      PhaseStarting,
		DealerSeat: dealerSeat,
		HandNumber: e.State.HandNumber + 1,
	}
	e.Pots = nil
	e.owesAction = nil
	e.callOnly = nil

	e.deck = card.NewDeck(deckSeed)
	e.deck.Shuffle()

	active := e.eligiblePlayersFromActive(dealerSeat)
	e.Seats[dealerSeat].IsDealer = true

	if len(active) == 2 {
		// Heads-up: dealer posts small blind and acts first preflop.
		// active[0] is always dealerSeat itself since the walk starts there.
		e.State.SmallBlindSeat = active[0]
		e.State.BigBlindSeat = active[1]
	} else {
		e.State.SmallBlindSeat = active[1]
		e.State.BigBlindSeat = active[2%len(active)]
	}
	e.Seats[e.State.SmallBlindSeat].IsSmallBlind = true
	e.Seats[e.State.BigBlindSeat].IsBigBlind = true

	e.dealHoleCards(active)
	e.collectAntesAndBlinds(active)

	e.emit(EventHandStarted, HandStartedPayload{
		HandNumber: e.State.HandNumber,
		DealerSeat: dealerSeat,
		SmallBlind: e.Config.SmallBlind,
		BigBlind:   e.Config.BigBlind,
	})

	e.startPreflop(active)
	return nil
}

// eligiblePlayersFromActive lists active seats in clockwise order starting
// at dealerSeat itself (used to assign blinds relative to the button).
func (e *Engine) eligiblePlayersFromActive(dealerSeat int) []int {
	var out []int
	for _, seat := range e.seatOrderFrom(dealerSeat) {
		if e.Seats[seat].State == StateActive {
			out = append(out, seat)
		}
	}
	return out
}

func (e *Engine) dealHoleCards(active []int) {
	for round := 0; round < 2; round++ {
		for _, seat := range active {
			p := e.Seats[seat]
			p.HoleCards = append(p.HoleCards, e.deck.Deal())
		}
	}
	e.emit(EventCardsDealt, CardsDealtPayload{Phase: PhasePreflop, Cards: 2 * len(active)})
}

func (e *Engine) collectAntesAndBlinds(active []int) {
	if e.Config.Ante > 0 {
		for _, seat := range active {
			e.postChips(seat, e.Config.Ante, false)
		}
	}
	e.postBlind(e.State.SmallBlindSeat, e.Config.SmallBlind, ActionPostSB)
	e.postBlind(e.State.BigBlindSeat, e.Config.BigBlind, ActionPostBB)
}

// postChips moves chips from a player's stack into the hand, optionally
// counting toward CurrentWager (blinds do; antes don't).
func (e *Engine) postChips(seat int, amount int64, countsAsWager bool) {
	p := e.Seats[seat]
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.TotalHandWager += amount
	if countsAsWager {
		p.CurrentWager += amount
	}
	if p.Chips == 0 {
		p.State = StateAllIn
	}
}

func (e *Engine) postBlind(seat int, amount int64, action LastAction) {
	e.postChips(seat, amount, true)
	e.Seats[seat].LastAction = action
}

func (e *Engine) startPreflop(active []int) {
	e.State.Phase = PhasePreflop
	e.State.CurrentBet = e.Config.BigBlind
	e.State.MinRaise = e.Config.BigBlind

	// First to act preflop: seat after the big blind, except heads-up where
	// the dealer (small blind) acts first.
	var firstActor int
	if len(active) == 2 {
		firstActor = e.State.SmallBlindSeat
	} else {
		idx := e.seatOrderFrom(e.State.BigBlindSeat + 1)
		firstActor = pickFirstActive(e, idx)
	}
	e.State.CurrentActor = firstActor

	e.owesAction = make(map[int]bool, len(active))
	for _, seat := range active {
		e.owesAction[seat] = true
	}

	e.emit(EventPhaseChange, PhaseChangePayload{Phase: PhasePreflop})
	e.checkSoleSurvivor()
}

func pickFirstActive(e *Engine, order []int) int {
	for _, seat := range order {
		if e.Seats[seat].State == StateActive {
			return seat
		}
	}
	// Nobody eligible to act voluntarily (e.g. all-in already) — leave as
	// the first seat in hand order; the street-close check will fast
	// forward immediately.
	if len(order) > 0 {
		return order[0]
	}
	return e.State.DealerSeat
}

// ProcessAction validates and applies a single player action. On an illegal
// action no state is mutated and an error is returned.
func (e *Engine) ProcessAction(playerID string, seat int, action Action, amount int64) error {
	if !e.State.Phase.isBetting() {
		return ErrHandNotActive
	}
	p := e.player(seat)
	if p == nil || p.ID != playerID {
		return ErrPlayerNotFound
	}
	if p.State != StateActive {
		return ErrPlayerNotActive
	}
	if seat != e.State.CurrentActor {
		return ErrNotYourTurn
	}

	switch action {
	case ActFold:
		return e.applyFold(seat)
	case ActCheck:
		return e.applyCheck(seat)
	case ActCall:
		return e.applyCall(seat)
	case ActRaise:
		return e.applyRaise(seat, amount)
	case ActAllIn:
		return e.applyAllIn(seat)
	default:
		return fmt.Errorf("engine: unknown action %v", action)
	}
}

// ForceFold folds a seat out of the current hand regardless of whose turn
// it is, for use when a player disconnects or leaves mid-hand. It is a
// no-op if the seat isn't currently active in a hand.
func (e *Engine) ForceFold(seat int) {
	p := e.player(seat)
	if p == nil || p.State != StateActive || !e.State.Phase.isBetting() {
		return
	}
	wasCurrentActor := e.State.CurrentActor == seat
	delete(e.owesAction, seat)
	delete(e.callOnly, seat)
	p.State = StateFolded
	p.LastAction = ActionFold
	e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: ActFold})

	if e.checkSoleSurvivor() {
		return
	}
	if wasCurrentActor {
		e.advanceActorOrCloseStreet()
	} else if len(e.owesAction) == 0 {
		e.closeStreet()
	}
}

func (p Phase) isBetting() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	default:
		return false
	}
}

func (e *Engine) toCall(seat int) int64 {
	return e.State.CurrentBet - e.Seats[seat].CurrentWager
}

func (e *Engine) applyFold(seat int) error {
	p := e.Seats[seat]
	p.State = StateFolded
	p.LastAction = ActionFold
	delete(e.owesAction, seat)
	delete(e.callOnly, seat)
	e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: ActFold})

	if e.checkSoleSurvivor() {
		return nil
	}
	e.advanceActorOrCloseStreet()
	return nil
}

func (e *Engine) applyCheck(seat int) error {
	if e.toCall(seat) != 0 {
		return ErrCannotCheck
	}
	p := e.Seats[seat]
	p.LastAction = ActionCheck
	delete(e.owesAction, seat)
	delete(e.callOnly, seat)
	e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: ActCheck})
	e.advanceActorOrCloseStreet()
	return nil
}

func (e *Engine) applyCall(seat int) error {
	toCall := e.toCall(seat)
	if toCall <= 0 {
		return ErrCannotCall
	}
	p := e.Seats[seat]
	contribution := toCall
	if contribution > p.Chips {
		contribution = p.Chips
	}
	p.Chips -= contribution
	p.CurrentWager += contribution
	p.TotalHandWager += contribution
	if p.Chips == 0 {
		p.State = StateAllIn
		p.LastAction = ActionAllIn
	} else {
		p.LastAction = ActionCall
	}
	delete(e.owesAction, seat)
	delete(e.callOnly, seat)
	e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: ActCall, Amount: contribution})
	e.advanceActorOrCloseStreet()
	return nil
}

func (e *Engine) applyRaise(seat int, targetTotal int64) error {
	if e.callOnly[seat] {
		return ErrActionCappedToCall
	}
	p := e.Seats[seat]
	contribution := targetTotal - p.CurrentWager
	if contribution <= 0 || contribution > p.Chips {
		return ErrRaiseExceedsChips
	}
	isAllIn := contribution == p.Chips
	if isAllIn && targetTotal <= e.State.CurrentBet {
		return e.applyAllIn(seat)
	}
	if !isAllIn && targetTotal < e.State.CurrentBet+e.State.MinRaise {
		return ErrRaiseTooSmall
	}
	e.applyRaiseOrAllIn(seat, targetTotal, isAllIn)
	return nil
}

func (e *Engine) applyAllIn(seat int) error {
	p := e.Seats[seat]
	targetTotal := p.CurrentWager + p.Chips
	if targetTotal <= e.State.CurrentBet {
		// All-in for less than the current bet: a capped call, never reopens.
		contribution := p.Chips
		p.Chips = 0
		p.CurrentWager += contribution
		p.TotalHandWager += contribution
		p.State = StateAllIn
		p.LastAction = ActionAllIn
		delete(e.owesAction, seat)
		delete(e.callOnly, seat)
		e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: ActAllIn, Amount: contribution})
		e.advanceActorOrCloseStreet()
		return nil
	}
	if e.callOnly[seat] {
		return ErrActionCappedToCall
	}
	e.applyRaiseOrAllIn(seat, targetTotal, true)
	return nil
}

// applyRaiseOrAllIn applies a bet-increasing action to targetTotal. If the
// raise is a full raise (meets or exceeds the previous bet plus the minimum
// raise), action reopens for every other active player; an all-in that
// falls short of that threshold calls without reopening action.
func (e *Engine) applyRaiseOrAllIn(seat int, targetTotal int64, isAllIn bool) {
	p := e.Seats[seat]
	previousBet := e.State.CurrentBet
	contribution := targetTotal - p.CurrentWager

	p.Chips -= contribution
	p.CurrentWager = targetTotal
	p.TotalHandWager += contribution
	if p.Chips == 0 {
		p.State = StateAllIn
	}

	raiseSize := targetTotal - previousBet
	fullRaise := raiseSize >= e.State.MinRaise

	e.State.CurrentBet = targetTotal
	if fullRaise {
		e.State.MinRaise = raiseSize
		e.State.LastRaiseAmount = raiseSize
	}

	if isAllIn {
		p.LastAction = ActionAllIn
	} else {
		p.LastAction = ActionRaise
	}

	if fullRaise {
		e.owesAction = make(map[int]bool)
		e.callOnly = nil
		for _, other := range e.activeSeats() {
			if other != seat {
				e.owesAction[other] = true
			}
		}
	} else {
		delete(e.owesAction, seat)
		delete(e.callOnly, seat)
		// A short all-in raised CurrentBet without reopening the betting
		// round: every other active seat that already acted on the old bet
		// now faces a gap and must be re-prompted, but restricted to call or
		// fold — they never earned the right to raise against this bet.
		// Seats still waiting their first turn this round (still in
		// owesAction) are unaffected; they decide against the new bet
		// exactly as they would against any other.
		for _, other := range e.activeSeats() {
			if other == seat || e.owesAction[other] {
				continue
			}
			if e.Seats[other].CurrentWager < targetTotal {
				e.owesAction[other] = true
				if e.callOnly == nil {
					e.callOnly = make(map[int]bool)
				}
				e.callOnly[other] = true
			}
		}
	}

	action := ActRaise
	if isAllIn {
		action = ActAllIn
	}
	e.emit(EventPlayerAction, PlayerActionPayload{PlayerID: p.ID, SeatIdx: seat, Action: action, Amount: contribution})

	if e.checkSoleSurvivor() {
		return
	}
	e.advanceActorOrCloseStreet()
}

// checkSoleSurvivor ends the hand immediately, awarding the entire pot with
// no evaluation, if only one player remains un-folded.
func (e *Engine) checkSoleSurvivor() bool {
	remaining := e.nonFoldedSeats()
	if len(remaining) != 1 {
		return false
	}
	e.finishBySoleSurvivor(remaining[0])
	return true
}

// advanceActorOrCloseStreet moves CurrentActor to the next seat that still
// owes action, or closes the betting round if none remain.
func (e *Engine) advanceActorOrCloseStreet() {
	if len(e.owesAction) == 0 {
		e.closeStreet()
		return
	}
	order := e.seatOrderFrom(e.State.CurrentActor + 1)
	for _, seat := range order {
		if e.owesAction[seat] && e.Seats[seat].State == StateActive {
			e.State.CurrentActor = seat
			return
		}
	}
	// Nobody left who can voluntarily act (everyone remaining is all-in).
	e.closeStreet()
}
