// Package table implements the table controller: one goroutine per table
// owning a hand engine instance, seat assignment, and the bridge between
// player/bot actions and the engine's event stream.
package table

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"poker-platform/internal/engine"
	"poker-platform/internal/metrics"
)

// Config is the table-level configuration, layered over the engine's
// betting config with seating and timing rules the engine doesn't know
// about.
type Config struct {
	engine.Config
	MinBuyIn         int64
	MaxBuyIn         int64
	ActionTimeout    time.Duration
	AutoStartCooldown time.Duration
	BotActDelayMin   time.Duration
	BotActDelayMax   time.Duration
}

// SeedSource mints a fresh shuffle seed per hand. pkg/rng.System satisfies
// this via its SeedInt64 method.
type SeedSource interface {
	SeedInt64() int64
}

// BotDecider chooses an action for a bot-controlled seat. Implemented by
// internal/bot; kept as a narrow interface here so this package never
// imports the bot package.
type BotDecider interface {
	Decide(view StateView, seat int) (engine.Action, int64)
}

// EventSink receives every event the table produces, tagged with the
// table's ID, for fan-out by the connection hub.
type EventSink interface {
	Publish(tableID string, ev engine.Event)
}

// Table owns one hand engine and the seat array across hands. All mutation
// happens on its single goroutine; public methods are thin channel-backed
// facades so callers never touch engine state directly.
type Table struct {
	ID     string
	Config Config

	seeds  SeedSource
	bots   BotDecider
	sink   EventSink
	log    zerolog.Logger

	eng        *engine.Engine
	seats      []*engine.Player
	dealerSeat int

	handEndedAt   time.Time
	handStartedAt time.Time

	joinCh   chan joinReq
	leaveCh  chan leaveReq
	sitCh    chan sitReq
	actionCh chan actionReq
	stateCh  chan stateReq
	stopCh   chan struct{}
	wg       sync.WaitGroup

	botTimer     *time.Timer
	botTimerHand int
	botTimerSeat int

	tickRate time.Duration
}

type joinReq struct {
	playerID, name string
	buyIn          int64
	isBot          bool
	resp           chan joinResp
}
type joinResp struct {
	seat int
	err  error
}

type leaveReq struct {
	playerID string
	resp     chan error
}

type sitReq struct {
	playerID string
	sitOut   bool // true = sit out, false = sit back in
	resp     chan error
}

type actionReq struct {
	playerID     string
	seat         int
	action       engine.Action
	amount       int64
	isBotTrigger bool
	resp         chan error
}

type stateReq struct {
	viewerID string
	resp     chan StateView
}

// New constructs a Table. seeds and bots may be nil only if the table will
// never start a hand or never seat a bot, respectively.
func New(id string, cfg Config, seeds SeedSource, bots BotDecider, sink EventSink, log zerolog.Logger) *Table {
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 20 * time.Second
	}
	if cfg.AutoStartCooldown == 0 {
		cfg.AutoStartCooldown = 3 * time.Second
	}
	t := &Table{
		ID:       id,
		Config:   cfg,
		seeds:    seeds,
		bots:     bots,
		sink:     sink,
		log:      log.With().Str("table", id).Logger(),
		seats:    make([]*engine.Player, cfg.MaxSeats),
		joinCh:   make(chan joinReq),
		leaveCh:  make(chan leaveReq),
		sitCh:    make(chan sitReq),
		actionCh: make(chan actionReq),
		stateCh:  make(chan stateReq),
		stopCh:   make(chan struct{}),
		tickRate: 200 * time.Millisecond,
	}
	t.eng = engine.NewEngine(cfg.Config, log)
	t.eng.SetSeats(t.seats)
	return t
}

// Start runs the table's event loop in a background goroutine.
func (t *Table) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.loop(ctx)
}

// Stop halts the event loop and waits for it to exit.
func (t *Table) Stop() {
	close(t.stopCh)
	t.wg.Wait()
}

func (t *Table) loop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case req := <-t.joinCh:
			seat, err := t.handleJoin(req)
			req.resp <- joinResp{seat: seat, err: err}
		case req := <-t.leaveCh:
			req.resp <- t.handleLeave(req.playerID)
		case req := <-t.sitCh:
			req.resp <- t.handleSit(req.playerID, req.sitOut)
		case req := <-t.actionCh:
			if req.isBotTrigger {
				req = t.runBotDecision(req)
			}
			req.resp <- t.handleAction(req)
		case req := <-t.stateCh:
			req.resp <- t.buildState(req.viewerID)
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Table) drainEvents() {
	for _, ev := range t.eng.PopEvents() {
		t.recordEventMetrics(ev)
		if t.sink != nil {
			t.sink.Publish(t.ID, ev)
		}
	}
}

func (t *Table) recordEventMetrics(ev engine.Event) {
	switch ev.Type {
	case engine.EventHandStarted:
		t.handStartedAt = time.Now()
		metrics.RecordHandStarted(t.ID)
	case engine.EventHandComplete:
		payload, ok := ev.Payload.(engine.HandCompletePayload)
		if !ok {
			return
		}
		duration := time.Since(t.handStartedAt).Seconds()
		metrics.RecordHandCompleted(t.ID, payload.ShowedDown, duration)
	}
}

// AddPlayer seats playerID at the lowest free seat index with the given
// buy-in, blocking until the table's goroutine processes the request.
func (t *Table) AddPlayer(ctx context.Context, playerID, name string, buyIn int64, isBot bool) (int, error) {
	resp := make(chan joinResp, 1)
	select {
	case t.joinCh <- joinReq{playerID: playerID, name: name, buyIn: buyIn, isBot: isBot, resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.stopCh:
		return 0, ErrTableStopped
	}
	r := <-resp
	return r.seat, r.err
}

// RemovePlayer removes playerID's seat entirely. Between hands the seat is
// freed at once; mid-hand a player still to act is folded immediately and
// marked sitting out, and any seat with chips in the pot is kept until the
// hand concludes and freed then.
func (t *Table) RemovePlayer(ctx context.Context, playerID string) error {
	resp := make(chan error, 1)
	select {
	case t.leaveCh <- leaveReq{playerID: playerID, resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopCh:
		return ErrTableStopped
	}
	return <-resp
}

// SetSittingOut toggles whether playerID is dealt into new hands.
func (t *Table) SetSittingOut(ctx context.Context, playerID string, sitOut bool) error {
	resp := make(chan error, 1)
	select {
	case t.sitCh <- sitReq{playerID: playerID, sitOut: sitOut, resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopCh:
		return ErrTableStopped
	}
	return <-resp
}

// SubmitAction forwards a player's action request to the table's goroutine.
func (t *Table) SubmitAction(ctx context.Context, playerID string, seat int, action engine.Action, amount int64) error {
	resp := make(chan error, 1)
	select {
	case t.actionCh <- actionReq{playerID: playerID, seat: seat, action: action, amount: amount, resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopCh:
		return ErrTableStopped
	}
	return <-resp
}

// GetState returns a snapshot of the table, with hole cards redacted for
// every seat but viewerID's (and for folded players even at showdown).
func (t *Table) GetState(ctx context.Context, viewerID string) (StateView, error) {
	resp := make(chan StateView, 1)
	select {
	case t.stateCh <- stateReq{viewerID: viewerID, resp: resp}:
	case <-ctx.Done():
		return StateView{}, ctx.Err()
	case <-t.stopCh:
		return StateView{}, ErrTableStopped
	}
	return <-resp, nil
}

func (t *Table) handleJoin(req joinReq) (int, error) {
	if req.buyIn < t.Config.MinBuyIn || req.buyIn > t.Config.MaxBuyIn {
		return 0, ErrBuyInOutOfRange
	}
	for _, p := range t.seats {
		if p != nil && p.ID == req.playerID {
			return 0, ErrAlreadySeated
		}
	}
	for i, p := range t.seats {
		if p == nil {
			t.seats[i] = &engine.Player{
				ID:        req.playerID,
				Name:      req.name,
				SeatIndex: i,
				Chips:     req.buyIn,
				State:     engine.StateWaiting,
				IsBot:     req.isBot,
			}
			t.log.Info().Str("player", req.playerID).Int("seat", i).Msg("player seated")
			return i, nil
		}
	}
	return 0, ErrTableFull
}

func (t *Table) handleLeave(playerID string) error {
	for i, p := range t.seats {
		if p != nil && p.ID == playerID {
			if isActiveHandPhase(t.eng.State.Phase) && (p.State == engine.StateActive || p.TotalHandWager > 0) {
				// Mid-hand: fold in place rather than ripping the seat out
				// from under the engine's in-progress indices and pot
				// contributions. The seat is freed once the hand concludes,
				// by afterEngineStep.
				t.seats[i].PendingRemoval = true
				if p.State == engine.StateActive {
					t.eng.ForceFold(i)
					t.drainEvents()
					t.seats[i].State = engine.StateSittingOut
					t.afterEngineStep()
				}
				return nil
			}
			t.seats[i] = nil
			return nil
		}
	}
	return ErrPlayerNotFound
}

func (t *Table) handleSit(playerID string, sitOut bool) error {
	for _, p := range t.seats {
		if p != nil && p.ID == playerID {
			if sitOut {
				p.State = engine.StateSittingOut
			} else if p.State == engine.StateSittingOut {
				p.State = engine.StateWaiting
			}
			return nil
		}
	}
	return ErrPlayerNotFound
}

func (t *Table) handleAction(req actionReq) error {
	err := t.eng.ProcessAction(req.playerID, req.seat, req.action, req.amount)
	t.drainEvents()
	if err != nil {
		metrics.RecordActionRejected(req.action.String())
		return err
	}
	metrics.RecordAction(req.action.String())
	t.afterEngineStep()
	return nil
}

// isActiveHandPhase reports whether a hand is currently in flight (not
// waiting between hands and not finished).
func isActiveHandPhase(p engine.Phase) bool {
	return p != engine.PhaseWaiting && p != engine.PhaseFinished
}
