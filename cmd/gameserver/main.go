// Command gameserver runs the poker game server: HTTP/WebSocket front door,
// table registry, matchmaker, and the reconnection ledger, wired together
// into a single process.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"poker-platform/internal/bot"
	"poker-platform/internal/engine"
	"poker-platform/internal/history"
	"poker-platform/internal/hub"
	"poker-platform/internal/matchmaker"
	"poker-platform/internal/pokerapi"
	"poker-platform/internal/registry"
	"poker-platform/internal/session"
	"poker-platform/internal/table"
	"poker-platform/pkg/config"
	"poker-platform/pkg/rng"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// App wires every component together and exposes the HTTP/WebSocket
// handlers gin dispatches into.
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	hub     *hub.Hub
	reg     *registry.Registry
	mm      *matchmaker.Matchmaker
	ledger  *session.Ledger
	history *history.Store

	connTables map[*hub.Client]string // client -> table the client is currently in a room for
}

func newApp(cfg config.Config, log zerolog.Logger) (*App, error) {
	seeds, err := rng.NewSystem(nil)
	if err != nil {
		return nil, err
	}

	historyStore := history.New(200, nil, log)
	ledger := session.New(30*time.Second, nil, log)

	a := &App{
		cfg:        cfg,
		log:        log,
		ledger:     ledger,
		history:    historyStore,
		connTables: make(map[*hub.Client]string),
	}

	a.hub = hub.New(a.handleInbound, log)

	sink := multiSink{a.hub, a.history}
	decider := bot.New(nil)
	a.reg = registry.New(seeds, decider, sink, 10*time.Minute, log)

	a.mm = matchmaker.New(a.reg, matchmaker.Config{
		MatchmakingTimeout: cfg.MatchmakingTimeout,
		AIFillDelayMin:     cfg.AIFillDelayMin,
		AIFillDelayMax:     cfg.AIFillDelayMax,
		MinPlayersToStart:  2,
		MaxSeatsPerTable:   cfg.MaxPlayersPerRoom,
	}, func(bucket string) table.Config {
		return table.Config{
			Config: engine.Config{
				SmallBlind: cfg.DefaultSmallBlind,
				BigBlind:   cfg.DefaultBigBlind,
				MaxSeats:   cfg.MaxPlayersPerRoom,
				MinPlayers: 2,
			},
			MinBuyIn:          cfg.DefaultBigBlind * 20,
			MaxBuyIn:          cfg.DefaultBigBlind * 400,
			ActionTimeout:     cfg.ActionTimeout,
			AutoStartCooldown: 3 * time.Second,
			BotActDelayMin:    800 * time.Millisecond,
			BotActDelayMax:    2 * time.Second,
		}
	}, log)

	return a, nil
}

// multiSink fans engine events out to the hub (for client broadcast) and
// the in-memory hand history store.
type multiSink struct {
	hub *hub.Hub
	hst *history.Store
}

func (m multiSink) Publish(tableID string, ev engine.Event) {
	m.hub.Publish(tableID, ev)
	m.hst.OnHandComplete(tableID, ev)
}

func (a *App) Close() {
	a.mm.Close()
	a.reg.Close()
	a.ledger.Close()
	a.hub.Stop()
}

func (a *App) handleWebSocket(c *gin.Context) {
	playerID := c.Query("playerId")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerId query parameter required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(a.hub, conn, playerID, a.log)
	client.Run()
	a.onClientClosed(client)
}

// onClientClosed records a reconnection-ledger entry if the closed client
// was seated at a table, so a future reconnect envelope can restore it.
func (a *App) onClientClosed(c *hub.Client) {
	tableID, ok := a.connTables[c]
	if !ok {
		return
	}
	delete(a.connTables, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry, err := a.reg.GetTable(tableID)
	if err != nil {
		return
	}
	view, err := entry.Table.GetState(ctx, c.PlayerID)
	if err != nil {
		return
	}
	for _, s := range view.Seats {
		if s != nil && s.PlayerID == c.PlayerID {
			snapshot, err := json.Marshal(view)
			if err != nil {
				snapshot = nil
			}
			a.ledger.Disconnect(ctx, c.PlayerID, tableID, s.SeatIndex, s.Chips, snapshot)
			return
		}
	}
}

// handleInbound dispatches one decoded envelope from a connected client.
// It is registered with the hub as its InboundHandler.
func (a *App) handleInbound(c *hub.Client, env hub.Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch env.Type {
	case pokerapi.TypeJoinTable:
		a.onJoinTable(ctx, c, env)
	case pokerapi.TypeAction:
		a.onAction(ctx, c, env)
	case pokerapi.TypeLeaveTable:
		a.onLeaveTable(ctx, c)
	case pokerapi.TypeJoinQueue:
		a.onJoinQueue(ctx, c, env)
	case pokerapi.TypeReconnect:
		a.onReconnect(ctx, c, env)
	case pokerapi.TypePing:
		c.Send(hub.Envelope{Type: pokerapi.TypePong})
	default:
		c.SendError("unknown_type", "unrecognized envelope type")
	}
}

func (a *App) onJoinTable(ctx context.Context, c *hub.Client, env hub.Envelope) {
	var req pokerapi.JoinTableRequest
	if err := pokerapi.Decode(env, &req); err != nil {
		c.SendError("invalid_request", err.Error())
		return
	}
	seat, err := a.reg.JoinTable(ctx, req.TableID, c.PlayerID, req.Name, req.BuyIn, false)
	if err != nil {
		c.SendError("join_failed", err.Error())
		return
	}
	a.hub.JoinRoom(req.TableID, c)
	a.connTables[c] = req.TableID

	env2, _ := pokerapi.Encode(pokerapi.TypeJoined, req.TableID, map[string]int{"seat": seat})
	c.Send(env2)
}

func (a *App) onAction(ctx context.Context, c *hub.Client, env hub.Envelope) {
	var req pokerapi.ActionRequest
	if err := pokerapi.Decode(env, &req); err != nil {
		c.SendError("invalid_request", err.Error())
		return
	}
	tableID, ok := a.connTables[c]
	if !ok {
		c.SendError("not_seated", "join a table before submitting an action")
		return
	}
	entry, err := a.reg.GetTable(tableID)
	if err != nil {
		c.SendError("no_table", err.Error())
		return
	}
	view, err := entry.Table.GetState(ctx, c.PlayerID)
	if err != nil {
		c.SendError("state_unavailable", err.Error())
		return
	}
	seat := -1
	for _, s := range view.Seats {
		if s != nil && s.PlayerID == c.PlayerID {
			seat = s.SeatIndex
		}
	}
	if seat < 0 {
		c.SendError("not_seated", "player not found at table")
		return
	}

	action := parseAction(req.Action)
	if err := entry.Table.SubmitAction(ctx, c.PlayerID, seat, action, req.Amount); err != nil {
		c.SendError("action_rejected", err.Error())
	}
}

func (a *App) onLeaveTable(ctx context.Context, c *hub.Client) {
	tableID, ok := a.connTables[c]
	if !ok {
		return
	}
	_ = a.reg.LeaveTable(ctx, tableID, c.PlayerID)
	a.ledger.Cancel(ctx, c.PlayerID)
	a.hub.LeaveRoom(tableID, c)
	delete(a.connTables, c)
	c.Send(hub.Envelope{Type: pokerapi.TypeLeft})
}

func (a *App) onJoinQueue(ctx context.Context, c *hub.Client, env hub.Envelope) {
	var req pokerapi.JoinQueueRequest
	if err := pokerapi.Decode(env, &req); err != nil {
		c.SendError("invalid_request", err.Error())
		return
	}
	go func() {
		mmCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		tableID, seat, err := a.mm.Enqueue(mmCtx, req.Bucket, c.PlayerID, req.Name, req.BuyIn)
		if err != nil {
			c.SendError("matchmaking_failed", err.Error())
			return
		}
		a.hub.JoinRoom(tableID, c)
		a.connTables[c] = tableID
		queued, _ := pokerapi.Encode(pokerapi.TypeQueued, tableID, map[string]int{"seat": seat})
		c.Send(queued)
	}()
}

func (a *App) onReconnect(ctx context.Context, c *hub.Client, env hub.Envelope) {
	entry, ok := a.ledger.Resolve(ctx, c.PlayerID)
	if !ok {
		c.SendError("no_session", "no pending reconnection session found")
		return
	}
	a.hub.JoinRoom(entry.TableID, c)
	a.connTables[c] = entry.TableID

	resp, _ := pokerapi.Encode(pokerapi.TypeReconnected, entry.TableID, map[string]int{"seat": entry.SeatIndex})
	c.Send(resp)

	// Replay the table view captured at disconnect immediately, so the
	// client has a full snapshot to render; the table itself only
	// broadcasts engine events, never a state_update.
	if len(entry.LastObservedState) > 0 {
		c.Send(hub.Envelope{Type: pokerapi.TypeStateUpdate, RoomID: entry.TableID, Data: json.RawMessage(entry.LastObservedState)})
	}
}

func parseAction(s string) engine.Action {
	switch s {
	case "check":
		return engine.ActCheck
	case "call":
		return engine.ActCall
	case "raise":
		return engine.ActRaise
	case "allin":
		return engine.ActAllIn
	default:
		return engine.ActFold
	}
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	app, err := newApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize game server")
	}
	go app.hub.Run()

	router := gin.Default()
	router.GET("/ws", app.handleWebSocket)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/rooms", func(c *gin.Context) {
		entries := app.reg.ListPublic()
		rooms := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			rooms = append(rooms, gin.H{
				"id":         e.ID,
				"name":       e.Name,
				"smallBlind": e.Stakes.SmallBlind,
				"bigBlind":   e.Stakes.BigBlind,
			})
		}
		c.JSON(http.StatusOK, rooms)
	})

	router.POST("/api/tables", func(c *gin.Context) {
		var req struct {
			Name       string `json:"name" binding:"required"`
			SmallBlind int64  `json:"smallBlind"`
			BigBlind   int64  `json:"bigBlind"`
			Public     bool   `json:"public"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.SmallBlind == 0 {
			req.SmallBlind = cfg.DefaultSmallBlind
		}
		if req.BigBlind == 0 {
			req.BigBlind = cfg.DefaultBigBlind
		}
		entry, err := app.reg.CreateTable(req.Name, table.Config{
			Config: engine.Config{
				SmallBlind: req.SmallBlind,
				BigBlind:   req.BigBlind,
				MaxSeats:   cfg.MaxPlayersPerRoom,
				MinPlayers: 2,
			},
			MinBuyIn:          req.BigBlind * 20,
			MaxBuyIn:          req.BigBlind * 400,
			ActionTimeout:     cfg.ActionTimeout,
			AutoStartCooldown: 3 * time.Second,
			BotActDelayMin:    800 * time.Millisecond,
			BotActDelayMax:    2 * time.Second,
		}, req.Public)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"tableId": entry.ID})
	})

	router.GET("/api/tables/:tableId", func(c *gin.Context) {
		entry, err := app.reg.GetTable(c.Param("tableId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}
		view, err := entry.Table.GetState(c.Request.Context(), "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	srv := &http.Server{Addr: cfg.ServerAddr, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("game server stopped unexpectedly")
		}
	}()
	log.Info().Str("addr", cfg.ServerAddr).Msg("game server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down game server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful HTTP shutdown failed")
	}
	app.Close()
}
