// Package metrics exposes the shared Prometheus collectors used by the
// hub, table, and matchmaker packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_hands_started_total",
		Help: "Total number of hands started, by table",
	}, []string{"table_id"})

	HandsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_hands_completed_total",
		Help: "Total number of hands completed, by table and whether they reached showdown",
	}, []string{"table_id", "showdown"})

	HandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poker_hand_duration_seconds",
		Help:    "Wall-clock duration of a hand from deal to payout",
		Buckets: prometheus.DefBuckets,
	}, []string{"table_id"})

	ActionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_actions_processed_total",
		Help: "Total number of player actions processed, by action type",
	}, []string{"action"})

	ActionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_actions_rejected_total",
		Help: "Total number of player actions rejected, by reason",
	}, []string{"reason"})

	ActiveTables = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poker_active_tables",
		Help: "Number of tables currently registered",
	})

	SeatedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poker_seated_players",
		Help: "Number of players currently seated across all tables",
	})

	MatchmakingQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poker_matchmaking_queue_depth",
		Help: "Number of tickets currently waiting, by stake bucket",
	}, []string{"bucket"})

	MatchmakingWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poker_matchmaking_wait_seconds",
		Help:    "Time a ticket waited before being seated",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	}, []string{"bucket"})

	BotBackfills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_matchmaking_bot_backfills_total",
		Help: "Total number of bot seats used to pad out an undersized table",
	}, []string{"bucket"})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poker_hub_connected_clients",
		Help: "Number of currently connected WebSocket clients",
	})

	OutboundDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_hub_outbound_dropped_total",
		Help: "Total number of outbound messages dropped due to a full client queue",
	}, []string{"reason"})

	ReconnectsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poker_reconnects_resolved_total",
		Help: "Total number of reconnection attempts, by outcome",
	}, []string{"outcome"})
)

// RecordHandStarted increments the per-table hand counter.
func RecordHandStarted(tableID string) {
	HandsStarted.WithLabelValues(tableID).Inc()
}

// RecordHandCompleted increments the per-table completion counter and
// records the hand's duration.
func RecordHandCompleted(tableID string, showedDown bool, durationSeconds float64) {
	showdown := "false"
	if showedDown {
		showdown = "true"
	}
	HandsCompleted.WithLabelValues(tableID, showdown).Inc()
	HandDuration.WithLabelValues(tableID).Observe(durationSeconds)
}

// RecordAction increments the processed-action counter for action.
func RecordAction(action string) {
	ActionsProcessed.WithLabelValues(action).Inc()
}

// RecordActionRejected increments the rejected-action counter for reason.
func RecordActionRejected(reason string) {
	ActionRejected.WithLabelValues(reason).Inc()
}

// RecordReconnect increments the reconnection outcome counter.
func RecordReconnect(outcome string) {
	ReconnectsResolved.WithLabelValues(outcome).Inc()
}
