package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog"
)

// ClickHouseConfig configures the durable hand-history analytics sink.
type ClickHouseConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	MaxOpenConns int
}

// ClickHouseSink writes every completed hand into an append-only analytics
// table. Inserts are best-effort: a failure is logged, never surfaced to
// the table's own goroutine.
type ClickHouseSink struct {
	conn clickhouse.Conn
	log  zerolog.Logger
}

// NewClickHouseSink opens the ClickHouse connection and ensures the hand
// history table exists.
func NewClickHouseSink(ctx context.Context, cfg ClickHouseConfig, log zerolog.Logger) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &ClickHouseSink{conn: conn, log: log.With().Str("component", "history_clickhouse_sink").Logger()}
	if err := s.createTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseSink) createTable(ctx context.Context) error {
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS hand_history (
			table_id String,
			hand_number Int32,
			winners String,
			pots String,
			finished_at DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (table_id, hand_number)
	`)
}

// Publish implements Sink. Errors are logged rather than returned since the
// caller (the table controller, fanning out via the history Store) must
// never block on analytics storage.
func (s *ClickHouseSink) Publish(r Record) {
	winners, err := json.Marshal(r.Winners)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal winners for clickhouse insert")
		return
	}
	pots, err := json.Marshal(r.Pots)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal pots for clickhouse insert")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.conn.Exec(ctx, `
		INSERT INTO hand_history (table_id, hand_number, winners, pots, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.TableID, r.HandNumber, string(winners), string(pots), r.FinishedAt)
	if err != nil {
		s.log.Error().Err(err).Str("table_id", r.TableID).Msg("failed to insert hand history record")
	}
}

// Close closes the underlying connection.
func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
