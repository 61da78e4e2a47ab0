package session

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresStore persists reconnection ledger entries so a process restart
// does not silently drop every player mid-disconnect onto a cold seat.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-opened *sql.DB (driver "postgres").
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateTable creates the ledger table if it doesn't exist.
func (s *PostgresStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reconnection_ledger (
			player_id VARCHAR(64) PRIMARY KEY,
			table_id VARCHAR(64) NOT NULL,
			seat_index INTEGER NOT NULL,
			disconnect_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			last_observed_chips BIGINT NOT NULL,
			last_observed_state JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_expires_at ON reconnection_ledger(expires_at);
	`)
	return err
}

// Save upserts one ledger entry.
func (s *PostgresStore) Save(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconnection_ledger (
			player_id, table_id, seat_index, disconnect_at, expires_at, last_observed_chips, last_observed_state
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id) DO UPDATE SET
			table_id = EXCLUDED.table_id,
			seat_index = EXCLUDED.seat_index,
			disconnect_at = EXCLUDED.disconnect_at,
			expires_at = EXCLUDED.expires_at,
			last_observed_chips = EXCLUDED.last_observed_chips,
			last_observed_state = EXCLUDED.last_observed_state
	`, e.PlayerID, e.TableID, e.SeatIndex, e.DisconnectAt, e.ExpiresAt, e.LastObservedChips, e.LastObservedState)
	return err
}

// Delete removes a ledger entry for playerID, if present.
func (s *PostgresStore) Delete(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reconnection_ledger WHERE player_id = $1`, playerID)
	return err
}

// LoadAll returns every persisted entry, used to repopulate the in-memory
// ledger on process start.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, table_id, seat_index, disconnect_at, expires_at, last_observed_chips, last_observed_state
		FROM reconnection_ledger
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.TableID, &e.SeatIndex, &e.DisconnectAt, &e.ExpiresAt, &e.LastObservedChips, &e.LastObservedState); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
