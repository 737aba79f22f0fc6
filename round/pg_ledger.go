package round

import (
	"context"
	"database/sql"
	"fmt"
)

const createSettlementsTable = `CREATE TABLE IF NOT EXISTS crash_settlements (
	round_id    TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	crash_value NUMERIC(10,2) NOT NULL,
	target      NUMERIC(10,2) NOT NULL,
	bet         NUMERIC(20,2) NOT NULL,
	payout      NUMERIC(20,2),
	started_at  TIMESTAMPTZ NOT NULL,
	settled_at  TIMESTAMPTZ NOT NULL
)`

const insertSettlement = `INSERT INTO crash_settlements
	(round_id, status, crash_value, target, bet, payout, started_at, settled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (round_id) DO NOTHING`

// PGLedger writes settlements to Postgres. The *sql.DB comes from limbo.GetDB (pgx stdlib).
type PGLedger struct {
	db *sql.DB
}

func NewPGLedger(db *sql.DB) *PGLedger {
	return &PGLedger{db: db}
}

// EnsureSchema creates the crash_settlements table if missing.
func (l *PGLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createSettlementsTable); err != nil {
		return fmt.Errorf("create crash_settlements: %w", err)
	}
	return nil
}

// Record implements Recorder. Re-recording a round ID is a no-op.
func (l *PGLedger) Record(ctx context.Context, s Settlement) error {
	var payout any
	if s.Payout.Valid {
		payout = s.Payout.Decimal.StringFixed(2)
	}
	_, err := l.db.ExecContext(ctx, insertSettlement,
		s.RoundID,
		string(s.Status),
		s.CrashValue,
		s.Target,
		s.Bet.StringFixed(2),
		payout,
		s.StartedAt,
		s.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement %s: %w", s.RoundID, err)
	}
	return nil
}
