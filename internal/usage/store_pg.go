package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sourcing-backend/internal/shared/storage/db"
)

// PGStore keeps quota windows in the report_usage table.
type PGStore struct {
	DB    *sql.DB
	limit int
}

// NewPGStore constructs a Postgres-backed usage store over report_usage.
// Rows are created lazily with limit on first access.
func NewPGStore(conn *sql.DB, limit int) *PGStore {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &PGStore{DB: conn, limit: limit}
}

func (s *PGStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.EnsurePeriod(ctx, userID)
	}
	var u Usage
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if u, err = s.lockAndEnsure(ctx, tx, userID); err != nil {
			return err
		}
		if u.Used+n > u.Limit {
			return ErrLimitReached
		}
		u.Used += n
		_, err = tx.ExecContext(ctx, `
UPDATE report_usage SET used = $1 WHERE user_id = $2`, u.Used, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *PGStore) Refund(ctx context.Context, userID string, n int) (Usage, error) {
	if n <= 0 {
		return s.EnsurePeriod(ctx, userID)
	}
	var u Usage
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if u, err = s.lockAndEnsure(ctx, tx, userID); err != nil {
			return err
		}
		u.Used -= n
		if u.Used < 0 {
			u.Used = 0
		}
		_, err = tx.ExecContext(ctx, `
UPDATE report_usage SET used = $1 WHERE user_id = $2`, u.Used, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *PGStore) Reset(ctx context.Context, userID string) (Usage, error) {
	resetsAt := time.Now().UTC().Add(periodLength)
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO report_usage (user_id, plan, limit_amount, used, resets_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (user_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at`, userID, defaultPlan, s.limit, resetsAt)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return Usage{Plan: defaultPlan, Limit: s.limit, Used: 0, ResetsAt: resetsAt}, nil
}

func (s *PGStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	var u Usage
	err := db.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		u, err = s.lockAndEnsure(ctx, tx, userID)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

// lockAndEnsure row-locks the buyer's quota, creating it or rolling an
// expired week over as needed.
func (s *PGStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT plan, limit_amount, used, resets_at FROM report_usage WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		u = defaultUsage(s.limit)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO report_usage (user_id, plan, limit_amount, used, resets_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, u.Plan, u.Limit, u.Used, u.ResetsAt); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if err != nil {
		return Usage{}, err
	}

	if u.rollover(time.Now().UTC()) {
		if _, err := tx.ExecContext(ctx, `UPDATE report_usage SET used = $1, resets_at = $2 WHERE user_id = $3`, u.Used, u.ResetsAt, userID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

var _ Store = (*PGStore)(nil)
