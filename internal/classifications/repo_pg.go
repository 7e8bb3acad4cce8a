package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sourcing-backend/internal/customization"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, user_id, request, selected_item, classification, level, feasibility_score, created_at`

// Create inserts a record. Level and score are denormalized for reporting queries.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO classifications (
	id, user_id, request, selected_item, classification, level, feasibility_score, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	requestPayload, err := json.Marshal(rec.Request)
	if err != nil {
		return err
	}
	var itemPayload any
	if rec.SelectedItem != nil {
		if itemPayload, err = json.Marshal(rec.SelectedItem); err != nil {
			return err
		}
	}
	classificationPayload, err := json.Marshal(rec.Classification)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		requestPayload,
		itemPayload,
		classificationPayload,
		int(rec.Classification.Level),
		rec.Classification.FeasibilityScore,
		rec.CreatedAt,
	)
	return err
}

// GetByID returns a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM classifications
WHERE id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByUser returns records newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + recordColumns + `
FROM classifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var request, item, classification []byte
	var level, score int
	// level and feasibility_score duplicate the classification payload.
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&request,
		&item,
		&classification,
		&level,
		&score,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(request, &rec.Request); err != nil {
		return Record{}, fmt.Errorf("decode request for %s: %w", rec.ID, err)
	}
	if len(item) > 0 && string(item) != "null" {
		var decoded customization.VisualizationItem
		if err := json.Unmarshal(item, &decoded); err != nil {
			return Record{}, fmt.Errorf("decode selected item for %s: %w", rec.ID, err)
		}
		rec.SelectedItem = &decoded
	}
	if err := json.Unmarshal(classification, &rec.Classification); err != nil {
		return Record{}, fmt.Errorf("decode classification for %s: %w", rec.ID, err)
	}
	return rec, nil
}

// ClaimGuest moves a guest's records to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE classifications SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
