package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, type, category, content, metadata, source, confidence, occurrences,
       original_text, created_at, updated_at`

// Create inserts entries in one transaction.
func (r *PGRepo) Create(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
INSERT INTO knowledge_entries (
	id, type, category, content, metadata, source, confidence, occurrences, original_text, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, e := range entries {
		metadata, err := json.Marshal(nonNilMetadata(e.Metadata))
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			e.ID,
			string(e.Type),
			string(e.Category),
			e.Content,
			metadata,
			string(e.Source),
			nullableFloat(e.Confidence),
			nullableInt(e.Occurrences),
			nullableText(e.OriginalText),
			e.CreatedAt,
			e.UpdatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert knowledge entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// GetByID returns one entry.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM knowledge_entries
WHERE id = $1
LIMIT 1`
	e, err := scanEntry(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

// Update overwrites the mutable fields of an entry.
func (r *PGRepo) Update(ctx context.Context, e Entry) error {
	const query = `
UPDATE knowledge_entries
SET type = $1,
    category = $2,
    content = $3,
    metadata = $4,
    confidence = $5,
    occurrences = $6,
    original_text = $7,
    updated_at = $8
WHERE id = $9`
	metadata, err := json.Marshal(nonNilMetadata(e.Metadata))
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		string(e.Type),
		string(e.Category),
		e.Content,
		metadata,
		nullableFloat(e.Confidence),
		nullableInt(e.Occurrences),
		nullableText(e.OriginalText),
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM knowledge_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List filters by category and type in SQL; the text query is applied in Go
// so it matches metadata values the same way MemoryRepo does.
func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	query := `
SELECT ` + entryColumns + `
FROM knowledge_entries`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY created_at ASC, id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e            Entry
		typ          string
		category     string
		source       string
		metadata     []byte
		confidence   sql.NullFloat64
		occurrences  sql.NullInt64
		originalText sql.NullString
	)
	if err := row.Scan(
		&e.ID,
		&typ,
		&category,
		&e.Content,
		&metadata,
		&source,
		&confidence,
		&occurrences,
		&originalText,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return Entry{}, err
	}
	e.Type = EntryType(typ)
	e.Category = categoryOf(category)
	e.Source = Source(source)
	e.Metadata = map[string]string{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return Entry{}, fmt.Errorf("decode metadata for %s: %w", e.ID, err)
		}
	}
	if confidence.Valid {
		v := confidence.Float64
		e.Confidence = &v
	}
	if occurrences.Valid {
		v := int(occurrences.Int64)
		e.Occurrences = &v
	}
	e.OriginalText = originalText.String
	return e, nil
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableText(v string) any {
	if v == "" {
		return nil
	}
	return v
}
