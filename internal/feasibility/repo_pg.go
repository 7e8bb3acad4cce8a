package feasibility

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, user_id, input, status, report, error_code, error_message,
       provider, model, created_at, started_at, completed_at, updated_at`

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO feasibility_reports (
	id, user_id, input, status, report, provider, model, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	inputPayload, err := json.Marshal(job.Input)
	if err != nil {
		return err
	}
	var reportPayload any
	if job.Report != nil {
		if reportPayload, err = json.Marshal(job.Report); err != nil {
			return err
		}
	}
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		inputPayload,
		job.Status,
		reportPayload,
		job.Provider,
		job.Model,
		job.CreatedAt,
		job.CreatedAt,
	)
	return err
}

// GetByID returns a job by ID.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM feasibility_reports
WHERE id = $1
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// UpdateStatus applies a status transition.
func (r *PGRepo) UpdateStatus(ctx context.Context, jobID string, update StatusUpdate) error {
	const query = `
UPDATE feasibility_reports
SET status = $1,
    report = COALESCE($2::jsonb, report),
    error_code = COALESCE($3::text, error_code),
    error_message = COALESCE($4::text, error_message),
    started_at = COALESCE($5::timestamptz, started_at),
    completed_at = COALESCE($6::timestamptz, completed_at),
    updated_at = now()
WHERE id = $7`

	var reportPayload any
	if update.Report != nil {
		payload, err := json.Marshal(update.Report)
		if err != nil {
			return err
		}
		reportPayload = payload
	}
	res, err := r.DB.ExecContext(ctx, query,
		update.Status,
		reportPayload,
		nullableString(update.ErrorCode),
		nullableString(update.ErrorMessage),
		nullableTime(update.StartedAt),
		nullableTime(update.CompletedAt),
		jobID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns jobs for a user ordered newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
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
SELECT ` + jobColumns + `
FROM feasibility_reports
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var input []byte
	var report []byte
	var errorCode sql.NullString
	var errorMessage sql.NullString
	var provider sql.NullString
	var model sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&input,
		&job.Status,
		&report,
		&errorCode,
		&errorMessage,
		&provider,
		&model,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &job.Input); err != nil {
			return Job{}, fmt.Errorf("decode input for %s: %w", job.ID, err)
		}
	}
	if len(report) > 0 && string(report) != "null" {
		var decoded Report
		if err := json.Unmarshal(report, &decoded); err != nil {
			return Job{}, fmt.Errorf("decode report for %s: %w", job.ID, err)
		}
		job.Report = &decoded
	}
	if errorCode.Valid {
		job.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	job.Provider = provider.String
	job.Model = model.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

// ClaimGuest moves a guest's jobs to an authenticated user.
func (r *PGRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE feasibility_reports SET user_id = $1, updated_at = now() WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
