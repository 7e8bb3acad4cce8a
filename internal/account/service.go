package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"sourcing-backend/internal/classifications"
	"sourcing-backend/internal/feasibility"
	"sourcing-backend/internal/shared/storage/db"
)

// Service hands guest history over to a signed-in buyer.
type Service struct {
	Classifications classifications.Repo
	Reports         feasibility.Repo
}

type ClaimResult struct {
	MigratedClassifications int `json:"migratedClassifications"`
	MigratedReports         int `json:"migratedReports"`
}

func NewService(classificationRepo classifications.Repo, reportRepo feasibility.Repo) *Service {
	return &Service{Classifications: classificationRepo, Reports: reportRepo}
}

// ClaimGuest reassigns classifications and reports from guestUserID to authedUserID.
// Postgres-backed repos are updated in one transaction.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	if clsPG, ok := s.Classifications.(*classifications.PGRepo); ok && clsPG != nil && clsPG.DB != nil {
		if reportPG, ok := s.Reports.(*feasibility.PGRepo); ok && reportPG != nil && reportPG.DB != nil {
			return claimWithTx(ctx, clsPG.DB, guestUserID, authedUserID)
		}
	}

	clsCount, err := claim(ctx, s.Classifications, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	reportCount, err := claim(ctx, s.Reports, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedClassifications: clsCount, MigratedReports: reportCount}, nil
}

func claimWithTx(ctx context.Context, conn *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	var res ClaimResult
	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		clsRes, err := tx.ExecContext(ctx, `UPDATE classifications SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
		if err != nil {
			return err
		}
		clsCount, _ := clsRes.RowsAffected()

		reportRes, err := tx.ExecContext(ctx, `UPDATE feasibility_reports SET user_id = $1, updated_at = now() WHERE user_id = $2`, authedUserID, guestUserID)
		if err != nil {
			return err
		}
		reportCount, _ := reportRes.RowsAffected()

		res = ClaimResult{MigratedClassifications: int(clsCount), MigratedReports: int(reportCount)}
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	return res, nil
}

type guestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

func claim(ctx context.Context, repo any, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("repo does not support claim")
}
