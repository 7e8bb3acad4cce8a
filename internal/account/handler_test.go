package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/classifications"
	"sourcing-backend/internal/feasibility"
)

func newClaimRouter(svc *Service, userID string, guest bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("isGuest", guest)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func claimRequest(router http.Handler, guestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	if guestID != "" {
		req.Header.Set("X-Guest-Id", guestID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestClaimGuestMigratesData(t *testing.T) {
	ctx := context.Background()
	clsRepo := classifications.NewMemoryRepo()
	reportRepo := feasibility.NewMemoryRepo()
	router := newClaimRouter(NewService(clsRepo, reportRepo), "user-1", false)

	guestID := "11111111-1111-1111-1111-111111111111"
	guestUserID := "guest:" + guestID

	if err := clsRepo.Create(ctx, classifications.Record{ID: "cls-1", UserID: guestUserID, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create classification: %v", err)
	}
	if err := reportRepo.Create(ctx, feasibility.Job{ID: "job-1", UserID: guestUserID, Status: feasibility.JobStatusCompleted, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create report: %v", err)
	}

	resp := claimRequest(router, guestID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var result ClaimResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.MigratedClassifications != 1 || result.MigratedReports != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	records, err := clsRepo.ListByUser(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list classifications: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 migrated classification, got %d", len(records))
	}

	jobs, err := reportRepo.ListByUser(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 migrated report, got %d", len(jobs))
	}
	guestJobs, _ := reportRepo.ListByUser(ctx, guestUserID, 10, 0)
	if len(guestJobs) != 0 {
		t.Fatalf("expected guest history to be empty, got %d", len(guestJobs))
	}
}

func TestClaimGuestIdempotentAndIsolated(t *testing.T) {
	ctx := context.Background()
	clsRepo := classifications.NewMemoryRepo()
	reportRepo := feasibility.NewMemoryRepo()
	router := newClaimRouter(NewService(clsRepo, reportRepo), "user-1", false)

	guestID := "22222222-2222-2222-2222-222222222222"
	if err := clsRepo.Create(ctx, classifications.Record{ID: "cls-2", UserID: "guest:" + guestID, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create classification: %v", err)
	}

	if resp := claimRequest(router, guestID); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp := claimRequest(router, guestID)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 on idempotent call, got %d", resp.Code)
	}
	var second ClaimResult
	if err := json.Unmarshal(resp.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.MigratedClassifications != 0 {
		t.Fatalf("expected nothing left to claim, got %+v", second)
	}

	other, err := clsRepo.ListByUser(ctx, "user-2", 10, 0)
	if err != nil {
		t.Fatalf("list classifications: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for other user, got %d", len(other))
	}
}

func TestClaimGuestRejectsGuestsAndBadIDs(t *testing.T) {
	svc := NewService(classifications.NewMemoryRepo(), feasibility.NewMemoryRepo())

	guestRouter := newClaimRouter(svc, "guest:abc", true)
	if resp := claimRequest(guestRouter, "11111111-1111-1111-1111-111111111111"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest caller, got %d", resp.Code)
	}

	router := newClaimRouter(svc, "user-1", false)
	if resp := claimRequest(router, ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without guest id, got %d", resp.Code)
	}
	if resp := claimRequest(router, "not-a-uuid"); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid guest id, got %d", resp.Code)
	}
}

func TestClaimGuestAcceptsBodyGuestID(t *testing.T) {
	ctx := context.Background()
	reportRepo := feasibility.NewMemoryRepo()
	router := newClaimRouter(NewService(classifications.NewMemoryRepo(), reportRepo), "user-1", false)

	guestID := "22222222-2222-2222-2222-222222222222"
	if err := reportRepo.Create(ctx, feasibility.Job{ID: "job-9", UserID: "guest:" + guestID, Status: feasibility.JobStatusQueued, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create report: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", strings.NewReader(`{"guestId":"`+guestID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result ClaimResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.MigratedReports != 1 {
		t.Fatalf("expected 1 migrated report, got %d", result.MigratedReports)
	}

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", strings.NewReader(`{"guestId":`))
	badResp := httptest.NewRecorder()
	router.ServeHTTP(badResp, bad)
	if badResp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", badResp.Code)
	}
}

func TestClaimGuestUsesTransactionForPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE classifications SET user_id = \$1 WHERE user_id = \$2`).
		WithArgs("user-1", "guest:g").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE feasibility_reports SET user_id = \$1, updated_at = now\(\) WHERE user_id = \$2`).
		WithArgs("user-1", "guest:g").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewService(&classifications.PGRepo{DB: db}, &feasibility.PGRepo{DB: db})
	result, err := svc.ClaimGuest(context.Background(), "guest:g", "user-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.MigratedClassifications != 2 || result.MigratedReports != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
