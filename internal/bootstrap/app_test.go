package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sourcing-backend/internal/knowledge"
	"sourcing-backend/internal/shared/config"
)

func TestBuildDevUsesMemoryRepositories(t *testing.T) {
	app, err := Build(config.Config{
		Env:              "dev",
		LocalStoreDir:    t.TempDir(),
		ReportQuotaLimit: 2,
		LLMProvider:      "openai",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if app.Queue != nil {
		t.Fatalf("expected goroutine dispatch without a queue URL")
	}
	if app.FeasibilityService.Configured() {
		t.Fatalf("expected reports disabled without credentials")
	}

	entries, err := app.KnowledgeService.List(context.Background(), knowledge.Filter{})
	if err != nil {
		t.Fatalf("list knowledge: %v", err)
	}
	if len(entries) != len(knowledge.DefaultEntries(time.Now())) {
		t.Fatalf("expected seeded knowledge base, got %d entries", len(entries))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(config.Config{Env: "production", LocalStoreDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}
