package health

import (
	"context"
	"database/sql"
	"time"

	"sourcing-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. db may be nil for in-memory deployments.
func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Status reports overall health and, when a database is configured, whether it answers a ping.
func (s *Service) Status(ctx context.Context) map[string]any {
	out := map[string]any{"ok": true}
	if s == nil || s.DB == nil {
		out["database"] = "memory"
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out["ok"] = false
		out["database"] = "unreachable"
		return out
	}
	out["database"] = "ok"
	out["pool"] = db.PoolStats(s.DB)
	return out
}
