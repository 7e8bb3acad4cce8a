package classifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/visualization"
)

// Service classifies buyer requests and keeps a history per buyer.
type Service struct {
	Repo   Repo
	Engine *customization.Engine
	// Concepts supplies the design quoted when none was selected.
	Concepts *visualization.Generator

	now func() time.Time
}

// NewService constructs a Service backed by repo.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Engine: &customization.Engine{}, Concepts: &visualization.Generator{}}
}

// Classify normalizes req, runs the engine and stores the result.
func (s *Service) Classify(ctx context.Context, userID string, req requests.ProductRequest, item *customization.VisualizationItem) (Record, error) {
	if userID == "" {
		return Record{}, errors.New("userID is required")
	}
	normalized, err := requests.Normalize(req)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	engine := s.Engine
	if engine == nil {
		engine = &customization.Engine{}
	}
	cls := engine.Classify(normalized, item)

	rec := Record{
		ID:             uuid.NewString(),
		UserID:         userID,
		Request:        normalized,
		SelectedItem:   item,
		Classification: cls,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("store classification: %w", err)
	}

	metrics.IncClassifications()
	telemetry.Info("classification.created", map[string]any{
		"request_id":        telemetry.RequestID(ctx),
		"user_id":           userID,
		"classification_id": rec.ID,
		"level":             int(cls.Level),
		"feasibility_score": cls.FeasibilityScore,
		"constraints":       len(cls.Constraints),
		"category":          string(normalized.Product.Category),
	})
	return rec, nil
}

// Get returns a record owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.UserID != userID {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns the caller's records, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Quote builds a preliminary quote for a stored classification. When item is
// nil the design selected at classification time is used, and failing that
// the request's default concept.
func (s *Service) Quote(ctx context.Context, userID, id string, item *customization.VisualizationItem) (Quote, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return Quote{}, err
	}
	if item == nil {
		item = rec.SelectedItem
	}
	if item == nil {
		concept := s.Concepts.DefaultConcept(rec.Request)
		item = &concept
	}
	return BuildQuote(rec.ID, rec.Request, *item, rec.Classification), nil
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
