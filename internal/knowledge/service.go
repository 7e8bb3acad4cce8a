package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/telemetry"
)

// Service manages the knowledge base.
type Service struct {
	Repo  Repo
	LLM   llm.Client
	Store object.ObjectStore

	now func() time.Time
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added  []Entry `json:"added"`
	Merged []Entry `json:"merged"`
}

// Seed inserts the default entries when the knowledge base is empty.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.Repo.Create(ctx, DefaultEntries(s.clock())...)
}

// List returns entries matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	filter.Category = categoryOf(string(filter.Category))
	filter.Type = EntryType(strings.ToLower(strings.TrimSpace(string(filter.Type))))
	return s.Repo.List(ctx, filter)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id string) (Entry, error) {
	return s.Repo.GetByID(ctx, id)
}

// Add stores a new entry. ID and timestamps are assigned here; the source defaults to manual.
func (s *Service) Add(ctx context.Context, e Entry) (Entry, error) {
	e = s.stamp(e, SourceManual)
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, u Update) (Entry, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	updated := u.apply(existing)
	updated.Category = categoryOf(string(updated.Category))
	updated.UpdatedAt = s.clock()
	if err := updated.Validate(); err != nil {
		return Entry{}, err
	}
	if err := s.Repo.Update(ctx, updated); err != nil {
		return Entry{}, err
	}
	return updated, nil
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Import appends entries as given, without merging.
func (s *Service) Import(ctx context.Context, entries []Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		e = s.stamp(e, SourceManual)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	if err := s.Repo.Create(ctx, out...); err != nil {
		return nil, err
	}
	metrics.AddKnowledgeEntriesImported(len(out))
	return out, nil
}

// ImportBulk merges uploaded entries into the knowledge base. An incoming entry
// whose fingerprint matches an existing upload-sourced entry is folded into it:
// occurrences are summed and confidence is averaged to two decimals. Everything
// else is added as a new upload entry.
func (s *Service) ImportBulk(ctx context.Context, entries []Entry) (ImportResult, error) {
	existing, err := s.Repo.List(ctx, Filter{})
	if err != nil {
		return ImportResult{}, err
	}
	byFingerprint := make(map[string]Entry)
	for _, e := range existing {
		if e.Source == SourceUpload {
			byFingerprint[Fingerprint(e)] = e
		}
	}

	now := s.clock()
	result := ImportResult{Added: []Entry{}, Merged: []Entry{}}
	mergedIdx := make(map[string]int)
	for i, incoming := range entries {
		incoming.Category = categoryOf(string(incoming.Category))
		if err := incoming.Validate(); err != nil {
			return ImportResult{}, fmt.Errorf("entry %d: %w", i, err)
		}
		fp := Fingerprint(incoming)
		if match, ok := byFingerprint[fp]; ok {
			occurrences := occurrencesOf(match) + occurrencesOf(incoming)
			confidence := round2((confidenceOf(match) + confidenceOf(incoming)) / 2)
			match.Occurrences = &occurrences
			match.Confidence = &confidence
			match.UpdatedAt = now
			byFingerprint[fp] = match
			if idx, seen := mergedIdx[match.ID]; seen {
				result.Merged[idx] = match
			} else {
				mergedIdx[match.ID] = len(result.Merged)
				result.Merged = append(result.Merged, match)
			}
			continue
		}
		incoming = s.stamp(incoming, SourceUpload)
		incoming.Source = SourceUpload
		incoming.UpdatedAt = now
		result.Added = append(result.Added, incoming)
	}

	for _, e := range result.Merged {
		if err := s.Repo.Update(ctx, e); err != nil {
			return ImportResult{}, fmt.Errorf("merge %s: %w", e.ID, err)
		}
	}
	if err := s.Repo.Create(ctx, result.Added...); err != nil {
		return ImportResult{}, err
	}
	metrics.AddKnowledgeEntriesImported(len(result.Added))
	telemetry.Info("knowledge.import", map[string]any{
		"incoming": len(entries),
		"added":    len(result.Added),
		"merged":   len(result.Merged),
	})
	return result, nil
}

// Learn turns a negotiated conversation into entries: one each for supplier
// constraints, tradeoffs, MOQ data and pricing data when present.
func (s *Service) Learn(ctx context.Context, c ConversationContext) ([]Entry, error) {
	category := categoryOf(string(c.Category))
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c.Category)
	}
	now := s.clock()
	learned := make([]Entry, 0, 4)
	add := func(typ EntryType, content string, metadata map[string]string) {
		learned = append(learned, Entry{
			ID:        uuid.NewString(),
			Type:      typ,
			Category:  category,
			Content:   content,
			Metadata:  metadata,
			Source:    SourceConversation,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if constraints := nonEmpty(c.Constraints); len(constraints) > 0 {
		add(TypeSupplierConstraint,
			fmt.Sprintf("Supplier constraints for %s: %s", category, strings.Join(constraints, "; ")),
			map[string]string{"customizationType": c.CustomizationType, "source": string(SourceConversation)})
	}
	if tradeoffs := nonEmpty(c.Tradeoffs); len(tradeoffs) > 0 {
		add(TypeTradeoff,
			fmt.Sprintf("Tradeoffs for %s: %s", category, strings.Join(tradeoffs, "; ")),
			map[string]string{"resolution": c.Resolution})
	}
	if m := c.MOQData; m != nil {
		add(TypeMOQData,
			fmt.Sprintf("MOQ data for %s: Requested %d, actual minimum %d", category, m.Requested, m.Actual),
			map[string]string{"requested": strconv.Itoa(m.Requested), "actual": strconv.Itoa(m.Actual)})
	}
	if p := c.PricingData; p != nil {
		quoted := formatNumber(p.Quoted)
		actual := formatNumber(p.Actual)
		add(TypePricingInsight,
			fmt.Sprintf("Pricing for %s: Quoted %s %s, actual %s %s", category, p.Currency, quoted, p.Currency, actual),
			map[string]string{"quoted": quoted, "actual": actual, "currency": p.Currency})
	}

	if len(learned) == 0 {
		return learned, nil
	}
	if err := s.Repo.Create(ctx, learned...); err != nil {
		return nil, err
	}
	return learned, nil
}

// Export renders every entry as indented JSON.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	entries, err := s.Repo.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(entries, "", "  ")
}

func (s *Service) stamp(e Entry, defaultSource Source) Entry {
	now := s.clock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Source == "" {
		e.Source = defaultSource
	}
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Category = categoryOf(string(e.Category))
	e.Content = strings.TrimSpace(e.Content)
	return e
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
