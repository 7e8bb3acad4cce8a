package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"sourcing-backend/internal/customization"
	"sourcing-backend/internal/extract"
	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/shared/storage/object"
	"sourcing-backend/internal/shared/telemetry"
)

// MaxConversations is the largest batch accepted in one extraction run.
const MaxConversations = 20

const extractSystemPrompt = `You are an expert sourcing analyst who reads raw supplier-buyer conversations (which may be in Chinese, English, or mixed) and extracts structured knowledge for a product sourcing knowledge base.

## Your Task
Given a supplier conversation text, you must:
1. Detect the language. If the conversation is in Chinese (or other non-English), translate all relevant content to English.
2. Extract every distinct sourcing insight from the conversation.
3. Return a JSON object.

## Knowledge Entry Types
- "supplier-constraint": Hard limits a supplier states (MOQ floors, material restrictions, lead time minimums, capabilities they don't have)
- "moq-data": Specific minimum order quantity data points with numbers
- "pricing-insight": Pricing information, cost breakdowns, price differences between options
- "tradeoff": Trade-offs negotiated or discussed (e.g., lower MOQ accepted in exchange for higher price)
- "request-pattern": Common buyer request patterns or product customization requests

## Product Categories
Use exactly one of: bags-leather, packaging-paper, packaging-box, apparel, accessories, homeware, electronics, cosmetics, food-packaging, other

## Output Format
Return ONLY a valid JSON object (no markdown, no code fences) with this shape:
{
  "detectedLanguage": "Chinese" | "English" | "Mixed" | "Other",
  "entries": [
    {
      "type": "supplier-constraint" | "moq-data" | "pricing-insight" | "tradeoff" | "request-pattern",
      "category": "<one of the categories above>",
      "content": "<Clear English sentence describing the insight>",
      "metadata": { "<key>": "<value>", ... },
      "originalText": "<The original source language excerpt, if non-English; omit if already English>"
    }
  ]
}

## Rules
- Extract ALL distinct facts. Do not summarise multiple facts into one entry
- Use specific numbers when mentioned (e.g., "MOQ 500 units", "¥2.50/unit")
- metadata should hold structured numeric/unit data: moqMin, moqMax, price, currency, leadTime, component, etc.
- If nothing useful can be extracted, return an empty entries array
- Do not invent data that is not in the conversation`

const dedupeSystemPrompt = `You are a knowledge base curator. You receive a list of raw knowledge entries extracted from multiple supplier conversations, where similar insights may appear multiple times (possibly worded differently).

## Your Task
Consolidate similar entries by:
1. Grouping entries that express the same core insight (regardless of wording differences)
2. For each group, write a single clear canonical English content string that captures the insight
3. Record how many source conversations each group appeared in (occurrences)
4. Assign confidence (0.0-1.0) = occurrences / totalConversations

## Output Format
Return ONLY a valid JSON object (no markdown, no code fences):
{
  "entries": [
    {
      "type": "...",
      "category": "...",
      "content": "...",
      "metadata": { ... },
      "originalText": "...",
      "occurrences": <number>,
      "confidence": <float 0-1>
    }
  ]
}

## Rules
- Merge only entries that are truly about the same constraint/insight
- Keep entries separate if they have different numeric values (different MOQs = different entries)
- Sort by confidence descending (highest confidence first)
- originalText should be from the first occurrence if non-English, omit if English`

// Conversation is one supplier conversation to mine for knowledge.
type Conversation struct {
	Name string
	Text string
}

// ExtractionStats describes an extraction run.
type ExtractionStats struct {
	TotalConversations    int      `json:"totalConversations"`
	TotalChunksProcessed  int      `json:"totalChunksProcessed"`
	TotalEntriesExtracted int      `json:"totalEntriesExtracted"`
	DetectedLanguages     []string `json:"detectedLanguages"`
	Warnings              []string `json:"warnings"`
}

// ExtractionResult holds consolidated upload entries ready for ImportBulk.
type ExtractionResult struct {
	Entries []Entry         `json:"entries"`
	Stats   ExtractionStats `json:"stats"`
}

type extractedEntry struct {
	Type         EntryType         `json:"type"`
	Category     string            `json:"category"`
	Content      string            `json:"content"`
	Metadata     map[string]string `json:"metadata"`
	OriginalText string            `json:"originalText"`
	Occurrences  *int              `json:"occurrences,omitempty"`
	Confidence   *float64          `json:"confidence,omitempty"`
}

type rawEntry struct {
	sourceIndex int
	entry       extractedEntry
}

// ExtractConversations asks the model for insights in every chunk of every
// conversation, then consolidates them. A chunk that fails is recorded as a
// warning and skipped.
func (s *Service) ExtractConversations(ctx context.Context, conversations []Conversation) (ExtractionResult, error) {
	if !llm.Configured(s.LLM) {
		return ExtractionResult{}, ErrLLMNotConfigured
	}
	if len(conversations) == 0 {
		return ExtractionResult{}, fmt.Errorf("%w: at least one conversation is required", ErrInvalidInput)
	}
	if len(conversations) > MaxConversations {
		return ExtractionResult{}, fmt.Errorf("%w: maximum %d conversations per batch", ErrInvalidInput, MaxConversations)
	}

	stats := ExtractionStats{
		TotalConversations: len(conversations),
		DetectedLanguages:  []string{},
		Warnings:           []string{},
	}
	seenLanguage := map[string]bool{}
	var raw []rawEntry

	for i, conv := range conversations {
		text := strings.TrimSpace(conv.Text)
		if text == "" {
			continue
		}
		chunks := ChunkText(text)
		for c, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return ExtractionResult{}, err
			}
			stats.TotalChunksProcessed++

			header := "SUPPLIER CONVERSATION"
			if len(chunks) > 1 {
				header = fmt.Sprintf("SUPPLIER CONVERSATION (part %d/%d)", c+1, len(chunks))
			}
			out, err := s.LLM.Complete(ctx, llm.Request{
				System:  extractSystemPrompt,
				User:    header + ":\n" + chunk,
				Purpose: "knowledge_extraction",
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return ExtractionResult{}, err
				}
				stats.Warnings = append(stats.Warnings, fmt.Sprintf("File %d chunk %d: extraction failed: %v", i+1, c+1, err))
				continue
			}

			var parsed struct {
				DetectedLanguage string           `json:"detectedLanguage"`
				Entries          []extractedEntry `json:"entries"`
			}
			if err := decodeModelJSON(out, &parsed); err != nil {
				stats.Warnings = append(stats.Warnings, fmt.Sprintf("File %d chunk %d: AI returned unparseable JSON, skipped", i+1, c+1))
				continue
			}
			if lang := strings.TrimSpace(parsed.DetectedLanguage); lang != "" && !seenLanguage[lang] {
				seenLanguage[lang] = true
				stats.DetectedLanguages = append(stats.DetectedLanguages, lang)
			}
			for _, e := range parsed.Entries {
				if e.Type == "" || e.Category == "" || strings.TrimSpace(e.Content) == "" {
					continue
				}
				raw = append(raw, rawEntry{sourceIndex: i, entry: e})
			}
		}
	}

	if len(raw) == 0 {
		return ExtractionResult{Entries: []Entry{}, Stats: stats}, nil
	}

	consolidated, err := s.dedupeWithModel(ctx, raw, len(conversations))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ExtractionResult{}, err
		}
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("Deduplication failed (%v), using raw entries", err))
		consolidated = dedupeByFingerprint(raw, len(conversations))
	}

	entries := make([]Entry, 0, len(consolidated))
	for _, e := range consolidated {
		entry, ok := toEntry(e)
		if !ok {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("Dropped entry with unknown type %q", e.Type))
			continue
		}
		entries = append(entries, entry)
	}
	stats.TotalEntriesExtracted = len(entries)

	telemetry.Info("knowledge.extract", map[string]any{
		"conversations": stats.TotalConversations,
		"chunks":        stats.TotalChunksProcessed,
		"entries":       stats.TotalEntriesExtracted,
		"warnings":      len(stats.Warnings),
	})
	return ExtractionResult{Entries: entries, Stats: stats}, nil
}

func (s *Service) dedupeWithModel(ctx context.Context, raw []rawEntry, totalConversations int) ([]extractedEntry, error) {
	payload := struct {
		TotalConversations int              `json:"totalConversations"`
		RawEntries         []extractedEntry `json:"rawEntries"`
	}{TotalConversations: totalConversations}
	for _, r := range raw {
		payload.RawEntries = append(payload.RawEntries, r.entry)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out, err := s.LLM.Complete(ctx, llm.Request{
		System:  dedupeSystemPrompt,
		User:    string(body),
		Purpose: "knowledge_dedupe",
	})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Entries []extractedEntry `json:"entries"`
	}
	if err := decodeModelJSON(out, &parsed); err != nil {
		return nil, errors.New("deduplicate step returned unparseable JSON")
	}
	kept := make([]extractedEntry, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		if e.Type == "" || e.Category == "" || strings.TrimSpace(e.Content) == "" || e.Confidence == nil {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// dedupeByFingerprint groups raw entries by Fingerprint and counts the distinct
// conversations each group came from.
func dedupeByFingerprint(raw []rawEntry, totalConversations int) []extractedEntry {
	type group struct {
		entry   extractedEntry
		sources map[int]bool
	}
	var order []string
	groups := map[string]*group{}
	for _, r := range raw {
		key := Fingerprint(Entry{Type: r.entry.Type, Category: categoryOf(r.entry.Category), Content: r.entry.Content})
		g, ok := groups[key]
		if !ok {
			g = &group{entry: r.entry, sources: map[int]bool{}}
			groups[key] = g
			order = append(order, key)
		}
		g.sources[r.sourceIndex] = true
	}

	out := make([]extractedEntry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		occurrences := len(g.sources)
		confidence := math.Min(1, float64(occurrences)/float64(totalConversations))
		e := g.entry
		e.Occurrences = &occurrences
		e.Confidence = &confidence
		out = append(out, e)
	}
	return out
}

func toEntry(e extractedEntry) (Entry, bool) {
	typ := EntryType(strings.ToLower(strings.TrimSpace(string(e.Type))))
	if !typ.Valid() {
		return Entry{}, false
	}
	category := categoryOf(e.Category)
	if !category.Valid() {
		category = customization.CategoryOther
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	out := Entry{
		Type:         typ,
		Category:     category,
		Content:      strings.TrimSpace(e.Content),
		Metadata:     metadata,
		Source:       SourceUpload,
		OriginalText: strings.TrimSpace(e.OriginalText),
	}
	occurrences := 1
	if e.Occurrences != nil && *e.Occurrences > 0 {
		occurrences = *e.Occurrences
	}
	out.Occurrences = &occurrences
	if e.Confidence != nil {
		c := round2(math.Max(0, math.Min(1, *e.Confidence)))
		out.Confidence = &c
	}
	return out, true
}

// decodeModelJSON strips optional markdown fences and decodes the object.
func decodeModelJSON(raw string, v any) error {
	clean := strings.TrimSpace(raw)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimPrefix(clean, "json")
		clean = strings.TrimPrefix(clean, "JSON")
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	}
	return json.Unmarshal([]byte(strings.TrimSpace(clean)), v)
}

// Upload is one uploaded conversation file.
type Upload struct {
	FileName string
	Body     io.Reader
}

// IngestResult is the outcome of IngestUploads.
type IngestResult struct {
	Files      []string         `json:"files"`
	Extraction ExtractionResult `json:"extraction"`
	Import     ImportResult     `json:"import"`
}

// IngestUploads stores each file, extracts its text, mines it for knowledge
// and merges the result into the knowledge base.
func (s *Service) IngestUploads(ctx context.Context, userID string, uploads []Upload) (IngestResult, error) {
	if !llm.Configured(s.LLM) {
		return IngestResult{}, ErrLLMNotConfigured
	}
	if len(uploads) == 0 {
		return IngestResult{}, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	if len(uploads) > MaxConversations {
		return IngestResult{}, fmt.Errorf("%w: maximum %d files per upload", ErrInvalidInput, MaxConversations)
	}
	if s.Store == nil {
		return IngestResult{}, errors.New("object store not configured")
	}

	conversations := make([]Conversation, 0, len(uploads))
	keys := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if strings.TrimSpace(up.FileName) == "" {
			return IngestResult{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		key, err := UploadKey(userID, up.FileName)
		if err != nil {
			return IngestResult{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, up.FileName, err)
		}
		_, mimeType, err := object.Save(ctx, s.Store, key, up.FileName, up.Body)
		if err != nil {
			return IngestResult{}, fmt.Errorf("store %s: %w", up.FileName, err)
		}
		text, err := extract.ExtractText(ctx, s.Store, key, mimeType, up.FileName)
		if err != nil {
			return IngestResult{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, up.FileName, err)
		}
		keys = append(keys, key)
		conversations = append(conversations, Conversation{Name: up.FileName, Text: text})
	}
	return s.ingest(ctx, keys, conversations)
}

// IngestStored runs the same pipeline as IngestUploads over files the buyer
// already put in the object store through a presigned upload URL.
func (s *Service) IngestStored(ctx context.Context, userID string, keys []string) (IngestResult, error) {
	if !llm.Configured(s.LLM) {
		return IngestResult{}, ErrLLMNotConfigured
	}
	if len(keys) == 0 {
		return IngestResult{}, fmt.Errorf("%w: at least one storage key is required", ErrInvalidInput)
	}
	if len(keys) > MaxConversations {
		return IngestResult{}, fmt.Errorf("%w: maximum %d files per upload", ErrInvalidInput, MaxConversations)
	}
	if s.Store == nil {
		return IngestResult{}, errors.New("object store not configured")
	}

	conversations := make([]Conversation, 0, len(keys))
	for _, key := range keys {
		if !OwnsUploadKey(userID, key) {
			return IngestResult{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		name := path.Base(key)
		text, err := extract.ExtractText(ctx, s.Store, key, "", name)
		if err != nil {
			return IngestResult{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
		}
		conversations = append(conversations, Conversation{Name: name, Text: text})
	}
	return s.ingest(ctx, keys, conversations)
}

func (s *Service) ingest(ctx context.Context, keys []string, conversations []Conversation) (IngestResult, error) {
	extraction, err := s.ExtractConversations(ctx, conversations)
	if err != nil {
		return IngestResult{}, err
	}
	imported, err := s.ImportBulk(ctx, extraction.Entries)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Files: keys, Extraction: extraction, Import: imported}, nil
}
