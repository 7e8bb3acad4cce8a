package feasibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseableReport is returned when no JSON object can be recovered from model output.
var ErrUnparseableReport = errors.New("llm output parse: no json object in report")

// ValidationError describes the first field of a decoded report that breaks the contract.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("llm output invalid: %s %s", e.Field, e.Reason)
}

// ParseReport recovers and validates a Report from raw model output.
// Markdown fences and surrounding prose are tolerated; missing or unknown
// required values are rejected rather than defaulted.
func ParseReport(raw string) (Report, error) {
	obj, ok := extractJSONObject(stripFences(raw))
	if !ok {
		return Report{}, ErrUnparseableReport
	}

	var report Report
	if err := json.Unmarshal([]byte(obj), &report); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrUnparseableReport, err)
	}
	if err := validateReport(&report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced {...} in s. Braces inside
// string literals are ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func validateReport(r *Report) error {
	if r.ClassificationLevel < 1 || r.ClassificationLevel > 5 {
		return &ValidationError{Field: "classificationLevel", Reason: "must be between 1 and 5"}
	}
	if strings.TrimSpace(r.ClassificationRationale) == "" {
		return &ValidationError{Field: "classificationRationale", Reason: "is required"}
	}
	dims := []struct {
		name string
		dim  *Dimension
	}{
		{"customizationFeasibility", &r.CustomizationFeasibility},
		{"moqFeasibility", &r.MOQFeasibility},
		{"priceFeasibility", &r.PriceFeasibility},
		{"timelineFeasibility", &r.TimelineFeasibility},
	}
	for _, d := range dims {
		if !d.dim.Status.Valid() {
			return &ValidationError{Field: d.name + ".status", Reason: fmt.Sprintf("unknown value %q", d.dim.Status)}
		}
		if strings.TrimSpace(d.dim.Headline) == "" {
			return &ValidationError{Field: d.name + ".headline", Reason: "is required"}
		}
		if strings.TrimSpace(d.dim.Detail) == "" {
			return &ValidationError{Field: d.name + ".detail", Reason: "is required"}
		}
		if d.dim.Risks == nil {
			d.dim.Risks = []string{}
		}
	}
	for i, alt := range r.Alternatives {
		if strings.TrimSpace(alt.Title) == "" {
			return &ValidationError{Field: fmt.Sprintf("alternatives[%d].title", i), Reason: "is required"}
		}
		if strings.TrimSpace(alt.Description) == "" {
			return &ValidationError{Field: fmt.Sprintf("alternatives[%d].description", i), Reason: "is required"}
		}
		if alt.ID == "" {
			r.Alternatives[i].ID = fmt.Sprintf("alt%d", i+1)
		}
		if alt.Tradeoffs == nil {
			r.Alternatives[i].Tradeoffs = []string{}
		}
	}
	if !r.OverallVerdict.Valid() {
		return &ValidationError{Field: "overallVerdict", Reason: fmt.Sprintf("unknown value %q", r.OverallVerdict)}
	}
	if strings.TrimSpace(r.OverallSummary) == "" {
		return &ValidationError{Field: "overallSummary", Reason: "is required"}
	}
	if r.QualityRisks == nil {
		r.QualityRisks = []string{}
	}
	if r.Alternatives == nil {
		r.Alternatives = []Alternative{}
	}
	return nil
}
