// Package knowledge keeps sourcing insights learned from supplier conversations:
// MOQ data points, pricing insights, supplier constraints and negotiated tradeoffs.
package knowledge

import (
	"fmt"
	"strings"
	"time"

	"sourcing-backend/internal/customization"
)

// EntryType classifies a knowledge entry.
type EntryType string

const (
	TypeRequestPattern     EntryType = "request-pattern"
	TypeSupplierConstraint EntryType = "supplier-constraint"
	TypeTradeoff           EntryType = "tradeoff"
	TypePricingInsight     EntryType = "pricing-insight"
	TypeMOQData            EntryType = "moq-data"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case TypeRequestPattern, TypeSupplierConstraint, TypeTradeoff, TypePricingInsight, TypeMOQData:
		return true
	default:
		return false
	}
}

// Source records where an entry came from.
type Source string

const (
	SourceConversation Source = "conversation"
	SourceManual       Source = "manual"
	SourceUpload       Source = "upload"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceConversation || s == SourceManual || s == SourceUpload
}

// Entry is one sourcing insight.
type Entry struct {
	ID           string                 `json:"id"`
	Type         EntryType              `json:"type"`
	Category     customization.Category `json:"category"`
	Content      string                 `json:"content"`
	Metadata     map[string]string      `json:"metadata"`
	Source       Source                 `json:"source"`
	Confidence   *float64               `json:"confidence,omitempty"`
	Occurrences  *int                   `json:"occurrences,omitempty"`
	OriginalText string                 `json:"originalText,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Validate checks the closed enums and required content.
func (e Entry) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, e.Type)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, e.Category)
	}
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if e.Source != "" && !e.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidInput, e.Source)
	}
	if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidInput)
	}
	return nil
}

// Update is a partial change to an entry. Nil fields are left untouched.
type Update struct {
	Type         *EntryType              `json:"type"`
	Category     *customization.Category `json:"category"`
	Content      *string                 `json:"content"`
	Metadata     map[string]string       `json:"metadata"`
	Confidence   *float64                `json:"confidence"`
	Occurrences  *int                    `json:"occurrences"`
	OriginalText *string                 `json:"originalText"`
}

func (u Update) apply(e Entry) Entry {
	if u.Type != nil {
		e.Type = *u.Type
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Content != nil {
		e.Content = *u.Content
	}
	if u.Metadata != nil {
		e.Metadata = copyMetadata(u.Metadata)
	}
	if u.Confidence != nil {
		v := *u.Confidence
		e.Confidence = &v
	}
	if u.Occurrences != nil {
		v := *u.Occurrences
		e.Occurrences = &v
	}
	if u.OriginalText != nil {
		e.OriginalText = *u.OriginalText
	}
	return e
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Query    string
	Category customization.Category
	Type     EntryType
}

// Matches reports whether e passes the filter. Query is a case-insensitive
// substring match over content and metadata values.
func (f Filter) Matches(e Entry) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Content), q) {
		return true
	}
	for _, v := range e.Metadata {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// ConversationContext captures what was learned while negotiating one request.
type ConversationContext struct {
	Category          customization.Category `json:"category"`
	CustomizationType string                 `json:"customizationType,omitempty"`
	Constraints       []string               `json:"constraints,omitempty"`
	Tradeoffs         []string               `json:"tradeoffs,omitempty"`
	Resolution        string                 `json:"resolution,omitempty"`
	SupplierNotes     string                 `json:"supplierNotes,omitempty"`
	MOQData           *MOQData               `json:"moqData,omitempty"`
	PricingData       *PricingData           `json:"pricingData,omitempty"`
}

// MOQData compares the requested and actual minimum order quantity.
type MOQData struct {
	Requested int `json:"requested"`
	Actual    int `json:"actual"`
}

// PricingData compares a quoted and an actual unit price.
type PricingData struct {
	Quoted   float64 `json:"quoted"`
	Actual   float64 `json:"actual"`
	Currency string  `json:"currency"`
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func categoryOf(raw string) customization.Category {
	return customization.Category(strings.ToLower(strings.TrimSpace(raw)))
}
