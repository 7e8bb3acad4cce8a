package requests

import (
	"errors"
	"fmt"
	"strings"

	"sourcing-backend/internal/customization"
)

// ErrInvalidInput marks a request that cannot be normalized.
var ErrInvalidInput = errors.New("invalid input")

const defaultCurrency = "USD"

// FieldError reports the offending field of a rejected request.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// Normalize converts a request into the strict shape the engine classifies.
// Empty categories default to "other"; unknown categories and logo types are rejected.
func Normalize(req ProductRequest) (customization.ProductRequestJSON, error) {
	category := customization.Category(strings.ToLower(strings.TrimSpace(string(req.Category))))
	if category == "" {
		category = customization.CategoryOther
	}
	if !category.Valid() {
		return customization.ProductRequestJSON{}, &FieldError{Field: "category", Message: fmt.Sprintf("unknown category %q", req.Category)}
	}

	var logo *customization.LogoSpec
	if req.Customization.Logo != nil {
		typ := customization.LogoType(strings.ToLower(strings.TrimSpace(string(req.Customization.Logo.Type))))
		if !typ.Valid() {
			return customization.ProductRequestJSON{}, &FieldError{Field: "customization.logo.type", Message: fmt.Sprintf("unknown logo type %q", req.Customization.Logo.Type)}
		}
		logo = &customization.LogoSpec{
			Type:        typ,
			Description: strings.TrimSpace(req.Customization.Logo.Description),
			Placement:   strings.TrimSpace(req.Customization.Logo.Placement),
		}
	}

	price, err := normalizePrice(req.PriceTarget)
	if err != nil {
		return customization.ProductRequestJSON{}, err
	}

	var moq *int
	if req.MOQ != nil {
		if *req.MOQ < 0 {
			return customization.ProductRequestJSON{}, &FieldError{Field: "moq", Message: "must not be negative"}
		}
		if *req.MOQ > 0 {
			v := *req.MOQ
			moq = &v
		}
	}

	return customization.ProductRequestJSON{
		Product: customization.Product{
			Description: strings.TrimSpace(req.Description),
			Category:    category,
			Size:        strings.TrimSpace(req.Size),
			Material:    strings.TrimSpace(req.Material),
			Colors:      cleanList(req.Colors),
		},
		Customization: customization.Customization{
			Logo:            logo,
			Features:        cleanList(req.Customization.Features),
			ColorVariations: cleanList(req.Customization.ColorVariations),
		},
		Requirements: customization.Requirements{
			PriceTarget: price,
			MOQ:         moq,
		},
	}, nil
}

func normalizePrice(in *customization.PriceTarget) (*customization.PriceTarget, error) {
	if in == nil {
		return nil, nil
	}
	out := &customization.PriceTarget{Currency: strings.ToUpper(strings.TrimSpace(in.Currency))}
	if out.Currency == "" {
		out.Currency = defaultCurrency
	}
	if in.Min != nil {
		if *in.Min < 0 {
			return nil, &FieldError{Field: "priceTarget.min", Message: "must not be negative"}
		}
		v := *in.Min
		out.Min = &v
	}
	if in.Max != nil {
		if *in.Max < 0 {
			return nil, &FieldError{Field: "priceTarget.max", Message: "must not be negative"}
		}
		v := *in.Max
		out.Max = &v
	}
	if out.Min != nil && out.Max != nil && *out.Min > *out.Max {
		return nil, &FieldError{Field: "priceTarget", Message: "min must not exceed max"}
	}
	if out.Min == nil && out.Max == nil {
		return nil, nil
	}
	return out, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
