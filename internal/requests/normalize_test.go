package requests

import (
	"errors"
	"testing"

	"sourcing-backend/internal/customization"
)

func TestNormalizeDefaults(t *testing.T) {
	got, err := Normalize(ProductRequest{Description: "  plain tote  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Product.Description != "plain tote" {
		t.Fatalf("expected trimmed description, got %q", got.Product.Description)
	}
	if got.Product.Category != customization.CategoryOther {
		t.Fatalf("expected category other, got %q", got.Product.Category)
	}
	if got.Product.Colors == nil || got.Customization.Features == nil || got.Customization.ColorVariations == nil {
		t.Fatalf("expected non-nil lists")
	}
	if got.Customization.Logo != nil || got.Requirements.PriceTarget != nil || got.Requirements.MOQ != nil {
		t.Fatalf("expected absent optional fields")
	}
}

func TestNormalizeCleansLists(t *testing.T) {
	got, err := Normalize(ProductRequest{
		Category: "Apparel",
		Customization: CustomizationInput{
			Features: []string{" zipper ", "", "  "},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Product.Category != customization.CategoryApparel {
		t.Fatalf("expected apparel, got %q", got.Product.Category)
	}
	if len(got.Customization.Features) != 1 || got.Customization.Features[0] != "zipper" {
		t.Fatalf("unexpected features: %v", got.Customization.Features)
	}
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	neg := -1
	negPrice := -2.0
	lo, hi := 5.0, 2.0

	cases := []struct {
		name  string
		req   ProductRequest
		field string
	}{
		{name: "unknown_category", req: ProductRequest{Category: "furniture"}, field: "category"},
		{name: "unknown_logo", req: ProductRequest{Customization: CustomizationInput{Logo: &customization.LogoSpec{Type: "sticker"}}}, field: "customization.logo.type"},
		{name: "negative_moq", req: ProductRequest{MOQ: &neg}, field: "moq"},
		{name: "negative_price", req: ProductRequest{PriceTarget: &customization.PriceTarget{Max: &negPrice}}, field: "priceTarget.max"},
		{name: "inverted_price", req: ProductRequest{PriceTarget: &customization.PriceTarget{Min: &lo, Max: &hi}}, field: "priceTarget"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestNormalizePriceTarget(t *testing.T) {
	max := 3.5
	zero := 0

	got, err := Normalize(ProductRequest{
		PriceTarget: &customization.PriceTarget{Max: &max, Currency: " eur "},
		MOQ:         &zero,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Requirements.PriceTarget == nil || got.Requirements.PriceTarget.Currency != "EUR" {
		t.Fatalf("expected EUR price target, got %+v", got.Requirements.PriceTarget)
	}
	if got.Requirements.MOQ != nil {
		t.Fatalf("expected zero moq to be treated as absent")
	}

	max = 9
	if *got.Requirements.PriceTarget.Max != 3.5 {
		t.Fatalf("expected normalized price to be a copy")
	}

	empty, err := Normalize(ProductRequest{PriceTarget: &customization.PriceTarget{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.Requirements.PriceTarget != nil {
		t.Fatalf("expected boundless price target to be dropped")
	}
}
