package requests

import (
	"time"

	"sourcing-backend/internal/customization"
)

// ProductRequest is a buyer request as entered in a form or parsed from free text.
// Optional fields may be empty; Normalize turns it into the strict engine shape.
type ProductRequest struct {
	ID            string                     `json:"id"`
	Description   string                     `json:"description"`
	Size          string                     `json:"size,omitempty"`
	Material      string                     `json:"material,omitempty"`
	Colors        []string                   `json:"colors,omitempty"`
	Customization CustomizationInput         `json:"customization"`
	Category      customization.Category     `json:"category,omitempty"`
	PriceTarget   *customization.PriceTarget `json:"priceTarget,omitempty"`
	MOQ           *int                       `json:"moq,omitempty"`
	RawText       string                     `json:"rawText,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
}

// CustomizationInput is the loosely shaped customization part of a request.
type CustomizationInput struct {
	Logo            *customization.LogoSpec `json:"logo,omitempty"`
	Features        []string                `json:"features,omitempty"`
	ColorVariations []string                `json:"colorVariations,omitempty"`
}
