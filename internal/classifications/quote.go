package classifications

import (
	"github.com/google/uuid"

	"sourcing-backend/internal/customization"
)

const (
	fallbackMOQ            = 500
	fallbackAlternativeMOQ = 500
)

// Quote is a preliminary, non-binding quote for a selected design.
type Quote struct {
	ID             string                          `json:"id"`
	RequestID      string                          `json:"requestId"`
	SelectedItem   customization.VisualizationItem `json:"selectedItem"`
	Customization  customization.Classification    `json:"customization"`
	UnitPrice      customization.PriceTarget       `json:"unitPrice"`
	MOQ            int                             `json:"moq"`
	SetupFees      int                             `json:"setupFees"`
	LeadTime       string                          `json:"leadTime"`
	Notes          []string                        `json:"notes"`
	Alternatives   []AlternativeQuote              `json:"alternatives"`
	EstimatedTotal float64                         `json:"estimatedTotal"`
}

// AlternativeQuote prices one negotiable alternative.
type AlternativeQuote struct {
	ID          string                    `json:"id"`
	Description string                    `json:"description"`
	UnitPrice   customization.PriceTarget `json:"unitPrice"`
	MOQ         int                       `json:"moq"`
	Tradeoffs   []string                  `json:"tradeoffs"`
}

// SetupFee returns the flat setup fee in USD for a level.
func SetupFee(level customization.Level) int {
	switch {
	case level <= customization.Level2:
		return 150
	case level == customization.Level3:
		return 500
	case level == customization.Level4:
		return 2000
	default:
		return 5000
	}
}

// BuildQuote prices the selected item against a classification. Unit price and
// MOQ come from the item when it carries estimates, then from the request.
func BuildQuote(requestID string, req customization.ProductRequestJSON, item customization.VisualizationItem, cls customization.Classification) Quote {
	unitPrice := customization.PriceTarget{Min: floatPtr(1), Max: floatPtr(5), Currency: "USD"}
	if item.EstimatedPrice != nil {
		unitPrice = copyPrice(*item.EstimatedPrice)
	}

	moq := fallbackMOQ
	switch {
	case item.EstimatedMOQ != nil && *item.EstimatedMOQ > 0:
		moq = *item.EstimatedMOQ
	case req.Requirements.MOQ != nil && *req.Requirements.MOQ > 0:
		moq = *req.Requirements.MOQ
	}

	notes := make([]string, 0, len(cls.Warnings))
	for _, w := range cls.Warnings {
		notes = append(notes, w.Message)
	}

	alternatives := make([]AlternativeQuote, 0, len(cls.Alternatives))
	for _, alt := range cls.Alternatives {
		price := customization.PriceTarget{Min: floatPtr(0.5), Max: floatPtr(3), Currency: "USD"}
		if alt.NewPrice != nil {
			price = copyPrice(*alt.NewPrice)
		}
		altMOQ := fallbackAlternativeMOQ
		if alt.NewMOQ != nil && *alt.NewMOQ > 0 {
			altMOQ = *alt.NewMOQ
		}
		tradeoffs := append([]string{}, alt.Tradeoffs...)
		alternatives = append(alternatives, AlternativeQuote{
			ID:          alt.ID,
			Description: alt.Description,
			UnitPrice:   price,
			MOQ:         altMOQ,
			Tradeoffs:   tradeoffs,
		})
	}

	setup := SetupFee(cls.Level)
	total := float64(setup)
	if unitPrice.Max != nil {
		total += *unitPrice.Max * float64(moq)
	}

	return Quote{
		ID:             uuid.NewString(),
		RequestID:      requestID,
		SelectedItem:   item,
		Customization:  cls,
		UnitPrice:      unitPrice,
		MOQ:            moq,
		SetupFees:      setup,
		LeadTime:       cls.LevelInfo.DevelopmentTime,
		Notes:          notes,
		Alternatives:   alternatives,
		EstimatedTotal: total,
	}
}

func copyPrice(in customization.PriceTarget) customization.PriceTarget {
	out := customization.PriceTarget{Currency: in.Currency}
	if in.Min != nil {
		out.Min = floatPtr(*in.Min)
	}
	if in.Max != nil {
		out.Max = floatPtr(*in.Max)
	}
	if out.Currency == "" {
		out.Currency = "USD"
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
