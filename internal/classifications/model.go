package classifications

import (
	"time"

	"sourcing-backend/internal/customization"
)

// Record is a persisted classification of one buyer request.
type Record struct {
	ID             string                           `json:"id"`
	UserID         string                           `json:"userId"`
	Request        customization.ProductRequestJSON `json:"request"`
	SelectedItem   *customization.VisualizationItem `json:"selectedItem,omitempty"`
	Classification customization.Classification     `json:"classification"`
	CreatedAt      time.Time                        `json:"createdAt"`
}
