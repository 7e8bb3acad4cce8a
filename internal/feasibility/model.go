package feasibility

import (
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Input is the buyer request a deep report is generated for.
type Input struct {
	ProductDescription        string   `json:"productDescription"`
	SelectedDesignName        string   `json:"selectedDesignName,omitempty"`
	SelectedDesignDescription string   `json:"selectedDesignDescription,omitempty"`
	CustomizationDescription  string   `json:"customizationDescription"`
	MOQ                       *int     `json:"moq,omitempty"`
	TargetPriceMin            *float64 `json:"targetPriceMin,omitempty"`
	TargetPriceMax            *float64 `json:"targetPriceMax,omitempty"`
	PriceCurrency             string   `json:"priceCurrency,omitempty"`
	Timeline                  string   `json:"timeline,omitempty"`
}

// Validate checks the fields a report cannot be produced without.
func (in Input) Validate() error {
	if strings.TrimSpace(in.ProductDescription) == "" || strings.TrimSpace(in.CustomizationDescription) == "" {
		return fmt.Errorf("%w: productDescription and customizationDescription are required", ErrInvalidInput)
	}
	if in.MOQ != nil && *in.MOQ < 0 {
		return fmt.Errorf("%w: moq must not be negative", ErrInvalidInput)
	}
	if in.TargetPriceMin != nil && *in.TargetPriceMin < 0 {
		return fmt.Errorf("%w: targetPriceMin must not be negative", ErrInvalidInput)
	}
	if in.TargetPriceMax != nil && *in.TargetPriceMax < 0 {
		return fmt.Errorf("%w: targetPriceMax must not be negative", ErrInvalidInput)
	}
	if in.TargetPriceMin != nil && in.TargetPriceMax != nil && *in.TargetPriceMin > *in.TargetPriceMax {
		return fmt.Errorf("%w: targetPriceMin exceeds targetPriceMax", ErrInvalidInput)
	}
	return nil
}

// Job tracks one asynchronous deep report.
type Job struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Input        Input      `json:"input"`
	Status       string     `json:"status"`
	Report       *Report    `json:"report,omitempty"`
	ErrorCode    *string    `json:"errorCode,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// StatusUpdate carries the fields changed by a job transition. Nil fields are left untouched.
type StatusUpdate struct {
	Status       string
	Report       *Report
	ErrorCode    *string
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
