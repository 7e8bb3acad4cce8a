package feasibility

// DimensionStatus grades one feasibility dimension.
type DimensionStatus string

const (
	StatusFeasible   DimensionStatus = "feasible"
	StatusAtRisk     DimensionStatus = "at-risk"
	StatusInfeasible DimensionStatus = "infeasible"
)

// Valid reports whether s is a known dimension status.
func (s DimensionStatus) Valid() bool {
	switch s {
	case StatusFeasible, StatusAtRisk, StatusInfeasible:
		return true
	}
	return false
}

// Verdict is the overall recommendation of a report.
type Verdict string

const (
	VerdictProceed            Verdict = "proceed"
	VerdictProceedWithCaution Verdict = "proceed-with-caution"
	VerdictReconsider         Verdict = "reconsider"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictProceed, VerdictProceedWithCaution, VerdictReconsider:
		return true
	}
	return false
}

// Dimension is the assessment of customization, MOQ, price or timeline.
type Dimension struct {
	Status   DimensionStatus `json:"status"`
	Headline string          `json:"headline"`
	Detail   string          `json:"detail"`
	Risks    []string        `json:"risks"`
}

// Alternative is a lower-risk option proposed by the report.
type Alternative struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tradeoffs   []string `json:"tradeoffs"`
	Saves       string   `json:"saves"`
	ImagePrompt string   `json:"imagePrompt,omitempty"`
}

// Report is the deep feasibility assessment returned by the language model.
type Report struct {
	ClassificationLevel      int           `json:"classificationLevel"`
	ClassificationRationale  string        `json:"classificationRationale"`
	CustomizationFeasibility Dimension     `json:"customizationFeasibility"`
	MOQFeasibility           Dimension     `json:"moqFeasibility"`
	PriceFeasibility         Dimension     `json:"priceFeasibility"`
	TimelineFeasibility      Dimension     `json:"timelineFeasibility"`
	QualityRisks             []string      `json:"qualityRisks"`
	Alternatives             []Alternative `json:"alternatives"`
	OverallVerdict           Verdict       `json:"overallVerdict"`
	OverallSummary           string        `json:"overallSummary"`
}
