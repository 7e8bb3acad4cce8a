package customization

// Level is the customization depth, from surface-only (1) to multi-component system (5).
type Level int

const (
	Level1 Level = 1
	Level2 Level = 2
	Level3 Level = 3
	Level4 Level = 4
	Level5 Level = 5
)

// Valid reports whether the level is within 1..5.
func (l Level) Valid() bool {
	return l >= Level1 && l <= Level5
}

// Category is the closed set of product categories.
type Category string

const (
	CategoryBagsLeather    Category = "bags-leather"
	CategoryPackagingPaper Category = "packaging-paper"
	CategoryPackagingBox   Category = "packaging-box"
	CategoryApparel        Category = "apparel"
	CategoryAccessories    Category = "accessories"
	CategoryHomeware       Category = "homeware"
	CategoryElectronics    Category = "electronics"
	CategoryCosmetics      Category = "cosmetics"
	CategoryFoodPackaging  Category = "food-packaging"
	CategoryOther          Category = "other"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryBagsLeather,
		CategoryPackagingPaper,
		CategoryPackagingBox,
		CategoryApparel,
		CategoryAccessories,
		CategoryHomeware,
		CategoryElectronics,
		CategoryCosmetics,
		CategoryFoodPackaging,
		CategoryOther,
	}
}

// Valid reports whether the category is part of the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// LogoType is the closed set of logo application techniques.
type LogoType string

const (
	LogoEmbossing LogoType = "embossing"
	LogoPrinting  LogoType = "printing"
	LogoEngraving LogoType = "engraving"
	LogoLabel     LogoType = "label"
	LogoRubberTag LogoType = "rubber-tag"
	LogoHeatPress LogoType = "heat-press"
)

// Valid reports whether the logo type is supported.
func (t LogoType) Valid() bool {
	switch t {
	case LogoEmbossing, LogoPrinting, LogoEngraving, LogoLabel, LogoRubberTag, LogoHeatPress:
		return true
	default:
		return false
	}
}

// LogoSpec describes a requested logo.
type LogoSpec struct {
	Type        LogoType `json:"type"`
	Description string   `json:"description,omitempty"`
	Placement   string   `json:"placement,omitempty"`
}

// PriceTarget is a per-unit price range. Either bound may be absent.
type PriceTarget struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency"`
}

// Product is the product half of a normalized request.
type Product struct {
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Size        string   `json:"size"`
	Material    string   `json:"material"`
	Colors      []string `json:"colors"`
}

// Customization is the customization half of a normalized request.
type Customization struct {
	Logo            *LogoSpec `json:"logo"`
	Features        []string  `json:"features"`
	ColorVariations []string  `json:"colorVariations"`
}

// Requirements holds the commercial constraints of a request.
type Requirements struct {
	PriceTarget *PriceTarget `json:"priceTarget"`
	MOQ         *int         `json:"moq"`
}

// ProductRequestJSON is the normalized request the engine classifies.
type ProductRequestJSON struct {
	Product       Product       `json:"product"`
	Customization Customization `json:"customization"`
	Requirements  Requirements  `json:"requirements"`
}

// VisualizationItem is a candidate design the buyer may have selected.
type VisualizationItem struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	ImagePrompt        string            `json:"imagePrompt"`
	ImagePlaceholder   string            `json:"imagePlaceholder"`
	Specs              map[string]string `json:"specs"`
	EstimatedPrice     *PriceTarget      `json:"estimatedPrice,omitempty"`
	EstimatedMOQ       *int              `json:"estimatedMoq,omitempty"`
	CustomizationLevel *Level            `json:"customizationLevel,omitempty"`
	Selected           bool              `json:"selected,omitempty"`
}

// LevelInfo is the rulebook entry for one level.
type LevelInfo struct {
	Level                Level    `json:"level"`
	Name                 string   `json:"name"`
	Emoji                string   `json:"emoji"`
	CoreDefinition       string   `json:"coreDefinition"`
	TypicalForms         []string `json:"typicalForms"`
	KeyRisk              string   `json:"keyRisk"`
	SetupFee             string   `json:"setupFee"`
	MOQImpact            string   `json:"moqImpact"`
	CostBehavior         string   `json:"costBehavior"`
	ReworkCost           string   `json:"reworkCost"`
	TimelineRisk         string   `json:"timelineRisk"`
	SupplierAvailability string   `json:"supplierAvailability"`
	Feasibility          string   `json:"feasibility"`
	DevelopmentTime      string   `json:"developmentTime"`
	BestFor              string   `json:"bestFor"`
	EarlyWarningSignal   string   `json:"earlyWarningSignal"`
}

// ConstraintType identifies what a constraint is about.
type ConstraintType string

const (
	ConstraintMOQ      ConstraintType = "moq"
	ConstraintPrice    ConstraintType = "price"
	ConstraintTimeline ConstraintType = "timeline"
	ConstraintSupplier ConstraintType = "supplier"
	ConstraintTooling  ConstraintType = "tooling"
)

// Severity grades a constraint.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Constraint is a mismatch between the request and what its level typically requires.
type Constraint struct {
	Type          ConstraintType `json:"type"`
	Description   string         `json:"description"`
	Severity      Severity       `json:"severity"`
	CurrentValue  string         `json:"currentValue"`
	RequiredValue string         `json:"requiredValue"`
}

// WarningType identifies a buyer-facing warning.
type WarningType string

const (
	WarningMOQMismatch     WarningType = "moq-mismatch"
	WarningPriceMismatch   WarningType = "price-mismatch"
	WarningTimelineRisk    WarningType = "timeline-risk"
	WarningSupplierLimited WarningType = "supplier-limited"
	WarningToolingRequired WarningType = "tooling-required"
)

// WarningSeverity grades a warning for display.
type WarningSeverity string

const (
	WarningInfo    WarningSeverity = "info"
	WarningWarning WarningSeverity = "warning"
	WarningError   WarningSeverity = "error"
)

// Warning is a buyer-facing message derived from constraints and level.
type Warning struct {
	ID         string          `json:"id"`
	Type       WarningType     `json:"type"`
	Message    string          `json:"message"`
	Severity   WarningSeverity `json:"severity"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// Negotiable names a dimension an alternative relaxes.
type Negotiable string

const (
	NegotiableType  Negotiable = "customization-type"
	NegotiableLevel Negotiable = "customization-level"
	NegotiablePrice Negotiable = "price"
	NegotiableMOQ   Negotiable = "moq"
)

// Alternative is a negotiable option that relaxes one or more dimensions.
type Alternative struct {
	ID              string       `json:"id"`
	Description     string       `json:"description"`
	NegotiableOn    []Negotiable `json:"negotiableOn"`
	Tradeoffs       []string     `json:"tradeoffs"`
	EstimatedSaving string       `json:"estimatedSaving,omitempty"`
	NewLevel        *Level       `json:"newLevel,omitempty"`
	NewMOQ          *int         `json:"newMoq,omitempty"`
	NewPrice        *PriceTarget `json:"newPrice,omitempty"`
}

// Classification is the full engine output.
type Classification struct {
	Level             Level         `json:"level"`
	LevelInfo         LevelInfo     `json:"levelInfo"`
	CustomizationType string        `json:"customizationType"`
	Constraints       []Constraint  `json:"constraints"`
	FeasibilityScore  int           `json:"feasibilityScore"`
	Warnings          []Warning     `json:"warnings"`
	Alternatives      []Alternative `json:"alternatives"`
}
