package customization

import "fmt"

// GenerateWarnings turns constraints and level into buyer-facing warnings.
// Order is fixed: moq, price, timeline, supplier, tooling.
func GenerateWarnings(req ProductRequestJSON, level Level, constraints []Constraint) []Warning {
	return defaultEngine.GenerateWarnings(req, level, constraints)
}

// GenerateWarnings is the Engine variant of the package-level function.
func (e *Engine) GenerateWarnings(_ ProductRequestJSON, level Level, constraints []Constraint) []Warning {
	level = clampLevel(level)
	info := rulebook[level]
	warnings := make([]Warning, 0, 5)

	if moq, ok := findConstraint(constraints, ConstraintMOQ); ok {
		severity := WarningWarning
		if moq.Severity == SeverityCritical {
			severity = WarningError
		}
		warnings = append(warnings, Warning{
			ID:   e.newID(),
			Type: WarningMOQMismatch,
			Message: fmt.Sprintf("MOQ mismatch: Your requested quantity (%s) is below the typical minimum (%s) for %s customization.",
				moq.CurrentValue, moq.RequiredValue, info.Name),
			Severity:   severity,
			Suggestion: fmt.Sprintf("Consider increasing order quantity to %s or reducing customization level.", moq.RequiredValue),
		})
	}

	if _, ok := findConstraint(constraints, ConstraintPrice); ok {
		warnings = append(warnings, Warning{
			ID:   e.newID(),
			Type: WarningPriceMismatch,
			Message: fmt.Sprintf("Price target may not accommodate %s level complexity. %s cost behavior expected.",
				info.Name, info.CostBehavior),
			Severity:   WarningWarning,
			Suggestion: "Consider simplifying customization or adjusting price expectations.",
		})
	}

	if level >= Level3 {
		severity := WarningWarning
		if level >= Level4 {
			severity = WarningError
		}
		warnings = append(warnings, Warning{
			ID:       e.newID(),
			Type:     WarningTimelineRisk,
			Message:  fmt.Sprintf("Development timeline: %s. Timeline risk is %s.", info.DevelopmentTime, info.TimelineRisk),
			Severity: severity,
		})
	}

	if level >= Level4 {
		warnings = append(warnings,
			Warning{
				ID:       e.newID(),
				Type:     WarningSupplierLimited,
				Message:  fmt.Sprintf("Supplier availability: %s. %s.", info.SupplierAvailability, info.EarlyWarningSignal),
				Severity: WarningError,
			},
			Warning{
				ID:         e.newID(),
				Type:       WarningToolingRequired,
				Message:    fmt.Sprintf("Setup fees: %s. Mold/tooling investment is non-recoverable if project is cancelled.", info.SetupFee),
				Severity:   WarningError,
				Suggestion: "Ensure volume commitment before investing in tooling.",
			},
		)
	}

	return warnings
}
