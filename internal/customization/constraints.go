package customization

import (
	"fmt"
	"strconv"
)

var moqFloors = map[Level]int{
	Level1: 500,
	Level2: 1000,
	Level3: 2000,
	Level4: 5000,
	Level5: 10000,
}

var priceMultipliers = map[Level]float64{
	Level1: 1.2,
	Level2: 1.5,
	Level3: 2.0,
	Level4: 3.0,
	Level5: 4.0,
}

// minimumBaseUnitPrice is the per-unit base price below which a target is flagged.
const minimumBaseUnitPrice = 0.5

// MOQFloor returns the typical minimum order quantity for a level.
func MOQFloor(level Level) int {
	return moqFloors[clampLevel(level)]
}

// PriceMultiplier returns the cost multiplier applied to a base unit price at a level.
func PriceMultiplier(level Level) float64 {
	return priceMultipliers[clampLevel(level)]
}

// IdentifyConstraints lists the mismatches between the request and what the level typically requires.
// Absent MOQ or price inputs never produce a constraint.
func IdentifyConstraints(req ProductRequestJSON, level Level) []Constraint {
	level = clampLevel(level)
	info := rulebook[level]
	constraints := make([]Constraint, 0, 5)

	if moq, ok := requestedMOQ(req); ok && moq < moqFloors[level] {
		severity := SeverityMedium
		switch {
		case level >= Level4:
			severity = SeverityCritical
		case level >= Level3:
			severity = SeverityHigh
		}
		constraints = append(constraints, Constraint{
			Type:          ConstraintMOQ,
			Description:   fmt.Sprintf("Requested MOQ (%d) is below typical minimum for Level %d customization", moq, level),
			Severity:      severity,
			CurrentValue:  strconv.Itoa(moq),
			RequiredValue: strconv.Itoa(moqFloors[level]),
		})
	}

	if target := req.Requirements.PriceTarget; target != nil && target.Max != nil && *target.Max > 0 {
		max := *target.Max
		multiplier := priceMultipliers[level]
		if max/multiplier < minimumBaseUnitPrice {
			severity := SeverityMedium
			if level >= Level3 {
				severity = SeverityHigh
			}
			constraints = append(constraints, Constraint{
				Type:          ConstraintPrice,
				Description:   fmt.Sprintf("Price target may be too low for Level %d customization complexity", level),
				Severity:      severity,
				CurrentValue:  fmt.Sprintf("%s %s", target.Currency, formatAmount(max)),
				RequiredValue: fmt.Sprintf("~%s %.2f estimated", target.Currency, max*multiplier),
			})
		}
	}

	if level >= Level3 {
		severity := SeverityMedium
		if level >= Level4 {
			severity = SeverityHigh
		}
		constraints = append(constraints, Constraint{
			Type:          ConstraintTimeline,
			Description:   fmt.Sprintf("Level %d customization requires %s development time", level, info.DevelopmentTime),
			Severity:      severity,
			CurrentValue:  "Not specified",
			RequiredValue: info.DevelopmentTime,
		})
	}

	if level >= Level4 {
		constraints = append(constraints, Constraint{
			Type:          ConstraintSupplier,
			Description:   fmt.Sprintf("Limited supplier availability for Level %d customization", level),
			Severity:      SeverityHigh,
			CurrentValue:  info.SupplierAvailability,
			RequiredValue: "Verified supplier with tooling capability required",
		})

		fee := "Single mold fee"
		if level == Level5 {
			fee = "Multiple tooling fees"
		}
		constraints = append(constraints, Constraint{
			Type:          ConstraintTooling,
			Description:   "New tooling/mold investment required upfront",
			Severity:      SeverityCritical,
			CurrentValue:  "No tooling",
			RequiredValue: fee + " required",
		})
	}

	return constraints
}

func requestedMOQ(req ProductRequestJSON) (int, bool) {
	if req.Requirements.MOQ == nil || *req.Requirements.MOQ <= 0 {
		return 0, false
	}
	return *req.Requirements.MOQ, true
}

func findConstraint(constraints []Constraint, kind ConstraintType) (Constraint, bool) {
	for _, c := range constraints {
		if c.Type == kind {
			return c, true
		}
	}
	return Constraint{}, false
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
