package customization

import (
	"fmt"
	"strconv"
)

// savingPerLevel is an illustrative per-level saving estimate, not derived from cost data.
const savingPerLevel = 20

// GenerateAlternatives proposes negotiable options in fixed order:
// level reduction, MOQ increase, price adjustment.
func GenerateAlternatives(req ProductRequestJSON, level Level, constraints []Constraint) []Alternative {
	return defaultEngine.GenerateAlternatives(req, level, constraints)
}

// GenerateAlternatives is the Engine variant of the package-level function.
func (e *Engine) GenerateAlternatives(req ProductRequestJSON, level Level, constraints []Constraint) []Alternative {
	level = clampLevel(level)
	alternatives := make([]Alternative, 0, 3)

	if level > Level1 {
		reduced := level - 1
		info := rulebook[reduced]
		alternatives = append(alternatives, Alternative{
			ID:           e.newID(),
			Description:  fmt.Sprintf("Reduce to %s (Level %d)", info.Name, reduced),
			NegotiableOn: []Negotiable{NegotiableLevel},
			Tradeoffs: []string{
				"Simplified to " + info.CoreDefinition,
				"Faster turnaround: " + info.DevelopmentTime,
				"Lower rework risk: " + info.ReworkCost,
			},
			EstimatedSaving: fmt.Sprintf("%d%% cost reduction estimated", int(level-reduced)*savingPerLevel),
			NewLevel:        levelPtr(reduced),
		})
	}

	if moq, ok := findConstraint(constraints, ConstraintMOQ); ok {
		if _, requested := requestedMOQ(req); requested {
			if floor, err := strconv.Atoi(moq.RequiredValue); err == nil {
				alternatives = append(alternatives, Alternative{
					ID:           e.newID(),
					Description:  fmt.Sprintf("Increase MOQ to %d units for better pricing", floor),
					NegotiableOn: []Negotiable{NegotiableMOQ},
					Tradeoffs: []string{
						"Higher initial investment",
						"Better per-unit pricing",
						"More supplier options available",
					},
					NewMOQ: &floor,
				})
			}
		}
	}

	if target := req.Requirements.PriceTarget; target != nil {
		reduced := level - 1
		if reduced < Level1 {
			reduced = Level1
		}
		alternatives = append(alternatives, Alternative{
			ID:           e.newID(),
			Description:  "Adjust specifications for price target",
			NegotiableOn: []Negotiable{NegotiablePrice, NegotiableType},
			Tradeoffs: []string{
				"Simplified customization to meet budget",
				"May use standard materials instead of premium",
				"Logo size or placement may be adjusted",
			},
			NewPrice: clonePriceTarget(target),
			NewLevel: levelPtr(reduced),
		})
	}

	return alternatives
}

func levelPtr(level Level) *Level {
	return &level
}

func clonePriceTarget(in *PriceTarget) *PriceTarget {
	if in == nil {
		return nil
	}
	out := PriceTarget{Currency: in.Currency}
	if in.Min != nil {
		min := *in.Min
		out.Min = &min
	}
	if in.Max != nil {
		max := *in.Max
		out.Max = &max
	}
	return &out
}
