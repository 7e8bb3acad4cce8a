// Package customization classifies a normalized product request into a customization
// level (L1-L5) and derives its constraints, feasibility score, warnings and
// negotiable alternatives. Everything here is pure and safe for concurrent use.
package customization

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Engine runs the classification pipeline. The zero value is ready to use.
type Engine struct {
	// NewID generates warning and alternative identifiers. Defaults to uuid.NewString.
	NewID func() string
}

var defaultEngine = &Engine{}

// Classify runs the full pipeline with the default engine.
func Classify(req ProductRequestJSON, selectedItem *VisualizationItem) Classification {
	return defaultEngine.Classify(req, selectedItem)
}

// Classify derives level, constraints, warnings, score and alternatives for the request.
// selectedItem is accepted for callers that carry the chosen design; no rule reads it yet.
func (e *Engine) Classify(req ProductRequestJSON, selectedItem *VisualizationItem) Classification {
	level := DetermineLevel(req)
	constraints := IdentifyConstraints(req, level)

	return Classification{
		Level:             level,
		LevelInfo:         LevelInfoFor(level),
		CustomizationType: DescribeCustomizationType(req),
		Constraints:       constraints,
		FeasibilityScore:  Score(level, constraints),
		Warnings:          e.GenerateWarnings(req, level, constraints),
		Alternatives:      e.GenerateAlternatives(req, level, constraints),
	}
}

// DescribeCustomizationType summarizes the requested customization for display.
func DescribeCustomizationType(req ProductRequestJSON) string {
	parts := make([]string, 0, 3)
	if logo := req.Customization.Logo; logo != nil {
		parts = append(parts, fmt.Sprintf("%s logo", logo.Type))
	}
	if len(req.Customization.Features) > 0 {
		parts = append(parts, strings.Join(req.Customization.Features, ", "))
	}
	if n := len(req.Customization.ColorVariations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d color variation(s)", n))
	}
	if len(parts) == 0 {
		return "No customization"
	}
	return strings.Join(parts, " + ")
}

func (e *Engine) newID() string {
	if e != nil && e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}
