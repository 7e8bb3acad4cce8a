package customization

var rulebook = map[Level]LevelInfo{
	Level1: {
		Level:          Level1,
		Name:           "Surface Customization",
		Emoji:          "🟢",
		CoreDefinition: "visual surface changes only with no structural impact",
		TypicalForms: []string{
			"Logo printing",
			"Engraving",
			"Packaging sleeve",
			"Minor color adjustments within the standard range",
		},
		KeyRisk:              "Decoration MOQ not surfaced early",
		SetupFee:             "Low one-time setup fee, often waived at volume",
		MOQImpact:            "Negotiable, but the decoration process may carry its own MOQ",
		CostBehavior:         "Linear, predictable",
		ReworkCost:           "Low",
		TimelineRisk:         "low",
		SupplierAvailability: "Large supplier pool",
		Feasibility:          "Very High (95%)",
		DevelopmentTime:      "1-7 days",
		BestFor:              "Adding brand presence to an existing product with minimal risk",
		EarlyWarningSignal:   "Decoration MOQ above the order quantity, as in the hair comb logo case (6,000 pcs required vs 5,000 wanted)",
	},
	Level2: {
		Level:          Level2,
		Name:           "Component-Level Customization",
		Emoji:          "🟡",
		CoreDefinition: "a change to one product component while the core structure stays the same",
		TypicalForms: []string{
			"Custom packaging box design",
			"Label insert",
			"Motor spec change",
			"Inner material change",
		},
		KeyRisk:              "Production starts before the final component design is confirmed",
		SetupFee:             "Moderate component setup or sampling fee",
		MOQImpact:            "MOQ may shift for the customized component",
		CostBehavior:         "Moderate jump",
		ReworkCost:           "Moderate",
		TimelineRisk:         "moderate",
		SupplierAvailability: "Moderate supplier pool",
		Feasibility:          "High (85%)",
		DevelopmentTime:      "7-15 days",
		BestFor:              "Differentiating a proven product through packaging or a single component",
		EarlyWarningSignal:   "Production scheduled before final artwork is approved, as in the play gym label insert case",
	},
	Level3: {
		Level:          Level3,
		Name:           "Structural Customization (No Mold)",
		Emoji:          "🟠",
		CoreDefinition: "core structure changes that stay within existing tooling limits",
		TypicalForms: []string{
			"Size modification",
			"Capacity change",
			"Material composition change",
			"Structural adjustment within existing tooling",
		},
		KeyRisk:              "Wrong structural parameter locked in early",
		SetupFee:             "Significant sampling and pattern adjustment fees",
		MOQImpact:            "Constrained by tooling and material limits",
		CostBehavior:         "Significant jump",
		ReworkCost:           "High",
		TimelineRisk:         "high",
		SupplierAvailability: "Limited supplier pool",
		Feasibility:          "Moderate (65%)",
		DevelopmentTime:      "15-30 days",
		BestFor:              "Fitting an existing product to a specific size or capacity requirement",
		EarlyWarningSignal:   "Samples requested before the required dimensions are confirmed, as in the cookie tin size case",
	},
	Level4: {
		Level:          Level4,
		Name:           "Mold/Engineering Customization",
		Emoji:          "🔴",
		CoreDefinition: "new tooling or mold creation with engineering redesign",
		TypicalForms: []string{
			"Custom outsole shoes",
			"Custom vending machine",
			"Kids cosmetic mold",
			"Specialized mechanical equipment",
		},
		KeyRisk:              "Mold MOQ far exceeds buyer needs and tooling spend is non-recoverable",
		SetupFee:             "Very high mold fee paid upfront",
		MOQImpact:            "Mold MOQ typically far above small-batch needs",
		CostBehavior:         "High, non-linear",
		ReworkCost:           "Very high",
		TimelineRisk:         "very high",
		SupplierAvailability: "Few suppliers with tooling capability",
		Feasibility:          "Low-Moderate (45%)",
		DevelopmentTime:      "30-90 days",
		BestFor:              "High-volume programs where a unique form is the key differentiator",
		EarlyWarningSignal:   "Buyer quantity in the hundreds while mold MOQ runs into the thousands, as in the custom outsole case",
	},
	Level5: {
		Level:          Level5,
		Name:           "Multi-Component System Customization",
		Emoji:          "⚫",
		CoreDefinition: "several components, materials and suppliers combined into one product system",
		TypicalForms: []string{
			"Jewelry packaging set (6 components)",
			"Multi-SKU customization",
			"Textile + metal + print + assembly",
		},
		KeyRisk:              "System economics fail even when each component is feasible on its own",
		SetupFee:             "Multiple setup and tooling fees across components",
		MOQImpact:            "MOQ stacks across every component",
		CostBehavior:         "Non-linear, compounding",
		ReworkCost:           "Extreme",
		TimelineRisk:         "extreme",
		SupplierAvailability: "Very few suppliers can coordinate the full system",
		Feasibility:          "Low (25%)",
		DevelopmentTime:      "60-120+ days",
		BestFor:              "Established brands with committed volume across every component",
		EarlyWarningSignal:   "Combined component MOQs exceed the total order, as in the jewelry packaging set case (300-500 units wanted)",
	},
}

// LevelInfoFor returns the rulebook entry for a level. Levels outside 1..5 are clamped.
func LevelInfoFor(level Level) LevelInfo {
	info := rulebook[clampLevel(level)]
	info.TypicalForms = append([]string(nil), info.TypicalForms...)
	return info
}

// Levels returns every rulebook entry from L1 to L5.
func Levels() []LevelInfo {
	out := make([]LevelInfo, 0, len(rulebook))
	for level := Level1; level <= Level5; level++ {
		out = append(out, LevelInfoFor(level))
	}
	return out
}

func clampLevel(level Level) Level {
	if level < Level1 {
		return Level1
	}
	if level > Level5 {
		return Level5
	}
	return level
}
