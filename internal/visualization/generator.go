// Package visualization produces candidate design concepts for a normalized
// request. Concepts carry indicative price and MOQ estimates that quotes are
// priced from when the buyer has not picked a design of their own.
package visualization

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"sourcing-backend/internal/customization"
)

const (
	// DefaultConceptCount is the size of the first, divergent round.
	DefaultConceptCount = 5
	// DefaultBranchCount is the size of each refinement round.
	DefaultBranchCount = 3
	// MaxConcepts bounds a single round.
	MaxConcepts = 10

	fallbackBasePrice = 5.0
	fallbackBaseMOQ   = 500
	defaultCurrency   = "USD"
)

var (
	adjectives    = []string{"Classic", "Modern", "Minimalist", "Premium", "Artisan", "Bold", "Sleek", "Rustic", "Refined", "Vintage"}
	styleVariants = []string{"streamlined", "textured", "matte finish", "glossy", "embossed", "debossed", "foil accent", "woven", "stitched", "layered"}
	moqMultiplier = []float64{1, 0.8, 1.2, 1.5, 0.6}
	gradients     = []string{
		"from-blue-200 to-blue-400",
		"from-emerald-200 to-emerald-400",
		"from-amber-200 to-amber-400",
		"from-rose-200 to-rose-400",
		"from-violet-200 to-violet-400",
		"from-cyan-200 to-cyan-400",
		"from-orange-200 to-orange-400",
		"from-teal-200 to-teal-400",
		"from-pink-200 to-pink-400",
		"from-indigo-200 to-indigo-400",
	}
)

var categoryDetails = map[customization.Category][]string{
	customization.CategoryBagsLeather: {
		"Reinforced stitching throughout",
		"Premium hardware fittings",
		"Adjustable strap included",
		"Internal pockets and organizer",
		"Water-resistant coating",
	},
	customization.CategoryPackagingPaper: {
		"FSC-certified paper stock",
		"Reinforced bottom gusset",
		"Premium rope handles",
		"Spot UV finish available",
		"Recyclable and eco-friendly",
	},
	customization.CategoryPackagingBox: {
		"Rigid board construction",
		"Magnetic closure",
		"Custom foam insert",
		"Debossed lid detail",
		"Matte lamination finish",
	},
	customization.CategoryApparel: {
		"Pre-shrunk fabric",
		"Double-needle hem",
		"Tagless comfort label",
		"Reinforced seams",
		"Breathable construction",
	},
	customization.CategoryOther: {
		"Quality assured construction",
		"Durable finish",
		"Versatile design",
		"Professional grade",
		"Customization ready",
	},
}

type refinement struct {
	label string
	tweak string
}

var refinements = []refinement{
	{"Material Variant", "different material texture"},
	{"Color Variant", "alternative color palette"},
	{"Detail Variant", "enhanced finishing details"},
	{"Size Variant", "adjusted proportions"},
	{"Structure Variant", "modified structure"},
}

// Generator builds concepts. The zero value is ready to use.
type Generator struct {
	// NewID defaults to uuid.NewString.
	NewID func() string
	// Jitter returns a value in [0,1) used to spread branch prices.
	// Defaults to math/rand/v2.
	Jitter func() float64
}

// Generate returns count concepts for req. altDescription, when set, replaces
// the product description in names and prompts. count is clamped to
// [1, MaxConcepts].
func (g *Generator) Generate(req customization.ProductRequestJSON, count int, altDescription string) []customization.VisualizationItem {
	count = clampCount(count, DefaultConceptCount)
	desc := strings.TrimSpace(altDescription)
	if desc == "" {
		desc = req.Product.Description
	}
	material := req.Product.Material
	if material == "" {
		material = "standard material"
	}
	colors := req.Product.Colors
	if len(colors) == 0 {
		colors = []string{"natural"}
	}
	size := req.Product.Size
	if size == "" {
		size = "standard"
	}

	items := make([]customization.VisualizationItem, 0, count)
	for i := 0; i < count; i++ {
		adj := adjectives[i%len(adjectives)]
		style := styleVariants[i%len(styleVariants)]
		color := colors[i%len(colors)]
		price := PriceEstimate(req, i)
		moq := MOQEstimate(req, i)

		items = append(items, customization.VisualizationItem{
			ID:   g.newID(),
			Name: adj + " " + capitalize(desc),
			Description: fmt.Sprintf("%s %s in %s with %s detail. Made from %s, sized %s. %s.",
				adj, desc, color, style, material, size, categoryDetail(req.Product.Category, i)),
			ImagePrompt: fmt.Sprintf("Product photo: %s %s, %s color, %s material, %s, professional product photography, white background",
				strings.ToLower(adj), desc, color, material, style),
			ImagePlaceholder: gradients[i%len(gradients)],
			Specs: map[string]string{
				"Style":    adj + " " + style,
				"Material": material,
				"Color":    color,
				"Size":     size,
				"Finish":   style,
			},
			EstimatedPrice: &price,
			EstimatedMOQ:   &moq,
		})
	}
	return items
}

// Branch refines parent into count variants. Prices drift between 90% and
// 120% of the parent's; MOQ is inherited.
func (g *Generator) Branch(parent customization.VisualizationItem, count int) []customization.VisualizationItem {
	count = clampCount(count, DefaultBranchCount)
	items := make([]customization.VisualizationItem, 0, count)
	for i := 0; i < count; i++ {
		r := refinements[i%len(refinements)]

		specs := make(map[string]string, len(parent.Specs)+2)
		for k, v := range parent.Specs {
			specs[k] = v
		}
		specs["Refinement"] = r.label
		specs["Tweak"] = r.tweak

		var moq *int
		if parent.EstimatedMOQ != nil {
			v := *parent.EstimatedMOQ
			moq = &v
		}

		items = append(items, customization.VisualizationItem{
			ID:               g.newID(),
			Name:             parent.Name + " - " + r.label,
			Description:      fmt.Sprintf("Refined variant of %q with %s. %s", parent.Name, r.tweak, parent.Description),
			ImagePrompt:      parent.ImagePrompt + ", " + r.tweak + ", refined variant",
			ImagePlaceholder: gradients[(i+5)%len(gradients)],
			Specs:            specs,
			EstimatedPrice:   g.driftPrice(parent.EstimatedPrice),
			EstimatedMOQ:     moq,
		})
	}
	return items
}

// DefaultConcept is the first concept Generate would return. Quotes use it
// when no design was selected.
func (g *Generator) DefaultConcept(req customization.ProductRequestJSON) customization.VisualizationItem {
	return g.Generate(req, 1, "")[0]
}

// PriceEstimate is the indicative unit price of the index-th concept: the
// buyer's max target (or 5) scaled by 0.6 + 0.15*index, then spread ±20%.
func PriceEstimate(req customization.ProductRequestJSON, index int) customization.PriceTarget {
	base := fallbackBasePrice
	currency := defaultCurrency
	if target := req.Requirements.PriceTarget; target != nil {
		if target.Max != nil && *target.Max > 0 {
			base = *target.Max
		}
		if target.Currency != "" {
			currency = target.Currency
		}
	}
	variance := 0.6 + float64(index)*0.15
	lo := round2(base * variance * 0.8)
	hi := round2(base * variance * 1.2)
	return customization.PriceTarget{Min: &lo, Max: &hi, Currency: currency}
}

// MOQEstimate is the indicative MOQ of the index-th concept.
func MOQEstimate(req customization.ProductRequestJSON, index int) int {
	base := fallbackBaseMOQ
	if req.Requirements.MOQ != nil && *req.Requirements.MOQ > 0 {
		base = *req.Requirements.MOQ
	}
	return int(math.Round(float64(base) * moqMultiplier[index%len(moqMultiplier)]))
}

func (g *Generator) driftPrice(in *customization.PriceTarget) *customization.PriceTarget {
	if in == nil {
		return nil
	}
	out := &customization.PriceTarget{Currency: in.Currency}
	if in.Min != nil {
		v := round2(*in.Min * (0.9 + g.jitter()*0.3))
		out.Min = &v
	}
	if in.Max != nil {
		v := round2(*in.Max * (0.9 + g.jitter()*0.3))
		out.Max = &v
	}
	return out
}

func (g *Generator) newID() string {
	if g != nil && g.NewID != nil {
		return g.NewID()
	}
	return uuid.NewString()
}

func (g *Generator) jitter() float64 {
	if g != nil && g.Jitter != nil {
		return g.Jitter()
	}
	return rand.Float64()
}

func clampCount(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return min(n, MaxConcepts)
}

func categoryDetail(category customization.Category, index int) string {
	details, ok := categoryDetails[category]
	if !ok {
		details = categoryDetails[customization.CategoryOther]
	}
	return details[index%len(details)]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
