package requests

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"sourcing-backend/internal/customization"
)

const (
	maxDescriptionLen  = 200
	maxColorVariations = 50
)

var (
	sentenceSplitRe    = regexp.MustCompile(`[.!?\n]`)
	dimensionRe        = regexp.MustCompile(`(\d+\s*[x×]\s*\d+(?:\s*[x×]\s*\d+)?)\s*(cm|mm|inches|inch|in|")`)
	sizeWordRe         = regexp.MustCompile(`\b(small|medium|large|xl|xxl|xs|mini|standard|oversized|compact)\b`)
	colorVariationRe   = regexp.MustCompile(`(\d+)\s*colou?r\s*variation`)
	priceRangeRe       = regexp.MustCompile(`[$¥€£]?\s*(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)`)
	singlePriceRe      = regexp.MustCompile(`[$¥€£]\s*(\d+(?:\.\d+)?)`)
	explicitMOQRe      = regexp.MustCompile(`\bmoq\s*:?\s*(\d[\d,]*)`)
	quantityWithUnitRe = regexp.MustCompile(`(\d[\d,]*)\s*(units?|pieces?|pcs|qty)`)
)

// Checked in order, so a plain "leather" wins over "pu leather".
var materials = []string{
	"leather", "pu leather", "genuine leather", "faux leather", "vegan leather",
	"canvas", "cotton", "polyester", "nylon", "silk", "linen", "denim",
	"kraft", "cardboard", "paper", "corrugated",
	"metal", "stainless steel", "aluminum", "brass", "copper",
	"plastic", "acrylic", "silicone", "rubber",
	"wood", "bamboo", "cork",
	"glass", "ceramic", "porcelain",
}

var colorWords = []string{
	"red", "blue", "green", "yellow", "orange", "purple", "violet",
	"pink", "black", "white", "grey", "gray", "brown", "beige", "tan",
	"navy", "teal", "coral", "burgundy", "maroon", "gold", "silver",
	"rose gold", "champagne", "ivory", "cream", "olive", "mint",
	"natural", "nude", "charcoal", "forest green", "sky blue",
}

var featureKeywords = []string{
	"d-ring", "strap", "hardware", "zipper", "pocket", "compartment",
	"handle", "magnetic closure", "velcro", "snap button",
	"custom box", "insert", "foam insert", "divider",
	"size modification", "structural", "mold", "tooling",
	"assembly", "multi-component", "embossing", "debossing",
	"foil stamping", "spot uv", "lamination", "coating",
	"printing", "screen print", "digital print",
}

type categoryPattern struct {
	category customization.Category
	re       *regexp.Regexp
}

// Checked in order; the first match wins.
var categoryPatterns = []categoryPattern{
	{customization.CategoryBagsLeather, regexp.MustCompile(`\b(bag|tote|backpack|handbag|purse|clutch|wallet|briefcase|leather\s*goods?)`)},
	{customization.CategoryPackagingPaper, regexp.MustCompile(`\b(paper\s*bag|shopping\s*bag|kraft|carrier\s*bag)\b`)},
	{customization.CategoryPackagingBox, regexp.MustCompile(`\b(box|packaging|carton|mailer)`)},
	{customization.CategoryApparel, regexp.MustCompile(`\b(shirt|dress|jacket|hoodie|apparel|clothing|garment)`)},
	{customization.CategoryAccessories, regexp.MustCompile(`\b(jewelry|watch|sunglasses|scarf|hat|belt|accessory|accessories)\b`)},
	{customization.CategoryHomeware, regexp.MustCompile(`\b(mug|candle|cushion|blanket|home)`)},
	{customization.CategoryElectronics, regexp.MustCompile(`\b(phone|cable|charger|speaker|electronic)`)},
	{customization.CategoryCosmetics, regexp.MustCompile(`\b(lipstick|cream|serum|cosmetic|beauty)`)},
	{customization.CategoryFoodPackaging, regexp.MustCompile(`\b(food.*pack|tin|jar|bottle|pouch)`)},
}

// Parser turns free text into a ProductRequest with keyword heuristics.
type Parser struct {
	NewID func() string
	Now   func() time.Time
}

// ParseText parses free text with a default Parser.
func ParseText(raw string) ProductRequest {
	return (&Parser{}).Parse(raw)
}

// Parse extracts whatever structure it can find; unrecognized fields stay empty.
func (p *Parser) Parse(raw string) ProductRequest {
	text := strings.ToLower(raw)
	req := ProductRequest{
		ID:          p.newID(),
		Description: extractDescription(raw),
		Size:        extractSize(text),
		Material:    firstContained(text, materials),
		Colors:      allContained(text, colorWords),
		Customization: CustomizationInput{
			Logo:            extractLogo(text),
			Features:        allContained(text, featureKeywords),
			ColorVariations: extractColorVariations(text),
		},
		Category:    detectCategory(text),
		PriceTarget: extractPrice(text),
		MOQ:         extractMOQ(text),
		RawText:     raw,
		CreatedAt:   p.now(),
	}
	return req
}

func (p *Parser) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// extractDescription keeps the first sentence, or the first
// maxDescriptionLen characters when that sentence is too long.
func extractDescription(raw string) string {
	first := strings.TrimSpace(sentenceSplitRe.Split(raw, 2)[0])
	if first != "" && utf8.RuneCountInString(first) <= maxDescriptionLen {
		return first
	}
	return strings.TrimSpace(truncateRunes(raw, maxDescriptionLen))
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func extractSize(text string) string {
	if m := dimensionRe.FindString(text); m != "" {
		return m
	}
	return sizeWordRe.FindString(text)
}

func firstContained(text string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func allContained(text string, candidates []string) []string {
	found := make([]string, 0)
	for _, c := range candidates {
		if strings.Contains(text, c) {
			found = append(found, c)
		}
	}
	return found
}

func extractLogo(text string) *customization.LogoSpec {
	hasLogo := strings.Contains(text, "logo")
	switch {
	case strings.Contains(text, "emboss"):
		return &customization.LogoSpec{Type: customization.LogoEmbossing, Description: "Logo embossing"}
	case strings.Contains(text, "engrav"):
		return &customization.LogoSpec{Type: customization.LogoEngraving, Description: "Logo engraving"}
	case strings.Contains(text, "heat press"):
		return &customization.LogoSpec{Type: customization.LogoHeatPress, Description: "Heat press logo"}
	case strings.Contains(text, "rubber tag"):
		return &customization.LogoSpec{Type: customization.LogoRubberTag, Description: "Rubber tag logo"}
	case hasLogo && strings.Contains(text, "label"):
		return &customization.LogoSpec{Type: customization.LogoLabel, Description: "Label logo"}
	case hasLogo && strings.Contains(text, "print"):
		return &customization.LogoSpec{Type: customization.LogoPrinting, Description: "Printed logo"}
	case hasLogo:
		return &customization.LogoSpec{Type: customization.LogoPrinting, Description: "Logo application"}
	default:
		return nil
	}
}

func extractColorVariations(text string) []string {
	m := colorVariationRe.FindStringSubmatch(text)
	if m == nil {
		return []string{}
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count <= 0 {
		return []string{}
	}
	count = min(count, maxColorVariations)
	out := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, fmt.Sprintf("Variation %d", i))
	}
	return out
}

func detectCategory(text string) customization.Category {
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			return p.category
		}
	}
	return customization.CategoryOther
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "¥"):
		return "CNY"
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "£"):
		return "GBP"
	default:
		return defaultCurrency
	}
}

func extractPrice(text string) *customization.PriceTarget {
	if m := priceRangeRe.FindStringSubmatch(text); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo == nil && errHi == nil {
			// "$5 - 2" means the same range as "$2 - 5"
			if lo > hi {
				lo, hi = hi, lo
			}
			return &customization.PriceTarget{Min: &lo, Max: &hi, Currency: detectCurrency(text)}
		}
	}
	if m := singlePriceRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &customization.PriceTarget{Max: &v, Currency: detectCurrency(text)}
		}
	}
	return nil
}

func extractMOQ(text string) *int {
	for _, re := range []*regexp.Regexp{explicitMOQRe, quantityWithUnitRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			return &n
		}
	}
	return nil
}
