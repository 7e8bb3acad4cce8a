package requests

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/customization"
)

func fixedParser() *Parser {
	return &Parser{
		NewID: func() string { return "req-1" },
		Now:   func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestParseLeatherTote(t *testing.T) {
	raw := "Black leather tote bag 30x40cm with embossed logo, 2 color variations, $5-8 per unit, MOQ 500"

	got := fixedParser().Parse(raw)

	assert.Equal(t, "req-1", got.ID)
	assert.Equal(t, raw, got.Description)
	assert.Equal(t, "30x40cm", got.Size)
	assert.Equal(t, "leather", got.Material)
	assert.Equal(t, []string{"black"}, got.Colors)
	require.NotNil(t, got.Customization.Logo)
	assert.Equal(t, customization.LogoEmbossing, got.Customization.Logo.Type)
	assert.Equal(t, []string{"Variation 1", "Variation 2"}, got.Customization.ColorVariations)
	assert.Equal(t, customization.CategoryBagsLeather, got.Category)
	require.NotNil(t, got.PriceTarget)
	assert.Equal(t, 5.0, *got.PriceTarget.Min)
	assert.Equal(t, 8.0, *got.PriceTarget.Max)
	assert.Equal(t, "USD", got.PriceTarget.Currency)
	require.NotNil(t, got.MOQ)
	assert.Equal(t, 500, *got.MOQ)
	assert.Equal(t, raw, got.RawText)
}

func TestParseFirstSentenceIsDescription(t *testing.T) {
	got := fixedParser().Parse("Kraft paper mailer box. Needs foil stamping and a foam insert. 2,000 pcs")

	assert.Equal(t, "Kraft paper mailer box", got.Description)
	assert.Equal(t, "kraft", got.Material)
	assert.Equal(t, customization.CategoryPackagingPaper, got.Category)
	assert.Equal(t, []string{"insert", "foam insert", "foil stamping"}, got.Customization.Features)
	require.NotNil(t, got.MOQ)
	assert.Equal(t, 2000, *got.MOQ)
	assert.Nil(t, got.Customization.Logo)
}

func TestParseSinglePriceAndCurrency(t *testing.T) {
	got := fixedParser().Parse("ceramic mug with engraved logo under €3")

	require.NotNil(t, got.PriceTarget)
	assert.Nil(t, got.PriceTarget.Min)
	assert.Equal(t, 3.0, *got.PriceTarget.Max)
	assert.Equal(t, "EUR", got.PriceTarget.Currency)
	assert.Equal(t, customization.LogoEngraving, got.Customization.Logo.Type)
	assert.Equal(t, customization.CategoryHomeware, got.Category)
}

func TestParseNothingRecognized(t *testing.T) {
	got := fixedParser().Parse("something custom")

	assert.Equal(t, customization.CategoryOther, got.Category)
	assert.Empty(t, got.Size)
	assert.Empty(t, got.Material)
	assert.Nil(t, got.PriceTarget)
	assert.Nil(t, got.MOQ)
	assert.NotNil(t, got.Customization.Features)
	assert.NotNil(t, got.Customization.ColorVariations)
}

func TestParseCapsColorVariations(t *testing.T) {
	for _, raw := range []string{
		"tote bag with 20000000 color variations",
		"tote bag with 9999999999 colour variations",
	} {
		got := fixedParser().Parse(raw)
		assert.Len(t, got.Customization.ColorVariations, maxColorVariations, raw)
		assert.Equal(t, "Variation 50", got.Customization.ColorVariations[maxColorVariations-1])
	}
}

func TestParseOrdersInvertedPriceRange(t *testing.T) {
	got := fixedParser().Parse("canvas tote bag, price $5 - 2 per unit")

	require.NotNil(t, got.PriceTarget)
	assert.Equal(t, 2.0, *got.PriceTarget.Min)
	assert.Equal(t, 5.0, *got.PriceTarget.Max)

	_, err := Normalize(got)
	assert.NoError(t, err)
}

func TestParseDescriptionCountsCharacters(t *testing.T) {
	long := fixedParser().Parse(strings.Repeat("帆", 250))
	assert.True(t, utf8.ValidString(long.Description))
	assert.Equal(t, maxDescriptionLen, utf8.RuneCountInString(long.Description))

	sentence := strings.Repeat("布", 150)
	short := fixedParser().Parse(sentence + ". 500 pcs")
	assert.Equal(t, sentence, short.Description)
}

func TestParsePrefersPlainLeather(t *testing.T) {
	got := fixedParser().Parse("pu leather card holder")
	assert.Equal(t, "leather", got.Material)
}

func TestParsedRequestClassifies(t *testing.T) {
	parsed := fixedParser().Parse("Canvas backpack with custom mold zipper pull, MOQ: 300")

	normalized, err := Normalize(parsed)
	require.NoError(t, err)

	got := customization.Classify(normalized, nil)
	assert.Equal(t, customization.Level4, got.Level)
	assert.Equal(t, 0, got.FeasibilityScore)
}

func TestStripQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kraft paper bag, 500 units, with printed logo", "Kraft paper bag, with printed logo"},
		{"MOQ: 1,000 pcs leather wallet", "leather wallet"},
		{"We need 2000 custom mugs", "custom mugs"},
		{"Plain cotton tote", "Plain cotton tote"},
	}
	for _, tc := range cases {
		if got := StripQuantity(tc.in); got != tc.want {
			t.Fatalf("StripQuantity(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
