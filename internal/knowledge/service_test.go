package knowledge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/customization"
)

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	entries, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, SourceManual, e.Source)
		assert.NoError(t, e.Validate())
	}
}

func TestListFilters(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	byCategory, err := svc.List(ctx, Filter{Category: customization.CategoryPackagingPaper})
	require.NoError(t, err)
	assert.Len(t, byCategory, 3)

	byType, err := svc.List(ctx, Filter{Type: TypePricingInsight})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	// "rubber-tag" only appears in metadata.
	byQuery, err := svc.List(ctx, Filter{Query: "RUBBER-TAG"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Contains(t, byQuery[0].Content, "rubber tags")

	combined, err := svc.List(ctx, Filter{Query: "moq", Category: customization.CategoryBagsLeather, Type: TypeTradeoff})
	require.NoError(t, err)
	require.Len(t, combined, 1)
}

func TestAddValidates(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, Entry{Type: "rumor", Category: customization.CategoryApparel, Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Add(ctx, Entry{Type: TypeMOQData, Category: "furniture", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Add(ctx, Entry{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	e, err := svc.Add(ctx, Entry{Type: TypeMOQData, Category: "Apparel", Content: " Hoodies MOQ 300 "})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, customization.CategoryApparel, e.Category)
	assert.Equal(t, "Hoodies MOQ 300", e.Content)
	assert.Equal(t, SourceManual, e.Source)
	assert.NotNil(t, e.Metadata)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	e, err := svc.Add(ctx, Entry{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "Hoodies MOQ 300"})
	require.NoError(t, err)

	content := "Hoodies MOQ 500"
	updated, err := svc.Update(ctx, e.ID, Update{Content: &content, Metadata: map[string]string{"moqMin": "500"}})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, "500", updated.Metadata["moqMin"])
	assert.True(t, updated.UpdatedAt.After(e.UpdatedAt))
	assert.Equal(t, e.CreatedAt, updated.CreatedAt)

	bad := EntryType("rumor")
	_, err = svc.Update(ctx, e.ID, Update{Type: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, e.ID), ErrNotFound)
	_, err = svc.Update(ctx, e.ID, Update{Content: &content})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImportBulkMergesByFingerprint(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	first, err := svc.ImportBulk(ctx, []Entry{{
		Type:        TypeMOQData,
		Category:    customization.CategoryPackagingBox,
		Content:     "Rigid boxes need 1,000 units minimum",
		Occurrences: intPtr(2),
		Confidence:  floatPtr(0.8),
	}})
	require.NoError(t, err)
	require.Len(t, first.Added, 1)
	assert.Equal(t, SourceUpload, first.Added[0].Source)

	second, err := svc.ImportBulk(ctx, []Entry{
		{
			Type:       TypeMOQData,
			Category:   customization.CategoryPackagingBox,
			Content:    "RIGID BOXES need 1,000 units minimum",
			Confidence: floatPtr(0.4),
		},
		{
			Type:     TypeTradeoff,
			Category: customization.CategoryPackagingBox,
			Content:  "Accepted 10% higher price for 500 units",
		},
	})
	require.NoError(t, err)
	require.Len(t, second.Merged, 1)
	require.Len(t, second.Added, 1)

	merged := second.Merged[0]
	assert.Equal(t, first.Added[0].ID, merged.ID)
	assert.Equal(t, 3, *merged.Occurrences)
	assert.Equal(t, 0.6, *merged.Confidence)

	stored, err := svc.Get(ctx, merged.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *stored.Occurrences)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportBulkIgnoresManualEntriesForMerge(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	_, err := svc.Add(ctx, Entry{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "Hoodies MOQ 300"})
	require.NoError(t, err)

	result, err := svc.ImportBulk(ctx, []Entry{{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "Hoodies MOQ 300"}})
	require.NoError(t, err)
	assert.Len(t, result.Added, 1)
	assert.Empty(t, result.Merged)
}

func TestImportBulkDefaultsMissingConfidence(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	_, err := svc.ImportBulk(ctx, []Entry{{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "Caps MOQ 100"}})
	require.NoError(t, err)

	result, err := svc.ImportBulk(ctx, []Entry{{Type: TypeMOQData, Category: customization.CategoryApparel, Content: "caps moq 100", Confidence: floatPtr(1)}})
	require.NoError(t, err)
	require.Len(t, result.Merged, 1)
	assert.Equal(t, 2, *result.Merged[0].Occurrences)
	assert.Equal(t, 0.75, *result.Merged[0].Confidence)
}

func TestFingerprintUsesFirst80Characters(t *testing.T) {
	base := Entry{Type: TypeTradeoff, Category: customization.CategoryOther}
	a := base
	a.Content = "Supplier agreed to split the mold fee across two orders if we commit to 3000 units; extra detail A"
	b := base
	b.Content = "supplier agreed to split the mold fee across two orders if we commit to 3000 units; other tail B"
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	c := a
	c.Category = customization.CategoryApparel
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestLearnFromConversation(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	learned, err := svc.Learn(ctx, ConversationContext{
		Category:          customization.CategoryBagsLeather,
		CustomizationType: "embossing logo",
		Constraints:       []string{"Embossing needs a metal plate", " "},
		Tradeoffs:         []string{"Accepted debossing instead"},
		Resolution:        "debossed",
		MOQData:           &MOQData{Requested: 200, Actual: 500},
		PricingData:       &PricingData{Quoted: 4.5, Actual: 5, Currency: "USD"},
	})
	require.NoError(t, err)
	require.Len(t, learned, 4)

	assert.Equal(t, TypeSupplierConstraint, learned[0].Type)
	assert.Equal(t, "Supplier constraints for bags-leather: Embossing needs a metal plate", learned[0].Content)
	assert.Equal(t, "embossing logo", learned[0].Metadata["customizationType"])
	assert.Equal(t, TypeTradeoff, learned[1].Type)
	assert.Equal(t, "debossed", learned[1].Metadata["resolution"])
	assert.Equal(t, "MOQ data for bags-leather: Requested 200, actual minimum 500", learned[2].Content)
	assert.Equal(t, "Pricing for bags-leather: Quoted USD 4.5, actual USD 5", learned[3].Content)
	for _, e := range learned {
		assert.Equal(t, SourceConversation, e.Source)
	}

	none, err := svc.Learn(ctx, ConversationContext{Category: customization.CategoryApparel})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.Learn(ctx, ConversationContext{Category: "furniture"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportRoundTripsEntries(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 6)
	assert.Contains(t, string(data), "\n  ")
}
