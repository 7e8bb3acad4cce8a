package knowledge

import (
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/customization"
)

// DefaultEntries returns the starter knowledge base.
func DefaultEntries(now time.Time) []Entry {
	entry := func(typ EntryType, category customization.Category, content string, metadata map[string]string) Entry {
		return Entry{
			ID:        uuid.NewString(),
			Type:      typ,
			Category:  category,
			Content:   content,
			Metadata:  metadata,
			Source:    SourceManual,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return []Entry{
		entry(TypeSupplierConstraint, customization.CategoryBagsLeather,
			"Logo rubber tags require minimum 1,000 units. Cannot fulfill for 100-unit orders.",
			map[string]string{"moqMin": "1000", "component": "rubber-tag"}),
		entry(TypePricingInsight, customization.CategoryBagsLeather,
			"D-ring hardware addition costs approximately ¥2 extra per unit for bag customization.",
			map[string]string{"component": "d-ring", "costPerUnit": "2", "currency": "CNY"}),
		entry(TypeMOQData, customization.CategoryPackagingPaper,
			"Color printing MOQ: 1,000 units (standard suppliers), 500 units available at premium pricing.",
			map[string]string{"standardMoq": "1000", "premiumMoq": "500"}),
		entry(TypePricingInsight, customization.CategoryPackagingPaper,
			"Full color CMYK printing on paper bags: +400% vs stock (¥0.58 stock → ¥3.00 custom).",
			map[string]string{"stockPrice": "0.58", "customPrice": "3.00", "currency": "CNY", "increase": "400%"}),
		entry(TypeSupplierConstraint, customization.CategoryPackagingPaper,
			"Custom paper bag lead time: 12-15 days for custom printing. Standard stock available immediately.",
			map[string]string{"leadTime": "12-15 days"}),
		entry(TypeTradeoff, customization.CategoryBagsLeather,
			"Hair comb logo case: MOQ 6,000 vs client need of 5,000. Negotiated down but margin impacted.",
			map[string]string{"supplierMoq": "6000", "clientNeed": "5000"}),
	}
}
