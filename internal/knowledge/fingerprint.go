package knowledge

import (
	"math"
	"strings"
)

const fingerprintPrefixLen = 80

// Fingerprint identifies entries that state the same insight: type, category
// and the first 80 characters of the lowercased content.
func Fingerprint(e Entry) string {
	content := []rune(strings.ToLower(e.Content))
	if len(content) > fingerprintPrefixLen {
		content = content[:fingerprintPrefixLen]
	}
	return string(e.Type) + "|" + string(e.Category) + "|" + string(content)
}

func occurrencesOf(e Entry) int {
	if e.Occurrences == nil {
		return 1
	}
	return *e.Occurrences
}

func confidenceOf(e Entry) float64 {
	if e.Confidence == nil {
		return 0.5
	}
	return *e.Confidence
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
