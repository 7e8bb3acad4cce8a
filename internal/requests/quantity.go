package requests

import (
	"regexp"
	"strings"
)

var (
	moqPhraseRe      = regexp.MustCompile(`(?i)\bmoq\s*:?\s*\d[\d,]*\s*(units?|pieces?|pcs|qty)?\b`)
	quantityPhraseRe = regexp.MustCompile(`(?i)\b\d[\d,]*\s*(units?|pieces?|pcs|qty)\b`)
	needPhraseRe     = regexp.MustCompile(`(?i)\b(i need|we need|order of|ordering)\s+\d[\d,]*\b`)
	doubleCommaRe    = regexp.MustCompile(`,\s*,`)
	leadingCommaRe   = regexp.MustCompile(`^\s*,\s*`)
	trailingCommaRe  = regexp.MustCompile(`\s*,\s*$`)
	multiSpaceRe     = regexp.MustCompile(`\s{2,}`)
)

// StripQuantity removes order-quantity phrases from a description so it only
// describes the product itself.
func StripQuantity(description string) string {
	out := moqPhraseRe.ReplaceAllString(description, "")
	out = quantityPhraseRe.ReplaceAllString(out, "")
	out = needPhraseRe.ReplaceAllString(out, "")
	out = doubleCommaRe.ReplaceAllString(out, ",")
	out = leadingCommaRe.ReplaceAllString(out, "")
	out = trailingCommaRe.ReplaceAllString(out, "")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
