package feasibility

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportPlainJSON(t *testing.T) {
	report, err := ParseReport(validReportJSON)
	require.NoError(t, err)

	assert.Equal(t, 2, report.ClassificationLevel)
	assert.Equal(t, StatusAtRisk, report.MOQFeasibility.Status)
	assert.Equal(t, VerdictProceedWithCaution, report.OverallVerdict)
	require.Len(t, report.Alternatives, 1)
	assert.Equal(t, "alt1", report.Alternatives[0].ID)
	assert.NotNil(t, report.PriceFeasibility.Risks)
}

func TestParseReportToleratesFencesAndProse(t *testing.T) {
	cases := map[string]string{
		"fenced":      "```json\n" + validReportJSON + "\n```",
		"bare_fence":  "```\n" + validReportJSON + "\n```",
		"prose":       "Here is the assessment:\n" + validReportJSON + "\nLet me know if you need more.",
		"two_objects": validReportJSON + "\n{\"ignored\": true}",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			report, err := ParseReport(raw)
			require.NoError(t, err)
			assert.Equal(t, VerdictProceedWithCaution, report.OverallVerdict)
		})
	}
}

func TestParseReportIgnoresBracesInsideStrings(t *testing.T) {
	raw := strings.Replace(validReportJSON,
		`"Custom label insert changes one component only."`,
		`"Uses a {brand} placeholder and a \"}\" quote."`, 1)

	report, err := ParseReport(raw)
	require.NoError(t, err)
	assert.Equal(t, `Uses a {brand} placeholder and a "}" quote.`, report.ClassificationRationale)
}

func TestParseReportFailsClosed(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "missing_verdict", raw: strings.Replace(validReportJSON, `"overallVerdict": "proceed-with-caution",`, "", 1), field: "overallVerdict"},
		{name: "unknown_verdict", raw: strings.Replace(validReportJSON, `"proceed-with-caution"`, `"maybe"`, 1), field: "overallVerdict"},
		{name: "unknown_status", raw: strings.Replace(validReportJSON, `"status": "at-risk"`, `"status": "risky"`, 1), field: "moqFeasibility.status"},
		{name: "level_out_of_range", raw: strings.Replace(validReportJSON, `"classificationLevel": 2`, `"classificationLevel": 7`, 1), field: "classificationLevel"},
		{name: "empty_summary", raw: strings.Replace(validReportJSON, `"Feasible with a label MOQ caveat. Confirm artwork before sampling."`, `"  "`, 1), field: "overallSummary"},
		{name: "empty_headline", raw: strings.Replace(validReportJSON, `"Two weeks is enough"`, `""`, 1), field: "timelineFeasibility.headline"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReport(tc.raw)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestParseReportUnparseable(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"classificationLevel": 2`, `{"classificationLevel": "two"}`} {
		_, err := ParseReport(raw)
		assert.ErrorIs(t, err, ErrUnparseableReport, "raw=%q", raw)
	}
}
