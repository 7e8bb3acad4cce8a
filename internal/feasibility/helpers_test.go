package feasibility

import (
	"context"
	"sync"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/queue"
)

const validReportJSON = `{
  "classificationLevel": 2,
  "classificationRationale": "Custom label insert changes one component only.",
  "customizationFeasibility": {"status": "feasible", "headline": "Label inserts are routine", "detail": "Most suppliers sew woven labels in house.", "risks": ["Label artwork approved late"]},
  "moqFeasibility": {"status": "at-risk", "headline": "Label MOQ above request", "detail": "Woven labels usually start at 1,000 units.", "risks": ["Paying for unused labels"]},
  "priceFeasibility": {"status": "feasible", "headline": "Target price is realistic", "detail": "Label cost adds cents per unit.", "risks": []},
  "timelineFeasibility": {"status": "feasible", "headline": "Two weeks is enough", "detail": "Development takes 7-15 days.", "risks": ["Sampling delays"]},
  "qualityRisks": ["Label stitching puckers thin fabric"],
  "alternatives": [{"id": "alt1", "title": "Printed label", "description": "Heat-transfer the logo instead.", "tradeoffs": ["Less premium feel"], "saves": "MOQ and setup cost"}],
  "overallVerdict": "proceed-with-caution",
  "overallSummary": "Feasible with a label MOQ caveat. Confirm artwork before sampling."
}`

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", nil
}

func (f *fakeLLM) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []queue.Message
	err  error
}

func (q *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

func (q *fakeQueue) messages() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.sent...)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func sampleInput() Input {
	return Input{
		ProductDescription:       "Baby play gym, 800 units",
		SelectedDesignName:       "Pastel arch",
		CustomizationDescription: "Custom woven label insert with brand logo",
		MOQ:                      intPtr(800),
		TargetPriceMin:           floatPtr(12),
		TargetPriceMax:           floatPtr(15.5),
		PriceCurrency:            "USD",
		Timeline:                 "6 weeks",
	}
}
