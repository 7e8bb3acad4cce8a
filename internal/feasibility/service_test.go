package feasibility

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/usage"
)

func newQueuedService(t *testing.T, client llm.Client) (*Service, *MemoryRepo, *fakeQueue) {
	t.Helper()
	repo := NewMemoryRepo()
	q := &fakeQueue{}
	return &Service{
		Repo:       repo,
		LLM:        client,
		Queue:      q,
		Model:      "gpt-4o-mini",
		retryDelay: time.Millisecond,
	}, repo, q
}

func TestCreateQueuesJob(t *testing.T) {
	svc, repo, q := newQueuedService(t, &fakeLLM{})
	ctx := telemetry.WithRequestID(context.Background(), "req-1")

	job, err := svc.Create(ctx, "buyer-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != JobStatusQueued || job.Provider != "openai" {
		t.Fatalf("unexpected job %+v", job)
	}

	msgs := q.messages()
	if len(msgs) != 1 || msgs[0].JobID != job.ID || msgs[0].RequestID != "req-1" {
		t.Fatalf("unexpected queue messages %+v", msgs)
	}
	stored, err := repo.GetByID(context.Background(), job.ID)
	if err != nil || stored.Status != JobStatusQueued {
		t.Fatalf("expected queued job in repo, got %+v err=%v", stored, err)
	}
}

func TestCreateRequiresLLM(t *testing.T) {
	svc, _, _ := newQueuedService(t, llm.PlaceholderClient{})
	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); !errors.Is(err, ErrLLMNotConfigured) {
		t.Fatalf("expected ErrLLMNotConfigured, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, q := newQueuedService(t, &fakeLLM{})
	in := sampleInput()
	in.CustomizationDescription = "  "
	if _, err := svc.Create(context.Background(), "buyer-1", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(q.messages()) != 0 {
		t.Fatalf("expected nothing queued")
	}
}

func TestCreateEnforcesQuota(t *testing.T) {
	svc, _, _ := newQueuedService(t, &fakeLLM{})
	svc.Usage = usage.NewService(1)

	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestCreateMarksJobFailedWhenEnqueueFails(t *testing.T) {
	svc, repo, q := newQueuedService(t, &fakeLLM{})
	q.err = errors.New("sqs unavailable")

	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); err == nil {
		t.Fatalf("expected enqueue error")
	}
	jobs, err := repo.ListByUser(context.Background(), "buyer-1", 10, 0)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("expected one job, got %v err=%v", jobs, err)
	}
	if jobs[0].Status != JobStatusFailed || jobs[0].ErrorCode == nil || *jobs[0].ErrorCode != ErrorCodeStorage {
		t.Fatalf("unexpected failed job %+v", jobs[0])
	}
}

func TestEnqueueFailureRefundsQuota(t *testing.T) {
	svc, _, q := newQueuedService(t, &fakeLLM{})
	svc.Usage = usage.NewService(1)
	q.err = errors.New("sqs unavailable")

	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); err == nil {
		t.Fatalf("expected enqueue error")
	}
	u, err := svc.Usage.Get(context.Background(), "buyer-1")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("expected refunded quota, got used=%d", u.Used)
	}

	q.err = nil
	if _, err := svc.Create(context.Background(), "buyer-1", sampleInput()); err != nil {
		t.Fatalf("expected quota available after refund: %v", err)
	}
}

func TestProcessReportCompletes(t *testing.T) {
	client := &fakeLLM{responses: []string{validReportJSON}}
	svc, repo, _ := newQueuedService(t, client)
	job, err := svc.Create(context.Background(), "buyer-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.ProcessReport(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessReport: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != JobStatusCompleted || got.Report == nil {
		t.Fatalf("expected completed job with report, got %+v", got)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected timestamps to be set")
	}

	calls := client.calls()
	if len(calls) != 1 || calls[0].System != SystemPrompt || !strings.Contains(calls[0].User, "**Order quantity (MOQ):** 800 units") {
		t.Fatalf("unexpected llm calls %+v", calls)
	}

	if err := svc.ProcessReport(context.Background(), job.ID); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if len(client.calls()) != 1 {
		t.Fatalf("expected completed job to be skipped on redelivery")
	}
}

func TestProcessReportRepairsInvalidOutput(t *testing.T) {
	broken := strings.Replace(validReportJSON, `"overallVerdict": "proceed-with-caution",`, "", 1)
	client := &fakeLLM{responses: []string{broken, "```json\n" + validReportJSON + "\n```"}}
	svc, repo, _ := newQueuedService(t, client)
	job, _ := svc.Create(context.Background(), "buyer-1", sampleInput())

	if err := svc.ProcessReport(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessReport: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != JobStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	calls := client.calls()
	if len(calls) != 2 || !strings.Contains(calls[1].User, "overallVerdict") || !strings.Contains(calls[1].User, "could not be used") {
		t.Fatalf("expected repair request, got %+v", calls)
	}
}

func TestProcessReportFailsOnSchemaMismatch(t *testing.T) {
	client := &fakeLLM{responses: []string{"not json", "still not json"}}
	svc, repo, _ := newQueuedService(t, client)
	job, _ := svc.Create(context.Background(), "buyer-1", sampleInput())

	if err := svc.ProcessReport(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessReport: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != JobStatusFailed || got.ErrorCode == nil || *got.ErrorCode != ErrorCodeLLMSchemaMismatch {
		t.Fatalf("expected schema mismatch failure, got %+v", got)
	}
	if got.Report != nil {
		t.Fatalf("expected no report on failure")
	}
}

func TestProcessReportRetriesTransientErrors(t *testing.T) {
	client := &fakeLLM{
		errs:      []error{errors.New("openai http status 503: overloaded")},
		responses: []string{"", validReportJSON},
	}
	svc, repo, _ := newQueuedService(t, client)
	job, _ := svc.Create(context.Background(), "buyer-1", sampleInput())

	if err := svc.ProcessReport(context.Background(), job.ID); err != nil {
		t.Fatalf("ProcessReport: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.Status != JobStatusCompleted {
		t.Fatalf("expected completed after retry, got %+v", got)
	}
	if len(client.calls()) != 2 {
		t.Fatalf("expected one retry, got %d calls", len(client.calls()))
	}
}

func TestProcessReportTimeout(t *testing.T) {
	timeoutErr := errors.New("openai request timeout: context deadline exceeded")
	client := &fakeLLM{errs: []error{timeoutErr, timeoutErr}}
	svc, repo, _ := newQueuedService(t, client)
	job, _ := svc.Create(context.Background(), "buyer-1", sampleInput())

	_ = svc.ProcessReport(context.Background(), job.ID)
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.ErrorCode == nil || *got.ErrorCode != ErrorCodeLLMTimeout {
		t.Fatalf("expected LLM_TIMEOUT, got %+v", got)
	}
}

func TestProcessReportUnknownJob(t *testing.T) {
	svc, _, _ := newQueuedService(t, &fakeLLM{})
	if err := svc.ProcessReport(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetHidesOtherBuyersJobs(t *testing.T) {
	svc, _, _ := newQueuedService(t, &fakeLLM{})
	job, _ := svc.Create(context.Background(), "buyer-1", sampleInput())

	if _, err := svc.Get(context.Background(), "buyer-2", job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "buyer-1", job.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestCreateWithoutQueueRunsInBackground(t *testing.T) {
	client := &fakeLLM{responses: []string{validReportJSON}}
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, LLM: client}

	job, err := svc.Create(context.Background(), "buyer-1", sampleInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := repo.GetByID(context.Background(), job.ID)
		if got.Status == JobStatusCompleted {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job did not complete in background")
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: ErrUnparseableReport, want: ErrorCodeLLMSchemaMismatch},
		{err: &ValidationError{Field: "overallVerdict", Reason: "is required"}, want: ErrorCodeLLMSchemaMismatch},
		{err: context.DeadlineExceeded, want: ErrorCodeLLMTimeout},
		{err: errors.New("llm complete: openai request timeout: x"), want: ErrorCodeLLMTimeout},
		{err: errors.New("set processing failed: db down"), want: ErrorCodeStorage},
		{err: errors.New("boom"), want: ErrorCodeInternal},
	}
	for _, tc := range cases {
		if got := classifyFailure(tc.err); got != tc.want {
			t.Fatalf("classifyFailure(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestSanitizeErrorTruncates(t *testing.T) {
	msg := sanitizeError(errors.New("line1\nline2" + strings.Repeat("x", 600)))
	if strings.Contains(msg, "\n") || len(msg) != 500 {
		t.Fatalf("unexpected sanitized message length=%d", len(msg))
	}
}
