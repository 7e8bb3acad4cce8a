package feasibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/llm"
	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/usage"
)

const llmPurpose = "feasibility_report"

// Service runs deep feasibility reports.
type Service struct {
	Repo     Repo
	Usage    *usage.Service
	LLM      llm.Client
	Queue    queue.Client
	Provider string
	Model    string

	retryDelay time.Duration
}

// Configured reports whether a real language model is wired in.
func (s *Service) Configured() bool {
	return llm.Configured(s.LLM)
}

// Create runs CreateCharged with the quota charged to the job owner.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Job, error) {
	return s.CreateCharged(ctx, userID, userID, in)
}

// CreateCharged consumes one quota unit from quotaKey, records a queued report
// job owned by userID and dispatches it. The unit is refunded when the job
// cannot be stored or enqueued. Jobs go to Queue when set, otherwise they run
// on a background goroutine.
func (s *Service) CreateCharged(ctx context.Context, userID, quotaKey string, in Input) (Job, error) {
	if !s.Configured() {
		return Job{}, ErrLLMNotConfigured
	}
	if userID == "" {
		return Job{}, errors.New("userID is required")
	}
	if err := in.Validate(); err != nil {
		return Job{}, err
	}
	if quotaKey == "" {
		quotaKey = userID
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, quotaKey, 1); err != nil {
			return Job{}, err
		}
	}

	now := time.Now().UTC()
	job := Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Input:     in,
		Status:    JobStatusQueued,
		Provider:  normalizeProvider(s.Provider),
		Model:     s.Model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		s.refund(ctx, job, quotaKey)
		return Job{}, err
	}

	if s.Queue != nil {
		msg := queue.NewMessage(job.ID, telemetry.RequestID(ctx), now)
		if err := s.Queue.Send(ctx, msg); err != nil {
			s.failJob(ctx, job.ID, job.UserID, fmt.Errorf("enqueue report: %w", err), nil)
			s.refund(ctx, job, quotaKey)
			return Job{}, fmt.Errorf("enqueue report: %w", err)
		}
		return job, nil
	}

	go s.completeAsync(context.WithoutCancel(ctx), job.ID)
	return job, nil
}

// Get returns a job owned by userID.
func (s *Service) Get(ctx context.Context, userID, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, errors.New("jobID is required")
	}
	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.UserID != userID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// List returns jobs for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// ProcessReport runs a queued job to completion. Jobs that already finished
// are skipped so redelivered queue messages are harmless. The returned error
// is non-nil only when the job could not be loaded or its failure recorded.
func (s *Service) ProcessReport(ctx context.Context, jobID string) error {
	return s.process(ctx, jobID)
}

func (s *Service) completeAsync(ctx context.Context, jobID string) {
	if err := s.process(ctx, jobID); err != nil {
		telemetry.Error("feasibility.async_failed", map[string]any{"job_id": jobID, "error": sanitizeError(err)})
	}
}

func (s *Service) process(ctx context.Context, jobID string) (err error) {
	var startedAt *time.Time
	userID := ""
	defer func() {
		if r := recover(); r != nil {
			s.failJob(ctx, jobID, userID, fmt.Errorf("panic: %v", r), startedAt)
			err = nil
		}
	}()

	job, err := s.Repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("report lookup: %w", err)
	}
	userID = job.UserID
	if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
		return nil
	}

	started := time.Now().UTC()
	startedAt = &started
	if err := s.Repo.UpdateStatus(ctx, jobID, StatusUpdate{Status: JobStatusProcessing, StartedAt: startedAt}); err != nil {
		return s.failJob(ctx, jobID, userID, fmt.Errorf("set processing failed: %w", err), startedAt)
	}
	metrics.IncReportStarted()
	telemetry.Info("feasibility.status", map[string]any{
		"request_id":        telemetry.RequestID(ctx),
		"user_id":           userID,
		"job_id":            jobID,
		"status":            JobStatusProcessing,
		"status_transition": "queued->processing",
	})

	if s.LLM == nil {
		return s.failJob(ctx, jobID, userID, errors.New("missing llm client"), startedAt)
	}
	client := newRetryingLLM(s.LLM, jobID, telemetry.RequestID(ctx), s.retryDelay)

	userPrompt := BuildUserPrompt(job.Input)
	raw, err := client.Complete(ctx, llm.Request{System: SystemPrompt, User: userPrompt, Purpose: llmPurpose})
	if err != nil {
		return s.failJob(ctx, jobID, userID, fmt.Errorf("llm complete: %w", err), startedAt)
	}

	report, err := ParseReport(raw)
	if err != nil {
		rawRetry, retryErr := client.Complete(ctx, llm.Request{
			System:  SystemPrompt,
			User:    repairPrompt(userPrompt, raw, err),
			Purpose: llmPurpose + "_repair",
		})
		if retryErr != nil {
			return s.failJob(ctx, jobID, userID, fmt.Errorf("llm repair: %w", retryErr), startedAt)
		}
		report, err = ParseReport(rawRetry)
		if err != nil {
			return s.failJob(ctx, jobID, userID, err, startedAt)
		}
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, jobID, StatusUpdate{
		Status:      JobStatusCompleted,
		Report:      &report,
		CompletedAt: &completedAt,
	}); err != nil {
		return s.failJob(ctx, jobID, userID, fmt.Errorf("set report result failed: %w", err), startedAt)
	}
	metrics.IncReportCompleted()
	metrics.ObserveReportDurationMs(durationMs(startedAt, &completedAt))
	telemetry.Info("feasibility.status", map[string]any{
		"request_id":        telemetry.RequestID(ctx),
		"user_id":           userID,
		"job_id":            jobID,
		"status":            JobStatusCompleted,
		"status_transition": "processing->completed",
		"verdict":           string(report.OverallVerdict),
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	return nil
}

// failJob marks the job failed. It returns an error only if the failure itself could not be stored.
func (s *Service) failJob(ctx context.Context, jobID, userID string, cause error, startedAt *time.Time) error {
	code := classifyFailure(cause)
	msg := sanitizeError(cause)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatus(context.Background(), jobID, StatusUpdate{
		Status:       JobStatusFailed,
		ErrorCode:    &code,
		ErrorMessage: &msg,
		CompletedAt:  &completedAt,
	}); updateErr != nil {
		telemetry.Error("feasibility.fail_record_failed", map[string]any{"job_id": jobID, "error": updateErr, "cause": sanitizeError(cause)})
		return fmt.Errorf("record failure: %w", updateErr)
	}
	metrics.IncReportFailed()
	if startedAt != nil {
		metrics.ObserveReportDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Error("feasibility.status", map[string]any{
		"request_id":        telemetry.RequestID(ctx),
		"user_id":           userID,
		"job_id":            jobID,
		"status":            JobStatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             msg,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
	return nil
}

// refund returns the quota unit for a job that never reached the worker.
func (s *Service) refund(ctx context.Context, job Job, quotaKey string) {
	if s.Usage == nil {
		return
	}
	if _, err := s.Usage.Refund(context.WithoutCancel(ctx), quotaKey, 1); err != nil {
		telemetry.Error("feasibility.refund_failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"user_id":    job.UserID,
			"job_id":     job.ID,
			"error":      err,
		})
		return
	}
	metrics.IncQuotaRefunds()
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "openai"
	}
	return provider
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	var validationErr *ValidationError
	if errors.Is(err, ErrUnparseableReport) || errors.As(err, &validationErr) {
		return ErrorCodeLLMSchemaMismatch
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	if errors.Is(err, ErrInvalidInput) {
		return ErrorCodeValidation
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeLLMTimeout
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout
	}
	if strings.Contains(msg, "llm output") {
		return ErrorCodeLLMSchemaMismatch
	}
	if strings.Contains(msg, "report lookup") || strings.Contains(msg, "set processing") || strings.Contains(msg, "report result") || strings.Contains(msg, "enqueue report") {
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
