package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/workerproc"
)

const (
	defaultSQSRegion          = "us-east-1"
	defaultVisibilitySeconds  = 600
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	telemetry.SetService("sourcing-worker")
	cfg := config.Load()

	queueURL := cfg.ReportQueueURL
	if queueURL == "" {
		fatal("worker.config_invalid", map[string]any{"error": "FEASIBILITY_SQS_QUEUE_URL is required"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("FEAS_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := max(1, envInt("FEAS_WORKER_CONCURRENCY", defaultWorkerConcurrency))
	shutdownTimeout := time.Duration(envInt("FEAS_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	region := cfg.AWSRegion
	if region == "" {
		region = defaultSQSRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		fatal("worker.aws_config_failed", map[string]any{"error": err})
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		fatal("worker.bootstrap_failed", map[string]any{"error": err})
	}
	if !app.FeasibilityService.Configured() {
		fatal("worker.config_invalid", map[string]any{"error": "OPENAI_API_KEY is required for the report worker"})
	}
	var processor workerproc.Processor = app.FeasibilityService

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue_url":          queueURL,
		"concurrency":        concurrency,
		"visibility_seconds": visibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncWorkerMessagesReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				// in-flight reports finish even after SIGTERM; the visibility
				// timeout covers the shutdown window
				handleMessage(context.WithoutCancel(ctx), sqsClient, queueURL, processor, m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout_ms": shutdownTimeout.Milliseconds()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		telemetry.Info("worker.stopped", nil)
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage runs one job and deletes the message when it succeeded or
// can never succeed. Retryable failures are left for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, processor workerproc.Processor, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err == nil {
		telemetry.Info("worker.report.received", baseFields(msg, decoded.JobID, decoded.RequestID))
		err = workerproc.Process(ctx, processor, decoded)
	}

	if err == nil {
		if deleteMessage(ctx, client, queueURL, msg, decoded.JobID, decoded.RequestID) {
			telemetry.Info("worker.report.completed", baseFields(msg, decoded.JobID, decoded.RequestID))
			metrics.IncWorkerMessagesProcessed()
		}
		return
	}

	metrics.IncWorkerMessagesFailed()
	fields := baseFields(msg, decoded.JobID, decoded.RequestID)
	fields["error"] = err.Error()
	fields["body_len"] = meta.BodyLen
	if meta.BodySHA != "" {
		fields["body_sha256"] = meta.BodySHA
	}
	if !workerproc.Permanent(err) {
		telemetry.Error("worker.report.failed", fields)
		return
	}
	metrics.IncWorkerMessagesDropped()
	telemetry.Error("worker.report.dropped", fields)
	deleteMessage(ctx, client, queueURL, msg, decoded.JobID, decoded.RequestID)
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, jobID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, jobID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.report.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, jobID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.report.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, jobID, requestID string) map[string]any {
	fields := map[string]any{
		"job_id":         jobID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	parsed, err := strconv.Atoi(msg.Attributes["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	val, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func fatal(msg string, fields map[string]any) {
	telemetry.Error(msg, fields)
	os.Exit(1)
}
