package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"sourcing-backend/internal/bootstrap"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	processor workerproc.Processor

	buildProcessor = func() (workerproc.Processor, error) {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return nil, err
		}
		return app.FeasibilityService, nil
	}
)

func initApp() {
	processor, initErr = buildProcessor()
}

// handler reports partial batch failures so only the records that can still
// succeed are redelivered. Malformed records and vanished jobs are acked.
func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.worker.bootstrap_failed", map[string]any{"error": initErr, "records": len(event.Records)})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncWorkerMessagesReceived()
		err := workerproc.HandleMessage(ctx, processor, record.Body)
		switch {
		case err == nil:
			metrics.IncWorkerMessagesProcessed()
		case workerproc.Permanent(err):
			metrics.IncWorkerMessagesFailed()
			metrics.IncWorkerMessagesDropped()
			telemetry.Error("lambda.worker.dropped", map[string]any{"sqs_message_id": record.MessageId, "error": err})
		default:
			metrics.IncWorkerMessagesFailed()
			telemetry.Error("lambda.worker.failed", map[string]any{"sqs_message_id": record.MessageId, "error": err})
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	telemetry.SetService("sourcing-lambda-worker")
	lambda.Start(handler)
}
