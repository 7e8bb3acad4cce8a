package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"sourcing-backend/internal/feasibility"
	"sourcing-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	err error
}

func (f fakeProcessor) ProcessReport(ctx context.Context, jobID string) error {
	return f.err
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	svc := fakeProcessor{}
	msgBody, _ := queue.EncodeMessage(queue.Message{JobID: "job-1", RequestID: "req-1", Version: queue.MessageVersion})
	msg := sqstypes.Message{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(string(msgBody)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}

	handleMessage(context.Background(), client, "queue", svc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeSQS{}
	svc := fakeProcessor{err: errors.New("boom")}
	msgBody, _ := queue.EncodeMessage(queue.Message{JobID: "job-2", RequestID: "req-2", Version: queue.MessageVersion})
	msg := sqstypes.Message{
		MessageId:     aws.String("m2"),
		ReceiptHandle: aws.String("r2"),
		Body:          aws.String(string(msgBody)),
	}

	handleMessage(context.Background(), client, "queue", svc, msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeSQS{}
	svc := fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), client, "queue", svc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnMissingJobID(t *testing.T) {
	client := &fakeSQS{}
	svc := fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m4"),
		ReceiptHandle: aws.String("r4"),
		Body:          aws.String(`{"requestId":"req-4"}`),
	}

	handleMessage(context.Background(), client, "queue", svc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesWhenJobIsGone(t *testing.T) {
	client := &fakeSQS{}
	svc := fakeProcessor{err: fmt.Errorf("report lookup: %w", feasibility.ErrNotFound)}
	msgBody, _ := queue.EncodeMessage(queue.Message{JobID: "job-5", Version: queue.MessageVersion})
	msg := sqstypes.Message{
		MessageId:     aws.String("m5"),
		ReceiptHandle: aws.String("r5"),
		Body:          aws.String(string(msgBody)),
	}

	handleMessage(context.Background(), client, "queue", svc, msg)

	if len(client.deleted) != 1 || client.deleted[0] != "r5" {
		t.Fatalf("expected r5 deleted, got %v", client.deleted)
	}
}

func TestWorkerDeletesEmptyBody(t *testing.T) {
	client := &fakeSQS{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m6"),
		ReceiptHandle: aws.String("r6"),
		Body:          aws.String("  "),
	}

	handleMessage(context.Background(), client, "queue", fakeProcessor{}, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestEnvIntFallsBack(t *testing.T) {
	t.Setenv("FEAS_WORKER_CONCURRENCY", "zero")
	if got := envInt("FEAS_WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("expected default, got %d", got)
	}
	t.Setenv("FEAS_WORKER_CONCURRENCY", " 8 ")
	if got := envInt("FEAS_WORKER_CONCURRENCY", 4); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}
