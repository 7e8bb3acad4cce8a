// Package workerproc turns queue payloads into feasibility report runs. Both
// the long-poll worker and the Lambda worker go through it so they agree on
// which failures are worth a redelivery.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"sourcing-backend/internal/feasibility"
	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/shared/telemetry"
)

var (
	ErrEmptyBody    = errors.New("empty message body")
	ErrMissingJobID = errors.New("missing job id")
	errNoProcessor  = errors.New("feasibility service not configured")
)

// Processor runs a queued feasibility report job.
type Processor interface {
	ProcessReport(ctx context.Context, jobID string) error
}

// MessageMeta identifies a payload in logs without echoing it.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// Stage says where a message failed.
type Stage string

const (
	StageParse   Stage = "parse"
	StageProcess Stage = "process"
)

// MessageError wraps every failure HandleMessage and Process return.
type MessageError struct {
	Stage     Stage
	Meta      MessageMeta
	JobID     string
	RequestID string
	Err       error
}

func (e *MessageError) Error() string {
	if e.Stage == StageProcess {
		return fmt.Sprintf("process report %s: %v", e.JobID, e.Err)
	}
	return fmt.Sprintf("parse message: %v", e.Err)
}

func (e *MessageError) Unwrap() error { return e.Err }

// ParseMessage decodes and validates a queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	reject := func(msg queue.Message, err error) (queue.Message, MessageMeta, error) {
		return msg, meta, &MessageError{Stage: StageParse, Meta: meta, RequestID: msg.RequestID, Err: err}
	}
	if strings.TrimSpace(body) == "" {
		return reject(queue.Message{}, ErrEmptyBody)
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return reject(queue.Message{}, err)
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return reject(msg, ErrMissingJobID)
	}
	return msg, meta, nil
}

// Process runs an already parsed message. The message request id is carried
// into the report's log lines.
func Process(ctx context.Context, processor Processor, msg queue.Message) error {
	if processor == nil {
		return errNoProcessor
	}
	if strings.TrimSpace(msg.JobID) == "" {
		return &MessageError{Stage: StageParse, RequestID: msg.RequestID, Err: ErrMissingJobID}
	}
	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	if err := processor.ProcessReport(ctx, msg.JobID); err != nil {
		return &MessageError{Stage: StageProcess, JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// HandleMessage parses body and runs it.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errNoProcessor
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return Process(ctx, processor, msg)
}

// Permanent reports whether redelivering the message can never succeed:
// payloads that do not parse, and jobs that no longer exist. Callers ack
// these instead of letting them cycle to the DLQ.
func Permanent(err error) bool {
	var me *MessageError
	if !errors.As(err, &me) {
		return false
	}
	return me.Stage == StageParse || errors.Is(me.Err, feasibility.ErrNotFound)
}
