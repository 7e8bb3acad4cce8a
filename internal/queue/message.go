package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageVersion is the current payload version. Payloads without a
// version predate versioning and are read as version 1.
const MessageVersion = 1

// Message asks a worker to run one feasibility report job.
type Message struct {
	JobID      string `json:"jobId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewMessage stamps a job message with the current version.
func NewMessage(jobID, requestID string, at time.Time) Message {
	return Message{
		JobID:      jobID,
		RequestID:  requestID,
		EnqueuedAt: at.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message. Payloads from a newer
// producer are rejected so an old worker never half-handles them.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	return msg, nil
}
