package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const defaultSQSRegion = "us-east-1"

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient sends report jobs to AWS SQS.
type SQSClient struct {
	client   sqsAPI
	queueURL string
}

// NewSQSClient constructs an SQS-backed queue client for queueURL.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("FEASIBILITY_SQS_QUEUE_URL is required")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultSQSRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSQSClient(sqs.NewFromConfig(cfg), queueURL), nil
}

func newSQSClient(api sqsAPI, queueURL string) *SQSClient {
	return &SQSClient{client: api, queueURL: queueURL}
}

// Send delivers msg. The job and request ids also travel as message
// attributes so they show up in the console and DLQ tooling without
// decoding the body.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	attrs := map[string]sqstypes.MessageAttributeValue{
		"jobId": {DataType: aws.String("String"), StringValue: aws.String(msg.JobID)},
		"version": {
			DataType:    aws.String("Number"),
			StringValue: aws.String(strconv.Itoa(msg.Version)),
		},
	}
	if msg.RequestID != "" {
		attrs["requestId"] = sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(msg.RequestID)}
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

var _ Client = (*SQSClient)(nil)
