package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	maxMessagesPerReceive = 10
	longPollSeconds       = 20
	receiveRetryDelay     = 5 * time.Second
)

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// HandlerFunc processes a decoded product message. A returned error keeps the
// message in the queue so it becomes visible again.
type HandlerFunc func(ctx context.Context, msg ProductMessage) error

// LogNotification is a HandlerFunc that writes the notification to the default logger.
func LogNotification(_ context.Context, msg ProductMessage) error {
	slog.Info("Received product notification",
		slog.String("action", msg.Action),
		slog.String("product_id", msg.ProductID),
		slog.String("name", msg.Name),
		slog.Float64("price", msg.Price),
		slog.Int("images", msg.Images),
	)
	return nil
}

// Consumer handles consuming product messages from AWS SQS.
type Consumer struct {
	client     ConsumerAPI
	queueURL   string
	handle     HandlerFunc
	retryDelay time.Duration
}

// NewConsumer creates a new SQS Consumer. A nil handler falls back to LogNotification.
func NewConsumer(client ConsumerAPI, queueURL string, handle HandlerFunc) *Consumer {
	if handle == nil {
		handle = LogNotification
	}
	return &Consumer{
		client:     client,
		queueURL:   queueURL,
		handle:     handle,
		retryDelay: receiveRetryDelay,
	}
}

// Start begins consuming messages from the SQS queue until the context is cancelled.
// A failed receive is retried after retryDelay.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting SQS consumer", slog.String("queueURL", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping SQS consumer")
			return ctx.Err()
		default:
		}

		if err := c.receiveMessages(ctx); err != nil {
			slog.Error("Error receiving messages", slog.Any("err", err), slog.Duration("retry_in", c.retryDelay))
			select {
			case <-ctx.Done():
				slog.Info("Stopping SQS consumer")
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: maxMessagesPerReceive,
		WaitTimeSeconds:     longPollSeconds,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		if err := c.processMessage(ctx, message); err != nil {
			slog.Error("Error processing message", slog.Any("err", err), slog.String("message_id", aws.ToString(message.MessageId)))
			continue
		}

		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Error deleting message", slog.Any("err", err))
		}
	}

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, message types.Message) error {
	if message.Body == nil {
		return fmt.Errorf("message body is nil")
	}

	var productMsg ProductMessage
	if err := json.Unmarshal([]byte(*message.Body), &productMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	switch productMsg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown product action %q", productMsg.Action)
	}

	if err := c.handle(ctx, productMsg); err != nil {
		return fmt.Errorf("failed to handle %s message for product %s: %w", productMsg.Action, productMsg.ProductID, err)
	}
	return nil
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
