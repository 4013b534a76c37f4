package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

type sqsReceiveAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer drains the tracking queue into a sink. Messages the sink fails
// on stay on the queue for redelivery; undecodable ones are dropped.
type Consumer struct {
	client   sqsReceiveAPI
	queueURL string
	sink     Sink
	backoff  time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewConsumer creates a consumer for queueURL that records into sink.
func NewConsumer(client sqsReceiveAPI, queueURL string, sink Sink) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		sink:     sink,
		backoff:  5 * time.Second,
		done:     make(chan struct{}),
	}
}

// Start polls the queue in the background until ctx ends or Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	logger.Info("SQS tracking consumer started", "queue", c.queueURL)
	go c.poll(ctx)
}

// Stop ends polling. It is safe to call more than once.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Consumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("SQS receive error", "error", err)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
			continue
		}

		for _, msg := range out.Messages {
			var evt domain.TrackingEvent
			if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &evt); err != nil {
				logger.Warn("SQS bad message", "error", err)
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			if err := c.sink.Record(ctx, evt); err != nil {
				logger.Warn("SQS process error", "event", evt.EventType, "error", err)
				continue
			}

			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
	if err != nil {
		logger.Warn("SQS delete error", "error", err)
	}
}
