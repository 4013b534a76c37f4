package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

const publishTimeout = 5 * time.Second

type sqsSendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher forwards events to an SQS queue. Sends happen in the
// background so the pixel response is never held up by SQS.
type Publisher struct {
	client   sqsSendAPI
	queueURL string
}

func NewPublisher(client sqsSendAPI, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Record queues evt for publishing. Only encoding errors are returned.
func (p *Publisher) Record(_ context.Context, evt domain.TrackingEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal tracking event: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			logger.Error("publishing tracking event to SQS failed", "event", evt.EventType, "error", err)
		}
	}()
	return nil
}
