package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/workflows"
)

const (
	EntityProject   = "project"
	EntityWorkOrder = "workorder"

	TypeStatusChanged = "status.changed"
)

// StatusChanged is published after a transition has been committed.
type StatusChanged struct {
	EntityType string           `json:"entityType"`
	EntityID   uuid.UUID        `json:"entityId"`
	ParentID   *uuid.UUID       `json:"parentId,omitempty"`
	From       workflows.Status `json:"from"`
	To         workflows.Status `json:"to"`
	Terminal   bool             `json:"terminal"`
	ChangedBy  uuid.UUID        `json:"changedBy"`
	ChangedAt  time.Time        `json:"changedAt"`
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged) error
}

// SNSAPI is the part of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPublisher struct {
	client   SNSAPI
	topicARN string
	logger   *zap.Logger
}

func NewSNSPublisher(client SNSAPI, topicARN string, logger *zap.Logger) Publisher {
	return &snsPublisher{client: client, topicARN: topicARN, logger: logger}
}

func (p *snsPublisher) PublishStatusChanged(ctx context.Context, event StatusChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(TypeStatusChanged),
			},
			"entityType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.EntityType),
			},
			"toStatus": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.To.String()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	p.logger.Debug("Published status event",
		zap.String("entity_type", event.EntityType),
		zap.String("entity_id", event.EntityID.String()),
		zap.String("to", event.To.String()),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishStatusChanged(context.Context, StatusChanged) error {
	return nil
}
