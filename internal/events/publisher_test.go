package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestSNSPublisher_PublishStatusChanged(t *testing.T) {
	client := new(MockSNS)
	publisher := NewSNSPublisher(client, "arn:aws:sns:eu-west-1:123456789012:lifecycle", zap.NewNop())

	event := StatusChanged{
		EntityType: EntityWorkOrder,
		EntityID:   uuid.New(),
		From:       "Quote Sent",
		To:         "Client Approved",
		ChangedBy:  uuid.New(),
		ChangedAt:  time.Now().UTC(),
	}

	client.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var got StatusChanged
		if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &got); err != nil {
			return false
		}
		return aws.ToString(in.TopicArn) == "arn:aws:sns:eu-west-1:123456789012:lifecycle" &&
			got.EntityID == event.EntityID &&
			aws.ToString(in.MessageAttributes["toStatus"].StringValue) == "Client Approved"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	require.NoError(t, publisher.PublishStatusChanged(context.Background(), event))
	client.AssertExpectations(t)
}

func TestSNSPublisher_WrapsError(t *testing.T) {
	client := new(MockSNS)
	publisher := NewSNSPublisher(client, "arn", zap.NewNop())

	client.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := publisher.PublishStatusChanged(context.Background(), StatusChanged{EntityType: EntityProject})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NewNopPublisher().PublishStatusChanged(context.Background(), StatusChanged{}))
}
