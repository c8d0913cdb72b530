package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/cuongbtq/invoice-pipeline/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	published []rabbitmq.Message
	err       error
}

func (b *fakeBroker) PublishWithRetry(ctx context.Context, msg rabbitmq.Message) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, msg)
	return nil
}

func TestPublisherEnqueue(t *testing.T) {
	broker := &fakeBroker{}
	publisher := NewPublisher(broker)
	jobID := uuid.New().String()

	require.NoError(t, publisher.Enqueue(context.Background(), jobID))
	require.Len(t, broker.published, 1)

	msg := broker.published[0]
	assert.Equal(t, jobID, msg.ID)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.JSONEq(t, `{"job_id":"`+jobID+`"}`, string(msg.Body))
}

func TestPublisherEnqueueError(t *testing.T) {
	broker := &fakeBroker{err: errors.New("channel closed")}

	err := NewPublisher(broker).Enqueue(context.Background(), uuid.New().String())
	assert.EqualError(t, err, "channel closed")
}

func TestDecode(t *testing.T) {
	valid := uuid.New().String()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"job_id":"` + valid + `"}`},
		{name: "malformed json", body: `{"job_id":`, wantErr: "invalid job message"},
		{name: "missing id", body: `{}`, wantErr: "invalid job id"},
		{name: "not a uuid", body: `{"job_id":"abc"}`, wantErr: "invalid job id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, msg.JobID)
		})
	}
}
