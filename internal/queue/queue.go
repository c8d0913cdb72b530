// Package queue carries job ids from the API service to the workers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/invoice-pipeline/shared/rabbitmq"
	"github.com/google/uuid"
)

const contentTypeJSON = "application/json"

// JobMessage is the body of a processing task
type JobMessage struct {
	JobID string `json:"job_id"`
}

// Encode marshals a task for jobID
func Encode(jobID string) ([]byte, error) {
	return json.Marshal(JobMessage{JobID: jobID})
}

// Decode parses a task body and checks that it names a valid job id
func Decode(body []byte) (JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return JobMessage{}, fmt.Errorf("invalid job message: %w", err)
	}
	if _, err := uuid.Parse(msg.JobID); err != nil {
		return JobMessage{}, fmt.Errorf("invalid job id %q: %w", msg.JobID, err)
	}
	return msg, nil
}

// Broker publishes raw messages
type Broker interface {
	PublishWithRetry(ctx context.Context, msg rabbitmq.Message) error
}

// Publisher schedules jobs on the task queue
type Publisher struct {
	broker Broker
}

// NewPublisher creates a new Publisher
func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// Enqueue publishes a processing task for jobID
func (p *Publisher) Enqueue(ctx context.Context, jobID string) error {
	body, err := Encode(jobID)
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}

	return p.broker.PublishWithRetry(ctx, rabbitmq.Message{
		ID:          jobID,
		ContentType: contentTypeJSON,
		Body:        body,
	})
}
