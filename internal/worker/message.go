package worker

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobMessage is a decoded task together with its delivery for settlement
type JobMessage struct {
	JobID    string
	Delivery amqp.Delivery
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// shouldRequeue reports whether a failed message is worth another delivery.
// Only failures before the job was claimed qualify; once claimed the job
// has been driven to a terminal state and redelivery cannot change it.
func shouldRequeue(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
