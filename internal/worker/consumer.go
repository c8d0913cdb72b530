package worker

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/invoice-pipeline/internal/queue"
	amqp "github.com/rabbitmq/amqp091-go"
)

// dispatch decodes deliveries and hands them to the pool. It returns false
// when the delivery channel closes, true when ctx is canceled.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	w.logger.Info("Message dispatcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return true

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return false
			}

			msg, err := queue.Decode(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting malformed message",
					slog.Any("error", err),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed messages go to the dead-letter exchange, if any
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			jobMsg := &JobMessage{
				JobID:    msg.JobID,
				Delivery: delivery,
			}

			select {
			case w.jobsChan <- jobMsg:
				w.logger.Debug("Job dispatched to worker pool",
					slog.String("job_id", msg.JobID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching job")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.Any("error", nackErr),
					)
				}
				return true
			}
		}
	}
}
