// Package worker runs the audit projector loop: poll Kafka, hand each record
// to a consumer.TopicHandler, commit what was handled.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"sanitrack/pkg/platform/audit/consumer"
)

// Client is the subset of *kgo.Client the worker uses.
type Client interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// Worker consumes audit records and persists them through a handler.
type Worker struct {
	client  Client
	handler consumer.TopicHandler
	logger  *slog.Logger
}

func NewWorker(client Client, handler consumer.TopicHandler, logger *slog.Logger) *Worker {
	return &Worker{client: client, handler: handler, logger: logger}
}

// Run polls until ctx is cancelled or the client is closed. A handler error
// stops the loop after committing the records handled before it; the failed
// record is redelivered on restart.
func (w *Worker) Run(ctx context.Context) error {
	for {
		fetches := w.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			w.logger.ErrorContext(ctx, "audit fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		handled, err := w.handle(ctx, fetches)
		if len(handled) > 0 {
			if commitErr := w.client.CommitRecords(ctx, handled...); commitErr != nil {
				return fmt.Errorf("commit audit offsets: %w", commitErr)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (w *Worker) handle(ctx context.Context, fetches kgo.Fetches) ([]*kgo.Record, error) {
	var handled []*kgo.Record
	for _, r := range fetches.Records() {
		if err := w.handler.Handle(ctx, toMessage(r)); err != nil {
			w.logger.ErrorContext(ctx, "audit record handling failed",
				"topic", r.Topic,
				"partition", r.Partition,
				"offset", r.Offset,
				"error", err,
			)
			return handled, err
		}
		handled = append(handled, r)
	}
	return handled, nil
}

func toMessage(r *kgo.Record) *consumer.Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &consumer.Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
	}
}
