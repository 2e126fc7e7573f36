// Package consumer handles audit records read back from Kafka.
package consumer

import (
	"context"
	"log/slog"
)

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
}

// TopicHandler handles messages from a specific topic.
type TopicHandler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Router dispatches messages to topic-specific handlers.
type Router struct {
	handlers map[string]TopicHandler
	fallback TopicHandler
	logger   *slog.Logger
}

// NewRouter creates a topic router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback TopicHandler) *Router {
	return &Router{
		handlers: make(map[string]TopicHandler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a specific topic.
func (r *Router) Register(topic string, handler TopicHandler) {
	r.handlers[topic] = handler
}

// Topics lists the registered topics.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		topics = append(topics, t)
	}
	return topics
}

// Handle routes the message to the appropriate topic handler.
func (r *Router) Handle(ctx context.Context, msg *Message) error {
	handler, ok := r.handlers[msg.Topic]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.WarnContext(ctx, "no handler for topic, skipping message",
			"topic", msg.Topic,
			"key", string(msg.Key),
		)
		return nil // commit to avoid redelivery
	}
	return handler.Handle(ctx, msg)
}
