// Package security publishes security events asynchronously.
//
// Emit never blocks on the store: events go into a RingBuffer and a background
// goroutine flushes them in batches. A failed write puts the rest of the batch
// back into the buffer for the next flush, so under sustained store failure the
// oldest events are dropped once the buffer fills. Close makes one last attempt
// at what is left and drops what still fails.
//
// Use for: authorization_denied, tenant_guard_rejected
package security

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "sanitrack/pkg/platform/audit"
)

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("security publisher closed")

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 250 * time.Millisecond
	flushTimeout         = 5 * time.Second
)

// Publisher buffers security events and writes them to a store in the background.
type Publisher struct {
	store         audit.Store
	buffer        *RingBuffer
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for dropped or failed events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithBufferSize sets the ring buffer capacity.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(n)
	}
}

// WithBatchSize sets how many events one flush writes at most.
func WithBatchSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithFlushInterval sets the background flush period.
func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New creates a publisher and starts its flush loop.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        NewRingBuffer(defaultBufferCapacity),
		logger:        slog.Default(),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Emit queues event. It only fails once the publisher is closed.
func (p *Publisher) Emit(ctx context.Context, event audit.SecurityEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityWarning
	}
	if p.buffer.Enqueue(event) {
		p.logger.WarnContext(ctx, "security event buffer full, dropped oldest event",
			"dropped_total", p.buffer.Dropped(),
		)
	}

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of queued events.
func (p *Publisher) Pending() int { return p.buffer.Len() }

// Dropped returns the number of events lost to buffer overflow.
func (p *Publisher) Dropped() int64 { return p.buffer.Dropped() }

// Close stops the flush loop after writing every queued event.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			for p.buffer.Len() > 0 {
				p.flush(false)
			}
			return
		case <-ticker.C:
			p.flush(true)
		case <-p.wake:
			p.flush(true)
		}
	}
}

// flush writes one batch. On the first failed write the unwritten remainder is
// requeued when retry is set, and dropped otherwise.
func (p *Publisher) flush(retry bool) {
	batch := p.buffer.DequeueBatch(p.batchSize)
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for i, event := range batch {
		stored := event.ToEvent()
		stored.ID = uuid.NewString()
		err := p.store.Append(ctx, stored)
		if err == nil {
			continue
		}
		p.logger.ErrorContext(ctx, "security audit write failed",
			"action", event.Action,
			"organization_id", event.OrganizationID,
			"user_id", event.UserID,
			"requeued", retry,
			"error", err,
		)
		if !retry {
			continue
		}
		for _, pending := range batch[i:] {
			p.buffer.Enqueue(pending)
		}
		return
	}
}
