package security

import (
	"sync"

	audit "sanitrack/pkg/platform/audit"
)

const defaultBufferCapacity = 10000

// RingBuffer is a bounded, thread-safe queue of security events. When full,
// the oldest event is dropped to make room.
type RingBuffer struct {
	mu       sync.Mutex
	events   []audit.SecurityEvent
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}
	return &RingBuffer{
		events:   make([]audit.SecurityEvent, capacity),
		capacity: capacity,
	}
}

// Enqueue adds an event, dropping the oldest if necessary. It reports whether
// an event was dropped.
func (b *RingBuffer) Enqueue(event audit.SecurityEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := false
	if b.count >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		dropped = true
	}

	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return dropped
}

// DequeueBatch removes up to n events from the buffer, oldest first.
func (b *RingBuffer) DequeueBatch(n int) []audit.SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 || n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]audit.SecurityEvent, n)
	for i := 0; i < n; i++ {
		result[i] = b.events[b.tail]
		b.events[b.tail] = audit.SecurityEvent{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

// Len returns the current number of events in the buffer.
func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of dropped events.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
