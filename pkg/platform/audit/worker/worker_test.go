package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"sanitrack/pkg/platform/audit/consumer"
)

type fakeClient struct {
	batches   []kgo.Fetches
	committed []*kgo.Record
	cancel    context.CancelFunc
}

func (c *fakeClient) PollFetches(context.Context) kgo.Fetches {
	if len(c.batches) == 0 {
		c.cancel()
		return nil
	}
	next := c.batches[0]
	c.batches = c.batches[1:]
	return next
}

func (c *fakeClient) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	c.committed = append(c.committed, rs...)
	return nil
}

func batch(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "sanitrack.audit.compliance",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

type handlerFunc func(ctx context.Context, msg *consumer.Message) error

func (f handlerFunc) Handle(ctx context.Context, msg *consumer.Message) error { return f(ctx, msg) }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestWorkerCommitsHandledRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r1 := &kgo.Record{Topic: "sanitrack.audit.compliance", Offset: 1, Value: []byte("a"), Headers: []kgo.RecordHeader{{Key: "event_id", Value: []byte("evt-1")}}}
	r2 := &kgo.Record{Topic: "sanitrack.audit.compliance", Offset: 2, Value: []byte("b")}
	client := &fakeClient{batches: []kgo.Fetches{batch(r1), batch(r2)}, cancel: cancel}

	var seen []string
	w := NewWorker(client, handlerFunc(func(_ context.Context, msg *consumer.Message) error {
		seen = append(seen, string(msg.Value)+":"+msg.Headers["event_id"])
		return nil
	}), discard())

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{"a:evt-1", "b:"}, seen)
	assert.Equal(t, []*kgo.Record{r1, r2}, client.committed)
}

func TestWorkerStopsOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ok := &kgo.Record{Offset: 1, Value: []byte("ok")}
	bad := &kgo.Record{Offset: 2, Value: []byte("bad")}
	after := &kgo.Record{Offset: 3, Value: []byte("after")}
	client := &fakeClient{batches: []kgo.Fetches{batch(ok, bad, after)}, cancel: cancel}

	w := NewWorker(client, handlerFunc(func(_ context.Context, msg *consumer.Message) error {
		if string(msg.Value) == "bad" {
			return errors.New("db down")
		}
		return nil
	}), discard())

	err := w.Run(ctx)
	require.ErrorContains(t, err, "db down")
	assert.Equal(t, []*kgo.Record{ok}, client.committed)
}
