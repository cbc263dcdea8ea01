package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewWrapsPayload(t *testing.T) {
	e, err := New("grocery-api", TopicOrderPlaced, EventOrderPlaced, "SS1-ab", OrderPlacedPayload{
		OrderNumber: "SS1-ab",
		TotalAmount: decimal.RequireFromString("99.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SS1-ab", e.Key)
	assert.Equal(t, 1, e.Envelope.EventVersion)
	assert.NotEmpty(t, e.Envelope.EventID)

	var p OrderPlacedPayload
	require.NoError(t, json.Unmarshal(e.Envelope.Payload, &p))
	assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("99.5")))
}

func TestKafkaPublisher_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 4, zap.NewNop())
	ctx := context.Background()

	for _, n := range []string{"SS1", "SS2", "SS3"} {
		e, err := New("grocery-api", TopicOrderPlaced, EventOrderPlaced, n, OrderPlacedPayload{OrderNumber: n})
		require.NoError(t, err)
		require.NoError(t, p.Publish(ctx, e))
	}
	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 3)
	assert.True(t, w.closed)
	assert.Equal(t, TopicOrderPlaced, w.msgs[0].Topic)
	assert.Equal(t, "SS1", string(w.msgs[0].Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[2].Value, &env))
	assert.Equal(t, "SS3", env.CorrelationID)

	e, _ := New("grocery-api", TopicOrderPlaced, EventOrderPlaced, "SS4", nil)
	assert.ErrorIs(t, p.Publish(ctx, e), ErrPublisherClosed)
}

// gatedWriter holds the first write until release is closed
type gatedWriter struct {
	fakeWriter
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   []int
}

func (w *gatedWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.once.Do(func() {
		close(w.started)
		<-w.release
	})
	w.mu.Lock()
	w.calls = append(w.calls, len(msgs))
	w.mu.Unlock()
	return w.fakeWriter.WriteMessages(ctx, msgs...)
}

func TestKafkaPublisher_WritesBufferedEventsTogether(t *testing.T) {
	w := &gatedWriter{started: make(chan struct{}), release: make(chan struct{})}
	p := newKafkaPublisher(w, 16, zap.NewNop())
	ctx := context.Background()

	publish := func(n string) {
		e, err := New("grocery-api", TopicOrderPlaced, EventOrderPlaced, n, OrderPlacedPayload{OrderNumber: n})
		require.NoError(t, err)
		require.NoError(t, p.Publish(ctx, e))
	}
	publish("SS0")
	<-w.started
	for _, n := range []string{"SS1", "SS2", "SS3", "SS4", "SS5"} {
		publish(n)
	}
	close(w.release)
	require.NoError(t, p.Close())

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Equal(t, []int{1, 5}, w.calls)
	require.Len(t, w.msgs, 6)
	assert.Equal(t, "SS5", string(w.msgs[5].Key))
}

func TestLogPublisher_ReconciliationIsError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	e, err := New("grocery-api", TopicReconciliation, EventReconciliationRequired, "SS1", ReconciliationPayload{OrderNumber: "SS1"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}
