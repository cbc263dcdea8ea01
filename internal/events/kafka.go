package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrPublisherClosed = errors.New("event publisher closed")

// maxBatch сколько сообщений из буфера уходит одним WriteMessages
const maxBatch = 100

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher буферизует сообщения в канале, отдельная горутина пишет их в kafka.
// Topic задаётся в каждом сообщении, поэтому у writer его нет.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	logger  *zap.Logger
}

func NewKafkaPublisher(brokers []string, buf int, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchSize:              maxBatch,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newKafkaPublisher(w, buf, logger)
}

func newKafkaPublisher(w messageWriter, buf int, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.closeCh)
	batch := make([]kafka.Message, 0, maxBatch)
	for m := range p.inbox {
		// всё, что уже лежит в буфере, уходит одним вызовом
		batch = append(batch[:0], m)
	drain:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-p.inbox:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		p.write(batch)
	}
	if err := p.w.Close(); err != nil {
		p.logger.Warn("Failed to close kafka writer", zap.Error(err))
	}
}

func (p *KafkaPublisher) write(batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, batch...); err != nil {
		fields := []zap.Field{zap.Int("messages", len(batch)), zap.Error(err)}
		var werr kafka.WriteErrors
		if errors.As(err, &werr) {
			fields = append(fields, zap.Int("failed", werr.Count()))
		}
		p.logger.Error("Failed to write events to kafka", append(fields, zap.String("first_topic", batch[0].Topic))...)
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e.Envelope)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: e.Topic,
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.Envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Envelope.EventType)},
			{Key: "event_id", Value: []byte(e.Envelope.EventID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close дожидается отправки буфера и закрывает writer
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
	<-p.closeCh
	return nil
}
