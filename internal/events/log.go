package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher пишет события в лог, когда kafka не настроена
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	level := zap.InfoLevel
	if e.Topic == TopicReconciliation {
		level = zap.ErrorLevel
	}
	p.logger.Log(level, "Event published",
		zap.String("topic", e.Topic),
		zap.String("event_type", e.Envelope.EventType),
		zap.String("event_id", e.Envelope.EventID),
		zap.String("correlation_id", e.Envelope.CorrelationID),
		zap.ByteString("payload", e.Envelope.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
