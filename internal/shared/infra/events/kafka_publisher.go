package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
)

// KafkaPublisher escribe en cualquier topic usando un writer genérico.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka", zap.String("topic", topic), zap.Error(err))
		return err
	}

	p.log.Debug("Event published successfully", zap.String("topic", topic))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Verificación estática
var _ sharedBus.EventPublisher = (*KafkaPublisher)(nil)
