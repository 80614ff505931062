package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// MessageWriter est la partie de *kafka.Writer utilisée ici.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publie tous les événements sur un topic ; le sujet sert de clé.
type Kafka struct {
	writer MessageWriter
}

func NewKafka(broker, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func NewKafkaWithWriter(w MessageWriter) *Kafka {
	return &Kafka{writer: w}
}

func (k *Kafka) Publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "subject", Value: []byte(subject)},
		},
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
