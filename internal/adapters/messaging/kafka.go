// internal/adapters/messaging/kafka.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// SentimentProducer publishes "analyze this connection" triggers. The
// analysis job is an external collaborator; the contract here is only
// "accepts a connection id and analyzes unscored reviews for it".
type SentimentProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewSentimentProducer(brokers []string, topic string) *SentimentProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &SentimentProducer{writer: writer, topic: topic}
}

type analysisTrigger struct {
	ConnectionID int64     `json:"connectionId"`
	TriggeredAt  time.Time `json:"triggeredAt"`
}

// NotifyNewReviews is keyed by connection id so triggers for one connection
// land on one partition.
func (p *SentimentProducer) NotifyNewReviews(ctx context.Context, connectionID int64) error {
	value, err := json.Marshal(analysisTrigger{
		ConnectionID: connectionID,
		TriggeredAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal analysis trigger: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(connectionID, 10)),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish analysis trigger: %w", err)
	}
	return nil
}

func (p *SentimentProducer) Close() error {
	return p.writer.Close()
}
