package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"storm-platform/internal/models"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

// KafkaNotifier publishes verification events to a Kafka topic
type KafkaNotifier struct {
	writer  *kafkago.Writer
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewKafkaNotifier creates a producer for the verification events topic
func NewKafkaNotifier(brokers []string, topic string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}

	return &KafkaNotifier{
		writer:  w,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// VerificationCompleted serializes and publishes one verification event.
// Callers treat this as fire-and-forget; a publish failure must never roll
// back or delay the verification write it follows.
func (n *KafkaNotifier) VerificationCompleted(ctx context.Context, alert *models.Alert) error {
	event := EventFromAlert(alert)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize verification event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(alert.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "match_method", Value: []byte(event.MatchMethod)},
			{Key: "verified_at", Value: []byte(event.VerifiedAt.Format(time.RFC3339))},
		},
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.metrics.NotifyErrorsTotal.Inc()
		return fmt.Errorf("failed to publish verification event: %w", err)
	}

	n.metrics.NotifyEventsTotal.Inc()
	n.logger.Debug(ctx, "[NOTIFY_PUBLISHED] Verification event published", logging.Fields{
		"alert_id":     alert.ID,
		"match_method": event.MatchMethod,
	})

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
