package audit

import (
	"transaction-service/internal/infrastructure/messaging/kafka"
	"transaction-service/internal/pkg/logging"
)

// KafkaSink publishes audit events to a Kafka topic through the
// teacher's sarama-backed kafka.Producer
// (internal/infrastructure/messaging/kafka/producer.go), reused here
// verbatim for the JSON-marshal-then-SendMessage publish path. It is
// wired as an observer only: a publish failure is logged and swallowed,
// never propagated to the caller.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSink(producer *kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(event Event) {
	if err := s.producer.PublishEvent(s.topic, event.CorrelationID, event); err != nil {
		logging.Error("failed to publish audit event to kafka", err, map[string]interface{}{
			"eventType": event.EventType, "action": event.Action,
		})
	}
}

// LogSink is the audit sink used when Kafka is disabled (spec SPEC_FULL
// ambient config: kafka.enabled defaults false): it writes audit events
// through the same structured logger as everything else, so no deployment
// loses its audit trail for lack of a broker.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Publish(event Event) {
	logging.Info("audit event", map[string]interface{}{
		"eventId": event.EventID, "eventType": event.EventType, "action": event.Action,
		"outcome": event.Outcome, "userId": event.UserID, "transactionId": event.TransactionID,
		"correlationId": event.CorrelationID,
	})
}
