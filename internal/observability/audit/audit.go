// Package audit builds and ships the structured audit events spec §4.5
// requires at every engine decision point. Publishing is an async,
// best-effort side channel (Kafka, via internal/observability/audit/sink.go)
// — an audit-publish failure must never fail the transaction it describes.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the audit taxonomy from spec §4.5.
type EventType string

const (
	EventTransaction      EventType = "TRANSACTION"
	EventSecurity         EventType = "SECURITY"
	EventLimitCheck       EventType = "LIMIT_CHECK"
	EventAccountValidation EventType = "ACCOUNT_VALIDATION"
	EventBalanceCheck     EventType = "BALANCE_CHECK"
	EventAPIAccess        EventType = "API_ACCESS"
	EventSystem           EventType = "SYSTEM_EVENT"
	EventAlertTriggered   EventType = "ALERT_TRIGGERED"
)

// Outcome is SUCCESS or FAILURE.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Event is the stable-schema record spec §4.5 requires.
type Event struct {
	EventID       string                 `json:"eventId"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlationId"`
	EventType     EventType              `json:"eventType"`
	Action        string                 `json:"action"`
	Outcome       Outcome                `json:"outcome"`
	UserID        string                 `json:"userId,omitempty"`
	TransactionID string                 `json:"transactionId,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
}

// Sink is anything able to durably receive audit events. Kafka is the
// production sink; it is an observer of the engine, never a dependency
// its control flow blocks on.
type Sink interface {
	Publish(event Event)
}

// Recorder builds and dispatches events, attaching a generated EventID
// and timestamp so call sites only need to describe what happened.
type Recorder struct {
	sink Sink
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) Record(correlationID string, eventType EventType, action string, outcome Outcome, userID, transactionID string, fields map[string]interface{}) {
	r.sink.Publish(Event{
		EventID:       uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		EventType:     eventType,
		Action:        action,
		Outcome:       outcome,
		UserID:        userID,
		TransactionID: transactionID,
		Fields:        fields,
	})
}
