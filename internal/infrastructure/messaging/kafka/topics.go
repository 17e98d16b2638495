package kafka

// TopicAuditEvents is the single topic the audit trail publishes to
// (spec SPEC_FULL §4.9 async observers): every deposit, withdrawal,
// transfer, reversal, and limit decision the engine records, in one
// ordered stream keyed by correlation ID.
const TopicAuditEvents = "transaction-service.audit.events"
