package components

import "transaction-service/internal/api/handlers"

// Compile-time assertion that Container satisfies the interface the
// handlers package depends on; constructing a real Container needs a
// live Postgres/Redis/Kafka, so that wiring is exercised at deploy time,
// not here.
var _ handlers.Dependencies = (*Container)(nil)
