// Package idempotency derives the deterministic keys the service hands to
// the Accounts service's balance-op endpoint (spec §4.3, §4.4): the
// Accounts service is the arbiter of idempotency via op_id, so this
// package's only job is to build op_ids the engine can reconstruct and
// replay without a lookup table.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// BalanceOpID builds the op_id for a balance mutation leg of a
// transaction: "<tx_id>:<leg>", e.g. "a1b2:credit", "a1b2:debit",
// "a1b2:compensate". Replaying the same (tx_id, leg) always yields the
// same op_id, which is exactly the idempotency discipline spec §4.4 step 7
// requires.
func BalanceOpID(transactionID, leg string) string {
	return fmt.Sprintf("%s:%s", transactionID, leg)
}

// ReferenceKey hashes a caller-supplied reference into a stable dedup key,
// for the future write-idempotency extension spec §4.4 flags as not yet
// required of the engine itself.
func ReferenceKey(reference string) string {
	sum := sha256.Sum256([]byte(reference))
	return hex.EncodeToString(sum[:])
}
