package idempotency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"transaction-service/internal/pkg/idempotency"
)

func TestBalanceOpID_DeterministicPerLeg(t *testing.T) {
	assert.Equal(t, "tx-1:credit", idempotency.BalanceOpID("tx-1", "credit"))
	assert.Equal(t, "tx-1:debit", idempotency.BalanceOpID("tx-1", "debit"))
}

func TestBalanceOpID_ReplaySameInputsSameKey(t *testing.T) {
	first := idempotency.BalanceOpID("tx-1", "compensate")
	second := idempotency.BalanceOpID("tx-1", "compensate")

	assert.Equal(t, first, second)
}

func TestBalanceOpID_DifferentLegsDifferentKeys(t *testing.T) {
	credit := idempotency.BalanceOpID("tx-1", "credit")
	debit := idempotency.BalanceOpID("tx-1", "debit")

	assert.NotEqual(t, credit, debit)
}

func TestReferenceKey_StableAndDistinct(t *testing.T) {
	a := idempotency.ReferenceKey("invoice-42")
	b := idempotency.ReferenceKey("invoice-42")
	c := idempotency.ReferenceKey("invoice-43")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex-encoded sha256
}
