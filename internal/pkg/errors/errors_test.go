package errors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"transaction-service/internal/domain/transaction"
	apierrors "transaction-service/internal/pkg/errors"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind   apierrors.Kind
		status int
	}{
		{apierrors.KindValidation, http.StatusBadRequest},
		{apierrors.KindInsufficientFunds, http.StatusBadRequest},
		{apierrors.KindWouldGoNegative, http.StatusBadRequest},
		{apierrors.KindAccountNotFound, http.StatusNotFound},
		{apierrors.KindAlreadyReversed, http.StatusConflict},
		{apierrors.KindUnauthorized, http.StatusUnauthorized},
		{apierrors.KindForbidden, http.StatusForbidden},
		{apierrors.KindServiceUnavailable, http.StatusServiceUnavailable},
		{apierrors.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
		})
	}
}

func TestOnlyServiceUnavailableIsRetrySafe(t *testing.T) {
	assert.True(t, apierrors.KindServiceUnavailable.RetrySafe())
	assert.False(t, apierrors.KindValidation.RetrySafe())
	assert.False(t, apierrors.KindInternal.RetrySafe())
}

func TestLimitExceededCarriesReason(t *testing.T) {
	err := apierrors.LimitExceeded(transaction.LimitReasonDailyAmount)

	assert.Equal(t, apierrors.KindLimitExceeded, err.Kind)
	assert.Equal(t, transaction.LimitReasonDailyAmount, err.LimitReason)
	assert.Equal(t, http.StatusBadRequest, err.Status())
}

func TestAsExtractsTypedError(t *testing.T) {
	wrapped := apierrors.AccountNotFound("acct-1")

	extracted, ok := apierrors.As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, apierrors.KindAccountNotFound, extracted.Kind)

	_, ok = apierrors.As(errors.New("plain error"))
	assert.False(t, ok)
}

func TestErrorSatisfiesStdlibErrorInterface(t *testing.T) {
	var err error = apierrors.Validation("amount is required")
	assert.EqualError(t, err, "amount is required")
}
