// Package validation holds the server-side request validation rules from
// spec §6: amount range, currency allow-list, and bounded free text.
package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	apierrors "transaction-service/internal/pkg/errors"
)

const (
	MinAmountString = "0.01"
	MaxDescriptionLen = 500
	MaxReferenceLen   = 100
)

var MinAmount = decimal.RequireFromString(MinAmountString)

// ValidateAmount checks 0.01 <= amount <= maxAmount.
func ValidateAmount(amount decimal.Decimal, maxAmount decimal.Decimal) *apierrors.Error {
	if amount.LessThan(MinAmount) {
		return apierrors.Validation("amount must be at least " + MinAmountString)
	}
	if amount.GreaterThan(maxAmount) {
		return apierrors.Validation("amount exceeds the configured maximum of " + maxAmount.String())
	}
	return nil
}

// ValidateCurrency checks currency is in the configured allow-list.
func ValidateCurrency(currency string, allowed []string) *apierrors.Error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return apierrors.Validation("currency must be an ISO-alpha-3 code")
	}
	for _, a := range allowed {
		if strings.EqualFold(a, currency) {
			return nil
		}
	}
	return apierrors.Validation("currency " + currency + " is not supported")
}

// ValidateAccountID checks an account id is present.
func ValidateAccountID(id string) *apierrors.Error {
	if strings.TrimSpace(id) == "" {
		return apierrors.Validation("account id must not be empty")
	}
	return nil
}

// ValidateDescription bounds the free-text description field.
func ValidateDescription(description string) *apierrors.Error {
	if len(description) > MaxDescriptionLen {
		return apierrors.Validation("description must be at most 500 characters")
	}
	return nil
}

// ValidateReference bounds the free-text reference field.
func ValidateReference(reference string) *apierrors.Error {
	if len(reference) > MaxReferenceLen {
		return apierrors.Validation("reference must be at most 100 characters")
	}
	return nil
}

// ValidateDistinctAccounts rejects from == to on a transfer.
func ValidateDistinctAccounts(from, to string) *apierrors.Error {
	if from == to {
		return apierrors.Validation("fromAccountId and toAccountId must differ")
	}
	return nil
}
