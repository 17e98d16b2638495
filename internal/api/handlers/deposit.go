package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"transaction-service/internal/api/middleware"
	"transaction-service/internal/engine"
	apierrors "transaction-service/internal/pkg/errors"
	"transaction-service/internal/pkg/logging"
	"transaction-service/internal/pkg/validation"
)

// moneyRequest is the JSON body shape shared by deposit and withdrawal
// (spec §6): a single account leg plus amount/currency/free text.
type moneyRequest struct {
	AccountID   string `json:"accountId" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

func parseMoneyRequest(c *gin.Context, maxAmount decimal.Decimal, allowedCurrencies []string) (moneyRequest, decimal.Decimal, bool) {
	var req moneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.Validation("request body is malformed: "+err.Error()))
		return req, decimal.Zero, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(c, apierrors.Validation("amount must be a decimal string"))
		return req, decimal.Zero, false
	}

	if apiErr := validation.ValidateAmount(amount, maxAmount); apiErr != nil {
		writeError(c, apiErr)
		return req, decimal.Zero, false
	}
	if apiErr := validation.ValidateCurrency(req.Currency, allowedCurrencies); apiErr != nil {
		writeError(c, apiErr)
		return req, decimal.Zero, false
	}
	if apiErr := validation.ValidateAccountID(req.AccountID); apiErr != nil {
		writeError(c, apiErr)
		return req, decimal.Zero, false
	}
	if apiErr := validation.ValidateDescription(req.Description); apiErr != nil {
		writeError(c, apiErr)
		return req, decimal.Zero, false
	}
	if apiErr := validation.ValidateReference(req.Reference); apiErr != nil {
		writeError(c, apiErr)
		return req, decimal.Zero, false
	}
	return req, amount, true
}

// MakeDepositHandler implements POST /api/transactions/deposit.
func MakeDepositHandler(deps Dependencies) gin.HandlerFunc {
	maxAmount := decimal.RequireFromString(deps.Config().Currency.MaxAmount)
	allowed := deps.Config().Currency.Allowed
	eng := deps.Engine()

	return func(c *gin.Context) {
		req, amount, ok := parseMoneyRequest(c, maxAmount, allowed)
		if !ok {
			return
		}

		principal, _ := middleware.CurrentPrincipal(c)
		tx, err := eng.ProcessDeposit(c.Request.Context(), engine.Request{
			ToAccount:   req.AccountID,
			Amount:      amount,
			Currency:    req.Currency,
			Description: req.Description,
			Reference:   req.Reference,
			ActorID:     principal.UserID,
			UserToken:   middleware.BearerToken(c),
		})
		if err != nil {
			logging.Warn("deposit failed", map[string]interface{}{"accountId": req.AccountID, "error": err.Error()})
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}
