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

type transferRequest struct {
	FromAccountID string `json:"fromAccountId" binding:"required"`
	ToAccountID   string `json:"toAccountId" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
}

// MakeTransferHandler implements POST /api/transactions/transfer, extracting
// dependencies once at handler-creation time, the same shape the teacher's
// original MakeTransferHandler uses.
func MakeTransferHandler(deps Dependencies) gin.HandlerFunc {
	maxAmount := decimal.RequireFromString(deps.Config().Currency.MaxAmount)
	allowed := deps.Config().Currency.Allowed
	eng := deps.Engine()

	return func(c *gin.Context) {
		var req transferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logging.Warn("invalid transfer request body", map[string]interface{}{"error": err.Error(), "ip": c.ClientIP()})
			writeError(c, apierrors.Validation("request body is malformed: "+err.Error()))
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeError(c, apierrors.Validation("amount must be a decimal string"))
			return
		}

		if apiErr := validation.ValidateAmount(amount, maxAmount); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateCurrency(req.Currency, allowed); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateAccountID(req.FromAccountID); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateAccountID(req.ToAccountID); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateDistinctAccounts(req.FromAccountID, req.ToAccountID); apiErr != nil {
			logging.Warn("attempted self-transfer", map[string]interface{}{"accountId": req.FromAccountID, "ip": c.ClientIP()})
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateDescription(req.Description); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		if apiErr := validation.ValidateReference(req.Reference); apiErr != nil {
			writeError(c, apiErr)
			return
		}

		principal, _ := middleware.CurrentPrincipal(c)
		tx, err := eng.ProcessTransfer(c.Request.Context(), engine.Request{
			FromAccount: req.FromAccountID,
			ToAccount:   req.ToAccountID,
			Amount:      amount,
			Currency:    req.Currency,
			Description: req.Description,
			Reference:   req.Reference,
			ActorID:     principal.UserID,
			UserToken:   middleware.BearerToken(c),
		})
		if err != nil {
			logging.Warn("transfer failed", map[string]interface{}{
				"fromAccountId": req.FromAccountID, "toAccountId": req.ToAccountID, "error": err.Error(),
			})
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}
