package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"transaction-service/internal/api/middleware"
	"transaction-service/internal/engine"
	"transaction-service/internal/pkg/logging"
)

// MakeWithdrawHandler implements POST /api/transactions/withdraw.
func MakeWithdrawHandler(deps Dependencies) gin.HandlerFunc {
	maxAmount := decimal.RequireFromString(deps.Config().Currency.MaxAmount)
	allowed := deps.Config().Currency.Allowed
	eng := deps.Engine()

	return func(c *gin.Context) {
		req, amount, ok := parseMoneyRequest(c, maxAmount, allowed)
		if !ok {
			return
		}

		principal, _ := middleware.CurrentPrincipal(c)
		tx, err := eng.ProcessWithdrawal(c.Request.Context(), engine.Request{
			FromAccount: req.AccountID,
			Amount:      amount,
			Currency:    req.Currency,
			Description: req.Description,
			Reference:   req.Reference,
			ActorID:     principal.UserID,
			UserToken:   middleware.BearerToken(c),
		})
		if err != nil {
			logging.Warn("withdrawal failed", map[string]interface{}{"accountId": req.AccountID, "error": err.Error()})
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}
