package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transaction-service/internal/domain/transaction"
)

// MakeLimitsHandler implements GET /api/transactions/limits: the caller's
// remaining daily allowance per (account type, transaction type), sourced
// from the same evaluator the engine consults (spec §4.2).
func MakeLimitsHandler(deps Dependencies) gin.HandlerFunc {
	evaluator := deps.LimitsEvaluator()

	return func(c *gin.Context) {
		accountID := c.Query("accountId")
		accountType := transaction.AccountType(c.DefaultQuery("accountType", string(transaction.AccountTypeDebit)))

		remaining := make(map[string]interface{}, 4)
		for _, txType := range []transaction.Type{transaction.TypeWithdrawal, transaction.TypeTransfer} {
			amount, count, err := evaluator.RemainingDaily(c.Request.Context(), accountID, accountType, txType)
			if err != nil {
				writeError(c, err)
				return
			}
			remaining[string(txType)] = gin.H{"dailyAmountRemaining": amount, "dailyCountRemaining": count}
		}
		c.JSON(http.StatusOK, gin.H{"accountId": accountID, "accountType": accountType, "remaining": remaining})
	}
}
