package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transaction-service/internal/api/middleware"
	apierrors "transaction-service/internal/pkg/errors"
	"transaction-service/internal/pkg/logging"
)

type reverseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// MakeReverseHandler implements POST /api/transactions/{id}/reverse.
func MakeReverseHandler(deps Dependencies) gin.HandlerFunc {
	eng := deps.Engine()

	return func(c *gin.Context) {
		transactionID := c.Param("id")
		if transactionID == "" {
			writeError(c, apierrors.Validation("transaction id is required"))
			return
		}

		var req reverseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apierrors.Validation("reason is required"))
			return
		}

		principal, _ := middleware.CurrentPrincipal(c)
		tx, err := eng.ReverseTransaction(c.Request.Context(), transactionID, req.Reason, principal.UserID, middleware.BearerToken(c))
		if err != nil {
			logging.Warn("reversal failed", map[string]interface{}{"transactionId": transactionID, "error": err.Error()})
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}
