package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transaction-service/internal/ledger"
	apierrors "transaction-service/internal/pkg/errors"
)

// MakeReversalsHandler implements GET /api/transactions/{id}/reversals:
// the reversal row for a transaction, if any exists yet.
func MakeReversalsHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		reversal, err := store.FindReversalOf(c.Request.Context(), c.Param("id"))
		if err == ledger.ErrNotFound {
			c.JSON(http.StatusOK, gin.H{"reversals": []interface{}{}})
			return
		}
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, gin.H{"reversals": []interface{}{reversal}})
	}
}

// MakeReversedHandler implements GET /api/transactions/{id}/reversed.
func MakeReversedHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		reversed, err := store.IsReversed(c.Request.Context(), c.Param("id"))
		if err == ledger.ErrNotFound {
			writeError(c, apierrors.New(apierrors.KindAccountNotFound, "transaction not found"))
			return
		}
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, gin.H{"isReversed": reversed})
	}
}
