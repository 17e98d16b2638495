package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"transaction-service/internal/api/middleware"
	"transaction-service/internal/domain/transaction"
	"transaction-service/internal/ledger"
	apierrors "transaction-service/internal/pkg/errors"
)

// MakeMyTransactionsHandler implements GET /api/transactions (current
// user), scoping the user page query to the authenticated principal
// rather than a path parameter.
func MakeMyTransactionsHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		principal, ok := middleware.CurrentPrincipal(c)
		if !ok {
			writeError(c, apierrors.Unauthorized("authentication required"))
			return
		}
		page, size := pageParams(c)
		result, err := store.PageByUser(c.Request.Context(), principal.UserID, page, size)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// MakeGetTransactionHandler implements GET /api/transactions/{id}.
func MakeGetTransactionHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		tx, err := store.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == ledger.ErrNotFound {
				writeError(c, apierrors.New(apierrors.KindAccountNotFound, "transaction not found"))
				return
			}
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

// MakeListByAccountHandler implements GET /api/transactions/account/{accountId}.
func MakeListByAccountHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		page, size := pageParams(c)
		result, err := store.PageByAccount(c.Request.Context(), c.Param("accountId"), page, size)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// MakeListByUserHandler implements GET /api/transactions/user/{userId}.
func MakeListByUserHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		page, size := pageParams(c)
		result, err := store.PageByUser(c.Request.Context(), c.Param("userId"), page, size)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// MakeSearchHandler implements GET /api/transactions/search.
func MakeSearchHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		page, size := pageParams(c)
		filter := transaction.SearchFilter{
			AccountID: c.Query("accountId"),
			CreatedBy: c.Query("userId"),
			Type:      transaction.Type(c.Query("type")),
			Status:    transaction.Status(c.Query("status")),
		}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse(time.RFC3339, from); err == nil {
				filter.From = &t
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := time.Parse(time.RFC3339, to); err == nil {
				filter.To = &t
			}
		}
		if min := c.Query("minAmount"); min != "" {
			if d, err := decimal.NewFromString(min); err == nil {
				filter.MinAmount = &d
			}
		}
		if max := c.Query("maxAmount"); max != "" {
			if d, err := decimal.NewFromString(max); err == nil {
				filter.MaxAmount = &d
			}
		}
		filter.DescriptionLike = c.Query("description")
		filter.ReferenceLike = c.Query("reference")

		result, err := store.Search(c.Request.Context(), filter, page, size)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
