package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "transaction-service/internal/pkg/errors"
)

func statsWindow(c *gin.Context) (time.Time, time.Time) {
	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)
	if s := c.Query("startDate"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			start = t
		}
	}
	if e := c.Query("endDate"); e != "" {
		if t, err := time.Parse(time.RFC3339, e); err == nil {
			end = t
		}
	}
	return start, end
}

// MakeAccountStatsHandler implements GET /api/transactions/account/{accountId}/stats.
func MakeAccountStatsHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		start, end := statsWindow(c)
		stats, err := store.AccountStats(c.Request.Context(), c.Param("accountId"), start, end)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// MakeUserStatsHandler implements GET /api/transactions/user/{userId}/stats.
func MakeUserStatsHandler(deps Dependencies) gin.HandlerFunc {
	store := deps.Ledger()
	return func(c *gin.Context) {
		start, end := statsWindow(c)
		stats, err := store.UserStats(c.Request.Context(), c.Param("userId"), start, end)
		if err != nil {
			writeError(c, apierrors.Internal(""))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
