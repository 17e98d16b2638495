package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transaction-service/internal/health"
)

// MakeHealthHandler implements GET /api/transactions/health and
// GET /actuator/health: the aggregated dependency probe (spec §4.8),
// DOWN on any failed check.
func MakeHealthHandler(deps Dependencies) gin.HandlerFunc {
	checker := deps.Health()

	return func(c *gin.Context) {
		report := checker.Check(c.Request.Context())
		status := http.StatusOK
		if report.Status == health.StatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

// MakeActuatorInfoHandler implements GET /actuator/info.
func MakeActuatorInfoHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "transaction-service"})
	}
}
