package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MakePrometheusHandler implements GET /actuator/prometheus, exposing the
// process's registered collectors in the Prometheus exposition format.
func MakePrometheusHandler() gin.HandlerFunc {
	handler := promhttp.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// MakeActuatorMetricsHandler implements GET /actuator/metrics: a minimal
// summary view for operators who don't want to scrape the full
// Prometheus exposition, mirroring the teacher's /metrics endpoint shape.
func MakeActuatorMetricsHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"names": []string{
			"transactions_initiated_total",
			"transactions_completed_total",
			"transactions_failed_total",
			"transactions_reversed_total",
			"transaction_processing_duration_seconds",
			"active_transactions",
			"pending_transactions",
		}})
	}
}
