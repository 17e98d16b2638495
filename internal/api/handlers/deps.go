// Package handlers holds the REST surface from spec §6, as
// closure-based gin.HandlerFunc factories over a Dependencies interface —
// the same container-injection shape the teacher's
// Make*Handler(container HandlerDependencies) functions use, generalized
// from the single-database/event-publisher pair to the full component set
// this service wires.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transaction-service/internal/config"
	"transaction-service/internal/engine"
	"transaction-service/internal/health"
	"transaction-service/internal/ledger"
	"transaction-service/internal/limits"
	apierrors "transaction-service/internal/pkg/errors"
)

// Dependencies breaks the circular dependency between handlers and the DI
// container package, the same role the teacher's HandlerDependencies
// interface plays.
type Dependencies interface {
	Engine() *engine.Engine
	Ledger() ledger.Store
	LimitsEvaluator() *limits.Evaluator
	Health() *health.Checker
	Config() *config.Config
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}

func writeError(c *gin.Context, err error) {
	apiErr, ok := apierrors.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "an internal error occurred"})
		return
	}
	if apiErr.RetryAfterSec > 0 {
		c.Header("Retry-After", strconv.Itoa(apiErr.RetryAfterSec))
	}
	c.JSON(apiErr.Status(), apiErr)
}
