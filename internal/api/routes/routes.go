// Package routes wires the REST surface from spec §6 onto a gin.Engine,
// grounded on the teacher's RegisterRoutes(router, container) shape.
package routes

import (
	"github.com/gin-gonic/gin"

	"transaction-service/internal/api/handlers"
	"transaction-service/internal/api/middleware"
	"transaction-service/internal/config"
)

const (
	roleAdmin           = "ADMIN"
	roleInternalService = "INTERNAL_SERVICE"
)

// RegisterRoutes registers every endpoint with the middleware chain and
// authorization rules from spec §4.7: a single source of truth for which
// prefixes are public, role-gated, or merely authenticated.
func RegisterRoutes(router *gin.Engine, deps handlers.Dependencies, cfg *config.Config) {
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(middleware.Prometheus())
	router.Use(middleware.Authenticate(cfg.JWT.Secret))

	// Public: health and actuator info (spec §4.7).
	router.GET("/api/transactions/health", handlers.MakeHealthHandler(deps))
	router.GET("/actuator/health", handlers.MakeHealthHandler(deps))
	router.GET("/actuator/info", handlers.MakeActuatorInfoHandler(deps))

	// Role-gated monitoring/metrics surface.
	monitoring := router.Group("/", middleware.RequireRoles(roleAdmin, roleInternalService))
	monitoring.GET("/actuator/metrics", handlers.MakeActuatorMetricsHandler(deps))
	monitoring.GET("/actuator/prometheus", handlers.MakePrometheusHandler())

	// Any authenticated principal: the transaction surface itself.
	tx := router.Group("/api/transactions", middleware.RequireAuthenticated())
	tx.POST("/deposit", handlers.MakeDepositHandler(deps))
	tx.POST("/withdraw", handlers.MakeWithdrawHandler(deps))
	tx.POST("/transfer", handlers.MakeTransferHandler(deps))
	tx.POST("/:id/reverse", handlers.MakeReverseHandler(deps))
	tx.GET("/:id", handlers.MakeGetTransactionHandler(deps))
	tx.GET("/:id/reversals", handlers.MakeReversalsHandler(deps))
	tx.GET("/:id/reversed", handlers.MakeReversedHandler(deps))
	tx.GET("/account/:accountId", handlers.MakeListByAccountHandler(deps))
	tx.GET("/account/:accountId/stats", handlers.MakeAccountStatsHandler(deps))
	tx.GET("/user/:userId", handlers.MakeListByUserHandler(deps))
	tx.GET("/user/:userId/stats", handlers.MakeUserStatsHandler(deps))
	tx.GET("/search", handlers.MakeSearchHandler(deps))
	tx.GET("/limits", handlers.MakeLimitsHandler(deps))
	tx.GET("", handlers.MakeMyTransactionsHandler(deps))
}
