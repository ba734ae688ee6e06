package routes

import (
	"loyalty/internal/handlers"
	"loyalty/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEngineRoutes sets up routes for event processing and adjustments
func SetupEngineRoutes(r *gin.RouterGroup, engineHandler *handlers.EngineHandler, jwtSecret string) {
	events := r.Group("/events")
	events.Use(middleware.AuthRequired(jwtSecret))
	{
		events.POST("", engineHandler.ProcessEvent)
	}

	// Operator corrections require the admin role
	adjustments := r.Group("/adjustments")
	adjustments.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		adjustments.POST("", engineHandler.CreateAdjustment)
	}
}

// SetupAccountRoutes sets up routes for account snapshots and ledger history
func SetupAccountRoutes(r *gin.RouterGroup, accountHandler *handlers.AccountHandler, jwtSecret string) {
	accounts := r.Group("/accounts")
	accounts.Use(middleware.AuthRequired(jwtSecret))
	{
		accounts.GET("/:id", accountHandler.GetAccount)
		accounts.GET("/:id/transactions", accountHandler.ListTransactions)
	}

	admin := r.Group("/accounts")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/:id/rebuild", accountHandler.RebuildAccount)
	}
}

// SetupConfigRoutes sets up the operator configuration surface. Everything
// here requires the admin role.
func SetupConfigRoutes(r *gin.RouterGroup, configHandler *handlers.ConfigHandler, jwtSecret string) {
	admin := r.Group("")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/programs", configHandler.CreateProgram)
		admin.GET("/programs", configHandler.ListPrograms)
		admin.POST("/rules", configHandler.CreateRule)
		admin.PUT("/rules/:id", configHandler.UpdateRule)
		admin.DELETE("/rules/:id", configHandler.DeleteRule)
		admin.POST("/geofences", configHandler.CreateGeofence)
		admin.POST("/rewards", configHandler.CreateReward)
		admin.GET("/rewards", configHandler.ListRewards)
	}
}

// SetupRedemptionRoutes sets up routes for the reservation lifecycle
func SetupRedemptionRoutes(r *gin.RouterGroup, redemptionHandler *handlers.RedemptionHandler, jwtSecret string) {
	redemptions := r.Group("/redemptions")
	redemptions.Use(middleware.AuthRequired(jwtSecret))
	{
		redemptions.POST("", redemptionHandler.ReserveReward)
		redemptions.POST("/:id/commit", redemptionHandler.CommitRedemption)
		redemptions.POST("/:id/release", redemptionHandler.ReleaseRedemption)
	}
}
