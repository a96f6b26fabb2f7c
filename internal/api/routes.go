package api

import (
	"github.com/gin-gonic/gin"

	"scrappickup/internal/api/handlers"
	"scrappickup/internal/api/middleware"
	"scrappickup/internal/domain/entities"
)

type Router struct {
	orderHandler    *handlers.OrderHandler
	bulkHandler     *handlers.BulkHandler
	trackingHandler *handlers.TrackingHandler
	auth            gin.HandlerFunc
}

func NewRouter(
	orderHandler *handlers.OrderHandler,
	bulkHandler *handlers.BulkHandler,
	trackingHandler *handlers.TrackingHandler,
	auth gin.HandlerFunc,
) *Router {
	if auth == nil {
		auth = middleware.MockAuth()
	}
	return &Router{
		orderHandler:    orderHandler,
		bulkHandler:     bulkHandler,
		trackingHandler: trackingHandler,
		auth:            auth,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Protected routes
	api := engine.Group("/")
	api.Use(r.auth)
	{
		// Vendor side of a single order
		orders := api.Group("/orders")
		{
			orders.GET("/active", r.orderHandler.ActivePickups)
			orders.GET("/completed", r.orderHandler.CompletedPickups)
			orders.GET("/:id", r.orderHandler.GetOrder)
			orders.POST("/:id/start", r.orderHandler.StartPickup)
			orders.POST("/:id/arrive", r.orderHandler.Arrived)
			orders.POST("/:id/complete", r.orderHandler.CompletePickup)
		}

		// The calling device's own tracking session
		tracking := api.Group("/tracking")
		{
			tracking.GET("", r.trackingHandler.Status)
			tracking.DELETE("", r.trackingHandler.Stop)
			tracking.POST("/position", r.trackingHandler.ReportPosition)
		}

		api.GET("/locations/orders/:id", r.trackingHandler.OrderLocation)
		api.GET("/locations/orders/:id/stream", r.trackingHandler.StreamOrderLocation)

		// Buyer endpoints (delivery partners cannot buy bulk scrap)
		bulk := api.Group("/bulk-requests")
		bulk.Use(middleware.RequireUserTypes(
			entities.UserTypeRecycler,
			entities.UserTypeShop,
			entities.UserTypeShopRecycle,
		))
		{
			bulk.GET("", r.bulkHandler.ListRequests)
			bulk.GET("/:id/map", r.bulkHandler.GetMap)
			bulk.POST("/:id/start", r.bulkHandler.StartPickup)
			bulk.POST("/:id/arrived", r.bulkHandler.MarkArrived)
			bulk.POST("/:id/complete", r.bulkHandler.Complete)
			bulk.POST("/:id/vendors/:vendor_id/arrived", r.bulkHandler.VendorArrived)
			bulk.POST("/:id/vendors/:vendor_id/complete", r.bulkHandler.CompleteVendor)
			bulk.DELETE("/:id/vendors/:vendor_id", r.bulkHandler.RemoveVendor)
		}
	}
}
