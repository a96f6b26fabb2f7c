package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"scrappickup/internal/api/middleware"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/services"
)

// OrderHandler serves the vendor-side single order lifecycle.
type OrderHandler struct {
	queries *services.QueryService
	pickup  *services.PickupService
	maps    *services.MapService
}

func NewOrderHandler(queries *services.QueryService, pickup *services.PickupService, maps *services.MapService) *OrderHandler {
	return &OrderHandler{
		queries: queries,
		pickup:  pickup,
		maps:    maps,
	}
}

type CompletePickupRequest struct {
	PaymentDetails []entities.PaymentDetail `json:"payment_details" binding:"required,min=1,dive"`
}

// ActivePickups handles GET /orders/active
func (h *OrderHandler) ActivePickups(c *gin.Context) {
	orders, err := h.queries.ActivePickups(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserType(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []entities.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CompletedPickups handles GET /orders/completed
func (h *OrderHandler) CompletedPickups(c *gin.Context) {
	orders, err := h.queries.CompletedPickups(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserType(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []entities.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.maps.OrderView(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserType(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// StartPickup handles POST /orders/:id/start
func (h *OrderHandler) StartPickup(c *gin.Context) {
	h.runAction(c, h.pickup.Start)
}

// Arrived handles POST /orders/:id/arrived
func (h *OrderHandler) Arrived(c *gin.Context) {
	h.runAction(c, h.pickup.Arrive)
}

// CompletePickup handles POST /orders/:id/complete
func (h *OrderHandler) CompletePickup(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CompletePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.pickup.Complete(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.GetUserType(c), req.PaymentDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type orderAction func(ctx context.Context, orderID, userID int64, userType entities.UserType) (*entities.Order, error)

func (h *OrderHandler) runAction(c *gin.Context, action orderAction) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := action(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.GetUserType(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
