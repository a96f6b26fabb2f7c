package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scrappickup/internal/api/middleware"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/services"
)

// BulkHandler serves the buyer side of bulk scrap requests.
type BulkHandler struct {
	queries *services.QueryService
	pickup  *services.PickupService
	maps    *services.MapService
}

func NewBulkHandler(queries *services.QueryService, pickup *services.PickupService, maps *services.MapService) *BulkHandler {
	return &BulkHandler{
		queries: queries,
		pickup:  pickup,
		maps:    maps,
	}
}

type RemoveVendorRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListRequests handles GET /bulk-requests
func (h *BulkHandler) ListRequests(c *gin.Context) {
	requests, err := h.queries.BulkRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []entities.BulkRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetMap handles GET /bulk-requests/:id/map
func (h *BulkHandler) GetMap(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}

	m, err := h.maps.BulkRequestMap(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserType(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// StartPickup handles POST /bulk-requests/:id/start
func (h *BulkHandler) StartPickup(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.pickup.StartBulkPickup(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c)))
}

// MarkArrived handles POST /bulk-requests/:id/arrived
func (h *BulkHandler) MarkArrived(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.pickup.MarkBuyerArrived(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c)))
}

// Complete handles POST /bulk-requests/:id/complete
func (h *BulkHandler) Complete(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.pickup.CompleteBulkRequest(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c)))
}

// VendorArrived handles POST /bulk-requests/:id/vendors/:vendor_id/arrived
func (h *BulkHandler) VendorArrived(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := idParam(c, "vendor_id")
	if !ok {
		return
	}
	h.respond(c)(h.pickup.MarkVendorArrived(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c), vendorID))
}

// CompleteVendor handles POST /bulk-requests/:id/vendors/:vendor_id/complete
func (h *BulkHandler) CompleteVendor(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := idParam(c, "vendor_id")
	if !ok {
		return
	}
	var req CompletePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c)(h.pickup.CompleteVendor(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c), vendorID, req.PaymentDetails))
}

// RemoveVendor handles DELETE /bulk-requests/:id/vendors/:vendor_id
//
// The reason may come as a JSON body or a ?reason= query parameter; with
// neither the default reason is sent.
func (h *BulkHandler) RemoveVendor(c *gin.Context) {
	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := idParam(c, "vendor_id")
	if !ok {
		return
	}
	req := RemoveVendorRequest{Reason: c.Query("reason")}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.respond(c)(h.pickup.RemoveVendor(c.Request.Context(), requestID, middleware.GetUserID(c), middleware.GetUserType(c), vendorID, req.Reason))
}

// respond writes either the updated request or the mapped error.
//
// Go Learning Note — Multiple Return Values as Arguments:
// f(g()) is legal when g's results match f's parameters exactly, which lets
// every action above pass its (*BulkRequest, error) pair straight through.
func (h *BulkHandler) respond(c *gin.Context) func(*entities.BulkRequest, error) {
	return func(req *entities.BulkRequest, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, req)
	}
}
