package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"scrappickup/internal/api/middleware"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/services"
)

// TrackingHandler serves the device's own tracking session and live
// locations of orders being watched.
type TrackingHandler struct {
	tracker   *services.TrackingService
	positions *services.ReportedPositions
	maps      *services.MapService
}

func NewTrackingHandler(
	tracker *services.TrackingService,
	positions *services.ReportedPositions,
	maps *services.MapService,
) *TrackingHandler {
	return &TrackingHandler{
		tracker:   tracker,
		positions: positions,
		maps:      maps,
	}
}

type ReportPositionRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Status handles GET /tracking
//
// position is what the session last wrote to the location store, so it
// lags the device by at most one store refresh.
func (h *TrackingHandler) Status(c *gin.Context) {
	userID, userType := middleware.GetUserID(c), middleware.GetUserType(c)

	resp := gin.H{"tracking": false, "order_id": nil, "position": nil}
	if orderID, ok := h.tracker.CurrentOrderID(userID, userType); ok {
		resp["tracking"] = true
		resp["order_id"] = orderID
	}
	pos, err := h.tracker.StoredPosition(c.Request.Context(), userID, userType)
	if err != nil {
		respondError(c, err)
		return
	}
	if pos != nil {
		resp["position"] = pos
	}
	c.JSON(http.StatusOK, resp)
}

// ReportPosition handles POST /tracking/position
//
// Latitude and longitude are pointers so that a real 0 passes the
// `required` check while a missing field does not.
func (h *TrackingHandler) ReportPosition(c *gin.Context) {
	var req ReportPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc := entities.NewLocation(*req.Latitude, *req.Longitude)
	if err := h.positions.Report(middleware.GetUserID(c), middleware.GetUserType(c), loc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

// Stop handles DELETE /tracking
func (h *TrackingHandler) Stop(c *gin.Context) {
	h.tracker.StopTracking(middleware.GetUserID(c), middleware.GetUserType(c))
	c.Status(http.StatusNoContent)
}

// OrderLocation handles GET /locations/orders/:id
//
// A failed or empty poll is not an error: the body is {"location": null}.
// An order the caller cannot see is a 404.
func (h *TrackingHandler) OrderLocation(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	loc, err := h.maps.OrderLocation(c.Request.Context(), middleware.GetUserID(c), middleware.GetUserType(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

// StreamOrderLocation handles GET /locations/orders/:id/stream
//
// Go Learning Note — Server-Sent Events:
// c.Stream calls the step function until it returns false or the client
// goes away, flushing after each call. The subscription's poll loop runs in
// its own goroutine and hands positions over a channel, so the HTTP
// goroutine stays the only writer of the response.
func (h *TrackingHandler) StreamOrderLocation(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	updates := make(chan entities.LiveLocation, 1)
	ctx := c.Request.Context()
	sub, err := h.maps.WatchOrder(ctx, middleware.GetUserID(c), middleware.GetUserType(c), orderID, func(loc entities.LiveLocation) {
		select {
		case updates <- loc:
		case <-ctx.Done():
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case loc := <-updates:
			c.SSEvent("location", loc)
			return true
		case <-sub.Done():
			c.SSEvent("end", gin.H{"order_id": orderID})
			return false
		case <-ctx.Done():
			return false
		}
	})
}
