package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scrappickup/internal/client"
	"scrappickup/internal/domain/entities"
	"scrappickup/internal/services"
)

// statusFor maps service and backend errors to HTTP status codes.
//
// Go Learning Note — errors.Is / errors.As:
// Services wrap sentinel errors with fmt.Errorf("%w: ..."), so a plain
// `err == services.ErrOrderNotFound` comparison would miss them. errors.Is
// walks the wrap chain; errors.As does the same for typed errors like
// *client.APIError and hands back the concrete value.
func statusFor(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, services.ErrMissingUser),
		errors.Is(err, services.ErrInvalidUserType),
		errors.Is(err, services.ErrMissingOrderID),
		errors.Is(err, services.ErrMissingRequestID),
		errors.Is(err, services.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrBulkRequestNotFound),
		errors.Is(err, entities.ErrVendorNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrActionNotAllowed),
		errors.Is(err, services.ErrVendorNotEligible):
		return http.StatusConflict
	case errors.Is(err, services.ErrActionInProgress):
		return http.StatusTooManyRequests
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, client.ErrTransport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Msg
	}
	c.JSON(statusFor(err), gin.H{"error": msg})
}

// idParam reads a positive numeric path parameter. It writes a 400 and
// returns false when the value is missing or malformed.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
