package services

import (
	"errors"

	"scrappickup/internal/domain/entities"
)

var (
	ErrMissingUser         = errors.New("missing user")
	ErrInvalidUserType     = errors.New("invalid user type")
	ErrMissingOrderID      = errors.New("missing order id")
	ErrMissingRequestID    = errors.New("missing bulk request id")
	ErrActionNotAllowed    = errors.New("action not allowed in current status")
	ErrActionInProgress    = errors.New("action already in progress")
	ErrOrderNotFound       = errors.New("order not found")
	ErrBulkRequestNotFound = errors.New("bulk request not found")
	ErrVendorNotEligible   = errors.New("vendor not eligible for this action")
	ErrNoPosition          = errors.New("no device position reported")
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
)

// IsPrecondition reports whether err was raised before any action call was
// sent to the backend.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrMissingUser,
		ErrInvalidUserType,
		ErrMissingOrderID,
		ErrMissingRequestID,
		ErrActionNotAllowed,
		ErrActionInProgress,
		ErrOrderNotFound,
		ErrBulkRequestNotFound,
		ErrVendorNotEligible,
		ErrInvalidCoordinate,
		entities.ErrVendorNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func checkCaller(userID int64, userType entities.UserType) error {
	if userID <= 0 {
		return ErrMissingUser
	}
	if !userType.Valid() {
		return ErrInvalidUserType
	}
	return nil
}
