package domain

import "errors"

var (
	ErrFoodNameRequired      = errors.New("food name required")
	ErrQuantityRequired      = errors.New("quantity required")
	ErrInvalidCategory       = errors.New("invalid category")
	ErrExpiryNotInFuture     = errors.New("expiry must be in the future")
	ErrPickupAddressRequired = errors.New("pickup address required")
	ErrInvalidCoordinates    = errors.New("invalid pickup coordinates")
	ErrInstructionsTooLong   = errors.New("pickup instructions too long")
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationUnavailable   = errors.New("donation no longer available")
	ErrNotPending            = errors.New("donation is not pending")
	ErrNotAccepted           = errors.New("donation is not accepted")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidID             = errors.New("invalid id")
	ErrNotificationNotFound  = errors.New("notification not found")
)

// IsValidation reports whether err is an input-validation failure, the kind
// a caller should see as a 400 rather than a conflict or a lookup miss.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrFoodNameRequired),
		errors.Is(err, ErrQuantityRequired),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrExpiryNotInFuture),
		errors.Is(err, ErrPickupAddressRequired),
		errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrInstructionsTooLong),
		errors.Is(err, ErrInvalidID):
		return true
	}
	return false
}
