package services

import "errors"

// Validation errors: the request was well-formed but its content is not
// acceptable. Safe to resubmit with corrected input.
var (
	ErrInvalidDateTime     = errors.New("invalid booking date or time")
	ErrPastDate            = errors.New("booking date is in the past")
	ErrUnavailableTime     = errors.New("requested time is outside the service's available hours")
	ErrUnavailableDay      = errors.New("service is not available on the requested day")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrInvalidPaymentMode  = errors.New("payment mode must be cash or online")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrReasonRequired      = errors.New("report reason is required")
	ErrSelfBooking         = errors.New("you cannot book yourself")
	ErrProviderUnavailable = errors.New("provider is unavailable right now")
)

// Authorization errors.
var (
	ErrForbidden = errors.New("not allowed to act on this resource")
	// ErrProviderNotAdmitted is returned when a provider is inactive or not
	// approved. The caller must terminate the actor's session.
	ErrProviderNotAdmitted = errors.New("provider account is inactive or not approved")
)

// ErrInvalidCode is the one explicit lifecycle failure: a start attempt
// with a confirmation code that does not match.
var ErrInvalidCode = errors.New("confirmation code does not match")

// Not-found errors.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Auth surface errors.
var (
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidRole        = errors.New("role must be customer or provider")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDateTime, ErrPastDate, ErrUnavailableTime, ErrUnavailableDay,
		ErrInvalidCoordinates, ErrInvalidPaymentMode, ErrInvalidRating,
		ErrReasonRequired, ErrSelfBooking, ErrProviderUnavailable, ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err belongs to the not-found class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrReportNotFound) || errors.Is(err, ErrUserNotFound)
}
