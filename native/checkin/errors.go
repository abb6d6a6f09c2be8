package checkin

import "errors"

var (
	// ErrDuplicateCheckIn marks a submission for a day the user already claimed.
	ErrDuplicateCheckIn = errors.New("checkin: already checked in for this day")
	// ErrFutureDate marks a submission whose day key is ahead of the trusted clock.
	ErrFutureDate = errors.New("checkin: day key is in the future")
	// ErrInvalidAuthorization marks a submission the trusted authorizer did not approve.
	ErrInvalidAuthorization = errors.New("checkin: authorization invalid")
	// ErrInvalidDay marks a day key that is zero or not aligned to day resolution.
	ErrInvalidDay = errors.New("checkin: malformed day key")
	// ErrAuthorizerUnset is returned when no trusted authorizer has been configured.
	ErrAuthorizerUnset = errors.New("checkin: trusted authorizer not configured")
	// ErrAuthorizerInvalid marks an administrative rotation to the zero address.
	ErrAuthorizerInvalid = errors.New("checkin: authorizer must not be the zero address")
	// ErrParamsInvalid marks a malformed administrative reward-schedule update.
	ErrParamsInvalid = errors.New("checkin: reward parameters invalid")

	errNilState = errors.New("checkin engine: state not configured")
)
