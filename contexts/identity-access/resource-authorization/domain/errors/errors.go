package errors

import "errors"

var (
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidResourceType = errors.New("invalid resource type")
	ErrInvalidResourceName = errors.New("invalid resource name")
	ErrInvalidAccessLevel  = errors.New("invalid access level")
	ErrInvalidSubscription = errors.New("invalid subscription tier")
	ErrInvalidGrantID      = errors.New("invalid grant id")
	ErrGrantNotFound       = errors.New("grant not found")
	ErrGrantAlreadyRevoked = errors.New("grant already revoked")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)
