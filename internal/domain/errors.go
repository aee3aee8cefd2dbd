package domain

import "errors"

var (
	// ErrOffline marks a failure caused by the backend being unreachable,
	// as opposed to the backend rejecting the request.
	ErrOffline = errors.New("backend unreachable")

	// ErrPermissionDenied is returned when a transition requires a manager
	// and neither the actor's role nor the store settings grant it.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTransition is returned for a transition not defined by the
	// order lifecycle (including any transition out of a terminal status).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is returned when an order fails pre-submission checks.
	ErrValidation = errors.New("validation failed")

	// ErrBadCredentials distinguishes wrong name/password from any other
	// backend failure during sign-in.
	ErrBadCredentials = errors.New("bad credentials")

	ErrNotFound = errors.New("not found")
)
