package session

import "errors"

var (
	// ErrAuthRejected wraps a 4xx auth response; the server message is kept.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrAuthUnavailable wraps transport or server failures reaching auth.
	ErrAuthUnavailable = errors.New("authentication service unavailable")
)
