package catalog

import "errors"

var (
	// ErrUnavailable wraps transport-level failures reaching the catalog.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrServer wraps 5xx responses; the server message is appended when present.
	ErrServer = errors.New("catalog server error")
)
