package gateway

import "fmt"

// Error describes a failed gateway call. Err is always a coded error from
// internal/errors, so callers can branch with errors.Is or errors.KindOf.
type Error struct {
	Err      error
	Op       string // "list", "create", "update", "delete", "return", ...
	Resource string
	ID       string // If applicable
	Status   int    // HTTP status, zero when no response arrived
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Resource, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Resource, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(rc call, status int, err error) error {
	return &Error{
		Op:       rc.op,
		Resource: rc.resource,
		ID:       rc.id,
		Status:   status,
		Err:      err,
	}
}
