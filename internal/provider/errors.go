package provider

import "fmt"

// Error wraps any failure surfaced from the media backend so callers
// can distinguish provider faults from local ones with errors.As.
type Error struct {
	Op  string // provider operation, e.g. "create_room"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
