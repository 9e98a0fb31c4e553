package listener

import (
	"errors"
	"fmt"
)

var (
	// ErrBind is matched by every *BindError.
	ErrBind = errors.New("listener bind failed")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("listener already started")
)

// BindError reports that the listening socket could not be acquired
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

func (e *BindError) Is(target error) bool {
	return target == ErrBind
}
