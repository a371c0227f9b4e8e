package grid

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID      = errors.New("id is required")
	ErrEmptySelection = errors.New("no rows selected")
)

// ValidationError es un fallo de precondición local. Se devuelve antes de
// cualquier llamada de red.
type ValidationError struct {
	Op     string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %v", e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// TransportError envuelve un fallo de red o un status no exitoso.
type TransportError struct {
	Op  string
	ID  string
	Err error
}

func (e *TransportError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsValidation indica si err es (o envuelve) un ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
