package workflow

import (
	"errors"
	"fmt"

	"viralstudio/internal/backend"
)

var ErrNoDraft = errors.New("no script draft under review")

// ValidationError is raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError covers unreachable backends and bodies that fail to parse.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a non-success backend answer.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	return e.Detail
}

type TransitionError struct {
	From Stage
	To   Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func classify(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{StatusCode: apiErr.StatusCode, Detail: apiErr.Detail}
	}
	return &TransportError{Err: err}
}
