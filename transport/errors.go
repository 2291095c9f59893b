package transport

import (
	"errors"
	"fmt"

	"speedbet/graphql"
)

// ConnectionError is returned when an operation needs a connected session
// or the service could not be reached at all
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: not connected to chain service: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: not connected to chain service", e.Op)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError is returned for a non-2xx HTTP response
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// GraphQLError is returned when the response envelope carries errors.
// Message is the first error, all of them are kept in Errors.
type GraphQLError struct {
	Message string
	Errors  []graphql.Error
}

func (e *GraphQLError) Error() string {
	return e.Message
}

func newGraphQLError(resp *graphql.Response) *GraphQLError {
	return &GraphQLError{
		Message: resp.Errors[0].Message,
		Errors:  resp.Errors,
	}
}

// PreconditionError is returned when a session operation is invoked in a
// state that does not allow it. No request is sent.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NewPreconditionError creates a precondition failure for op
func NewPreconditionError(op, reason string) *PreconditionError {
	return &PreconditionError{Op: op, Reason: reason}
}

// IsPrecondition reports whether err is a PreconditionError
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsConnection reports whether err is a ConnectionError
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
