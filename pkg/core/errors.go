package core

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoSourceSelected = errors.New("no data source selected")
	ErrUnknownSource    = errors.New("unknown data source")
	ErrQueryNotFound    = errors.New("query not found")
	ErrDuplicateName    = errors.New("query name already exists")
)

// ValidationError reports a query name rejected before any network call.
type ValidationError struct {
	Name string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query name %q: should be unique and only include letters, numbers and underscore", e.Name)
}

// PersistenceError reports a create or update rejected by the query service.
type PersistenceError struct {
	Op      string // "create" or "update"
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to %s query: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("failed to %s query: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for err. Service errors
// surface their server-reported message verbatim.
func UserMessage(err error) string {
	var pe *PersistenceError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
