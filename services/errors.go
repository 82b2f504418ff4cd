package services

import "fmt"

// NotFoundError reports an unknown token or an id that does not resolve.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// ValidationError reports input rejected before touching the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvalidReferenceError reports an assignment pointing at a missing row.
type InvalidReferenceError struct {
	Entity string
	ID     uint
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Entity, e.ID)
}

// ConflictError reports a duplicate unique key such as a token or order number.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}
