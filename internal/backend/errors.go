package backend

import "fmt"

// APIError carries the backend's human-readable message for a failed call.
// The pipeline surfaces Message to the operator and abandons the action.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}
