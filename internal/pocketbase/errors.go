package pocketbase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sushihentaime/portfolio/internal/common"
)

var (
	ErrNetwork  = errors.New("backend unreachable")
	ErrNotFound = errors.New("record not found")
	ErrAuth     = errors.New("authentication failed")
)

type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the backend. It unwraps to ErrNotFound,
// ErrAuth or a common.ValidationError depending on the status.
type APIError struct {
	Status  int                   `json:"code"`
	Message string                `json:"message"`
	Data    map[string]FieldError `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusBadRequest:
		return e.validationError()
	default:
		return nil
	}
}

func (e *APIError) validationError() common.ValidationError {
	v := common.NewValidator()
	for field, fe := range e.Data {
		v.AddError(field, fe.Message)
	}
	if v.Valid() {
		v.AddError("request", e.Message)
	}
	return common.ValidationError{Errors: v.Errors}
}

func networkError(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
