package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
)

// APIError is the body of every management API error: {"error": "..."}.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error" doc:"Human readable error message"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) GetStatus() int {
	return e.Status
}

// UseJSONErrors makes huma render errors as APIError. Schema validation
// failures are reported as 400 like any other malformed request.
func UseJSONErrors() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		if len(errs) > 0 && status < http.StatusInternalServerError {
			msg = msg + ": " + errors.Join(errs...).Error()
		}

		return &APIError{Status: status, Message: msg}
	}
}

// commandError maps a command surface error to an API error.
func commandError(err error) error {
	switch {
	case errors.Is(err, entry.ErrDuplicateName):
		return huma.Error400BadRequest("Entry already exists")
	case errors.Is(err, entry.ErrNotFound):
		return huma.Error404NotFound("Entry doesn't exist")
	case errors.Is(err, cdn.ErrFetchFailed):
		return huma.Error400BadRequest("Failed to fetch URL")
	case errors.Is(err, cdn.ErrInvalidInput):
		return huma.Error400BadRequest("Bad Request")
	default:
		return huma.Error500InternalServerError("Storage failure")
	}
}
