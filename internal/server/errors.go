// Package server provides the HTTP REST API for docketmind.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/agents"
	"github.com/dmarsh/docketmind/internal/ingestion"
	"github.com/dmarsh/docketmind/internal/llm"
	"github.com/dmarsh/docketmind/internal/processing"
	"github.com/dmarsh/docketmind/internal/report"
	"github.com/dmarsh/docketmind/internal/schemas"
	"github.com/dmarsh/docketmind/internal/storage"
	"github.com/dmarsh/docketmind/internal/swarm"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps domain errors to HTTP status codes. Ownership misses and
// true not-founds share 404; provider and schema failures surface as 502
// because the upstream model, not the caller, is at fault.
func HTTPStatus(err error) int {
	var (
		emailExists    *ErrEmailAlreadyExists
		invalidCreds   *ErrInvalidCredentials
		userNotFound   *ErrUserNotFound
		pwMismatch     *ErrPasswordMismatch
		validation     *ErrValidation
		docNotFound    *processing.ErrDocumentNotFound
		reportNotFound *report.ErrDocumentNotFound
		sessNotFound   *swarm.ErrSessionNotFound
		blobNotFound   *storage.ErrBlobNotFound
		agentNotFound  *agents.ErrAgentNotFound
		alreadyProc    *processing.ErrAlreadyProcessing
		noOutput       *report.ErrNoOutput
		emptyText      *processing.ErrEmptyText
		emptyInput     *agents.ErrEmptyInput
		unsupported    *ingestion.ErrUnsupportedFormat
		notText        *ingestion.ErrNotText
		provider       *llm.ProviderError
		schemaInvalid  *schemas.ValidationError
		schemaBroken   *schemas.SchemaLoadError
	)

	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &invalidCreds), errors.As(err, &pwMismatch):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound),
		errors.As(err, &docNotFound),
		errors.As(err, &reportNotFound),
		errors.As(err, &sessNotFound),
		errors.As(err, &blobNotFound),
		errors.As(err, &agentNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation),
		errors.As(err, &emptyText),
		errors.As(err, &emptyInput):
		return http.StatusBadRequest
	case errors.As(err, &alreadyProc), errors.As(err, &noOutput):
		return http.StatusConflict
	case errors.As(err, &unsupported), errors.As(err, &notText):
		return http.StatusUnprocessableEntity
	case errors.As(err, &provider),
		errors.As(err, &schemaInvalid),
		errors.As(err, &schemaBroken):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
