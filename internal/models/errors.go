package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure variants the gateway can produce.
// The HTTP layer maps each variant to a status code without inspecting
// message text.
type ErrorKind int

const (
	// ErrKindConfiguration means credentials are missing or unusable.
	// Checked before any network I/O; maps to 401.
	ErrKindConfiguration ErrorKind = iota
	// ErrKindValidation means required caller input is missing; maps to 400.
	ErrKindValidation
	// ErrKindUpstream means Jira answered with a non-2xx on a primary
	// operation; maps to 500 with the upstream detail in the message.
	ErrKindUpstream
	// ErrKindNotFound means Jira reported the target issue missing.
	ErrKindNotFound
)

// GatewayError is the error type crossing the gateway boundary.
type GatewayError struct {
	Kind           ErrorKind
	Message        string
	Solution       string
	UpstreamStatus int
	UpstreamBody   string
}

func (e *GatewayError) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("%s (jira %d): %s", e.Message, e.UpstreamStatus, e.UpstreamBody)
	}
	return e.Message
}

// HTTPStatus returns the status code the HTTP layer should answer with.
func (e *GatewayError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindConfiguration:
		return http.StatusUnauthorized
	case ErrKindValidation:
		return http.StatusBadRequest
	default:
		// Upstream failures, including classified not-found during delete,
		// surface as 500 on this API.
		return http.StatusInternalServerError
	}
}

// ConfigurationError builds the missing-credentials variant.
func ConfigurationError(message string) *GatewayError {
	return &GatewayError{
		Kind:     ErrKindConfiguration,
		Message:  message,
		Solution: "Configurez JIRA_DOMAIN, JIRA_EMAIL et JIRA_API_TOKEN dans l'environnement",
	}
}

// ValidationError builds the missing-input variant.
func ValidationError(message string) *GatewayError {
	return &GatewayError{Kind: ErrKindValidation, Message: message}
}

// UpstreamError wraps a non-2xx Jira answer on a primary operation.
func UpstreamError(op string, status int, body string) *GatewayError {
	kind := ErrKindUpstream
	if status == http.StatusNotFound {
		kind = ErrKindNotFound
	}
	return &GatewayError{
		Kind:           kind,
		Message:        fmt.Sprintf("Jira %s failed", op),
		UpstreamStatus: status,
		UpstreamBody:   body,
	}
}

// AsGatewayError extracts a *GatewayError, wrapping foreign errors (network
// failures, JSON decode errors) as upstream failures so callers always see a
// member of the closed set.
func AsGatewayError(err error) *GatewayError {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr
	}
	return &GatewayError{Kind: ErrKindUpstream, Message: err.Error()}
}
