package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// APIError is a non-success HTTP response from an external provider
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// maxErrorBody caps how much of a provider's error body ends up in messages and logs
const maxErrorBody = 200

func newAPIError(service string, statusCode int, body string) *APIError {
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return &APIError{Service: service, StatusCode: statusCode, Message: body}
}

// statusCode extracts the HTTP status from provider errors, or 0
func statusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	return 0
}

// isCallerError reports a 4xx tied to the caller: bad key, exhausted quota, rate limit, bad symbol.
// Keys belong to sessions, so these never count against the provider's health.
func isCallerError(err error) bool {
	code := statusCode(err)
	return code >= 400 && code < 500
}

// categorizeAPIError categorizes an error for metrics purposes
func categorizeAPIError(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	switch code := statusCode(err); {
	case code == http.StatusTooManyRequests:
		return "rate_limit"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "auth_error"
	case code >= 500:
		return "server_error"
	case code >= 400:
		return "client_error"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "429"):
		return "rate_limit"
	case strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "401"):
		return "auth_error"
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "network"):
		return "connection_error"
	default:
		return "unknown"
	}
}
