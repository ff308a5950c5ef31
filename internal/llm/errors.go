package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server_error"
	KindTimeout     ErrorKind = "timeout"
	KindAuth        ErrorKind = "auth_error"
	KindBadRequest  ErrorKind = "bad_request"
	KindUnknown     ErrorKind = "unknown"
)

// Sentinel errors matched by errors.Is against a *ProviderError.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrServer      = errors.New("provider server error")
	ErrTimeout     = errors.New("provider timeout")
	ErrAuth        = errors.New("provider rejected credentials")
	ErrBadRequest  = errors.New("provider rejected request")
)

// ProviderError is a classified failure from a provider call.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRateLimited) and friends match on Kind.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrServer:
		return e.Kind == KindServer
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	}
	return false
}

// Transient reports whether retrying later could succeed. Permanent errors
// are bad credentials or malformed requests.
func (e *ProviderError) Transient() bool {
	return e.Kind != KindAuth && e.Kind != KindBadRequest
}

// KindForStatus maps an HTTP status code to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindBadRequest
	}
	return KindUnknown
}

// Classify wraps err in a *ProviderError. Errors that are already classified
// are returned unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, Kind: KindForStatus(apiErr.HTTPStatusCode), Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: provider, Kind: KindForStatus(reqErr.HTTPStatusCode), Status: reqErr.HTTPStatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ProviderError{Provider: provider, Kind: KindTimeout, Err: err}
	}
	return &ProviderError{Provider: provider, Kind: KindUnknown, Err: err}
}

// StatusError builds a *ProviderError for a non-200 HTTP response.
func StatusError(provider string, status int, body []byte) error {
	return &ProviderError{
		Provider: provider,
		Kind:     KindForStatus(status),
		Status:   status,
		Err:      fmt.Errorf("%s", truncate(string(body), 300)),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
