package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// ErrEmptyResponse is returned when a provider answers without usable content.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// ProviderError wraps provider errors with status metadata.
type ProviderError struct {
	Provider  string
	Status    int
	Temporary bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: provider error (status=%d)", e.Provider, e.Status)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether the failure is likely to succeed if attempted again.
func (e *ProviderError) IsTransient() bool { return IsTransient(e) }

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Temporary {
			return true
		}
		if pe.Status == http.StatusTooManyRequests || (pe.Status >= 500 && pe.Status <= 599) {
			return true
		}
	}
	return false
}

// wrapProviderError extracts the HTTP status from the SDK error types and
// returns a classified error whose cause chain contains a *ProviderError.
func wrapProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	pe := &ProviderError{Provider: provider, Err: err}

	var oaErr *openai.Error
	var anErr *anthropic.Error
	var gErr genai.APIError
	switch {
	case errors.As(err, &oaErr):
		pe.Status = oaErr.StatusCode
	case errors.As(err, &anErr):
		pe.Status = anErr.StatusCode
	case errors.As(err, &gErr):
		pe.Status = gErr.Code
	}

	b := ferrors.ProviderError(provider+" request failed").WithCause(pe).WithContext("provider", provider)
	if pe.Status != 0 {
		b = b.WithContext("status", pe.Status)
	}
	switch {
	case pe.Status == http.StatusTooManyRequests:
		b = b.RateLimit()
	case IsTransient(pe):
		b = b.Retryable()
	default:
		b = b.WithRetry(ferrors.RetryNever)
	}
	return b.Build()
}
