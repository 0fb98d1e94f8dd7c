// Package errors provides foundational, type-safe error primitives used across articleforge.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (validation, provider, store, pipeline, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Hint for callers that layer their own retry policy
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryStore, "create article failed").
//		WithSeverity(errors.SeverityError).
//		WithContext("tenant_id", tenantID).
//		WithCause(originalErr).
//		Build()
package errors
