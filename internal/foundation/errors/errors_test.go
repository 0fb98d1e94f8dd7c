package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "articleforge.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "articleforge.yaml" {
			t.Errorf("expected context file=articleforge.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", ConfigError("test error").Build())

		if !IsClassified(err) {
			t.Error("expected wrapped error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if GetSeverity(err) != SeverityFatal {
			t.Errorf("expected fatal severity, got %s", GetSeverity(err))
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to report internal category")
		}
	})

	t.Run("Sentinel matching", func(t *testing.T) {
		sentinel := StoreError("article not found").Build()
		err := StoreError("article not found").WithContext("id", "a-1").Build()
		if !errors.Is(err, sentinel) {
			t.Error("expected classified errors with same category and message to match")
		}
		if errors.Is(err, StoreError("other").Build()) {
			t.Error("expected different messages not to match")
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := InternalError("boom").Build()
		derived := base.WithContext("stage", "draft_generation")
		if _, ok := base.Context().Get("stage"); ok {
			t.Error("expected base context to be unchanged")
		}
		if v, _ := derived.Context().GetString("stage"); v != "draft_generation" {
			t.Errorf("expected derived context stage, got %q", v)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := WrapError(originalErr, CategoryNetwork, "network failure").
			Warning().
			Retryable().
			WithContext("host", "api.openai.com").
			Build()

		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if !err.IsTransient() {
			t.Error("expected backoff errors to be transient")
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryUserAction},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityError, RetryUserAction},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryNever},
			{"ProviderError", ProviderError("test"), CategoryProvider, SeverityError, RetryBackoff},
			{"StoreError", StoreError("test"), CategoryStore, SeverityError, RetryNever},
			{"EventStoreError", EventStoreError("test"), CategoryEventStore, SeverityError, RetryNever},
			{"NotifyError", NotifyError("test"), CategoryNotify, SeverityWarning, RetryNever},
			{"PipelineError", PipelineError("test"), CategoryPipeline, SeverityFatal, RetryNever},
			{"RuntimeError", RuntimeError("test"), CategoryRuntime, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContext(t *testing.T) {
	ctx1 := make(ErrorContext)
	ctx1 = ctx1.Set("key1", "value1")
	ctx1 = ctx1.Set("shared", "original")

	ctx2 := make(ErrorContext)
	ctx2 = ctx2.Set("key2", 42)
	ctx2 = ctx2.Set("shared", "overridden")

	merged := ctx1.Merge(ctx2)

	if v, _ := merged.GetString("key1"); v != "value1" {
		t.Errorf("expected key1=value1, got %s", v)
	}
	if v, _ := merged.Get("key2"); v != 42 {
		t.Errorf("expected key2=42, got %v", v)
	}
	if v, _ := merged.GetString("shared"); v != "overridden" {
		t.Errorf("expected shared=overridden, got %s", v)
	}
	if _, ok := merged.GetString("key2"); ok {
		t.Error("expected GetString to reject non-string values")
	}
}

func TestRetryClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       *ClassifiedError
		canRetry  bool
		transient bool
		fatal     bool
	}{
		{"provider", ProviderError("upstream 503").Build(), true, true, false},
		{"config", ConfigError("bad driver").Build(), false, false, true},
		{"validation", ValidationError("missing keyword").Build(), false, false, false},
		{"pipeline", PipelineError("orchestration panicked").Build(), false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.CanRetry(); got != tc.canRetry {
				t.Errorf("CanRetry() = %v, want %v", got, tc.canRetry)
			}
			if got := tc.err.IsTransient(); got != tc.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tc.transient)
			}
			if got := tc.err.IsFatal(); got != tc.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tc.fatal)
			}
		})
	}
}
