package models

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

// Request is everything a caller supplies to start one pipeline run.
type Request struct {
	SubjectKeyword  string           `json:"subject_keyword" yaml:"subject_keyword"`
	TenantID        string           `json:"tenant_id" yaml:"tenant_id"`
	CallerID        string           `json:"caller_id" yaml:"caller_id"`
	KeywordRef      string           `json:"keyword_ref,omitempty" yaml:"keyword_ref,omitempty"`
	ProductRef      string           `json:"product_ref,omitempty" yaml:"product_ref,omitempty"`
	ProvidedOutline []OutlineSection `json:"provided_outline,omitempty" yaml:"provided_outline,omitempty"`
	ProvidedTitle   string           `json:"provided_title,omitempty" yaml:"provided_title,omitempty"`
	ProvidedContent string           `json:"provided_content,omitempty" yaml:"provided_content,omitempty"`
	Options         *PartialOptions  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks the required identity and subject fields.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.SubjectKeyword) == "" {
		missing = append(missing, "subject_keyword")
	}
	if strings.TrimSpace(r.TenantID) == "" {
		missing = append(missing, "tenant_id")
	}
	if strings.TrimSpace(r.CallerID) == "" {
		missing = append(missing, "caller_id")
	}
	if len(missing) > 0 {
		return errors.ValidationError("missing required request fields").
			WithCause(ErrInvalidRequest).
			WithContext("fields", strings.Join(missing, ",")).
			Build()
	}
	return nil
}

// ExecutionContext is the per-run input bundle. It is built once by
// NewExecutionContext and must be treated as read-only by stages.
type ExecutionContext struct {
	RunID     string
	StartedAt time.Time

	CallerID   string
	TenantID   string
	KeywordRef string
	ProductRef string
	Keyword    string

	ProvidedOutline []OutlineSection
	ProvidedTitle   string
	ProvidedContent string

	Options PipelineOptions
}

// NewExecutionContext validates req and resolves its options over base
// (built-in defaults, then base, then the request's own options).
func NewExecutionContext(req Request, runID string, startedAt time.Time, base *PartialOptions) (*ExecutionContext, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, errors.InternalError("run id must not be empty").Build()
	}
	opts, err := ResolveOptions(base, req.Options)
	if err != nil {
		return nil, err
	}
	return &ExecutionContext{
		RunID:           runID,
		StartedAt:       startedAt,
		CallerID:        req.CallerID,
		TenantID:        req.TenantID,
		KeywordRef:      req.KeywordRef,
		ProductRef:      req.ProductRef,
		Keyword:         strings.TrimSpace(req.SubjectKeyword),
		ProvidedOutline: CloneOutline(req.ProvidedOutline),
		ProvidedTitle:   req.ProvidedTitle,
		ProvidedContent: req.ProvidedContent,
		Options:         opts,
	}, nil
}

// HasProvidedOutline reports whether the caller supplied an outline.
func (ec *ExecutionContext) HasProvidedOutline() bool { return len(ec.ProvidedOutline) > 0 }

// HasProvidedContent reports whether the caller supplied article content.
func (ec *ExecutionContext) HasProvidedContent() bool {
	return strings.TrimSpace(ec.ProvidedContent) != ""
}
