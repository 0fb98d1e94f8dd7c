// Package stages implements the article pipeline stage bodies and the default
// stage registry.
package stages

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/adapter"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/serp"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

// Sentinel errors returned by stage bodies.
var (
	ErrNotConfigured = errors.New("collaborator not configured")
	ErrEmptyOutline  = errors.New("outline generation returned no sections")
	ErrEmptyDraft    = errors.New("draft generation returned no content")
	ErrNoDraft       = errors.New("no draft available")
)

// Articles is the slice of the article store the stages use.
type Articles interface {
	CreateArticle(ctx context.Context, a store.Article) (store.Article, error)
	UpdateArticle(ctx context.Context, a store.Article) (store.Article, error)
	ListArticles(ctx context.Context, f store.ArticleFilter) ([]store.Article, error)
}

// Dependencies are the collaborators the stage bodies call out to.
type Dependencies struct {
	SERP     serp.Provider
	Text     adapter.TextGenerator
	Images   adapter.ImageGenerator
	Articles Articles

	// SERPResultCount is the number of organic results requested (default 10).
	SERPResultCount int
	// MaxTokens caps completion length; zero lets the stage size it.
	MaxTokens   int
	Temperature float64

	Now func() time.Time
}

// Stages binds stage bodies to their collaborators.
type Stages struct {
	deps Dependencies
}

// New creates the stage set.
func New(deps Dependencies) *Stages {
	if deps.SERPResultCount <= 0 {
		deps.SERPResultCount = 10
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Stages{deps: deps}
}

// NewDefaultRegistry builds the standard eight-stage article registry.
func NewDefaultRegistry(deps Dependencies) (*models.Registry, error) {
	s := New(deps)
	draft := []models.StageID{models.StageDraftGeneration}

	return models.NewRegistryBuilder().
		Add(models.StageDescriptor{
			ID:          models.StageSERPAnalysis,
			Name:        "SERP analysis",
			Description: "Fetch top organic results and derive headings and questions",
			Execute:     s.SERPAnalysis,
			SkipIf:      func(ec *models.ExecutionContext, _ models.PipelineData) bool { return ec.Options.SkipSERPAnalysis },
		}).
		Add(models.StageDescriptor{
			ID:          models.StageOutlineGeneration,
			Name:        "Outline generation",
			Description: "Plan article sections",
			Execute:     s.OutlineGeneration,
			SkipIf: func(ec *models.ExecutionContext, _ models.PipelineData) bool {
				return ec.Options.SkipOutlineGeneration && !ec.HasProvidedOutline()
			},
		}).
		Add(models.StageDescriptor{
			ID:          models.StageDraftGeneration,
			Name:        "Draft generation",
			Description: "Write the article body and derive its metadata",
			Execute:     s.DraftGeneration,
			SkipIf: func(ec *models.ExecutionContext, _ models.PipelineData) bool {
				return ec.Options.SkipDraftGeneration && !ec.HasProvidedContent()
			},
		}).
		Add(models.StageDescriptor{
			ID:          models.StageInternalLinking,
			Name:        "Internal linking",
			Description: "Suggest links to related articles of the same product",
			Execute:     s.InternalLinking,
			DependsOn:   draft,
			SkipIf: func(ec *models.ExecutionContext, _ models.PipelineData) bool {
				return ec.Options.SkipInternalLinking || ec.ProductRef == ""
			},
		}).
		Add(models.StageDescriptor{
			ID:          models.StageExternalLinking,
			Name:        "External linking",
			Description: "Select outbound link opportunities",
			Execute:     s.ExternalLinking,
			DependsOn:   draft,
			SkipIf:      func(ec *models.ExecutionContext, _ models.PipelineData) bool { return ec.Options.SkipExternalLinking },
		}).
		Add(models.StageDescriptor{
			ID:          models.StageImageGeneration,
			Name:        "Image generation",
			Description: "Generate featured and inline images",
			Execute:     s.ImageGeneration,
			DependsOn:   draft,
			SkipIf: func(ec *models.ExecutionContext, _ models.PipelineData) bool {
				return ec.Options.SkipImageGeneration || !ec.Options.WantsImages()
			},
		}).
		Add(models.StageDescriptor{
			ID:          models.StageSEOScoring,
			Name:        "SEO scoring",
			Description: "Score the draft and optionally apply fixes",
			Execute:     s.SEOScoring,
			DependsOn:   draft,
			SkipIf:      func(ec *models.ExecutionContext, _ models.PipelineData) bool { return ec.Options.SkipSEOScoring },
		}).
		Add(models.StageDescriptor{
			ID:          models.StageFinalization,
			Name:        "Finalization",
			Description: "Fingerprint and persist the finished article",
			Execute:     s.Finalization,
			DependsOn:   draft,
		}).
		Build()
}
