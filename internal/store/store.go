// Package store persists generated articles. The pipeline materializes an
// article once per run and finalization updates it.
package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Sentinel errors for store operations.
var (
	ErrNotFound  = stdErrors.New("article not found")
	ErrDuplicate = stdErrors.New("duplicate article")
)

// maxSlugAttempts bounds unique-slug probing (slug, slug-2, ... slug-N).
const maxSlugAttempts = 100

// ArticleStatus is the lifecycle state of a persisted article.
type ArticleStatus string

const (
	StatusDraft ArticleStatus = "draft"
	StatusReady ArticleStatus = "ready"
)

// Article is the persisted form of a generated article.
type Article struct {
	ID               string        `json:"id"`
	TenantID         string        `json:"tenant_id"`
	CallerID         string        `json:"caller_id"`
	ProductRef       string        `json:"product_ref,omitempty"`
	KeywordRef       string        `json:"keyword_ref,omitempty"`
	Keyword          string        `json:"keyword"`
	RunID            string        `json:"run_id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Content          string        `json:"content"`
	Excerpt          string        `json:"excerpt,omitempty"`
	MetaTitle        string        `json:"meta_title,omitempty"`
	MetaDescription  string        `json:"meta_description,omitempty"`
	FeaturedImageURL string        `json:"featured_image_url,omitempty"`
	WordCount        int           `json:"word_count"`
	SEOScore         int           `json:"seo_score"`
	Fingerprint      string        `json:"fingerprint,omitempty"`
	Status           ArticleStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ArticleFilter narrows ListArticles. TenantID is required.
type ArticleFilter struct {
	TenantID   string
	ProductRef string
	ExcludeID  string
	Limit      int
}

// ArticleStore is the persistence collaborator of the pipeline.
type ArticleStore interface {
	// CreateArticle assigns an id and a tenant-unique slug.
	CreateArticle(ctx context.Context, a Article) (Article, error)
	UpdateArticle(ctx context.Context, a Article) (Article, error)
	GetArticle(ctx context.Context, tenantID, id string) (Article, error)
	ListArticles(ctx context.Context, f ArticleFilter) ([]Article, error)
	Close() error
}

// FromPipeline projects the run's accumulated data onto an Article.
func FromPipeline(ec *models.ExecutionContext, data models.PipelineData, status ArticleStatus) Article {
	a := Article{
		ID:          data.EntityID,
		TenantID:    ec.TenantID,
		CallerID:    ec.CallerID,
		ProductRef:  ec.ProductRef,
		KeywordRef:  ec.KeywordRef,
		Keyword:     ec.Keyword,
		RunID:       ec.RunID,
		Fingerprint: data.Fingerprint,
		Status:      status,
	}
	if d := data.Draft; d != nil {
		a.Title = d.Title
		a.Slug = d.Slug
		a.Content = d.Content
		a.Excerpt = d.Excerpt
		a.MetaTitle = d.MetaTitle
		a.MetaDescription = d.MetaDescription
		a.WordCount = d.WordCount
	}
	if data.SEO != nil {
		a.SEOScore = data.SEO.Score
	}
	if img, ok := data.FeaturedImage(); ok {
		a.FeaturedImageURL = img.URL
	}
	return a
}

func validateForCreate(a Article) error {
	if a.TenantID == "" || a.Slug == "" || a.Title == "" {
		return errors.ValidationError("article requires tenant, title and slug").
			WithContext("tenant_id", a.TenantID).
			WithContext("slug", a.Slug).
			Build()
	}
	return nil
}

func candidateSlug(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

func notFound(id string) error {
	return errors.NotFoundError("article not found").WithCause(ErrNotFound).WithContext("id", id).Build()
}

func storeErr(op string, err error) error {
	return errors.StoreError(op).WithCause(err).Build()
}
