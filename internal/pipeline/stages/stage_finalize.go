package stages

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/frontmatter"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

// Finalization fingerprints the article and persists it as ready. It updates
// the materialized article, or creates it when none exists yet.
func (s *Stages) Finalization(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	if data.Draft == nil {
		return data, ErrNoDraft
	}
	if s.deps.Articles == nil {
		return data, fmt.Errorf("%w: article store", ErrNotConfigured)
	}

	fp, err := frontmatter.Fingerprint(documentFields(ec, data, s.deps.Now()), data.Draft.Content)
	if err != nil {
		return data, fmt.Errorf("fingerprint: %w", err)
	}
	data.Fingerprint = fp

	article := store.FromPipeline(ec, data, store.StatusReady)
	if data.EntityID == "" {
		created, err := s.deps.Articles.CreateArticle(ctx, article)
		if err != nil {
			return data, err
		}
		data.EntityID = created.ID
		draft := *data.Draft
		draft.Slug = created.Slug
		data.Draft = &draft
		return data, nil
	}

	if _, err := s.deps.Articles.UpdateArticle(ctx, article); err != nil {
		return data, err
	}
	return data, nil
}

// documentFields is the frontmatter the article is published with.
func documentFields(ec *models.ExecutionContext, data models.PipelineData, now time.Time) map[string]any {
	fields := map[string]any{
		"title":       data.Draft.Title,
		"slug":        data.Draft.Slug,
		"description": data.Draft.MetaDescription,
		"keyword":     ec.Keyword,
		"date":        now.UTC().Format(time.RFC3339),
	}
	if data.EntityID != "" {
		fields["uid"] = data.EntityID
	}
	if img, ok := data.FeaturedImage(); ok {
		fields["image"] = img.URL
	}
	return fields
}
