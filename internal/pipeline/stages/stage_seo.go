package stages

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/articleforge/internal/markdown"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/seo"
)

// SEOScoring scores the draft. With auto_optimize_seo it applies the
// deterministic meta and heading fixes and scores the result again.
func (s *Stages) SEOScoring(_ context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	if data.Draft == nil {
		return data, ErrNoDraft
	}
	in := seo.Input{
		Keyword:         ec.Keyword,
		Title:           data.Draft.Title,
		MetaTitle:       data.Draft.MetaTitle,
		MetaDescription: data.Draft.MetaDescription,
		Content:         data.Draft.Content,
		TargetWordCount: ec.Options.TargetWordCount,
		SuggestedLinks:  len(data.InternalLinks) + len(data.ExternalLinks),
	}
	analysis, err := seo.Analyze(in)
	if err != nil {
		return data, fmt.Errorf("score draft: %w", err)
	}

	if ec.Options.AutoOptimizeSEO {
		if optimized, changed := seo.Optimize(in); changed {
			rescored, err := seo.Analyze(optimized)
			if err != nil {
				return data, fmt.Errorf("score optimized draft: %w", err)
			}
			draft := *data.Draft
			draft.MetaTitle = optimized.MetaTitle
			draft.MetaDescription = optimized.MetaDescription
			draft.Content = optimized.Content
			draft.WordCount = markdown.CountWords(optimized.Content)
			data.Draft = &draft
			analysis = rescored
			analysis.Optimized = true
		}
	}

	data.SEO = &analysis
	return data, nil
}
