package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/serp"
)

const maxCommonHeadings = 10

// SERPAnalysis fetches the top organic results for the run keyword.
func (s *Stages) SERPAnalysis(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	if s.deps.SERP == nil {
		return data, fmt.Errorf("%w: serp provider", ErrNotConfigured)
	}
	resp, err := s.deps.SERP.Search(ctx, serp.Query{
		Keyword:  ec.Keyword,
		Location: ec.Options.SERPLocation,
		Device:   ec.Options.SERPDevice,
		Count:    s.deps.SERPResultCount,
	})
	if err != nil {
		return data, err
	}

	data.SERP = &models.SERPAnalysis{
		Keyword:          ec.Keyword,
		Location:         ec.Options.SERPLocation,
		Device:           ec.Options.SERPDevice,
		Results:          resp.Results,
		RelatedQuestions: resp.RelatedQuestions,
		CommonHeadings:   commonHeadings(resp.Results, maxCommonHeadings),
		AverageWordCount: averageWordCount(resp.Results),
	}
	return data, nil
}

// commonHeadings ranks headings by the number of results using them. Headings
// used by a single result are only returned when nothing is shared.
func commonHeadings(results []models.SERPResult, limit int) []string {
	type entry struct {
		text  string
		count int
		first int
	}
	seen := map[string]*entry{}
	order := 0
	for _, r := range results {
		inResult := map[string]bool{}
		for _, h := range r.Headings {
			key := strings.ToLower(strings.TrimSpace(h))
			if key == "" || inResult[key] {
				continue
			}
			inResult[key] = true
			e, ok := seen[key]
			if !ok {
				e = &entry{text: strings.TrimSpace(h), first: order}
				seen[key] = e
				order++
			}
			e.count++
		}
	}

	entries := make([]*entry, 0, len(seen))
	shared := false
	for _, e := range seen {
		entries = append(entries, e)
		if e.count > 1 {
			shared = true
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	var out []string
	for _, e := range entries {
		if shared && e.count < 2 {
			break
		}
		out = append(out, e.text)
		if len(out) == limit {
			break
		}
	}
	return out
}

func averageWordCount(results []models.SERPResult) int {
	total, n := 0, 0
	for _, r := range results {
		if r.WordCount > 0 {
			total += r.WordCount
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / n
}
