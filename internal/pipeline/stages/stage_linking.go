package stages

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/serp"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

// candidateLimit bounds how many sibling articles are scored per run.
const candidateLimit = 200

// authorityDomains are matched as a suffix of the result domain.
var authorityDomains = []string{
	"wikipedia.org", ".gov", ".edu", ".gov.uk", ".ac.uk", "who.int",
	"nih.gov", "consumerreports.org", "bbc.co.uk", "reuters.com", "nature.com",
}

// InternalLinking suggests links to the tenant's other articles for the same
// product. Store failures degrade to an empty list and a run note.
func (s *Stages) InternalLinking(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	data.InternalLinks = []models.InternalLink{}
	if s.deps.Articles == nil {
		return data.WithNote("internal_linking: no article store configured"), nil
	}

	articles, err := s.deps.Articles.ListArticles(ctx, store.ArticleFilter{
		TenantID:   ec.TenantID,
		ProductRef: ec.ProductRef,
		ExcludeID:  data.EntityID,
		Limit:      candidateLimit,
	})
	if err != nil {
		slog.Warn("Internal linking degraded", logfields.RunID(ec.RunID), logfields.Error(err))
		return data.WithNote("internal_linking: article lookup failed: " + err.Error()), nil
	}

	subject := tokens(ec.Keyword)
	if data.Draft != nil {
		subject = union(subject, tokens(data.Draft.Title))
	}
	var links []models.InternalLink
	for _, a := range articles {
		if a.ID == data.EntityID {
			continue
		}
		score := jaccard(subject, union(tokens(a.Keyword), tokens(a.Title)))
		if score == 0 {
			continue
		}
		links = append(links, models.InternalLink{
			ArticleID:  a.ID,
			Title:      a.Title,
			Slug:       a.Slug,
			AnchorText: firstNonEmpty(a.Keyword, a.Title),
			Relevance:  score,
		})
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Relevance > links[j].Relevance })
	if len(links) > ec.Options.MaxInternalLinks {
		links = links[:ec.Options.MaxInternalLinks]
	}
	data.InternalLinks = append(data.InternalLinks, links...)
	return data, nil
}

// ExternalLinking picks outbound link opportunities from the SERP results,
// one per domain. Missing SERP data degrades to an empty list and a run note.
// With IncludeAuthoritySources on, authority domains sort first and carry
// Authority; with it off, links keep SERP order and Authority stays false.
func (s *Stages) ExternalLinking(_ context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	data.ExternalLinks = []models.ExternalLink{}
	if data.SERP == nil || len(data.SERP.Results) == 0 {
		return data.WithNote("external_linking: no SERP results to draw from"), nil
	}

	seen := map[string]bool{}
	var links []models.ExternalLink
	for _, r := range data.SERP.Results {
		domain := r.Domain
		if domain == "" {
			domain = serp.Domain(r.URL)
		}
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		links = append(links, models.ExternalLink{
			URL:        r.URL,
			Title:      r.Title,
			Domain:     domain,
			AnchorText: firstNonEmpty(r.Title, domain),
			Authority:  ec.Options.IncludeAuthoritySources && isAuthority(domain),
		})
	}
	if ec.Options.IncludeAuthoritySources {
		sort.SliceStable(links, func(i, j int) bool { return links[i].Authority && !links[j].Authority })
	}
	if len(links) > ec.Options.MaxExternalLinks {
		links = links[:ec.Options.MaxExternalLinks]
	}
	data.ExternalLinks = append(data.ExternalLinks, links...)
	return data, nil
}

func isAuthority(domain string) bool {
	for _, d := range authorityDomains {
		d = strings.TrimPrefix(d, ".")
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// stopwords are ignored when comparing titles.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "for": true,
	"to": true, "in": true, "on": true, "with": true, "how": true, "what": true,
	"is": true, "are": true, "best": true, "guide": true,
}

func tokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !stopwords[f] {
			out[f] = true
		}
	}
	return out
}

func union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
