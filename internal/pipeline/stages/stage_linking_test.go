package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/serp"
	"git.home.luguber.info/inful/articleforge/internal/store"
)

type failingArticles struct{ store.ArticleStore }

func (failingArticles) ListArticles(context.Context, store.ArticleFilter) ([]store.Article, error) {
	return nil, errors.New("connection refused")
}

func seededStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.Seed(
		store.Article{ID: "a1", TenantID: "tenant-1", ProductRef: "prod-1", Title: "Espresso machines under $500", Keyword: "budget espresso machines", Slug: "budget"},
		store.Article{ID: "a2", TenantID: "tenant-1", ProductRef: "prod-1", Title: "Cleaning your espresso grinder", Keyword: "espresso grinder", Slug: "grinder"},
		store.Article{ID: "a3", TenantID: "tenant-1", ProductRef: "prod-1", Title: "Tea kettles", Keyword: "tea kettles", Slug: "tea"},
		store.Article{ID: "a4", TenantID: "tenant-1", ProductRef: "prod-2", Title: "Espresso machines compared", Keyword: "espresso machines", Slug: "other-product"},
		store.Article{ID: "a5", TenantID: "tenant-2", ProductRef: "prod-1", Title: "Espresso machines", Keyword: "espresso machines", Slug: "other-tenant"},
	)
	return st
}

func TestInternalLinkingRanksByOverlap(t *testing.T) {
	s := New(Dependencies{Articles: seededStore()})
	ec := newContext(t, models.Request{ProductRef: "prod-1"})

	data, err := s.InternalLinking(t.Context(), ec, models.PipelineData{})
	require.NoError(t, err)
	require.Len(t, data.InternalLinks, 2)
	assert.Equal(t, "a1", data.InternalLinks[0].ArticleID)
	assert.Equal(t, "budget espresso machines", data.InternalLinks[0].AnchorText)
	assert.InDelta(t, 0.4, data.InternalLinks[0].Relevance, 1e-9)
	assert.Equal(t, "a2", data.InternalLinks[1].ArticleID)
	assert.Empty(t, data.Notes)

	limited := newContext(t, models.Request{ProductRef: "prod-1", Options: &models.PartialOptions{MaxInternalLinks: ptr(1)}})
	data, err = s.InternalLinking(t.Context(), limited, models.PipelineData{EntityID: "a2"})
	require.NoError(t, err)
	require.Len(t, data.InternalLinks, 1)
	assert.Equal(t, "a1", data.InternalLinks[0].ArticleID)
}

func TestInternalLinkingSwallowsStoreErrors(t *testing.T) {
	s := New(Dependencies{Articles: failingArticles{}})
	ec := newContext(t, models.Request{ProductRef: "prod-1"})

	data, err := s.InternalLinking(t.Context(), ec, models.PipelineData{})
	require.NoError(t, err)
	assert.NotNil(t, data.InternalLinks)
	assert.Empty(t, data.InternalLinks)
	require.Len(t, data.Notes, 1)
	assert.Contains(t, data.Notes[0], "connection refused")
}

func TestExternalLinkingPrefersAuthorities(t *testing.T) {
	s := New(Dependencies{SERP: serp.NewMockProvider()})
	ec := newContext(t, models.Request{})
	data, err := s.SERPAnalysis(t.Context(), ec, models.PipelineData{})
	require.NoError(t, err)

	out, err := s.ExternalLinking(t.Context(), ec, data)
	require.NoError(t, err)
	var domains []string
	for _, l := range out.ExternalLinks {
		domains = append(domains, l.Domain)
	}
	assert.Equal(t, []string{"en.wikipedia.org", "consumerreports.org", "bbc.co.uk", "seriouseats.com", "nytimes.com"}, domains)
	assert.True(t, out.ExternalLinks[0].Authority)
	assert.False(t, out.ExternalLinks[3].Authority)

	plain := newContext(t, models.Request{Options: &models.PartialOptions{
		IncludeAuthoritySources: ptr(false),
		MaxExternalLinks:        ptr(3),
	}})
	out, err = s.ExternalLinking(t.Context(), plain, data)
	require.NoError(t, err)
	domains = domains[:0]
	for _, l := range out.ExternalLinks {
		domains = append(domains, l.Domain)
	}
	assert.Equal(t, []string{"en.wikipedia.org", "consumerreports.org", "seriouseats.com"}, domains)
	for _, l := range out.ExternalLinks {
		assert.False(t, l.Authority, l.Domain)
	}
}

func TestExternalLinkingWithoutSERP(t *testing.T) {
	data, err := New(Dependencies{}).ExternalLinking(t.Context(), newContext(t, models.Request{}), models.PipelineData{})
	require.NoError(t, err)
	assert.Empty(t, data.ExternalLinks)
	require.Len(t, data.Notes, 1)
	assert.Contains(t, data.Notes[0], "external_linking")
}

func TestIsAuthority(t *testing.T) {
	cases := map[string]bool{
		"en.wikipedia.org": true,
		"wikipedia.org":    true,
		"cdc.gov":          true,
		"web.mit.edu":      true,
		"notwikipedia.org": false,
		"example.com":      false,
	}
	for domain, want := range cases {
		if got := isAuthority(domain); got != want {
			t.Fatalf("isAuthority(%q) = %v, want %v", domain, got, want)
		}
	}
}
