package serp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

var mockDomains = []string{
	"en.wikipedia.org", "www.consumerreports.org", "www.seriouseats.com",
	"www.nytimes.com", "www.reddit.com", "www.bbc.co.uk", "www.example-blog.com",
}

// MockProvider returns deterministic results derived from the keyword.
type MockProvider struct {
	mu      sync.Mutex
	queries []Query

	// Err is returned for every call when set.
	Err error
}

// NewMockProvider creates a mock SERP provider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Search returns one result per mock domain, up to q.Count.
func (m *MockProvider) Search(ctx context.Context, q Query) (Response, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if m.Err != nil {
		return Response{}, m.Err
	}

	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(q.Keyword)), " ", "-")
	n := len(mockDomains)
	if q.Count > 0 && q.Count < n {
		n = q.Count
	}
	out := Response{
		RelatedQuestions: []string{
			fmt.Sprintf("What is the best %s?", q.Keyword),
			fmt.Sprintf("How much do %s cost?", q.Keyword),
			fmt.Sprintf("Are %s worth it?", q.Keyword),
		},
	}
	for i := range n {
		host := mockDomains[i]
		u := fmt.Sprintf("https://%s/%s", host, slug)
		out.Results = append(out.Results, models.SERPResult{
			Position:  i + 1,
			Title:     fmt.Sprintf("%s guide #%d", q.Keyword, i+1),
			URL:       u,
			Domain:    Domain(u),
			Snippet:   fmt.Sprintf("Everything about %s.", q.Keyword),
			Headings:  []string{"Buying Guide", "Top Picks", fmt.Sprintf("How to Choose %s", q.Keyword)},
			WordCount: 1200 + i*100,
		})
	}
	return out, nil
}

// Queries returns a copy of the recorded queries.
func (m *MockProvider) Queries() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Query, len(m.queries))
	copy(out, m.queries)
	return out
}
