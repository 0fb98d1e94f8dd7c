package serp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/articleforge/internal/config"
	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

func TestHTTPProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "espresso machines", r.URL.Query().Get("q"))
		assert.Equal(t, "mobile", r.URL.Query().Get("device"))
		assert.Equal(t, "2", r.URL.Query().Get("num"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"organic_results": [
				{"title": "A", "link": "https://www.Example.com/a", "headings": ["H1"], "word_count": 900},
				{"position": 2, "title": "B", "link": "https://b.org/b"},
				{"position": 3, "title": "C", "link": "https://c.org/c"}
			],
			"related_questions": [{"question": " Why? "}, {"question": ""}]
		}`))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL+"/search", "key", time.Second, nil)
	require.NoError(t, err)

	resp, err := p.Search(t.Context(), Query{Keyword: "espresso machines", Location: "United States", Device: models.DeviceMobile, Count: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Position)
	assert.Equal(t, "example.com", resp.Results[0].Domain)
	assert.Equal(t, 900, resp.Results[0].WordCount)
	assert.Equal(t, []string{"Why?"}, resp.RelatedQuestions)
}

func TestHTTPProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.URL, "", time.Second, nil)
	require.NoError(t, err)
	_, err = p.Search(t.Context(), Query{Keyword: "x"})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryProvider, ferrors.GetCategory(err))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.RetryNever, ce.RetryStrategy())
}

func TestHTTPProviderRejectsBadEndpoint(t *testing.T) {
	_, err := NewHTTPProvider("not a url", "", time.Second, nil)
	require.Error(t, err)
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()
	resp, err := m.Search(t.Context(), Query{Keyword: "pour over coffee", Count: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "en.wikipedia.org", resp.Results[0].Domain)
	assert.Equal(t, "https://en.wikipedia.org/pour-over-coffee", resp.Results[0].URL)
	assert.Len(t, m.Queries(), 1)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://WWW.example.com/path?q=1"))
	assert.Equal(t, "", Domain("::bad"))
	assert.Equal(t, "", Domain("relative/path"))
}

func TestFactory(t *testing.T) {
	p, err := New(config.SERPProviderConfig{Provider: config.SERPProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	p, err = New(config.SERPProviderConfig{Provider: config.SERPProviderHTTP, Endpoint: "https://serp.example.com/search"})
	require.NoError(t, err)
	assert.Equal(t, "http", p.Name())

	_, err = New(config.SERPProviderConfig{Provider: "bing"})
	require.Error(t, err)
}
