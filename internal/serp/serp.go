// Package serp queries search engine result pages for a keyword.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// Query describes one SERP lookup.
type Query struct {
	Keyword  string
	Location string
	Device   models.SERPDevice
	Count    int
}

// Response is the raw provider answer.
type Response struct {
	Results          []models.SERPResult
	RelatedQuestions []string
}

// Provider fetches organic results for a query.
type Provider interface {
	Search(ctx context.Context, q Query) (Response, error)
	Name() string
}

// HTTPProvider queries a JSON SERP API over HTTP.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPProvider creates a provider for endpoint; a nil client uses one with timeout.
func NewHTTPProvider(endpoint, apiKey string, timeout time.Duration, client *http.Client) (*HTTPProvider, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid serp endpoint %q: %w", endpoint, err)
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProvider{endpoint: endpoint, apiKey: apiKey, client: client}, nil
}

// Name returns the provider identifier.
func (p *HTTPProvider) Name() string { return "http" }

type apiResponse struct {
	OrganicResults []struct {
		Position  int      `json:"position"`
		Title     string   `json:"title"`
		Link      string   `json:"link"`
		Snippet   string   `json:"snippet"`
		Headings  []string `json:"headings"`
		WordCount int      `json:"word_count"`
	} `json:"organic_results"`
	RelatedQuestions []struct {
		Question string `json:"question"`
	} `json:"related_questions"`
}

// Search performs a GET request and decodes the organic results.
func (p *HTTPProvider) Search(ctx context.Context, q Query) (Response, error) {
	u, _ := url.Parse(p.endpoint)
	params := u.Query()
	params.Set("q", q.Keyword)
	params.Set("location", q.Location)
	params.Set("device", string(q.Device))
	if q.Count > 0 {
		params.Set("num", strconv.Itoa(q.Count))
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Response{}, ferrors.InternalError("build serp request").WithCause(err).Build()
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Response{}, ferrors.NewError(ferrors.CategoryNetwork, "serp request failed").
			WithCause(err).Retryable().Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		b := ferrors.ProviderError("serp provider returned an error status").
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(body)))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			b = b.WithRetry(ferrors.RetryNever)
		}
		return Response{}, b.Build()
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, ferrors.ProviderError("decode serp response").WithCause(err).WithRetry(ferrors.RetryNever).Build()
	}

	out := Response{Results: make([]models.SERPResult, 0, len(decoded.OrganicResults))}
	for i, r := range decoded.OrganicResults {
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		out.Results = append(out.Results, models.SERPResult{
			Position:  pos,
			Title:     r.Title,
			URL:       r.Link,
			Domain:    Domain(r.Link),
			Snippet:   r.Snippet,
			Headings:  r.Headings,
			WordCount: r.WordCount,
		})
		if q.Count > 0 && len(out.Results) == q.Count {
			break
		}
	}
	for _, rq := range decoded.RelatedQuestions {
		if s := strings.TrimSpace(rq.Question); s != "" {
			out.RelatedQuestions = append(out.RelatedQuestions, s)
		}
	}
	return out, nil
}

// Domain returns the host of rawURL without a leading "www.".
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
