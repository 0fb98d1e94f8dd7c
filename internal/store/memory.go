package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process ArticleStore used by tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]Article
	creates  int
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]Article), now: time.Now}
}

func (s *MemoryStore) CreateArticle(_ context.Context, a Article) (Article, error) {
	if err := validateForCreate(a); err != nil {
		return Article{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slug, ok := s.uniqueSlugLocked(a.TenantID, a.Slug)
	if !ok {
		return Article{}, storeErr("allocate unique slug", ErrDuplicate)
	}
	a.Slug = slug
	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()
	a.UpdatedAt = a.CreatedAt
	s.articles[a.ID] = a
	s.creates++
	return a, nil
}

func (s *MemoryStore) uniqueSlugLocked(tenantID, base string) (string, bool) {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := candidateSlug(base, attempt)
		taken := false
		for _, existing := range s.articles {
			if existing.TenantID == tenantID && existing.Slug == candidate {
				taken = true
				break
			}
		}
		if !taken {
			return candidate, true
		}
	}
	return "", false
}

func (s *MemoryStore) UpdateArticle(_ context.Context, a Article) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.articles[a.ID]
	if !ok || existing.TenantID != a.TenantID {
		return Article{}, notFound(a.ID)
	}
	for id, other := range s.articles {
		if id != a.ID && other.TenantID == a.TenantID && other.Slug == a.Slug {
			return Article{}, storeErr("update article", ErrDuplicate)
		}
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()
	s.articles[a.ID] = a
	return a, nil
}

func (s *MemoryStore) GetArticle(_ context.Context, tenantID, id string) (Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok || a.TenantID != tenantID {
		return Article{}, notFound(id)
	}
	return a, nil
}

func (s *MemoryStore) ListArticles(_ context.Context, f ArticleFilter) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Article
	for _, a := range s.articles {
		if a.TenantID != f.TenantID {
			continue
		}
		if f.ProductRef != "" && a.ProductRef != f.ProductRef {
			continue
		}
		if f.ExcludeID != "" && a.ID == f.ExcludeID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Creates returns how many articles have been created.
func (s *MemoryStore) Creates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creates
}

// Seed inserts articles as-is, for tests and fixtures.
func (s *MemoryStore) Seed(articles ...Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.articles[a.ID] = a
	}
}

func (s *MemoryStore) Close() error { return nil }
