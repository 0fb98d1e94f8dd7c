package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const articleColumns = `id, tenant_id, caller_id, product_ref, keyword_ref, keyword, run_id, title, slug, content,
	excerpt, meta_title, meta_description, featured_image_url, word_count, seo_score, fingerprint, status, created_at, updated_at`

// SQLiteStore implements ArticleStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and migrates) a SQLite article store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		caller_id TEXT NOT NULL,
		product_ref TEXT NOT NULL DEFAULT '',
		keyword_ref TEXT NOT NULL DEFAULT '',
		keyword TEXT NOT NULL,
		run_id TEXT NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		content TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		featured_image_url TEXT NOT NULL DEFAULT '',
		word_count INTEGER NOT NULL DEFAULT 0,
		seo_score INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_tenant_slug ON articles(tenant_id, slug);
	CREATE INDEX IF NOT EXISTS idx_articles_tenant_product ON articles(tenant_id, product_ref);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateArticle(ctx context.Context, a Article) (Article, error) {
	if err := validateForCreate(a); err != nil {
		return Article{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slug, err := s.uniqueSlugLocked(ctx, a.TenantID, a.Slug)
	if err != nil {
		return Article{}, err
	}
	a.Slug = slug
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	a.UpdatedAt = a.CreatedAt

	_, err = s.db.ExecContext(ctx, `INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.CallerID, a.ProductRef, a.KeywordRef, a.Keyword, a.RunID, a.Title, a.Slug, a.Content,
		a.Excerpt, a.MetaTitle, a.MetaDescription, a.FeaturedImageURL, a.WordCount, a.SEOScore, a.Fingerprint,
		string(a.Status), a.CreatedAt.UnixMilli(), a.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return Article{}, storeErr("insert article", err)
	}
	return a, nil
}

func (s *SQLiteStore) uniqueSlugLocked(ctx context.Context, tenantID, base string) (string, error) {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate := candidateSlug(base, attempt)
		var n int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM articles WHERE tenant_id = ? AND slug = ?", tenantID, candidate,
		).Scan(&n)
		if err != nil {
			return "", storeErr("check slug", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", storeErr("allocate unique slug", ErrDuplicate)
}

func (s *SQLiteStore) UpdateArticle(ctx context.Context, a Article) (Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET caller_id = ?, product_ref = ?, keyword_ref = ?, keyword = ?,
		run_id = ?, title = ?, slug = ?, content = ?, excerpt = ?, meta_title = ?, meta_description = ?,
		featured_image_url = ?, word_count = ?, seo_score = ?, fingerprint = ?, status = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		a.CallerID, a.ProductRef, a.KeywordRef, a.Keyword, a.RunID, a.Title, a.Slug, a.Content, a.Excerpt,
		a.MetaTitle, a.MetaDescription, a.FeaturedImageURL, a.WordCount, a.SEOScore, a.Fingerprint,
		string(a.Status), a.UpdatedAt.UnixMilli(), a.ID, a.TenantID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Article{}, storeErr("update article", ErrDuplicate)
		}
		return Article{}, storeErr("update article", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Article{}, notFound(a.ID)
	}
	return s.getLocked(ctx, a.TenantID, a.ID)
}

func (s *SQLiteStore) GetArticle(ctx context.Context, tenantID, id string) (Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, tenantID, id)
}

func (s *SQLiteStore) getLocked(ctx context.Context, tenantID, id string) (Article, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE tenant_id = ? AND id = ?", tenantID, id)
	a, err := scanArticle(row)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return Article{}, notFound(id)
	}
	if err != nil {
		return Article{}, storeErr("get article", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListArticles(ctx context.Context, f ArticleFilter) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + articleColumns + " FROM articles WHERE tenant_id = ?"
	args := []any{f.TenantID}
	if f.ProductRef != "" {
		query += " AND product_ref = ?"
		args = append(args, f.ProductRef)
	}
	if f.ExcludeID != "" {
		query += " AND id <> ?"
		args = append(args, f.ExcludeID)
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list articles", err)
	}
	defer rows.Close()

	var out []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, storeErr("scan article", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate articles", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (Article, error) {
	var a Article
	var status string
	var created, updated int64
	err := r.Scan(&a.ID, &a.TenantID, &a.CallerID, &a.ProductRef, &a.KeywordRef, &a.Keyword, &a.RunID, &a.Title,
		&a.Slug, &a.Content, &a.Excerpt, &a.MetaTitle, &a.MetaDescription, &a.FeaturedImageURL, &a.WordCount,
		&a.SEOScore, &a.Fingerprint, &status, &created, &updated)
	if err != nil {
		return Article{}, err
	}
	a.Status = ArticleStatus(status)
	a.CreatedAt = time.UnixMilli(created).UTC()
	a.UpdatedAt = time.UnixMilli(updated).UTC()
	return a, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
