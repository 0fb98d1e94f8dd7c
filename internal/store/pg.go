package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig holds PostgreSQL connection configuration.
type PGConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

const pgSchema = `
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
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (tenant_id, slug)
);
CREATE INDEX IF NOT EXISTS idx_articles_tenant_product ON articles(tenant_id, product_ref);
`

// PGStore implements ArticleStore backed by PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to PostgreSQL, verifies the connection and ensures the schema.
func NewPGStore(ctx context.Context, cfg PGConfig) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pg config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate pg schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) CreateArticle(ctx context.Context, a Article) (Article, error) {
	if err := validateForCreate(a); err != nil {
		return Article{}, err
	}
	base := a.Slug
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	a.UpdatedAt = a.CreatedAt

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		a.Slug = candidateSlug(base, attempt)
		_, err := s.pool.Exec(ctx, `INSERT INTO articles (`+articleColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			a.ID, a.TenantID, a.CallerID, a.ProductRef, a.KeywordRef, a.Keyword, a.RunID, a.Title, a.Slug, a.Content,
			a.Excerpt, a.MetaTitle, a.MetaDescription, a.FeaturedImageURL, a.WordCount, a.SEOScore, a.Fingerprint,
			string(a.Status), a.CreatedAt, a.UpdatedAt)
		if err == nil {
			return a, nil
		}
		if !isDuplicateError(err) {
			return Article{}, storeErr("insert article", err)
		}
	}
	return Article{}, storeErr("allocate unique slug", ErrDuplicate)
}

func (s *PGStore) UpdateArticle(ctx context.Context, a Article) (Article, error) {
	a.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	tag, err := s.pool.Exec(ctx, `UPDATE articles SET caller_id=$3, product_ref=$4, keyword_ref=$5, keyword=$6,
		run_id=$7, title=$8, slug=$9, content=$10, excerpt=$11, meta_title=$12, meta_description=$13,
		featured_image_url=$14, word_count=$15, seo_score=$16, fingerprint=$17, status=$18, updated_at=$19
		WHERE id=$1 AND tenant_id=$2`,
		a.ID, a.TenantID, a.CallerID, a.ProductRef, a.KeywordRef, a.Keyword, a.RunID, a.Title, a.Slug, a.Content,
		a.Excerpt, a.MetaTitle, a.MetaDescription, a.FeaturedImageURL, a.WordCount, a.SEOScore, a.Fingerprint,
		string(a.Status), a.UpdatedAt)
	if err != nil {
		if isDuplicateError(err) {
			return Article{}, storeErr("update article", ErrDuplicate)
		}
		return Article{}, storeErr("update article", err)
	}
	if tag.RowsAffected() == 0 {
		return Article{}, notFound(a.ID)
	}
	return s.GetArticle(ctx, a.TenantID, a.ID)
}

func (s *PGStore) GetArticle(ctx context.Context, tenantID, id string) (Article, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	a, err := scanPGArticle(row)
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return Article{}, notFound(id)
	}
	if err != nil {
		return Article{}, storeErr("get article", err)
	}
	return a, nil
}

func (s *PGStore) ListArticles(ctx context.Context, f ArticleFilter) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE tenant_id = $1`
	args := []any{f.TenantID}
	idx := 2
	if f.ProductRef != "" {
		query += fmt.Sprintf(` AND product_ref = $%d`, idx)
		args = append(args, f.ProductRef)
		idx++
	}
	if f.ExcludeID != "" {
		query += fmt.Sprintf(` AND id <> $%d`, idx)
		args = append(args, f.ExcludeID)
		idx++
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list articles", err)
	}
	defer rows.Close()

	var out []Article
	for rows.Next() {
		a, err := scanPGArticle(rows)
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

func scanPGArticle(r pgx.Row) (Article, error) {
	var a Article
	var status string
	err := r.Scan(&a.ID, &a.TenantID, &a.CallerID, &a.ProductRef, &a.KeywordRef, &a.Keyword, &a.RunID, &a.Title,
		&a.Slug, &a.Content, &a.Excerpt, &a.MetaTitle, &a.MetaDescription, &a.FeaturedImageURL, &a.WordCount,
		&a.SEOScore, &a.Fingerprint, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Article{}, err
	}
	a.Status = ArticleStatus(status)
	return a, nil
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	if stdErrors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
