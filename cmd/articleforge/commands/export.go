package commands

import (
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/frontmatter"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// exportMarkdown writes the run's article with YAML frontmatter to dir/<slug>.md.
func exportMarkdown(dir, keyword string, res *models.RunResult) (string, error) {
	a := res.Result
	fields := map[string]any{
		"title":   a.Title,
		"keyword": keyword,
		"date":    res.CompletedAt.UTC().Format(time.RFC3339),
	}
	optional := map[string]string{
		"slug":        a.Slug,
		"description": a.MetaDescription,
		"uid":         a.EntityID,
		"image":       a.FeaturedImageURL,
		"fingerprint": a.Fingerprint,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}

	doc, err := frontmatter.Render(fields, a.Content)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to render article frontmatter").Build()
	}

	name := a.Slug
	if name == "" {
		name = res.RunID
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryRuntime, "failed to create output directory").
			WithContext("path", dir).Build()
	}
	path := filepath.Join(dir, name+".md")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryRuntime, "failed to write article").
			WithContext("path", path).Build()
	}
	return path, nil
}
