package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/articleforge/internal/adapter"
	"git.home.luguber.info/inful/articleforge/internal/frontmatter"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/markdown"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
	"git.home.luguber.info/inful/articleforge/internal/seo"
	"git.home.luguber.info/inful/articleforge/internal/slug"
)

const (
	maxExcerpt        = 200
	draftSystemPrompt = "You are an experienced writer. Reply with the article in Markdown only, starting with a level-one heading."
)

// draftFields are the frontmatter keys DraftGeneration reads from provided content.
var draftFields = []string{"title", "slug", "description"}

// DraftGeneration writes the article body, or takes the provided title and
// content verbatim, and derives the article metadata from it. A leading
// frontmatter block is stripped from provided content only when it is a YAML
// mapping carrying at least one of draftFields; otherwise the content is kept
// byte for byte.
func (s *Stages) DraftGeneration(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	var fields map[string]any
	content := ec.ProvidedContent

	if ec.HasProvidedContent() {
		fm, body, err := frontmatter.Split(content)
		switch {
		case err != nil:
			slog.Warn("Provided content has unreadable frontmatter; using it as is",
				logfields.RunID(ec.RunID), logfields.Error(err))
		case hasDraftFields(fm):
			fields, content = fm, body
		}
	} else {
		if s.deps.Text == nil {
			return data, fmt.Errorf("%w: text generator", ErrNotConfigured)
		}
		resp, err := s.deps.Text.GenerateText(ctx, adapter.TextRequest{
			Purpose:     adapter.PurposeDraft,
			Subject:     ec.Keyword,
			System:      draftSystemPrompt,
			Prompt:      draftPrompt(ec, data),
			MaxTokens:   s.maxTokens(ec.Options.TargetWordCount * 2),
			Temperature: s.deps.Temperature,
		})
		if err != nil {
			return data, err
		}
		content = stripCodeFence(resp.Text)
	}
	if strings.TrimSpace(content) == "" {
		return data, ErrEmptyDraft
	}

	doc := markdown.Analyze([]byte(content))
	title := ec.ProvidedTitle
	if strings.TrimSpace(title) == "" {
		title = frontmatter.String(fields, "title")
	}
	if title == "" {
		if h, ok := doc.H1(); ok {
			title = h.Text
		}
	}
	if title == "" {
		title = titleCase(ec.Keyword)
	}

	excerpt := seo.Truncate(firstNonEmpty(frontmatter.String(fields, "description"), doc.FirstParagraph), maxExcerpt)
	data.Draft = &models.Draft{
		Title:           title,
		Slug:            firstNonEmpty(slug.Make(frontmatter.String(fields, "slug")), slug.Make(title), slug.Make(ec.Keyword), ec.RunID),
		Content:         content,
		Excerpt:         excerpt,
		MetaTitle:       seo.MetaTitle(title, ec.Keyword),
		MetaDescription: seo.MetaDescription(excerpt, ec.Keyword),
		WordCount:       doc.WordCount,
	}
	return data, nil
}

func hasDraftFields(fm map[string]any) bool {
	for _, k := range draftFields {
		if _, ok := fm[k]; ok {
			return true
		}
	}
	return false
}

func draftPrompt(ec *models.ExecutionContext, data models.PipelineData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d word article about %q in a %s tone.\n", ec.Options.TargetWordCount, ec.Keyword, ec.Options.Tone)
	if ec.ProvidedTitle != "" {
		fmt.Fprintf(&b, "Use the title %q.\n", ec.ProvidedTitle)
	}
	if len(data.Outline) > 0 {
		b.WriteString("Follow this outline:\n")
		for _, sec := range data.Outline {
			fmt.Fprintf(&b, "%s %s\n", strings.Repeat("#", max(sec.Level, 2)), sec.Heading)
			for _, p := range sec.Points {
				fmt.Fprintf(&b, "- %s\n", p)
			}
		}
	}
	if data.SERP != nil && len(data.SERP.RelatedQuestions) > 0 {
		fmt.Fprintf(&b, "Answer these reader questions along the way: %s\n", strings.Join(data.SERP.RelatedQuestions, " "))
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
