package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/articleforge/internal/adapter"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

const outlineSystemPrompt = "You are an SEO content strategist. Reply with a JSON array only."

// OutlineGeneration plans the article sections. A provided outline is used verbatim.
func (s *Stages) OutlineGeneration(ctx context.Context, ec *models.ExecutionContext, data models.PipelineData) (models.PipelineData, error) {
	if ec.HasProvidedOutline() {
		outline := models.CloneOutline(ec.ProvidedOutline)
		for i := range outline {
			if outline[i].Level == 0 {
				outline[i].Level = 2
			}
		}
		data.Outline = outline
		return data, nil
	}
	if s.deps.Text == nil {
		return data, fmt.Errorf("%w: text generator", ErrNotConfigured)
	}

	resp, err := s.deps.Text.GenerateText(ctx, adapter.TextRequest{
		Purpose:     adapter.PurposeOutline,
		Subject:     ec.Keyword,
		System:      outlineSystemPrompt,
		Prompt:      outlinePrompt(ec, data.SERP),
		MaxTokens:   s.maxTokens(1024),
		Temperature: s.deps.Temperature,
	})
	if err != nil {
		return data, err
	}

	sections := parseOutline(resp.Text)
	if len(sections) == 0 {
		return data, ErrEmptyOutline
	}
	if len(sections) > ec.Options.OutlineSections {
		sections = sections[:ec.Options.OutlineSections]
	}
	data.Outline = sections
	return data, nil
}

func outlinePrompt(ec *models.ExecutionContext, serp *models.SERPAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an outline with exactly %d sections for an article about %q.\n", ec.Options.OutlineSections, ec.Keyword)
	fmt.Fprintf(&b, "Tone: %s. Target length: %d words.\n", ec.Options.Tone, ec.Options.TargetWordCount)
	if serp != nil {
		if len(serp.CommonHeadings) > 0 {
			fmt.Fprintf(&b, "Competing articles commonly cover: %s.\n", strings.Join(serp.CommonHeadings, "; "))
		}
		if len(serp.RelatedQuestions) > 0 {
			fmt.Fprintf(&b, "Readers also ask: %s\n", strings.Join(serp.RelatedQuestions, " "))
		}
	}
	b.WriteString(`Format: [{"heading": "...", "level": 2, "points": ["..."]}]`)
	return b.String()
}

// parseOutline accepts a JSON array (optionally fenced) and falls back to
// markdown headings or bullet lines.
func parseOutline(text string) []models.OutlineSection {
	raw := stripCodeFence(text)
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start >= 0 && end > start {
		var sections []models.OutlineSection
		if err := json.Unmarshal([]byte(raw[start:end+1]), &sections); err == nil {
			return normalizeOutline(sections)
		}
	}

	var sections []models.OutlineSection
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"):
			level := len(line) - len(strings.TrimLeft(line, "#"))
			sections = append(sections, models.OutlineSection{Heading: strings.TrimSpace(line[level:]), Level: max(level, 2)})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			sections = append(sections, models.OutlineSection{Heading: strings.TrimSpace(line[2:]), Level: 2})
		}
	}
	return normalizeOutline(sections)
}

func normalizeOutline(in []models.OutlineSection) []models.OutlineSection {
	out := in[:0]
	for _, s := range in {
		s.Heading = strings.TrimSpace(s.Heading)
		if s.Heading == "" {
			continue
		}
		if s.Level < 2 || s.Level > 4 {
			s.Level = 2
		}
		out = append(out, s)
	}
	return out
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func (s *Stages) maxTokens(fallback int) int {
	if s.deps.MaxTokens > 0 {
		return s.deps.MaxTokens
	}
	return fallback
}
