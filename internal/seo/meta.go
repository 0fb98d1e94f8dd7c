package seo

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/articleforge/internal/markdown"
)

// Truncate shortens s to at most limit runes, preferring a word boundary.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := r[:limit]
	for i := len(cut) - 1; i > limit/2; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// MetaTitle derives a meta title from the article title, leading with the
// keyword when the title does not already contain it.
func MetaTitle(title, keyword string) string {
	if keyword != "" && !containsFold(title, keyword) {
		title = capitalize(keyword) + ": " + title
	}
	return Truncate(title, MaxMetaTitle)
}

// MetaDescription derives a meta description from summary text, prefixing a
// keyword sentence when the summary lacks the keyword.
func MetaDescription(summary, keyword string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	if keyword != "" && !containsFold(summary, keyword) {
		summary = strings.TrimSpace("Everything you need to know about " + keyword + ". " + summary)
	}
	if runeLen(summary) < MinMetaDescription && keyword != "" {
		summary += " Read our complete guide to " + keyword + ", with practical advice from start to finish."
	}
	return Truncate(summary, MaxMetaDescription)
}

// Optimize applies deterministic fixes for the meta checks and the H1. It never
// touches the body beyond the first heading.
func Optimize(in Input) (Input, bool) {
	out := in
	changed := false

	if !containsFold(in.MetaTitle, in.Keyword) || runeLen(in.MetaTitle) == 0 || runeLen(in.MetaTitle) > MaxMetaTitle {
		out.MetaTitle = MetaTitle(in.Title, in.Keyword)
		changed = changed || out.MetaTitle != in.MetaTitle
	}

	n := runeLen(in.MetaDescription)
	if !containsFold(in.MetaDescription, in.Keyword) || n < MinMetaDescription || n > MaxMetaDescription {
		source := in.MetaDescription
		if source == "" {
			source = markdown.Analyze([]byte(in.Content)).FirstParagraph
		}
		out.MetaDescription = MetaDescription(source, in.Keyword)
		changed = changed || out.MetaDescription != in.MetaDescription
	}

	if in.Title == "" {
		return out, changed
	}
	if h, ok := markdown.Analyze([]byte(in.Content)).H1(); !ok || (!containsFold(h.Text, in.Keyword) && containsFold(in.Title, in.Keyword)) {
		if content, err := markdown.ReplaceH1(in.Content, in.Title); err == nil && content != in.Content {
			out.Content = content
			changed = true
		}
	}

	return out, changed
}

func capitalize(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) == 0 {
		return ""
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
