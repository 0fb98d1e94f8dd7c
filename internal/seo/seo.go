// Package seo scores article drafts against on-page SEO heuristics.
//
// Drafts are rendered to HTML with goldmark and inspected as HTML so the
// checks see the same structure a crawler would.
package seo

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/markdown"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

const (
	MaxMetaTitle       = 60
	MinMetaDescription = 120
	MaxMetaDescription = 160

	minDensity = 0.5
	maxDensity = 2.5
)

// Input is the draft material to score.
type Input struct {
	Keyword         string
	Title           string
	MetaTitle       string
	MetaDescription string
	Content         string
	TargetWordCount int
	// SuggestedLinks counts link suggestions not yet present in Content.
	SuggestedLinks int
}

// page is what the checks read from the rendered HTML.
type page struct {
	h1             []string
	subheadings    []string
	firstParagraph string
	links          int
	images         int
	imagesNoAlt    int
	words          []string
}

type check struct {
	name   string
	max    int
	advice string
	eval   func(in Input, p page, kw string) (bool, string)
}

var checks = []check{
	{"keyword_in_title", 15, "Include the focus keyword in the article title.",
		func(in Input, _ page, kw string) (bool, string) { return containsFold(in.Title, kw), "" }},
	{"keyword_in_meta_title", 10, "Include the focus keyword in the meta title.",
		func(in Input, _ page, kw string) (bool, string) { return containsFold(in.MetaTitle, kw), "" }},
	{"meta_title_length", 5, fmt.Sprintf("Keep the meta title between 1 and %d characters.", MaxMetaTitle),
		func(in Input, _ page, _ string) (bool, string) {
			n := runeLen(in.MetaTitle)
			return n > 0 && n <= MaxMetaTitle, fmt.Sprintf("%d characters", n)
		}},
	{"keyword_in_meta_description", 10, "Include the focus keyword in the meta description.",
		func(in Input, _ page, kw string) (bool, string) { return containsFold(in.MetaDescription, kw), "" }},
	{"meta_description_length", 5, fmt.Sprintf("Write a meta description of %d to %d characters.", MinMetaDescription, MaxMetaDescription),
		func(in Input, _ page, _ string) (bool, string) {
			n := runeLen(in.MetaDescription)
			return n >= MinMetaDescription && n <= MaxMetaDescription, fmt.Sprintf("%d characters", n)
		}},
	{"keyword_in_first_paragraph", 10, "Mention the focus keyword in the first paragraph.",
		func(_ Input, p page, kw string) (bool, string) { return containsFold(p.firstParagraph, kw), "" }},
	{"keyword_in_subheading", 10, "Use the focus keyword in at least one subheading.",
		func(_ Input, p page, kw string) (bool, string) {
			for _, h := range p.subheadings {
				if containsFold(h, kw) {
					return true, ""
				}
			}
			return false, ""
		}},
	{"keyword_density", 10, fmt.Sprintf("Aim for a keyword density between %.1f%% and %.1f%%.", minDensity, maxDensity),
		func(_ Input, p page, kw string) (bool, string) {
			d := density(p.words, kw)
			return d >= minDensity && d <= maxDensity, fmt.Sprintf("%.2f%%", d)
		}},
	{"word_count", 10, "Expand the article towards the target word count.",
		func(in Input, p page, _ string) (bool, string) {
			n := len(p.words)
			return in.TargetWordCount <= 0 || n*10 >= in.TargetWordCount*8, fmt.Sprintf("%d of %d words", n, in.TargetWordCount)
		}},
	{"heading_structure", 5, "Use exactly one H1 and at least two subheadings.",
		func(_ Input, p page, _ string) (bool, string) {
			return len(p.h1) == 1 && len(p.subheadings) >= 2, fmt.Sprintf("%d h1, %d subheadings", len(p.h1), len(p.subheadings))
		}},
	{"links", 5, "Add internal or external links.",
		func(in Input, p page, _ string) (bool, string) {
			return p.links+in.SuggestedLinks > 0, fmt.Sprintf("%d in content, %d suggested", p.links, in.SuggestedLinks)
		}},
	{"image_alt_text", 5, "Give every image descriptive alt text.",
		func(_ Input, p page, _ string) (bool, string) {
			return p.imagesNoAlt == 0, fmt.Sprintf("%d of %d images missing alt text", p.imagesNoAlt, p.images)
		}},
}

// Analyze scores in. The score is the sum of points of the passed checks and
// ranges from 0 to 100.
func Analyze(in Input) (models.SEOAnalysis, error) {
	rendered, err := markdown.Render([]byte(in.Content))
	if err != nil {
		return models.SEOAnalysis{}, ferrors.InternalError("render draft").WithCause(err).Build()
	}
	p, err := inspect(rendered)
	if err != nil {
		return models.SEOAnalysis{}, err
	}

	kw := strings.TrimSpace(in.Keyword)
	out := models.SEOAnalysis{
		Checks:         make([]models.SEOCheck, 0, len(checks)),
		KeywordDensity: density(p.words, kw),
	}
	for _, c := range checks {
		passed, detail := c.eval(in, p, kw)
		sc := models.SEOCheck{Name: c.name, Passed: passed, Max: c.max, Detail: detail}
		if passed {
			sc.Points = c.max
			out.Score += c.max
		} else {
			out.Recommendations = append(out.Recommendations, c.advice)
		}
		out.Checks = append(out.Checks, sc)
	}
	return out, nil
}

func inspect(rendered string) (page, error) {
	doc, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return page{}, ferrors.WrapError(err, ferrors.CategoryValidation, "failed to parse rendered HTML").Build()
	}

	var p page
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1":
				p.h1 = append(p.h1, textOf(n))
			case "h2", "h3":
				p.subheadings = append(p.subheadings, textOf(n))
			case "p":
				if p.firstParagraph == "" {
					p.firstParagraph = textOf(n)
				}
			case "a":
				if attr(n, "href") != "" {
					p.links++
				}
			case "img":
				p.images++
				if strings.TrimSpace(attr(n, "alt")) == "" {
					p.imagesNoAlt++
				}
			case "pre":
				return
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.words = tokenize(text.String())
	return p, nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// density is the share of words, in percent, taken up by keyword phrase occurrences.
func density(words []string, keyword string) float64 {
	kw := tokenize(keyword)
	if len(kw) == 0 || len(words) < len(kw) {
		return 0
	}
	hits := 0
	for i := 0; i+len(kw) <= len(words); i++ {
		match := true
		for j, w := range kw {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			hits++
		}
	}
	d := float64(hits*len(kw)) / float64(len(words)) * 100
	return math.Round(d*100) / 100
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func runeLen(s string) int { return len([]rune(s)) }
