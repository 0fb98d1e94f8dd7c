package models

import "slices"

// SERPResult is one organic search result.
type SERPResult struct {
	Position  int      `json:"position"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Domain    string   `json:"domain"`
	Snippet   string   `json:"snippet,omitempty"`
	Headings  []string `json:"headings,omitempty"`
	WordCount int      `json:"word_count,omitempty"`
}

// SERPAnalysis is the output of the serp_analysis stage.
type SERPAnalysis struct {
	Keyword          string       `json:"keyword"`
	Location         string       `json:"location"`
	Device           SERPDevice   `json:"device"`
	Results          []SERPResult `json:"results"`
	RelatedQuestions []string     `json:"related_questions,omitempty"`
	CommonHeadings   []string     `json:"common_headings,omitempty"`
	AverageWordCount int          `json:"average_word_count"`
}

// OutlineSection is one planned section of the article.
type OutlineSection struct {
	Heading string   `json:"heading" yaml:"heading"`
	Level   int      `json:"level,omitempty" yaml:"level,omitempty"`
	Points  []string `json:"points,omitempty" yaml:"points,omitempty"`
}

// Draft is the output of the draft_generation stage.
type Draft struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"content"`
	Excerpt         string `json:"excerpt,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	WordCount       int    `json:"word_count"`
}

// Persistable reports whether the draft carries the identifying fields needed to create an article.
func (d *Draft) Persistable() bool {
	return d != nil && d.Title != "" && d.Slug != "" && d.Content != ""
}

// InternalLink suggests a link to another article of the same tenant.
type InternalLink struct {
	ArticleID  string  `json:"article_id"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	AnchorText string  `json:"anchor_text"`
	Relevance  float64 `json:"relevance"`
}

// ExternalLink is an outbound link opportunity.
type ExternalLink struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Domain     string `json:"domain"`
	AnchorText string `json:"anchor_text"`
	Authority  bool   `json:"authority"`
}

// ImageKind distinguishes the featured image from inline images.
type ImageKind string

const (
	ImageFeatured ImageKind = "featured"
	ImageInline   ImageKind = "inline"
)

// GeneratedImage is one image produced by the image_generation stage.
type GeneratedImage struct {
	Kind    ImageKind  `json:"kind"`
	URL     string     `json:"url"`
	Prompt  string     `json:"prompt"`
	AltText string     `json:"alt_text"`
	Style   ImageStyle `json:"style"`
}

// SEOCheck is one scored heuristic.
type SEOCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
	Detail string `json:"detail,omitempty"`
}

// SEOAnalysis is the output of the seo_scoring stage.
type SEOAnalysis struct {
	Score           int        `json:"score"`
	Checks          []SEOCheck `json:"checks"`
	Recommendations []string   `json:"recommendations,omitempty"`
	KeywordDensity  float64    `json:"keyword_density"`
	Optimized       bool       `json:"optimized"`
}

// PipelineData accumulates stage outputs across a run. Stages return an updated
// copy; sections already set are only overwritten by the stage that owns them.
type PipelineData struct {
	SERP          *SERPAnalysis    `json:"serp,omitempty"`
	Outline       []OutlineSection `json:"outline,omitempty"`
	Draft         *Draft           `json:"draft,omitempty"`
	EntityID      string           `json:"entity_id,omitempty"`
	InternalLinks []InternalLink   `json:"internal_links,omitempty"`
	ExternalLinks []ExternalLink   `json:"external_links,omitempty"`
	Images        []GeneratedImage `json:"images,omitempty"`
	SEO           *SEOAnalysis     `json:"seo,omitempty"`
	Fingerprint   string           `json:"fingerprint,omitempty"`
	Notes         []string         `json:"notes,omitempty"`
}

// Clone returns a deep copy so a stage can never mutate the caller's value through shared slices.
func (d PipelineData) Clone() PipelineData {
	out := d
	if d.SERP != nil {
		s := *d.SERP
		s.Results = make([]SERPResult, len(d.SERP.Results))
		for i, r := range d.SERP.Results {
			r.Headings = slices.Clone(r.Headings)
			s.Results[i] = r
		}
		s.RelatedQuestions = slices.Clone(d.SERP.RelatedQuestions)
		s.CommonHeadings = slices.Clone(d.SERP.CommonHeadings)
		out.SERP = &s
	}
	out.Outline = CloneOutline(d.Outline)
	if d.Draft != nil {
		dr := *d.Draft
		out.Draft = &dr
	}
	out.InternalLinks = slices.Clone(d.InternalLinks)
	out.ExternalLinks = slices.Clone(d.ExternalLinks)
	out.Images = slices.Clone(d.Images)
	if d.SEO != nil {
		seo := *d.SEO
		seo.Checks = slices.Clone(d.SEO.Checks)
		seo.Recommendations = slices.Clone(d.SEO.Recommendations)
		out.SEO = &seo
	}
	out.Notes = slices.Clone(d.Notes)
	return out
}

// WithNote returns d with an appended run note.
func (d PipelineData) WithNote(note string) PipelineData {
	d.Notes = append(slices.Clone(d.Notes), note)
	return d
}

// FeaturedImage returns the featured image, if one was generated.
func (d PipelineData) FeaturedImage() (GeneratedImage, bool) {
	for _, img := range d.Images {
		if img.Kind == ImageFeatured {
			return img, true
		}
	}
	return GeneratedImage{}, false
}

// CloneOutline deep-copies an outline.
func CloneOutline(in []OutlineSection) []OutlineSection {
	if in == nil {
		return nil
	}
	out := make([]OutlineSection, len(in))
	for i, s := range in {
		s.Points = slices.Clone(s.Points)
		out[i] = s
	}
	return out
}
