package models

import (
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/foundation/normalization"
)

// SERPDevice selects the search result layout the SERP provider emulates.
type SERPDevice string

const (
	DeviceDesktop SERPDevice = "desktop"
	DeviceMobile  SERPDevice = "mobile"
)

// Tone is the writing register requested from the text generator.
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneCasual         Tone = "casual"
	ToneFriendly       Tone = "friendly"
	ToneAuthoritative  Tone = "authoritative"
	ToneConversational Tone = "conversational"
	ToneTechnical      Tone = "technical"
)

// ImageStyle is the visual style requested from the image generator.
type ImageStyle string

const (
	ImageRealistic    ImageStyle = "realistic"
	ImageIllustration ImageStyle = "illustration"
	ImageMinimalist   ImageStyle = "minimalist"
	ImageAbstract     ImageStyle = "abstract"
	ImagePhotographic ImageStyle = "photographic"
)

var (
	deviceNormalizer = normalization.NewNormalizer("serp_device", map[string]SERPDevice{
		"desktop": DeviceDesktop,
		"mobile":  DeviceMobile,
	}, DeviceDesktop)

	toneNormalizer = normalization.NewNormalizer("tone", map[string]Tone{
		"professional":   ToneProfessional,
		"casual":         ToneCasual,
		"friendly":       ToneFriendly,
		"authoritative":  ToneAuthoritative,
		"conversational": ToneConversational,
		"technical":      ToneTechnical,
	}, ToneProfessional)

	imageStyleNormalizer = normalization.NewNormalizer("image_style", map[string]ImageStyle{
		"realistic":    ImageRealistic,
		"illustration": ImageIllustration,
		"minimalist":   ImageMinimalist,
		"abstract":     ImageAbstract,
		"photographic": ImagePhotographic,
	}, ImageRealistic)
)

// Numeric bounds applied during resolution.
const (
	MinOutlineSections  = 1
	MaxOutlineSections  = 20
	MinTargetWordCount  = 300
	MaxTargetWordCount  = 10000
	MaxLinks            = 20
	MaxInlineImageCount = 10
)

// PipelineOptions is the fully-resolved option set every stage reads.
type PipelineOptions struct {
	SkipSERPAnalysis bool       `json:"skip_serp_analysis" yaml:"skip_serp_analysis"`
	SERPLocation     string     `json:"serp_location" yaml:"serp_location"`
	SERPDevice       SERPDevice `json:"serp_device" yaml:"serp_device"`

	SkipOutlineGeneration bool `json:"skip_outline_generation" yaml:"skip_outline_generation"`
	OutlineSections       int  `json:"outline_sections" yaml:"outline_sections"`

	SkipDraftGeneration bool `json:"skip_draft_generation" yaml:"skip_draft_generation"`
	Tone                Tone `json:"tone" yaml:"tone"`
	TargetWordCount     int  `json:"target_word_count" yaml:"target_word_count"`

	SkipInternalLinking bool `json:"skip_internal_linking" yaml:"skip_internal_linking"`
	MaxInternalLinks    int  `json:"max_internal_links" yaml:"max_internal_links"`

	SkipExternalLinking     bool `json:"skip_external_linking" yaml:"skip_external_linking"`
	MaxExternalLinks        int  `json:"max_external_links" yaml:"max_external_links"`
	IncludeAuthoritySources bool `json:"include_authority_sources" yaml:"include_authority_sources"`

	SkipImageGeneration   bool       `json:"skip_image_generation" yaml:"skip_image_generation"`
	GenerateFeaturedImage bool       `json:"generate_featured_image" yaml:"generate_featured_image"`
	GenerateInlineImages  bool       `json:"generate_inline_images" yaml:"generate_inline_images"`
	InlineImageCount      int        `json:"inline_image_count" yaml:"inline_image_count"`
	ImageStyle            ImageStyle `json:"image_style" yaml:"image_style"`

	SkipSEOScoring  bool `json:"skip_seo_scoring" yaml:"skip_seo_scoring"`
	AutoOptimizeSEO bool `json:"auto_optimize_seo" yaml:"auto_optimize_seo"`

	SaveIntermediateResults bool `json:"save_intermediate_results" yaml:"save_intermediate_results"`
}

// DefaultOptions returns the documented default option table.
func DefaultOptions() PipelineOptions {
	return PipelineOptions{
		SkipSERPAnalysis:        false,
		SERPLocation:            "United States",
		SERPDevice:              DeviceDesktop,
		SkipOutlineGeneration:   false,
		OutlineSections:         6,
		SkipDraftGeneration:     false,
		Tone:                    ToneProfessional,
		TargetWordCount:         1500,
		SkipInternalLinking:     false,
		MaxInternalLinks:        5,
		SkipExternalLinking:     false,
		MaxExternalLinks:        5,
		IncludeAuthoritySources: true,
		SkipImageGeneration:     false,
		GenerateFeaturedImage:   true,
		GenerateInlineImages:    false,
		InlineImageCount:        3,
		ImageStyle:              ImageRealistic,
		SkipSEOScoring:          false,
		AutoOptimizeSEO:         false,
		SaveIntermediateResults: true,
	}
}

// PartialOptions is a caller-supplied subset of PipelineOptions. Nil fields
// leave the underlying value untouched.
type PartialOptions struct {
	SkipSERPAnalysis        *bool   `json:"skip_serp_analysis,omitempty" yaml:"skip_serp_analysis,omitempty"`
	SERPLocation            *string `json:"serp_location,omitempty" yaml:"serp_location,omitempty"`
	SERPDevice              *string `json:"serp_device,omitempty" yaml:"serp_device,omitempty"`
	SkipOutlineGeneration   *bool   `json:"skip_outline_generation,omitempty" yaml:"skip_outline_generation,omitempty"`
	OutlineSections         *int    `json:"outline_sections,omitempty" yaml:"outline_sections,omitempty"`
	SkipDraftGeneration     *bool   `json:"skip_draft_generation,omitempty" yaml:"skip_draft_generation,omitempty"`
	Tone                    *string `json:"tone,omitempty" yaml:"tone,omitempty"`
	TargetWordCount         *int    `json:"target_word_count,omitempty" yaml:"target_word_count,omitempty"`
	SkipInternalLinking     *bool   `json:"skip_internal_linking,omitempty" yaml:"skip_internal_linking,omitempty"`
	MaxInternalLinks        *int    `json:"max_internal_links,omitempty" yaml:"max_internal_links,omitempty"`
	SkipExternalLinking     *bool   `json:"skip_external_linking,omitempty" yaml:"skip_external_linking,omitempty"`
	MaxExternalLinks        *int    `json:"max_external_links,omitempty" yaml:"max_external_links,omitempty"`
	IncludeAuthoritySources *bool   `json:"include_authority_sources,omitempty" yaml:"include_authority_sources,omitempty"`
	SkipImageGeneration     *bool   `json:"skip_image_generation,omitempty" yaml:"skip_image_generation,omitempty"`
	GenerateFeaturedImage   *bool   `json:"generate_featured_image,omitempty" yaml:"generate_featured_image,omitempty"`
	GenerateInlineImages    *bool   `json:"generate_inline_images,omitempty" yaml:"generate_inline_images,omitempty"`
	InlineImageCount        *int    `json:"inline_image_count,omitempty" yaml:"inline_image_count,omitempty"`
	ImageStyle              *string `json:"image_style,omitempty" yaml:"image_style,omitempty"`
	SkipSEOScoring          *bool   `json:"skip_seo_scoring,omitempty" yaml:"skip_seo_scoring,omitempty"`
	AutoOptimizeSEO         *bool   `json:"auto_optimize_seo,omitempty" yaml:"auto_optimize_seo,omitempty"`
	SaveIntermediateResults *bool   `json:"save_intermediate_results,omitempty" yaml:"save_intermediate_results,omitempty"`
}

// ApplyTo overlays the set fields of p onto o. Enum values are normalized;
// an unrecognised enum value yields a validation error and leaves o unchanged for that field.
func (p *PartialOptions) ApplyTo(o *PipelineOptions) error {
	if p == nil || o == nil {
		return nil
	}
	setBool(&o.SkipSERPAnalysis, p.SkipSERPAnalysis)
	setString(&o.SERPLocation, p.SERPLocation)
	setBool(&o.SkipOutlineGeneration, p.SkipOutlineGeneration)
	setInt(&o.OutlineSections, p.OutlineSections)
	setBool(&o.SkipDraftGeneration, p.SkipDraftGeneration)
	setInt(&o.TargetWordCount, p.TargetWordCount)
	setBool(&o.SkipInternalLinking, p.SkipInternalLinking)
	setInt(&o.MaxInternalLinks, p.MaxInternalLinks)
	setBool(&o.SkipExternalLinking, p.SkipExternalLinking)
	setInt(&o.MaxExternalLinks, p.MaxExternalLinks)
	setBool(&o.IncludeAuthoritySources, p.IncludeAuthoritySources)
	setBool(&o.SkipImageGeneration, p.SkipImageGeneration)
	setBool(&o.GenerateFeaturedImage, p.GenerateFeaturedImage)
	setBool(&o.GenerateInlineImages, p.GenerateInlineImages)
	setInt(&o.InlineImageCount, p.InlineImageCount)
	setBool(&o.SkipSEOScoring, p.SkipSEOScoring)
	setBool(&o.AutoOptimizeSEO, p.AutoOptimizeSEO)
	setBool(&o.SaveIntermediateResults, p.SaveIntermediateResults)

	if p.SERPDevice != nil {
		v, err := deviceNormalizer.NormalizeWithError(*p.SERPDevice)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid pipeline option").
				WithContext("option", "serp_device").Build()
		}
		o.SERPDevice = v
	}
	if p.Tone != nil {
		v, err := toneNormalizer.NormalizeWithError(*p.Tone)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid pipeline option").
				WithContext("option", "tone").Build()
		}
		o.Tone = v
	}
	if p.ImageStyle != nil {
		v, err := imageStyleNormalizer.NormalizeWithError(*p.ImageStyle)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid pipeline option").
				WithContext("option", "image_style").Build()
		}
		o.ImageStyle = v
	}
	return nil
}

// ResolveOptions layers each partial over DefaultOptions in order (later wins)
// and clamps numeric options into their supported bounds.
func ResolveOptions(layers ...*PartialOptions) (PipelineOptions, error) {
	o := DefaultOptions()
	for _, layer := range layers {
		if err := layer.ApplyTo(&o); err != nil {
			return DefaultOptions(), err
		}
	}
	o.clamp()
	return o, nil
}

func (o *PipelineOptions) clamp() {
	o.OutlineSections = clampInt(o.OutlineSections, MinOutlineSections, MaxOutlineSections)
	o.TargetWordCount = clampInt(o.TargetWordCount, MinTargetWordCount, MaxTargetWordCount)
	o.MaxInternalLinks = clampInt(o.MaxInternalLinks, 0, MaxLinks)
	o.MaxExternalLinks = clampInt(o.MaxExternalLinks, 0, MaxLinks)
	o.InlineImageCount = clampInt(o.InlineImageCount, 0, MaxInlineImageCount)
	if o.SERPLocation == "" {
		o.SERPLocation = DefaultOptions().SERPLocation
	}
}

// WantsImages reports whether any image output is requested.
func (o PipelineOptions) WantsImages() bool {
	return o.GenerateFeaturedImage || (o.GenerateInlineImages && o.InlineImageCount > 0)
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
