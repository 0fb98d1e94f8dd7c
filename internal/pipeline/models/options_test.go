package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultOptionsTable(t *testing.T) {
	raw, err := json.Marshal(DefaultOptions())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]any{
		"skip_serp_analysis":        false,
		"serp_location":             "United States",
		"serp_device":               "desktop",
		"skip_outline_generation":   false,
		"outline_sections":          float64(6),
		"skip_draft_generation":     false,
		"tone":                      "professional",
		"target_word_count":         float64(1500),
		"skip_internal_linking":     false,
		"max_internal_links":        float64(5),
		"skip_external_linking":     false,
		"max_external_links":        float64(5),
		"include_authority_sources": true,
		"skip_image_generation":     false,
		"generate_featured_image":   true,
		"generate_inline_images":    false,
		"inline_image_count":        float64(3),
		"image_style":               "realistic",
		"skip_seo_scoring":          false,
		"auto_optimize_seo":         false,
		"save_intermediate_results": true,
	}, got)
}

func TestResolveOptionsEmptyEqualsDefaults(t *testing.T) {
	for _, layers := range [][]*PartialOptions{nil, {nil}, {{}}, {{}, nil, {}}} {
		got, err := ResolveOptions(layers...)
		require.NoError(t, err)
		assert.Equal(t, DefaultOptions(), got)
	}
}

func TestResolveOptionsLayering(t *testing.T) {
	base := &PartialOptions{Tone: ptr("casual"), TargetWordCount: ptr(900), SkipSEOScoring: ptr(true)}
	req := &PartialOptions{TargetWordCount: ptr(2000), SkipSEOScoring: ptr(false), SERPDevice: ptr(" Mobile ")}

	got, err := ResolveOptions(base, req)
	require.NoError(t, err)

	want := DefaultOptions()
	want.Tone = ToneCasual
	want.TargetWordCount = 2000
	want.SERPDevice = DeviceMobile
	assert.Equal(t, want, got)
}

func TestResolveOptionsClampsNumbers(t *testing.T) {
	got, err := ResolveOptions(&PartialOptions{
		OutlineSections:  ptr(0),
		TargetWordCount:  ptr(50_000),
		MaxInternalLinks: ptr(-3),
		MaxExternalLinks: ptr(99),
		InlineImageCount: ptr(42),
		SERPLocation:     ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, MinOutlineSections, got.OutlineSections)
	assert.Equal(t, MaxTargetWordCount, got.TargetWordCount)
	assert.Equal(t, 0, got.MaxInternalLinks)
	assert.Equal(t, MaxLinks, got.MaxExternalLinks)
	assert.Equal(t, MaxInlineImageCount, got.InlineImageCount)
	assert.Equal(t, "United States", got.SERPLocation)
}

func TestResolveOptionsRejectsUnknownEnums(t *testing.T) {
	for name, p := range map[string]*PartialOptions{
		"serp_device": {SERPDevice: ptr("tablet")},
		"tone":        {Tone: ptr("sarcastic")},
		"image_style": {ImageStyle: ptr("cubist")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveOptions(p)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, name, ce.Context()["option"])
		})
	}
}

func TestWantsImages(t *testing.T) {
	o := DefaultOptions()
	assert.True(t, o.WantsImages())

	o.GenerateFeaturedImage = false
	assert.False(t, o.WantsImages())

	o.GenerateInlineImages = true
	assert.True(t, o.WantsImages())

	o.InlineImageCount = 0
	assert.False(t, o.WantsImages())
}

func TestPartialOptionsYAMLKeys(t *testing.T) {
	var p PartialOptions
	require.NoError(t, json.Unmarshal([]byte(`{"outline_sections": 3, "auto_optimize_seo": true}`), &p))
	got, err := ResolveOptions(&p)
	require.NoError(t, err)
	assert.Equal(t, 3, got.OutlineSections)
	assert.True(t, got.AutoOptimizeSEO)
}
