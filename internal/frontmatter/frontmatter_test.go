package frontmatter

import (
	"errors"
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	fields, body, err := Split("# Title\n\nHello\n")
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, "# Title\n\nHello\n", body)
}

func TestSplit_YAMLFrontmatter(t *testing.T) {
	fields, body, err := Split("---\ntitle: Espresso\ndescription: Short\n---\n# Title\n")
	require.NoError(t, err)
	require.Equal(t, "Espresso", String(fields, "title"))
	require.Equal(t, "Short", String(fields, "description"))
	require.Equal(t, "", String(fields, "missing"))
	require.Equal(t, "# Title\n", body)
}

func TestSplit_CRLF(t *testing.T) {
	fields, body, err := Split("---\r\nkey: value\r\n---\r\n# Title\r\n")
	require.NoError(t, err)
	require.Equal(t, "value", String(fields, "key"))
	require.Equal(t, "# Title\n", body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	fields, body, err := Split("---\n---\n# Title\n")
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, "# Title\n", body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, err := Split("---\nkey: value\n# Title\n")
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestRender_RoundTrip(t *testing.T) {
	fields := map[string]any{
		"title": "Espresso Machines",
		"tags":  []string{"coffee", "kitchen"},
		"seo":   map[string]any{"score": 80},
		"draft": false,
	}
	doc, err := Render(fields, "# Body\n")
	require.NoError(t, err)
	require.Equal(t, "---\ndraft: false\nseo:\n  score: 80\ntags:\n  - coffee\n  - kitchen\ntitle: Espresso Machines\n---\n# Body\n", doc)

	parsed, body, err := Split(doc)
	require.NoError(t, err)
	require.Equal(t, "# Body\n", body)
	require.Equal(t, "Espresso Machines", String(parsed, "title"))

	plain, err := Render(nil, "body")
	require.NoError(t, err)
	require.Equal(t, "body", plain)
}

func TestFingerprint(t *testing.T) {
	t.Run("ignores volatile keys", func(t *testing.T) {
		body := "hello\n"
		got, err := Fingerprint(map[string]any{
			"title":               "Test",
			mdfp.FingerprintField: "old",
			"lastmod":             "2026-01-01",
			"uid":                 "123",
			"date":                "2026-01-01",
		}, body)
		require.NoError(t, err)
		require.Equal(t, mdfp.CalculateFingerprintFromParts("title: Test", body), got)
	})

	t.Run("changes with content", func(t *testing.T) {
		a, err := Fingerprint(map[string]any{"title": "Test"}, "one")
		require.NoError(t, err)
		b, err := Fingerprint(map[string]any{"title": "Test"}, "two")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("empty fields hash the body only", func(t *testing.T) {
		got, err := Fingerprint(nil, "body")
		require.NoError(t, err)
		require.Equal(t, mdfp.CalculateFingerprintFromParts("", "body"), got)
	})
}
