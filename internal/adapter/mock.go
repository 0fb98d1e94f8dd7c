package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// MockText returns deterministic responses for local runs and tests.
type MockText struct {
	mu    sync.Mutex
	calls []TextRequest

	// Respond overrides the built-in canned output when set.
	Respond func(req TextRequest) (string, error)
	// Err is returned for every call when set.
	Err error
}

// NewMockText creates a mock text generator with canned outline and draft output.
func NewMockText() *MockText { return &MockText{} }

// Name returns the adapter identifier.
func (m *MockText) Name() string { return "mock" }

// GenerateText records the request and returns the canned response.
func (m *MockText) GenerateText(ctx context.Context, req TextRequest) (TextResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return TextResponse{}, err
	}
	if m.Err != nil {
		return TextResponse{}, m.Err
	}
	if m.Respond != nil {
		text, err := m.Respond(req)
		if err != nil {
			return TextResponse{}, err
		}
		return TextResponse{Text: text, Provider: m.Name(), Model: "mock-1"}, nil
	}

	var text string
	switch req.Purpose {
	case PurposeOutline:
		text = mockOutline(req.Subject)
	case PurposeDraft:
		text = mockDraft(req.Subject)
	default:
		text = "mock response:\n" + req.Prompt
	}
	return TextResponse{Text: text, Provider: m.Name(), Model: "mock-1"}, nil
}

// Calls returns a copy of the recorded requests.
func (m *MockText) Calls() []TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TextRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func mockOutline(subject string) string {
	type section struct {
		Heading string   `json:"heading"`
		Points  []string `json:"points"`
	}
	sections := []section{
		{Heading: "What Are " + titleCase(subject) + "?", Points: []string{"definition", "who they are for"}},
		{Heading: "How to Choose " + titleCase(subject), Points: []string{"budget", "features"}},
		{Heading: "Top Picks", Points: []string{"comparison"}},
		{Heading: "Maintenance Tips", Points: []string{"cleaning", "longevity"}},
		{Heading: "Common Mistakes", Points: []string{"pitfalls"}},
		{Heading: "Conclusion", Points: []string{"summary"}},
	}
	out, _ := json.Marshal(sections)
	return string(out)
}

func mockDraft(subject string) string {
	title := titleCase(subject)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: The Complete Guide\n\n", title)
	fmt.Fprintf(&b, "Choosing %s can feel overwhelming. This guide explains what matters about %s and how to decide.\n\n", subject, subject)
	for _, h := range []string{"How to Choose " + title, "Top Picks", "Maintenance Tips", "Conclusion"} {
		fmt.Fprintf(&b, "## %s\n\n", h)
		fmt.Fprintf(&b, "When evaluating %s, compare build quality, price and long-term cost. ", subject)
		b.WriteString("Read reviews, check warranty terms and think about how often you will use it.\n\n")
	}
	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// MockImages returns placeholder image URLs.
type MockImages struct {
	mu    sync.Mutex
	calls []ImageRequest

	// Err is returned for every call when set.
	Err error
}

// NewMockImages creates a mock image generator.
func NewMockImages() *MockImages { return &MockImages{} }

// Name returns the adapter identifier.
func (m *MockImages) Name() string { return "mock" }

// GenerateImage records the request and returns a deterministic URL.
func (m *MockImages) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := len(m.calls)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ImageResponse{}, err
	}
	if m.Err != nil {
		return ImageResponse{}, m.Err
	}
	return ImageResponse{URL: fmt.Sprintf("https://images.example.invalid/%d.png", n), RevisedPrompt: req.Prompt}, nil
}

// Calls returns a copy of the recorded requests.
func (m *MockImages) Calls() []ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ImageRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
