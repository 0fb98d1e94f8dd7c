package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/articleforge/internal/config"
	ferrors "git.home.luguber.info/inful/articleforge/internal/foundation/errors"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rate limit", &ProviderError{Provider: "x", Status: http.StatusTooManyRequests}, true},
		{"server error", &ProviderError{Provider: "x", Status: http.StatusBadGateway}, true},
		{"bad request", &ProviderError{Provider: "x", Status: http.StatusBadRequest}, false},
		{"temporary flag", &ProviderError{Provider: "x", Temporary: true}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestWrapProviderErrorClassifies(t *testing.T) {
	err := wrapProviderError("mock", ErrEmptyResponse)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, ferrors.CategoryProvider, ferrors.GetCategory(err))

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "mock", pe.Provider)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.RetryNever, ce.RetryStrategy())
}

func chatCompletionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		assert.Equal(t, "gpt-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		resp := map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAITextGenerate(t *testing.T) {
	srv := chatCompletionServer(t, http.StatusOK, "# Title\n\nBody")
	defer srv.Close()

	gen, err := NewOpenAIText("sk-test", "gpt-test", 5*time.Second, option.WithBaseURL(srv.URL+"/v1/"))
	require.NoError(t, err)

	resp, err := gen.GenerateText(t.Context(), TextRequest{System: "s", Prompt: "p", MaxTokens: 100, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody", resp.Text)
	assert.Equal(t, "openai", resp.Provider)
}

func TestOpenAITextRateLimitIsTransient(t *testing.T) {
	srv := chatCompletionServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	gen, err := NewOpenAIText("sk-test", "gpt-test", 5*time.Second, option.WithBaseURL(srv.URL+"/v1/"))
	require.NoError(t, err)

	_, err = gen.GenerateText(t.Context(), TextRequest{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.RetryRateLimit, ce.RetryStrategy())
}

func TestAnthropicTextGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Hello "},{"type":"text","text":"world"}],
			"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":2}}`))
	}))
	defer srv.Close()

	gen, err := NewAnthropicText("key", "claude-test", 5*time.Second, anthropicoption.WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := gen.GenerateText(t.Context(), TextRequest{System: "sys", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Text)
}

func TestConstructorsRequireAPIKey(t *testing.T) {
	_, err := NewOpenAIText("", "m", 0)
	require.Error(t, err)
	_, err = NewOpenAIImages("", "m", 0)
	require.Error(t, err)
	_, err = NewAnthropicText("", "m", 0)
	require.Error(t, err)
	_, err = NewGoogleText(t.Context(), "", "m", 0)
	require.Error(t, err)
}

func TestMockTextCannedOutput(t *testing.T) {
	m := NewMockText()
	outline, err := m.GenerateText(t.Context(), TextRequest{Purpose: PurposeOutline, Subject: "espresso machines"})
	require.NoError(t, err)
	var sections []map[string]any
	require.NoError(t, json.Unmarshal([]byte(outline.Text), &sections))
	assert.Len(t, sections, 6)

	draft, err := m.GenerateText(t.Context(), TextRequest{Purpose: PurposeDraft, Subject: "espresso machines"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft.Text, "# Espresso Machines: The Complete Guide"))
	assert.Len(t, m.Calls(), 2)
}

func TestMockErrors(t *testing.T) {
	boom := errors.New("boom")
	m := &MockText{Err: boom}
	_, err := m.GenerateText(t.Context(), TextRequest{})
	assert.ErrorIs(t, err, boom)

	imgs := &MockImages{Err: boom}
	_, err = imgs.GenerateImage(t.Context(), ImageRequest{Prompt: "x"})
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = NewMockImages().GenerateImage(ctx, ImageRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFactory(t *testing.T) {
	gen, err := NewTextGenerator(t.Context(), config.TextProviderConfig{Provider: config.TextProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "mock", gen.Name())

	_, err = NewTextGenerator(t.Context(), config.TextProviderConfig{Provider: config.TextProviderOpenAI})
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))

	_, err = NewTextGenerator(t.Context(), config.TextProviderConfig{Provider: "llama"})
	require.Error(t, err)

	img, err := NewImageGenerator(config.ImageProviderConfig{Provider: config.ImageProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "mock", img.Name())

	img, err = NewImageGenerator(config.ImageProviderConfig{Provider: config.ImageProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", img.Name())
}
