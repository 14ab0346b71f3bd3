package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/config"
	"lawnorm/internal/llm"
	"lawnorm/internal/llm/openai"
)

func newTestGenerator(serverURL string) *openai.Generator {
	cfg := &config.LLMProviderConfig{
		Provider:    "openai",
		APIKey:      "sk-test",
		TimeoutSecs: 30,
	}
	return openai.NewGeneratorWithEndpoint(cfg, serverURL)
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		format := reqBody["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": `{"b":2}`}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	g := newTestGenerator(server.URL)
	out, err := g.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, out)
	assert.Equal(t, "gpt-4o-mini", g.Model())
}

func TestGenerate_LengthIsTruncation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{"},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, llm.ErrTruncated)
}

func TestGenerate_RateLimitedWithoutHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "p")

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 60.0, rlErr.RetryAfter.Seconds())
}
