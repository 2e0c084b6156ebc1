package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		ChatModel:       "gpt-4o-mini",
		ModerationModel: "omni-moderation-latest",
	}, nil)
}

func TestOpenAIClient_Classify_Ok(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionBody(" Setup_Spec \n"))
	})

	res, err := client.Classify(context.Background(), "we need the hall measurements")
	require.NoError(t, err)
	tag, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, domain.DocumentTypeSetupSpec, tag)
}

func TestOpenAIClient_Classify_Malformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionBody("It sounds like a contract, probably."))
	})

	res, err := client.Classify(context.Background(), "hello")
	require.NoError(t, err)
	_, ok := res.Value()
	assert.False(t, ok)
	assert.Equal(t, "It sounds like a contract, probably.", res.Raw())
}

func TestOpenAIClient_Classify_Unavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestOpenAIClient_Extract_JSONMode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		format, ok := body["response_format"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "json_object", format["type"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionBody(`{"name":"Wedding of Ana","date":"12/05/2025","location":""}`))
	})

	res, err := client.Extract(context.Background(), "text", []FieldSpec{{Name: "name"}, {Name: "date"}}, false)
	require.NoError(t, err)
	rec, ok := res.Value()
	require.True(t, ok)
	assert.Equal(t, "Wedding of Ana", rec["name"])
	assert.Equal(t, "12/05/2025", rec["date"])
}

func TestOpenAIClient_Extract_Malformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionBody(`{"name": "Wedding`))
	})

	res, err := client.Extract(context.Background(), "text", []FieldSpec{{Name: "name"}}, true)
	require.NoError(t, err)
	_, ok := res.Value()
	assert.False(t, ok)
}

func TestOpenAIClient_Moderate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "modr-test",
			"model": "omni-moderation-latest",
			"results": []map[string]any{{
				"flagged": true,
				"categories": map[string]any{
					"violence":   true,
					"hate":       true,
					"sexual":     false,
					"harassment": false,
				},
				"category_scores": map[string]any{"violence": 0.9, "hate": 0.8},
			}},
		})
	})

	verdict, err := client.Moderate(context.Background(), "some text")
	require.NoError(t, err)
	assert.True(t, verdict.Flagged)
	assert.Equal(t, []string{"hate", "violence"}, verdict.Categories)
}

func TestOpenAIClient_Moderate_Unavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Moderate(context.Background(), "some text")
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}
