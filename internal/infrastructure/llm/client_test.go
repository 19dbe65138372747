package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewConfig("test-key")
	cfg.Endpoint = server.URL + "/v1/"
	cfg.Timeout = 2 * time.Second
	client, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{"valid config", NewConfig("k"), nil},
		{"missing api key", &Config{Model: "m", Endpoint: "http://x"}, ErrConfigMissingAPIKey},
		{"missing model", &Config{APIKey: "k", Endpoint: "http://x"}, ErrConfigMissingModel},
		{"missing endpoint", &Config{APIKey: "k", Model: "m"}, ErrConfigInvalidEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.config.Validate(), tt.wantErr)
		})
	}
}

func TestClient_Recommend(t *testing.T) {
	t.Run("sends prompt and parses products", func(t *testing.T) {
		var got chatRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			reply(w, `{"products":[{"id":2,"name":"Product 2"},{"id":"5","name":"Product 5"}]}`)
		})

		recs, err := client.Recommend(context.Background(), "Product ID: 2", "something cheap")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, int64(2), recs[0].ID)
		assert.Equal(t, int64(5), recs[1].ID)
		assert.Equal(t, "Product 5", recs[1].Name)

		assert.Equal(t, DefaultModel, got.Model)
		assert.Equal(t, "json_object", got.ResponseFormat.Type)
		require.Len(t, got.Messages, 1)
		assert.Contains(t, got.Messages[0].Content, "Product ID: 2")
		assert.Contains(t, got.Messages[0].Content, "something cheap")
	})

	t.Run("accepts fenced output", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			reply(w, "```json\n{\"products\":[{\"id\":1,\"name\":\"A\"}]}\n```")
		})
		recs, err := client.Recommend(context.Background(), "", "x")
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("empty product list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			reply(w, `{"products":[]}`)
		})
		recs, err := client.Recommend(context.Background(), "", "x")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("non JSON output", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			reply(w, "I would suggest product 2")
		})
		_, err := client.Recommend(context.Background(), "", "x")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("HTTP error carries API message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
		})
		_, err := client.Recommend(context.Background(), "", "x")
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.ErrorContains(t, err, "bad key")
	})

	t.Run("no choices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})
		_, err := client.Recommend(context.Background(), "", "x")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		cfg := NewConfig("k")
		cfg.Endpoint = "http://127.0.0.1:1"
		client, err := NewClient(cfg, zap.NewNop())
		require.NoError(t, err)
		_, err = client.Recommend(context.Background(), "", "x")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
