package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/test-model")
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "dica: guarde 20% do faturamento"}}}}},
		})
	}))
	defer srv.Close()

	client := &GeminiClient{apiKey: "secret", model: "test-model", baseURL: srv.URL, http: srv.Client()}

	text, err := client.Generate(context.Background(), "analise")
	require.NoError(t, err)
	assert.Equal(t, "dica: guarde 20% do faturamento", text)
}

func TestGeminiGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &GeminiClient{apiKey: "secret", model: "test-model", baseURL: srv.URL, http: srv.Client()}

	_, err := client.Generate(context.Background(), "analise")
	assert.ErrorContains(t, err, "status=429")
}

func TestGenerateInsightsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := &GeminiClient{apiKey: "secret", model: "test-model", baseURL: srv.URL, http: srv.Client()}

	// Provider failure yields an empty tip, not an error surface.
	h := NewHandler(nil, zerolog.Nop(), nil, nil, client)
	assert.Equal(t, "", h.generateInsights(context.Background(), "analise"))

	// Unconfigured provider behaves the same.
	h = NewHandler(nil, zerolog.Nop(), nil, nil, nil)
	assert.Equal(t, "", h.generateInsights(context.Background(), "analise"))
}

func TestStripeCreateAccountAndLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())

		switch r.URL.Path {
		case "/accounts":
			assert.Equal(t, "express", r.PostForm.Get("type"))
			json.NewEncoder(w).Encode(map[string]string{"id": "acct_123"})
		case "/account_links":
			assert.Equal(t, "acct_123", r.PostForm.Get("account"))
			assert.Equal(t, "account_onboarding", r.PostForm.Get("type"))
			json.NewEncoder(w).Encode(map[string]string{"url": "https://connect.stripe.com/setup/x"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := &StripeClient{
		secretKey: "sk_test",
		baseURL:   srv.URL,
		http:      &http.Client{Timeout: 5 * time.Second},
	}

	acct, err := client.CreateAccount(context.Background(), "pro@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", acct)

	link, err := client.CreateAccountLink(context.Background(), acct)
	require.NoError(t, err)
	assert.Contains(t, link, "connect.stripe.com")
}
