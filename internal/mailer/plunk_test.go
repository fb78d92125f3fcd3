package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
)

func TestPlunkClientDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewPlunkClient(config.MailConfig{}))
}

func TestPlunkClientSend(t *testing.T) {
	var got plunkSendBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewPlunkClient(config.MailConfig{
		PlunkAPIKey: "sk_test",
		From:        "no-reply@example.com",
		APIURL:      srv.URL,
	})
	require.NotNil(t, client)

	err := client.Send(context.Background(), "ana@example.com", "Bem-vindo!", "Olá Ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.To)
	assert.Equal(t, "Bem-vindo!", got.Subject)
	assert.Equal(t, "no-reply@example.com", got.From)
}

func TestPlunkClientSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewPlunkClient(config.MailConfig{PlunkAPIKey: "bad", APIURL: srv.URL})
	err := client.Send(context.Background(), "ana@example.com", "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}
