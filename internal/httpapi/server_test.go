package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/auth"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/config"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/metrics"
	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, store *storage.Store) *Server {
	t.Helper()
	var cfg config.Config
	cfg.Auth.JWTSecret = testSecret
	return New(cfg, zerolog.Nop(), nil, nil, metrics.New(), store, Handlers{})
}

func TestServeFileDeliveriesRequireSignature(t *testing.T) {
	store := storage.New(t.TempDir(), "/files", []byte("secret"))
	srv := newTestServer(t, store)

	obj, _, err := store.Save(storage.BucketOrderDeliveries, "final.zip", strings.NewReader("deliverable-bytes"))
	require.NoError(t, err)

	// A freshly signed link (what handlers hand out) downloads the object.
	signed, err := store.SignedURL(storage.BucketOrderDeliveries, obj, storage.DeliveryLinkTTL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, signed, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "deliverable-bytes", string(body))

	// The bare object URL is refused.
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/order-deliveries/"+obj, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeFilePublicBucketIsOpen(t *testing.T) {
	store := storage.New(t.TempDir(), "/files", []byte("secret"))
	srv := newTestServer(t, store)

	obj, pub, err := store.Save(storage.BucketPortfolio, "logo.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/files/portfolio/"+obj, pub)

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pub, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFavoritesRejectNonClientRoles(t *testing.T) {
	store := storage.New(t.TempDir(), "/files", []byte("k"))
	srv := newTestServer(t, store)

	token, err := auth.IssueToken([]byte(testSecret), "user-1", "company", time.Hour)
	require.NoError(t, err)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(method, "/favorites/co-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, method)
	}
}
