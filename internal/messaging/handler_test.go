package messaging

import (
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/storage"
)

func TestSignedFileURLSignsObjectPaths(t *testing.T) {
	store := storage.New(t.TempDir(), "http://localhost:8080/files", []byte("secret"))
	h := NewHandler(nil, zerolog.Nop(), nil, nil, store)

	ref := "deadbeef.zip"
	got := h.signedFileURL(&ref)
	require.NotNil(t, got)

	u, err := url.Parse(*got)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/order-deliveries/deadbeef.zip"))

	// The produced exp/sig pair must be accepted by the file endpoint's check.
	assert.NoError(t, store.Verify(storage.BucketOrderDeliveries, ref,
		u.Query().Get("exp"), u.Query().Get("sig")))
}

func TestSignedFileURLPassesThroughAbsoluteAndNil(t *testing.T) {
	store := storage.New(t.TempDir(), "http://x/files", []byte("k"))
	h := NewHandler(nil, zerolog.Nop(), nil, nil, store)

	abs := "https://cdn.example.com/files/company-assets/logo.png"
	got := h.signedFileURL(&abs)
	require.NotNil(t, got)
	assert.Equal(t, abs, *got)

	assert.Nil(t, h.signedFileURL(nil))
}
