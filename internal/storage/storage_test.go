package storage

import (
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	s := New(t.TempDir(), "http://localhost:8080/files", []byte("k"))

	obj, pub, err := s.Save(BucketPortfolio, "logo.png", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(obj, ".png"))
	assert.Equal(t, "http://localhost:8080/files/portfolio/"+obj, pub)

	r, err := s.Open(BucketPortfolio, obj)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestSaveRejectsUnknownBucket(t *testing.T) {
	s := New(t.TempDir(), "http://x", []byte("k"))
	_, _, err := s.Save("not-a-bucket", "f.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestOpenRejectsTraversal(t *testing.T) {
	s := New(t.TempDir(), "http://x", []byte("k"))
	_, err := s.Open(BucketOrderDeliveries, "../../etc/passwd")
	assert.Error(t, err)
}

func TestSignedURLVerify(t *testing.T) {
	s := New(t.TempDir(), "http://x/files", []byte("secret"))
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	signed, err := s.SignedURL(BucketOrderDeliveries, "final.zip", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	exp := u.Query().Get("exp")
	sig := u.Query().Get("sig")

	assert.NoError(t, s.Verify(BucketOrderDeliveries, "final.zip", exp, sig))

	// Tampered path fails.
	assert.ErrorIs(t, s.Verify(BucketOrderDeliveries, "other.zip", exp, sig), ErrBadSignature)

	// Expired link fails.
	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.ErrorIs(t, s.Verify(BucketOrderDeliveries, "final.zip", exp, sig), ErrBadSignature)
}
