package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Bucket names mirror the blob containers the application writes to.
const (
	BucketPortfolio       = "portfolio"
	BucketCompanyAssets   = "company-assets"
	BucketOrderDeliveries = "order-deliveries"
)

// DeliveryLinkTTL bounds how long a signed order-delivery link stays
// valid; readers re-sign on every fetch.
const DeliveryLinkTTL = 24 * time.Hour

var ErrInvalidBucket = errors.New("storage: unknown bucket")
var ErrBadSignature = errors.New("storage: invalid or expired signature")

var buckets = map[string]bool{
	BucketPortfolio:       true,
	BucketCompanyAssets:   true,
	BucketOrderDeliveries: true,
}

// Store is a disk-backed, bucket-addressed blob store. Public buckets resolve
// to stable URLs; private objects are served through short-lived signed URLs.
type Store struct {
	root      string
	publicURL string
	signKey   []byte
	now       func() time.Time
}

func New(root, publicURL string, signKey []byte) *Store {
	return &Store{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		signKey:   signKey,
		now:       time.Now,
	}
}

// Save writes the object under a generated name and returns its object path
// (bucket-relative) and public URL.
func (s *Store) Save(bucket, filename string, r io.Reader) (objectPath, publicURL string, err error) {
	if !buckets[bucket] {
		return "", "", ErrInvalidBucket
	}

	ext := filepath.Ext(filename)
	name := uuid.New().String() + ext
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create bucket dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", "", fmt.Errorf("create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", "", fmt.Errorf("write object: %w", err)
	}

	return name, s.PublicURL(bucket, name), nil
}

// Open returns a reader for an existing object.
func (s *Store) Open(bucket, objectPath string) (io.ReadCloser, error) {
	if !buckets[bucket] {
		return nil, ErrInvalidBucket
	}
	clean := filepath.Clean(objectPath)
	if strings.Contains(clean, "..") {
		return nil, ErrInvalidBucket
	}
	return os.Open(filepath.Join(s.root, bucket, clean))
}

// PublicURL returns the stable URL for an object in a public bucket.
func (s *Store) PublicURL(bucket, objectPath string) string {
	return s.publicURL + "/" + path.Join(bucket, objectPath)
}

// SignedURL returns a URL valid for ttl, authenticated with an HMAC over
// bucket, object path and expiry.
func (s *Store) SignedURL(bucket, objectPath string, ttl time.Duration) (string, error) {
	if !buckets[bucket] {
		return "", ErrInvalidBucket
	}

	exp := s.now().Add(ttl).Unix()
	sig := s.sign(bucket, objectPath, exp)

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", sig)
	return s.PublicURL(bucket, objectPath) + "?" + q.Encode(), nil
}

// Verify checks a signed URL's exp/sig pair for the given object.
func (s *Store) Verify(bucket, objectPath, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrBadSignature
	}
	expected := s.sign(bucket, objectPath, exp)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

func (s *Store) sign(bucket, objectPath string, exp int64) string {
	mac := hmac.New(sha256.New, s.signKey)
	fmt.Fprintf(mac, "%s/%s:%d", bucket, objectPath, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
