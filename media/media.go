// Package media uploads article feature images to an object store and
// returns their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotConfigured is returned by uploads when no object store credentials are set.
	ErrNotConfigured = errors.New("media: object store not configured")

	// ErrTooLarge is returned when an uploaded file exceeds the size limit.
	ErrTooLarge = errors.New("media: file too large")
)

// Backend names accepted in Config.Backend.
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Object is a file ready to be uploaded.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store uploads objects and returns the URL they are served from.
type Store interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

// Config holds object store settings. It is built once at start-up and
// passed to New; nothing in this package reads the environment.
type Config struct {
	Backend   string // "s3" (default) or "local"
	Bucket    string // OBJECT_STORE_BUCKET
	AccessKey string // OBJECT_STORE_ACCESS_KEY
	Secret    string // OBJECT_STORE_SECRET
	Region    string // OBJECT_STORE_REGION (default "us-east-1")
	Endpoint  string // OBJECT_STORE_ENDPOINT for S3-compatible services
	PublicURL string // OBJECT_STORE_PUBLIC_URL, base for returned URLs

	LocalDir       string // directory for the local backend
	LocalURLPrefix string // URL prefix the local directory is served under
}

// Configured reports whether all three S3 credentials are present.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.Secret != ""
}

// New returns the Store selected by cfg. A missing S3 credential yields
// Unconfigured, whose uploads always fail with ErrNotConfigured.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStore(cfg.LocalDir, cfg.LocalURLPrefix), nil
	case "", BackendS3:
		if !cfg.Configured() {
			return Unconfigured{}, nil
		}
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("media: unknown backend %q", cfg.Backend)
	}
}

// Unconfigured is the Store used when credentials are absent.
type Unconfigured struct{}

// Upload always fails with ErrNotConfigured.
func (Unconfigured) Upload(context.Context, Object) (string, error) {
	return "", ErrNotConfigured
}

// ReadFile reads an uploaded multipart file into memory, rejecting files
// larger than max bytes.
func ReadFile(fh *multipart.FileHeader, max int64) (Object, error) {
	if fh.Size > max {
		return Object{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, fh.Size, max)
	}
	f, err := fh.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return Object{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, max)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return Object{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

// ObjectKey returns a collision-free key for name under the articles/ prefix.
// The original file extension is kept.
func ObjectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return "articles/" + uuid.NewString() + ext
}
