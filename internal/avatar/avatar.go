// Package avatar validates user avatars and, when an object bucket is
// configured, moves inline images out of the database into the bucket.
package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/afina/roster/internal/apperr"
)

var (
	ErrInvalid  = apperr.Validation("Avatar must be an http(s) URL or a base64 data:image URI")
	ErrTooLarge = apperr.Validation("Avatar image is too large")
)

// DefaultMaxBytes bounds decoded inline images when no limit is configured.
const DefaultMaxBytes = 2 << 20

var extensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// Uploader stores avatar objects and maps them to public URLs.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL returns the object key behind a URL this uploader issued.
	KeyFromURL(rawURL string) (string, bool)
}

// Service normalizes avatar values before they are stored.
type Service struct {
	uploader Uploader
	maxBytes int64
}

// NewService creates an avatar service. A nil uploader keeps inline images in
// the database verbatim.
func NewService(uploader Uploader, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{uploader: uploader, maxBytes: maxBytes}
}

// Normalize validates raw and returns the value to store. Blank input clears
// the avatar. Inline images are uploaded when an uploader is configured.
func (s *Service) Normalize(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "data:") {
		return s.inline(ctx, raw)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalid
	}
	return raw, nil
}

func (s *Service) inline(ctx context.Context, raw string) (string, error) {
	contentType, data, err := decodeDataURI(raw)
	if err != nil {
		return "", err
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	if s.uploader == nil {
		return raw, nil
	}
	key := fmt.Sprintf("avatars/%s.%s", uuid.NewString(), extensions[contentType])
	location, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}
	return location, nil
}

// Release deletes the stored object behind previous, if this service put it
// there. Failures are logged and otherwise ignored.
func (s *Service) Release(ctx context.Context, previous string) {
	if s.uploader == nil || previous == "" {
		return
	}
	key, ok := s.uploader.KeyFromURL(previous)
	if !ok {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to delete avatar object", "key", key, "error", err)
	}
}

// decodeDataURI parses data:image/<type>;base64,<payload>.
func decodeDataURI(raw string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return "", nil, ErrInvalid
	}
	contentType, encoding, ok := strings.Cut(header, ";")
	if !ok || encoding != "base64" {
		return "", nil, ErrInvalid
	}
	contentType = strings.ToLower(contentType)
	if _, known := extensions[contentType]; !known {
		return "", nil, ErrInvalid
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalid
	}
	if len(data) == 0 {
		return "", nil, ErrInvalid
	}
	return contentType, data, nil
}
