package avatar

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}}
}

func (m *memUploader) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = b
	return "https://cdn.example.org/" + key, nil
}

func (m *memUploader) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *memUploader) KeyFromURL(rawURL string) (string, bool) {
	key, ok := strings.CutPrefix(rawURL, "https://cdn.example.org/")
	return key, ok
}

func dataURI(contentType string, payload []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestNormalize_WithoutUploader(t *testing.T) {
	svc := NewService(nil, 16)
	ctx := context.Background()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "blank clears", raw: "  ", want: ""},
		{name: "https url", raw: "https://img.example.org/a.png", want: "https://img.example.org/a.png"},
		{name: "inline kept verbatim", raw: dataURI("image/png", []byte("png")), want: dataURI("image/png", []byte("png"))},
		{name: "ftp url", raw: "ftp://example.org/a.png", wantErr: ErrInvalid},
		{name: "relative path", raw: "/a.png", wantErr: ErrInvalid},
		{name: "not an image", raw: dataURI("text/plain", []byte("hi")), wantErr: ErrInvalid},
		{name: "not base64", raw: "data:image/png,rawbytes", wantErr: ErrInvalid},
		{name: "bad payload", raw: "data:image/png;base64,***", wantErr: ErrInvalid},
		{name: "too large", raw: dataURI("image/png", make([]byte, 17)), wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Normalize(ctx, tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_UploadsInlineImages(t *testing.T) {
	up := newMemUploader()
	svc := NewService(up, 0)
	ctx := context.Background()

	got, err := svc.Normalize(ctx, dataURI("image/jpeg", []byte("jpeg-bytes")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "https://cdn.example.org/avatars/"))
	assert.True(t, strings.HasSuffix(got, ".jpg"))

	key, _ := up.KeyFromURL(got)
	assert.Equal(t, []byte("jpeg-bytes"), up.objects[key])

	up.failPut = true
	_, err = svc.Normalize(ctx, dataURI("image/png", []byte("x")))
	assert.Error(t, err)
}

func TestRelease(t *testing.T) {
	up := newMemUploader()
	svc := NewService(up, 0)
	ctx := context.Background()

	svc.Release(ctx, "https://elsewhere.org/a.png")
	svc.Release(ctx, "")
	assert.Empty(t, up.deleted)

	svc.Release(ctx, "https://cdn.example.org/avatars/x.png")
	assert.Equal(t, []string{"avatars/x.png"}, up.deleted)
}

func TestS3Uploader_URLs(t *testing.T) {
	u := &S3Uploader{bucket: "b", publicBaseURL: "https://cdn.example.org"}

	assert.Equal(t, "https://cdn.example.org/avatars/a.png", u.PublicURL("avatars/a.png"))

	key, ok := u.KeyFromURL("https://cdn.example.org/avatars/a.png")
	assert.True(t, ok)
	assert.Equal(t, "avatars/a.png", key)

	_, ok = u.KeyFromURL("https://other.org/avatars/a.png")
	assert.False(t, ok)
	_, ok = u.KeyFromURL("https://cdn.example.org/")
	assert.False(t, ok)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{PublicBaseURL: "https://cdn"})
	assert.Error(t, err)
}
