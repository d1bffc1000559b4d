// Package storage keeps uploaded images on local disk or in Google Cloud Storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go-pos-backoffice/internal/config"

	gcs "cloud.google.com/go/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	MaxUploadSize = 5 << 20
	maxImageSide  = 800
)

var (
	ErrTooLarge       = errors.New("file size exceeds 5MB limit")
	ErrNotAnImage     = errors.New("file is not a supported image (jpeg, png, gif)")
	allowedImageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true}
)

// Uploader stores an object and returns the URL it is served from.
type Uploader interface {
	Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// New picks the backend from STORAGE_PROVIDER.
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	if cfg.StorageProvider == config.StorageProviderGCS {
		return NewGCS(ctx, cfg.GCSBucket)
	}
	return &Local{Dir: cfg.UploadDir, BaseURL: "/uploads"}, nil
}

// Local writes under Dir, which the router serves at BaseURL.
type Local struct {
	Dir     string
	BaseURL string
}

func (l *Local) Save(_ context.Context, objectName string, data []byte, _ string) (string, error) {
	dest := filepath.Join(l.Dir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return path.Join(l.BaseURL, objectName), nil
}

type GCS struct {
	client *gcs.Client
	bucket string
}

// NewGCS prefers ADC; GCS_CREDENTIALS_JSON overrides it for local runs.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	var opts []option.ClientOption
	if credJSON := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_JSON")); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("upload %s to gcs: %w", objectName, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName returns a collision-free key under dir.
func ObjectName(dir string) string {
	return path.Join(dir, uuid.New().String()+".jpg")
}

// PrepareImage checks that data is an image and re-encodes it as a JPEG
// no larger than 800px on its longest side.
func PrepareImage(data []byte) ([]byte, error) {
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	if !allowedImageTypes[http.DetectContentType(data)] {
		return nil, ErrNotAnImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrNotAnImage
	}
	img = fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxImageSide && b.Dy() <= maxImageSide {
		return img
	}
	return imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
}
