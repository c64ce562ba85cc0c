package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

var (
	ErrNotConfigured   = errors.New("image storage not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore keeps portfolio and chat images and hands back public URLs.
type ImageStore interface {
	Enabled() bool
	Upload(ownerID int64, kind string, data []byte) (string, error)
	Delete(publicURL string) error
}

type SupabaseStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewSupabaseStore(cfg config.StorageConfig) *SupabaseStore {
	baseURL := strings.TrimRight(cfg.SupabaseURL, "/")
	if baseURL == "" || cfg.ServiceKey == "" {
		return &SupabaseStore{bucket: cfg.Bucket}
	}
	return &SupabaseStore{
		client:  storage.NewClient(baseURL+"/storage/v1", cfg.ServiceKey, nil),
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}
}

func (s *SupabaseStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Upload sniffs the content type, stores the bytes under users/{owner}/{kind}/ and returns the public URL.
func (s *SupabaseStore) Upload(ownerID int64, kind string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	storagePath := ObjectPath(ownerID, kind, uuid.NewString()+ext)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return s.PublicURL(storagePath), nil
}

func (s *SupabaseStore) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *SupabaseStore) Delete(publicURL string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return fmt.Errorf("url is not in bucket %s", s.bucket)
	}
	_, err := s.client.RemoveFile(s.bucket, []string{strings.TrimPrefix(publicURL, prefix)})
	return err
}

func ObjectPath(ownerID int64, kind, name string) string {
	return path.Join("users", fmt.Sprint(ownerID), kind, name)
}

var _ ImageStore = (*SupabaseStore)(nil)
