package storage

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/magpress/media-center/internal/config"
)

// Provider identifies a storage backend.
type Provider string

const (
	Local  Provider = "local"
	S3     Provider = "s3"
	Memory Provider = "memory"
)

// Storage defines the interface for storage providers
type Storage interface {
	Upload(reader io.Reader, filename string) (string, error)
	UploadBytes(data []byte, filename string) (string, error)
	Download(path string) (io.ReadCloser, error)
	Delete(path string) error
	GetPublicURL(path string) string
	GetPresignedURL(path string, expiration time.Duration) (string, error)
}

// AccessVerifier is implemented by providers whose files are served through
// the application server and need the presigned token checked per request.
// Providers without it (e.g. S3, which presigns its own URLs) never serve
// private files through the application.
type AccessVerifier interface {
	VerifyAccessToken(path, exp, sig string) error
}

var (
	provider Storage
	once     sync.Once
	initErr  error
)

// Initialize builds the configured provider. Safe to call more than once; only
// the first call takes effect.
func Initialize(cfg *config.Config) error {
	once.Do(func() {
		provider, initErr = New(cfg)
	})
	return initErr
}

// GetProvider returns the configured storage provider, or nil before Initialize.
func GetProvider() Storage {
	return provider
}

// New creates a storage provider from configuration.
func New(cfg *config.Config) (Storage, error) {
	switch Provider(cfg.Storage.Provider) {
	case S3:
		return NewS3Storage(cfg.Storage.S3)
	case Local:
		return NewLocalStorage(cfg.Storage.Local.Path, cfg.Server.PublicURL, cfg.Storage.SigningSecret)
	case Memory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}
