package uploader

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// Backend names accepted in Config.Backend.
const (
	BackendS3        = "s3"
	BackendLocal     = "local"
	BackendSimulated = "simulated"
)

// Config selects and configures the storage backend.
type Config struct {
	Backend       string        `env:"STORAGE_BACKEND" envDefault:"simulated"`
	UploadTimeout time.Duration `env:"STORAGE_UPLOAD_TIMEOUT" envDefault:"0s"`
	LocalDir      string        `env:"STORAGE_LOCAL_DIR" envDefault:"./data/uploads"`
	SpoolDir      string        `env:"STORAGE_SPOOL_DIR" envDefault:"./data/spool"`
	MaxFileSize   int64         `env:"STORAGE_MAX_FILE_SIZE" envDefault:"104857600"`
	FailureRate   float64       `env:"STORAGE_SIMULATED_FAILURE_RATE" envDefault:"0.2"`
	S3            S3Config
}

// Backend is an uploader that can report whether its storage is reachable.
type Backend interface {
	uploadqueue.Uploader
	Healthcheck(ctx context.Context) error
}

// KeyFunc derives the storage key of a payload.
type KeyFunc func(p uploadqueue.Payload) string

// DefaultKey places each payload under a random directory so equal names never collide.
func DefaultKey(p uploadqueue.Payload) string {
	return uuid.NewString() + "/" + SanitizeFilename(p.Name())
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Uploader(ctx, cfg.S3, WithS3UploadTimeout(cfg.UploadTimeout))
	case BackendLocal:
		return NewLocalUploader(cfg.LocalDir, WithLocalUploadTimeout(cfg.UploadTimeout))
	case BackendSimulated, "":
		return NewSimulated(WithFailureRate(cfg.FailureRate)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
