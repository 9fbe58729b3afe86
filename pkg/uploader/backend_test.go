package uploader_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/pkg/uploader"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("simulated", func(t *testing.T) {
		t.Parallel()
		b, err := uploader.New(context.Background(), uploader.Config{Backend: uploader.BackendSimulated})
		require.NoError(t, err)
		assert.IsType(t, &uploader.Simulated{}, b)
	})

	t.Run("local", func(t *testing.T) {
		t.Parallel()
		b, err := uploader.New(context.Background(), uploader.Config{
			Backend:  uploader.BackendLocal,
			LocalDir: filepath.Join(t.TempDir(), "uploads"),
		})
		require.NoError(t, err)
		assert.IsType(t, &uploader.LocalUploader{}, b)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		t.Parallel()
		_, err := uploader.New(context.Background(), uploader.Config{
			Backend: uploader.BackendS3,
			S3:      uploader.S3Config{Region: "eu-west-1"},
		})
		require.ErrorIs(t, err, uploader.ErrInvalidConfig)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, err := uploader.New(context.Background(), uploader.Config{Backend: "ftp"})
		require.ErrorIs(t, err, uploader.ErrUnknownBackend)
	})
}

func TestConfigDefaults(t *testing.T) {
	var cfg uploader.Config
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, uploader.BackendSimulated, cfg.Backend)
	assert.Equal(t, "./data/spool", cfg.SpoolDir)
	assert.Equal(t, int64(100<<20), cfg.MaxFileSize)
	assert.InDelta(t, 0.2, cfg.FailureRate, 1e-9)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestConfigS3FromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("STORAGE_S3_BUCKET", "media")
	t.Setenv("STORAGE_S3_FORCE_PATH_STYLE", "true")

	var cfg uploader.Config
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, uploader.BackendS3, cfg.Backend)
	assert.Equal(t, "media", cfg.S3.Bucket)
	assert.True(t, cfg.S3.ForcePathStyle)
}

func TestDefaultKey(t *testing.T) {
	t.Parallel()

	a := uploader.DefaultKey(uploader.NewBytesPayload("a.txt", nil))
	b := uploader.DefaultKey(uploader.NewBytesPayload("a.txt", nil))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "/a.txt"))
}
