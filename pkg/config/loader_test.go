package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/pkg/config"
)

type testConfig struct {
	Name     string `env:"POLARIS_TEST_NAME" envDefault:"polaris"`
	Workers  int    `env:"POLARIS_TEST_WORKERS" envDefault:"3"`
	Required string `env:"POLARIS_TEST_REQUIRED,required"`
}

type otherConfig struct {
	Flag bool `env:"POLARIS_TEST_FLAG"`
}

type requiredOnly struct {
	Value string `env:"POLARIS_TEST_MISSING,required"`
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("parses values and defaults", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("POLARIS_TEST_REQUIRED", "yes")
		t.Setenv("POLARIS_TEST_WORKERS", "7")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "polaris", cfg.Name)
		assert.Equal(t, 7, cfg.Workers)
		assert.Equal(t, "yes", cfg.Required)
	})

	t.Run("serves cached value", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("POLARIS_TEST_REQUIRED", "first")

		var first testConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("POLARIS_TEST_REQUIRED", "second")
		var second testConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Required)

		var reloaded testConfig
		require.NoError(t, config.ForceReload(&reloaded))
		assert.Equal(t, "second", reloaded.Required)
	})

	t.Run("types are cached independently", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("POLARIS_TEST_REQUIRED", "x")
		t.Setenv("POLARIS_TEST_FLAG", "true")

		var a testConfig
		var b otherConfig
		require.NoError(t, config.Load(&a))
		require.NoError(t, config.Load(&b))
		assert.True(t, b.Flag)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.ResetCache()
		var cfg requiredOnly
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *testConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()
	assert.Panics(t, func() {
		var cfg requiredOnly
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("later files override earlier ones", func(t *testing.T) {
		t.Setenv("POLARIS_TEST_NAME", "")
		base := writeEnv(t, "POLARIS_TEST_NAME=base\nPOLARIS_TEST_REQUIRED=from-file\n")
		override := writeEnv(t, "POLARIS_TEST_NAME=override\n")

		require.NoError(t, config.LoadEnv(base, override))
		assert.Equal(t, "override", os.Getenv("POLARIS_TEST_NAME"))
		assert.Equal(t, "from-file", os.Getenv("POLARIS_TEST_REQUIRED"))
		os.Unsetenv("POLARIS_TEST_REQUIRED")
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv(filepath.Join(t.TempDir(), "nope.env"))
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
		assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(t.TempDir(), "nope.env")) })
	})
}
