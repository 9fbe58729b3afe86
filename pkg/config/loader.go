package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache keeps one parsed copy per configuration type.
type cache struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

var (
	globalCache = &cache{values: make(map[reflect.Type]any)}

	defaultEnvOnce sync.Once
)

// Load parses environment variables into v using `env` struct tags.
//
// The default .env file in the working directory is read once per process if it
// exists; variables already set in the environment win. Each configuration type
// is parsed once and served from cache afterwards.
//
// Example:
//
//	type UploadConfig struct {
//		MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" envDefault:"3"`
//	}
//
//	var cfg UploadConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvOnce.Do(func() {
		// A missing .env file is fine
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	globalCache.mu.RLock()
	cached, ok := globalCache.values[key]
	globalCache.mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	// Another goroutine may have parsed it while we waited for the write lock
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	globalCache.values[key] = parsed
	*v = parsed

	return nil
}

// MustLoad works like Load but panics on failure. Meant for startup code.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ForceReload drops the cached value of T and parses the environment again.
func ForceReload[T any](v *T) error {
	globalCache.mu.Lock()
	delete(globalCache.values, typeKey[T]())
	globalCache.mu.Unlock()

	return Load(v)
}

// LoadEnv reads the given .env files into the process environment, later files
// overriding earlier ones. Without arguments it reads .env from the working directory.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
		for k, val := range vars {
			if err := os.Setenv(k, val); err != nil {
				return errors.Join(ErrLoadingEnvFile, err)
			}
		}
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// ResetCache forgets every parsed configuration. Intended for tests.
func ResetCache() {
	globalCache.mu.Lock()
	clear(globalCache.values)
	globalCache.mu.Unlock()
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
