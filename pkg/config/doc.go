// Package config loads typed application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - Load parses the environment into any struct annotated with `env` tags,
//     reading the default .env file once per process first.
//   - Each configuration type is parsed once and cached; ForceReload and
//     ResetCache exist for tests.
//   - LoadEnv reads explicit .env files, later files overriding earlier ones.
//   - MustLoad and MustLoadEnv panic on failure for use in main.
//
// # Usage
//
//	var cfg uploadqueue.Config
//	config.MustLoad(&cfg)
//
// # Error Handling
//
// Failures wrap ErrParsingConfig, ErrLoadingEnvFile or ErrNilPointer and can be
// checked with errors.Is.
package config
