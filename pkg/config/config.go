// Package config loads typed configuration structs from the environment,
// optionally seeding the environment from a .env file first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Option customizes a single load.
type Option func(*loader)

type loader struct {
	envFile string
}

// WithEnvFile exports the given file into the environment before processing.
// The file must exist; use the default ".env" probing when it may not.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = strings.TrimSpace(path)
	}
}

// MustNew is New for main-path wiring that cannot continue without config.
func MustNew[T any](prefix string, opts ...Option) *T {
	conf, err := New[T](prefix, opts...)
	if err != nil {
		panic(err)
	}
	return conf
}

// New populates a T from environment variables with the given prefix. Without
// WithEnvFile, a ".env" in the working directory is exported when present.
func New[T any](prefix string, opts ...Option) (*T, error) {
	var l loader
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}

	if l.envFile != "" {
		if err := exportEnvironment(l.envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for key, value := range v.AllSettings() {
		if err := os.Setenv(strings.ToUpper(key), fmt.Sprint(value)); err != nil {
			return err
		}
	}
	return nil
}
