package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures a single Load call.
type Option func(*options)

type options struct {
	prefix      string
	envFiles    []string
	requireFile bool
	environment map[string]string
}

// WithPrefix prepends prefix to every variable name of the struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvFiles reads the given files instead of the default ".env".
// Unlike the default, missing files are reported as errors.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = files
		o.requireFile = true
	}
}

// WithEnvironment replaces the process environment as the variable source.
// No .env files are read. Intended for tests.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environment = vars }
}

// Load parses the environment into a new T.
func Load[T any](opts ...Option) (T, error) {
	var cfg T

	o := &options{envFiles: []string{".env"}}
	for _, opt := range opts {
		opt(o)
	}

	envOpts := env.Options{Prefix: o.prefix}

	if o.environment != nil {
		envOpts.Environment = o.environment
	} else {
		for _, file := range o.envFiles {
			// godotenv.Load never overrides variables that are already set
			if err := godotenv.Load(file); err != nil {
				if o.requireFile || !errors.Is(err, os.ErrNotExist) {
					return cfg, errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", file, err))
				}
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	return cfg, nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Meant for startup code where a missing variable should stop the process.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
