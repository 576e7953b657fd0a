package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional overrides for Load.
type LoaderConfig struct {
	FileSystem FileSystem
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// envOverrides maps well-known environment variables onto config keys.
// The standard AWS variables win over the YAML file so deployments can
// keep credentials out of it.
var envOverrides = map[string]string{
	"AWS_ACCESS_KEY_ID":     "s3.access_key",
	"AWS_SECRET_ACCESS_KEY": "s3.secret_key",
	"AWS_SESSION_TOKEN":     "s3.session_token",
}

// Load reads the YAML config file, applies .env and environment variable
// overrides, fills defaults and validates. ${VAR} references inside the
// file are expanded from the environment after the .env file is loaded.
func Load(configFile string, opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	if envFile := resolveEnvFile(lc, configFile); envFile != "" {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return nil, fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	}

	raw, err := lc.FileSystem.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", configFile, err)
	}
	expanded := os.ExpandEnv(string(raw))

	v := viper.New()
	v.SetConfigType(configType(configFile))
	if err := v.ReadConfig(bytes.NewReader([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", configFile, err)
	}

	for env, key := range envOverrides {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", configFile, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveEnvFile returns the explicit env file, or searches for .env next
// to the config file and in the working directory.
func resolveEnvFile(lc LoaderConfig, configFile string) string {
	if lc.EnvFile != "" {
		return lc.EnvFile
	}
	candidates := []string{
		filepath.Join(filepath.Dir(configFile), ".env"),
		".env",
	}
	for _, path := range candidates {
		if lc.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

func configType(configFile string) string {
	ext := strings.TrimPrefix(filepath.Ext(configFile), ".")
	if ext == "" {
		return "yaml"
	}
	if ext == "yml" {
		return "yaml"
	}
	return ext
}
