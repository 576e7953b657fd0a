package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/kbukum/s3fs/errors"
	"github.com/kbukum/s3fs/logger"
	"github.com/kbukum/s3fs/storage"
	"github.com/kbukum/s3fs/storage/s3"
)

// Config is the full application configuration: logging, the store
// connection, and the named storage profiles a deployment exposes
// (typically "files" for user uploads and "static" for assets).
type Config struct {
	Logging  logger.Config               `yaml:"logging" mapstructure:"logging"`
	S3       s3.Config                   `yaml:"s3" mapstructure:"s3"`
	Profiles map[string]*storage.Profile `yaml:"profiles" mapstructure:"profiles"`
}

// ApplyDefaults applies default values to all sections. Each profile
// inherits its map key as its name unless set explicitly.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	for name, profile := range c.Profiles {
		if profile == nil {
			continue
		}
		if profile.Name == "" {
			profile.Name = name
		}
		profile.ApplyDefaults()
	}
}

// Validate validates all sections, collecting every problem rather than
// stopping at the first.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.S3.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Profiles) == 0 {
		errs = append(errs, errors.New("config: at least one profile is required"))
	}
	for name, profile := range c.Profiles {
		if profile == nil {
			errs = append(errs, fmt.Errorf("config: profile %q is empty", name))
			continue
		}
		if err := profile.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return apperrors.Configuration(errors.Join(errs...).Error())
	}
	return nil
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (*storage.Profile, error) {
	if profile, ok := c.Profiles[name]; ok && profile != nil {
		return profile, nil
	}
	return nil, apperrors.Configuration(
		fmt.Sprintf("unknown profile %q (configured: %s)", name, strings.Join(c.ProfileNames(), ", ")))
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
