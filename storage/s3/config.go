package s3

import "errors"

// Config holds S3 connection settings that are not part of a storage
// profile: static credentials and addressing style. When AccessKey and
// SecretKey are empty the AWS default credential chain is used.
type Config struct {
	// AccessKey is the AWS access key ID.
	AccessKey string `mapstructure:"access_key" json:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// SessionToken is an optional STS session token.
	SessionToken string `mapstructure:"session_token" json:"session_token"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	// Always enabled when a custom endpoint is configured.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`
}

// Validate checks that the connection configuration is consistent.
func (c *Config) Validate() error {
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("s3: access_key and secret_key must be set together")
	}
	return nil
}
