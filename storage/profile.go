package storage

import (
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/s3fs/errors"
)

// Auth modes for stored objects.
const (
	// AuthSigned keeps objects private; reads go through time-limited
	// signed URLs.
	AuthSigned = "signed"
	// AuthPublic stores objects publicly readable; URLs are stable and
	// unsigned, which aids browser caching.
	AuthPublic = "public"
)

// Default configuration values.
const (
	DefaultProvider      = "s3"
	DefaultRegion        = "us-east-1"
	DefaultMaxAgeSeconds = 60 * 60
	DefaultURLExpiry     = time.Hour
)

// Source yields a per-key header value: either a constant or a function of
// the key. The zero Source resolves to the empty string.
type Source struct {
	value string
	fn    func(key string) string
}

// Constant returns a Source that always yields v.
func Constant(v string) Source { return Source{value: v} }

// Computed returns a Source that derives the value from the key. The
// function is invoked lazily, exactly once per resolution, and never cached.
func Computed(fn func(key string) string) Source { return Source{fn: fn} }

// Resolve evaluates the source for the given key.
func (s Source) Resolve(key string) string {
	if s.fn != nil {
		return s.fn(key)
	}
	return s.value
}

// MetadataSource yields the custom metadata map for a key: either a
// constant map or a function of the key. The zero MetadataSource resolves
// to nil.
type MetadataSource struct {
	value map[string]string
	fn    func(key string) map[string]string
}

// ConstantMetadata returns a MetadataSource that always yields m.
func ConstantMetadata(m map[string]string) MetadataSource {
	return MetadataSource{value: m}
}

// ComputedMetadata returns a MetadataSource that derives the map from the key.
func ComputedMetadata(fn func(key string) map[string]string) MetadataSource {
	return MetadataSource{fn: fn}
}

// Resolve evaluates the source for the given key. The returned map is a
// copy; callers may mutate it freely.
func (s MetadataSource) Resolve(key string) map[string]string {
	var src map[string]string
	if s.fn != nil {
		src = s.fn(key)
	} else {
		src = s.value
	}
	if src == nil {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Profile is the immutable configuration bundle one engine instance is
// parameterized by. Construct it once at startup, validate it, and pass it
// by reference into every engine call; the engines never mutate it.
type Profile struct {
	// Name identifies the profile in logs and reports (e.g. "files", "static").
	Name string `mapstructure:"name" json:"name"`

	// Provider selects the storage backend. Defaults to "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Bucket is the bucket objects are stored in.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the store region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// KeyPrefix is prepended to every normalized key.
	KeyPrefix string `mapstructure:"key_prefix" json:"key_prefix"`

	// Auth is the access mode: AuthSigned or AuthPublic.
	Auth string `mapstructure:"auth" json:"auth"`

	// URLExpiry is the lifetime of signed URLs.
	URLExpiry time.Duration `mapstructure:"url_expiry" json:"url_expiry"`

	// MaxAgeSeconds feeds the Cache-Control max-age directive.
	MaxAgeSeconds int `mapstructure:"max_age_seconds" json:"max_age_seconds"`

	// PublicURLBase replaces the default endpoint when building public
	// URLs (e.g. a CDN hostname in front of the bucket).
	PublicURLBase string `mapstructure:"public_url_base" json:"public_url_base"`

	// AllowPublicBaseWithAuth permits combining AuthSigned with
	// PublicURLBase. Unusual: the public base wins for URL construction
	// while uploads remain private. Off by default.
	AllowPublicBaseWithAuth bool `mapstructure:"allow_public_base_with_auth" json:"allow_public_base_with_auth"`

	// Gzip enables the compress-before-store decision for text-like
	// content types.
	Gzip bool `mapstructure:"gzip" json:"gzip"`

	// Overwrite permits replacing an existing object on save. When false,
	// Save picks a distinct key by appending a disambiguating suffix.
	Overwrite bool `mapstructure:"overwrite" json:"overwrite"`

	// StorageClass is the redundancy class for new objects (e.g.
	// "STANDARD", "REDUCED_REDUNDANCY"). Empty uses the store default.
	StorageClass string `mapstructure:"storage_class" json:"storage_class"`

	// Encrypt is the server-side encryption algorithm for new objects
	// (e.g. "AES256"). Empty disables encryption headers.
	Encrypt string `mapstructure:"encrypt" json:"encrypt"`

	// ContentDisposition, ContentLanguage and Metadata are header sources
	// resolved per key on every write.
	ContentDisposition Source         `mapstructure:"-" json:"-"`
	ContentLanguage    Source         `mapstructure:"-" json:"-"`
	Metadata           MetadataSource `mapstructure:"-" json:"-"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (p *Profile) ApplyDefaults() {
	if p.Provider == "" {
		p.Provider = DefaultProvider
	}
	if p.Region == "" {
		p.Region = DefaultRegion
	}
	if p.Auth == "" {
		p.Auth = AuthSigned
	}
	if p.MaxAgeSeconds <= 0 {
		p.MaxAgeSeconds = DefaultMaxAgeSeconds
	}
	if p.URLExpiry <= 0 && p.Auth == AuthSigned {
		p.URLExpiry = DefaultURLExpiry
	}
}

// Validate checks that the profile is internally consistent.
func (p *Profile) Validate() error {
	var errs []error
	if p.Bucket == "" {
		errs = append(errs, errors.New("storage: bucket is required"))
	}
	if p.Auth != AuthSigned && p.Auth != AuthPublic {
		errs = append(errs, fmt.Errorf("storage: auth must be %q or %q (got: %q)", AuthSigned, AuthPublic, p.Auth))
	}
	if p.Auth == AuthSigned && p.URLExpiry <= 0 {
		errs = append(errs, errors.New("storage: signed auth requires a positive url_expiry"))
	}
	if p.Auth == AuthSigned && p.PublicURLBase != "" && !p.AllowPublicBaseWithAuth {
		errs = append(errs, errors.New("storage: public_url_base with signed auth requires allow_public_base_with_auth"))
	}
	if len(errs) > 0 {
		return apperrors.Configuration(errors.Join(errs...).Error())
	}
	return nil
}

// Key normalizes an input path and prepends the profile's key prefix.
func (p *Profile) Key(path string) (string, error) {
	key, err := NormalizeKey(path)
	if err != nil {
		return "", err
	}
	return JoinPrefix(p.KeyPrefix, key), nil
}

// Signed reports whether the profile stores objects privately.
func (p *Profile) Signed() bool { return p.Auth == AuthSigned }
