package storage

import (
	"fmt"

	"github.com/kbukum/s3fs/logger"
)

// Factory creates a Storage implementation for one profile. Each provider
// package registers its factory (typically in an init function) to make
// itself available to the New constructor.
type Factory func(profile *Profile, log *logger.Logger) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a storage backend factory for the given
// provider name.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Storage implementation for the given profile. The profile's
// Provider field determines which backend is used. Ensure the desired
// provider package has been imported (e.g.
// _ "github.com/kbukum/s3fs/storage/s3") so its factory is registered.
func New(profile *Profile, log *logger.Logger) (Storage, error) {
	profile.ApplyDefaults()
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	f, ok := factories[profile.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", profile.Provider)
	}

	if log == nil {
		log = logger.Nop()
	}
	l := log.WithComponent("storage")
	l.Info("initializing storage", map[string]interface{}{
		logger.FieldProvider: profile.Provider,
		logger.FieldProfile:  profile.Name,
		logger.FieldBucket:   profile.Bucket,
	})
	return f(profile, l)
}
