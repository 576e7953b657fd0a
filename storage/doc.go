// Package storage exposes an object store through a generic file-storage
// contract: open-for-read, save, delete, exists, directory listing, size,
// modified time and URL generation.
//
// The package itself is provider-agnostic. It defines the Storage contract,
// the Profile configuration bundle, key normalization, per-object metadata
// resolution and the compress-before-store decision. Backends register
// themselves through the factory:
//
//	import _ "github.com/kbukum/s3fs/storage/s3"
//
//	store, err := storage.New(profile, log)
//
// # Profiles
//
// A Profile bundles everything that varies between deployments of the same
// engine: bucket, key prefix, auth mode, cache max-age, gzip and overwrite
// policy, and the metadata sources. Two profiles typically exist per
// deployment (general files and static assets) but the engine is handed one
// Profile at a time and never reads ambient state.
package storage
