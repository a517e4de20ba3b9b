// Package archive persists terminal monitoring results to cold storage,
// either the local filesystem or an S3-compatible object store.
package archive

import (
	"context"
	"fmt"

	"github.com/harlowe/vigil/internal/config"
	"github.com/harlowe/vigil/internal/core"
)

// Storage is the cold-storage backend boundary.
type Storage interface {
	// Write stores data at the given path, replacing any previous object.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves the data stored at the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all stored paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at the given path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is stored at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// NewFromConfig builds the storage backend selected by the archive
// configuration.
func NewFromConfig(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", cfg.Type))
	}
}
