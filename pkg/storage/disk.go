// Package storage is the file store that report archives are written to.
//
// STORAGE_DISK picks the driver: "local" (the default) writes under a
// directory, "s3" writes to any S3-compatible bucket.
//
//	disk, err := storage.New()
//	err = disk.Put(ctx, "reports/7/20260101T000000Z.html", html, "text/html")
//	url := disk.URL("reports/7/20260101T000000Z.html")
package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockroom/config"
)

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parents as needed.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Get returns the content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// Files lists every file under directory, recursively.
	Files(ctx context.Context, directory string) ([]string, error)

	// URL returns the public URL for path.
	URL(path string) string
}

// New returns the disk named by STORAGE_DISK.
func New() (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocal(config.StorageLocalRoot(), config.StorageURL()), nil
	case "s3":
		return NewS3(context.Background(), S3FromConfig())
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}
