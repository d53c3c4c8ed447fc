// Package blobstore abstracts the object storage under the dataset
// engine. Fragments and manifests are small immutable objects that are
// always read and written whole, so the interface is Get/Put rather than
// random access.
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for accessing immutable data objects.
// Object names use forward slashes regardless of platform.
type Store interface {
	// Get reads the full content of an object.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes an object, replacing any existing content atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all objects with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object is present.
	Exists(ctx context.Context, name string) (bool, error)
}
