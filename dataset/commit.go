package dataset

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/hupe1980/vectab/blobstore"
)

// ErrCommitConflict is returned when another writer committed the same
// version first. The losing writer may re-read the latest version and
// retry.
var ErrCommitConflict = errors.New("commit conflict: version already committed")

// CommitStore records which manifest version is current for a dataset.
// It is the single point of write coordination in the engine: fragment
// and manifest objects are immutable, so only the version pointer needs
// first-writer-wins semantics.
type CommitStore interface {
	// Latest returns the highest committed version and its manifest path,
	// or (0, "", nil) when the dataset does not exist.
	Latest(ctx context.Context, uri string) (uint64, string, error)

	// Commit records version -> manifestPath. It fails with
	// ErrCommitConflict if the version was already committed.
	Commit(ctx context.Context, uri string, version uint64, manifestPath string) error

	// Reset removes all commit records for uri.
	Reset(ctx context.Context, uri string) error
}

// BlobCommitStore keeps commit records as objects in the same blobstore
// as the data, under `<uri>/_commits/`.
//
// The existence check before Put is not atomic on object stores without
// compare-and-swap (plain S3); concurrent writers racing on the same
// version can both succeed there. Use DDBCommitStore when that matters.
// Local and MinIO single-writer setups are fine with this store.
type BlobCommitStore struct {
	store blobstore.Store
}

// NewBlobCommitStore creates a CommitStore backed by the given object
// store.
func NewBlobCommitStore(store blobstore.Store) *BlobCommitStore {
	return &BlobCommitStore{store: store}
}

func commitPrefix(uri string) string {
	return uri + "/_commits/"
}

func commitKey(uri string, version uint64) string {
	return fmt.Sprintf("%s%020d", commitPrefix(uri), version)
}

// Latest returns the highest committed version and its manifest path.
func (s *BlobCommitStore) Latest(ctx context.Context, uri string) (uint64, string, error) {
	names, err := s.store.List(ctx, commitPrefix(uri))
	if err != nil {
		return 0, "", err
	}
	if len(names) == 0 {
		return 0, "", nil
	}
	// List is sorted and versions are zero-padded, so the last entry is
	// the newest.
	latest := names[len(names)-1]
	version, err := strconv.ParseUint(strings.TrimLeft(path.Base(latest), "0"), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("dataset: malformed commit record %q: %w", latest, err)
	}
	manifestPath, err := s.store.Get(ctx, latest)
	if err != nil {
		return 0, "", err
	}
	return version, string(manifestPath), nil
}

// Commit records version -> manifestPath.
func (s *BlobCommitStore) Commit(ctx context.Context, uri string, version uint64, manifestPath string) error {
	key := commitKey(uri, version)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s version %d", ErrCommitConflict, uri, version)
	}
	return s.store.Put(ctx, key, []byte(manifestPath))
}

// Reset removes all commit records for uri.
func (s *BlobCommitStore) Reset(ctx context.Context, uri string) error {
	names, err := s.store.List(ctx, commitPrefix(uri))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
