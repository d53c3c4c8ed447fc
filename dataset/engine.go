package dataset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/fragment"
)

// EngineOptions configures a StoreEngine.
type EngineOptions struct {
	// CommitStore coordinates version commits. Defaults to a
	// BlobCommitStore on the engine's object store.
	CommitStore CommitStore

	// Compression is applied to fragment payloads. Defaults to zstd.
	Compression fragment.Compression
}

// StoreEngine is the reference Engine implementation. Each dataset is a
// directory-like prefix in an object store holding immutable fragments,
// per-version manifests and a commit log:
//
//	<uri>/data/<fragment>.frag
//	<uri>/_deletions/<fragment>-<version>.del
//	<uri>/_manifests/<version>.json
//	<uri>/_commits/<version>
type StoreEngine struct {
	store       blobstore.Store
	commits     CommitStore
	compression fragment.Compression
}

// NewStoreEngine creates an engine on the given object store.
func NewStoreEngine(store blobstore.Store, optFns ...func(*EngineOptions)) *StoreEngine {
	opts := EngineOptions{
		Compression: fragment.CompressionZstd,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.CommitStore == nil {
		opts.CommitStore = NewBlobCommitStore(store)
	}
	return &StoreEngine{
		store:       store,
		commits:     opts.CommitStore,
		compression: opts.Compression,
	}
}

// Write persists tbl at uri under the given mode.
func (e *StoreEngine) Write(ctx context.Context, tbl *columnar.Table, uri string, mode WriteMode) (Handle, error) {
	latest, latestPath, err := e.commits.Latest(ctx, uri)
	if err != nil {
		return nil, err
	}

	var prev *manifest
	switch mode {
	case ModeCreate:
		if latest > 0 {
			return nil, fmt.Errorf("%w: %s", ErrDatasetExists, uri)
		}
	case ModeAppend:
		if latest == 0 {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, uri)
		}
		prev, err = loadManifest(ctx, e.store, latestPath)
		if err != nil {
			return nil, err
		}
		prevSchema, err := schemaFromJSON(prev.Schema)
		if err != nil {
			return nil, err
		}
		if !prevSchema.Equal(tbl.Schema()) {
			return nil, fmt.Errorf("dataset: append schema %s does not match stored schema %s", tbl.Schema(), prevSchema)
		}
	case ModeOverwrite:
		// Overwrite starts a fresh fragment set whether or not the
		// dataset existed before.
	default:
		return nil, fmt.Errorf("dataset: unsupported write mode %s", mode)
	}

	man := &manifest{
		Version: latest + 1,
		Schema:  schemaToJSON(tbl.Schema()),
	}
	if prev != nil {
		man.Fragments = append(man.Fragments, prev.Fragments...)
	}

	if tbl.NumRows() > 0 {
		// Each commit writes at most one fragment, so reusing the manifest
		// version as the fragment ID keeps fragment paths unique across all
		// versions. An overwrite must never reuse a path referenced by an
		// earlier manifest: handles pinned to that version still read it.
		fragID := man.Version
		blob, err := fragment.Encode(tbl, e.compression)
		if err != nil {
			return nil, err
		}
		fragPath := fragmentPath(uri, fragID)
		if err := e.store.Put(ctx, fragPath, blob); err != nil {
			return nil, err
		}
		man.Fragments = append(man.Fragments, fragmentRef{
			ID:   fragID,
			Path: fragPath,
			Rows: tbl.NumRows(),
		})
	}

	return e.commit(ctx, uri, man)
}

// commit stores the manifest, records it in the commit store and returns
// a handle pinned to the new version.
func (e *StoreEngine) commit(ctx context.Context, uri string, man *manifest) (Handle, error) {
	path := manifestPath(uri, man.Version)
	if err := storeManifest(ctx, e.store, path, man); err != nil {
		return nil, err
	}
	if err := e.commits.Commit(ctx, uri, man.Version, path); err != nil {
		return nil, err
	}
	return e.newHandle(uri, man)
}

// Open returns a handle to the latest committed version at uri.
func (e *StoreEngine) Open(ctx context.Context, uri string) (Handle, error) {
	latest, latestPath, err := e.commits.Latest(ctx, uri)
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, uri)
	}
	man, err := loadManifest(ctx, e.store, latestPath)
	if err != nil {
		return nil, err
	}
	return e.newHandle(uri, man)
}

// Exists reports whether a dataset is present at uri.
func (e *StoreEngine) Exists(ctx context.Context, uri string) (bool, error) {
	latest, _, err := e.commits.Latest(ctx, uri)
	if err != nil {
		return false, err
	}
	return latest > 0, nil
}

// Drop removes all objects of the dataset at uri.
func (e *StoreEngine) Drop(ctx context.Context, uri string) error {
	names, err := e.store.List(ctx, uri+"/")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := e.store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return e.commits.Reset(ctx, uri)
}

// List returns the dataset URIs under the given prefix. A dataset is
// recognized by its manifest directory.
func (e *StoreEngine) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := e.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var uris []string
	for _, name := range names {
		idx := strings.Index(name, "/_manifests/")
		if idx < 0 {
			continue
		}
		uri := name[:idx]
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris, nil
}

func (e *StoreEngine) newHandle(uri string, man *manifest) (Handle, error) {
	schema, err := schemaFromJSON(man.Schema)
	if err != nil {
		return nil, err
	}
	return &storeHandle{
		engine: e,
		uri:    uri,
		man:    man,
		schema: schema,
	}, nil
}
