package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/columnar"
)

// manifest is the JSON document describing one committed dataset version:
// the schema and the set of live fragments with their deletion files.
type manifest struct {
	Version   uint64        `json:"version"`
	Schema    []fieldJSON   `json:"schema"`
	Fragments []fragmentRef `json:"fragments"`
}

type fieldJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type fragmentRef struct {
	ID           uint64 `json:"id"`
	Path         string `json:"path"`
	Rows         int    `json:"rows"`
	DeletionPath string `json:"deletion_path,omitempty"`
	Deleted      int    `json:"deleted,omitempty"`
}

func schemaToJSON(s columnar.Schema) []fieldJSON {
	fields := make([]fieldJSON, len(s))
	for i, f := range s {
		fields[i] = fieldJSON{Name: f.Name, Type: f.Type.String()}
	}
	return fields
}

func schemaFromJSON(fields []fieldJSON) (columnar.Schema, error) {
	out := make([]columnar.Field, len(fields))
	for i, f := range fields {
		typ, err := columnar.ParseDataType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("dataset: manifest field %q: %w", f.Name, err)
		}
		out[i] = columnar.Field{Name: f.Name, Type: typ}
	}
	return columnar.NewSchema(out...)
}

func manifestPath(uri string, version uint64) string {
	return fmt.Sprintf("%s/_manifests/%020d.json", uri, version)
}

func fragmentPath(uri string, id uint64) string {
	return fmt.Sprintf("%s/data/%016d.frag", uri, id)
}

func deletionPath(uri string, id, version uint64) string {
	return fmt.Sprintf("%s/_deletions/%016d-%020d.del", uri, id, version)
}

func loadManifest(ctx context.Context, store blobstore.Store, path string) (*manifest, error) {
	data, err := store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("dataset: load manifest %s: %w", path, err)
	}
	var man manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("dataset: decode manifest %s: %w", path, err)
	}
	return &man, nil
}

func storeManifest(ctx context.Context, store blobstore.Store, path string, man *manifest) error {
	data, err := json.Marshal(man)
	if err != nil {
		return err
	}
	return store.Put(ctx, path, data)
}

func (m *manifest) liveRows() int {
	total := 0
	for _, f := range m.Fragments {
		total += f.Rows - f.Deleted
	}
	return total
}
