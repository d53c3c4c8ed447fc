package vectab

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/vectab/blobstore"
	"github.com/hupe1980/vectab/columnar"
	"github.com/hupe1980/vectab/dataset"
)

// tableExt is the extension appended to table names to form dataset URIs.
const tableExt = ".vectab"

// CreateMode controls how CreateTable treats an existing table.
type CreateMode int

const (
	// CreateModeCreate fails when the table already exists.
	CreateModeCreate CreateMode = iota
	// CreateModeOverwrite replaces an existing table.
	CreateModeOverwrite
	// CreateModeExistOK opens the existing table instead of writing; the
	// provided data and schema are ignored in that case.
	CreateModeExistOK
)

func (m CreateMode) String() string {
	switch m {
	case CreateModeCreate:
		return "create"
	case CreateModeOverwrite:
		return "overwrite"
	case CreateModeExistOK:
		return "exist_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// CreateTableOptions configures a CreateTable call.
type CreateTableOptions struct {
	Mode CreateMode
}

// Connection is the entry point to a vectab database: a set of tables
// stored under a common root in an object store. Each table occupies one
// dataset at `<root>/<name>.vectab`.
type Connection struct {
	engine dataset.Engine
	root   string
	opts   options
}

// Connect opens a database at uri.
//
// Without options, uri is a local directory and tables are stored as files
// beneath it. With WithStore, the given object store backs the database
// and uri becomes the key prefix inside it (empty is allowed). WithEngine
// bypasses store construction entirely.
func Connect(uri string, optFns ...Option) (*Connection, error) {
	opts := applyOptions(optFns)

	root := strings.TrimSuffix(uri, "/")
	engine := opts.engine
	if engine == nil {
		store := opts.store
		if store == nil {
			if root == "" {
				return nil, fmt.Errorf("vectab: connection uri must not be empty")
			}
			store = blobstore.NewLocalStore(root)
			root = ""
		}
		engine = dataset.NewStoreEngine(store, func(o *dataset.EngineOptions) {
			o.Compression = opts.compression
		})
	}

	return &Connection{
		engine: engine,
		root:   root,
		opts:   opts,
	}, nil
}

func (c *Connection) tableURI(name string) string {
	if c.root == "" {
		return name + tableExt
	}
	return c.root + "/" + name + tableExt
}

// TableNames returns the names of all tables in the database, sorted.
func (c *Connection) TableNames(ctx context.Context) ([]string, error) {
	prefix := ""
	if c.root != "" {
		prefix = c.root + "/"
	}
	uris, err := c.engine.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(uris))
	for _, uri := range uris {
		base := path.Base(uri)
		if !strings.HasSuffix(base, tableExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(base, tableExt))
	}
	sort.Strings(names)
	return names, nil
}

// CreateTable sanitizes data against schema and writes it as a new table.
// A nil schema infers one from the data, normalizing the "vector" column.
func (c *Connection) CreateTable(ctx context.Context, name string, data Data, schema columnar.Schema, optFns ...func(*CreateTableOptions)) (*Table, error) {
	start := time.Now()
	tbl, err := c.createTable(ctx, name, data, schema, optFns...)
	c.opts.metricsCollector.RecordCreateTable(countRowsOrZero(ctx, tbl), time.Since(start), err)
	c.opts.logger.LogCreateTable(ctx, name, countRowsOrZero(ctx, tbl), err)
	return tbl, err
}

func (c *Connection) createTable(ctx context.Context, name string, data Data, schema columnar.Schema, optFns ...func(*CreateTableOptions)) (*Table, error) {
	opts := CreateTableOptions{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	uri := c.tableURI(name)
	if opts.Mode == CreateModeExistOK {
		exists, err := c.engine.Exists(ctx, uri)
		if err != nil {
			return nil, err
		}
		if exists {
			return c.OpenTable(ctx, name)
		}
	}

	sanitized, err := sanitizeData(data, schema, c.opts.strictVectors)
	if err != nil {
		return nil, err
	}

	mode := dataset.ModeCreate
	if opts.Mode == CreateModeOverwrite {
		mode = dataset.ModeOverwrite
	}
	handle, err := c.engine.Write(ctx, sanitized, uri, mode)
	if err != nil {
		return nil, err
	}
	return &Table{conn: c, name: name, uri: uri, handle: handle}, nil
}

// CreateEmptyTable creates a table with the given schema and no rows.
func (c *Connection) CreateEmptyTable(ctx context.Context, name string, schema columnar.Schema, optFns ...func(*CreateTableOptions)) (*Table, error) {
	empty, err := columnar.Empty(schema)
	if err != nil {
		return nil, err
	}
	return c.CreateTable(ctx, name, Canonical{Table: empty}, schema, optFns...)
}

// OpenTable returns a handle to an existing table. The handle stays
// unbound until first use; existence is verified eagerly.
func (c *Connection) OpenTable(ctx context.Context, name string) (*Table, error) {
	uri := c.tableURI(name)
	exists, err := c.engine.Exists(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", dataset.ErrDatasetNotFound, name)
	}
	return &Table{conn: c, name: name, uri: uri}, nil
}

// DropTable removes a table and all of its versions.
func (c *Connection) DropTable(ctx context.Context, name string) error {
	start := time.Now()
	err := c.engine.Drop(ctx, c.tableURI(name))
	c.opts.metricsCollector.RecordDropTable(time.Since(start), err)
	c.opts.logger.LogDropTable(ctx, name, err)
	return err
}

// DropDB removes every table in the database.
func (c *Connection) DropDB(ctx context.Context) error {
	names, err := c.TableNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := c.DropTable(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func countRowsOrZero(ctx context.Context, tbl *Table) int {
	if tbl == nil || tbl.handle == nil {
		return 0
	}
	n, err := tbl.handle.CountRows(ctx)
	if err != nil {
		return 0
	}
	return n
}
