// Package container stores a tree of groups and typed array datasets in a
// single SQLite file.
//
// Nodes are addressed by slash-separated absolute paths such as
// "/json/0/time_stamps". Groups hold other nodes; datasets are leaves holding
// a little-endian packed array of uint64 or float32 values together with its
// shape. Any node may carry string attributes.
//
// A Container is opened either read-only or read-write. All writes go through
// Update, which runs in one transaction: either every change of the callback
// is applied or none is. Dataset handles read through the open file and fail
// with ErrClosed once the container is closed.
//
// A Container is not meant to be shared by concurrent writers; two read-write
// handles on the same file are a caller error.
package container

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
)

var (
	// ErrNotFound reports a missing node or container file.
	ErrNotFound = errors.New("container: not found")
	// ErrExists reports a node or container file that already exists.
	ErrExists = errors.New("container: already exists")
	// ErrReadOnly reports a write attempted on a read-only container.
	ErrReadOnly = errors.New("container: opened read-only")
	// ErrClosed reports use of a container, or one of its datasets, after Close.
	ErrClosed = errors.New("container: closed")
	// ErrNotContainer reports a file that does not hold a container schema.
	ErrNotContainer = errors.New("container: not a trajectory container")
	// ErrWrongKind reports a group operation on a dataset or the reverse.
	ErrWrongKind = errors.New("container: wrong node kind")
)

// Mode selects how a container is opened.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Kind is the type of a node.
type Kind string

const (
	KindGroup   Kind = "group"
	KindDataset Kind = "dataset"
)

// Container is an open container file.
type Container struct {
	db   *sql.DB
	path string
	mode Mode

	mu     sync.Mutex
	closed bool
}

// Create makes a new, empty container at path. It fails with ErrExists when
// the file is already present.
func Create(file string) (*Container, error) {
	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("create %s: %w", file, ErrExists)
	}
	db, err := openDB(file)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", file, err)
	}
	monitoring.Debugf("created container %s", file)
	return &Container{db: db, path: file, mode: ReadWrite}, nil
}

// Open opens an existing container. A missing file reports ErrNotFound.
// Read-write opens upgrade older schemas; read-only opens never write and
// require the current schema.
func Open(file string, mode Mode) (*Container, error) {
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", file, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	db, err := openDB(file)
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*Container, error) {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", file, err)
	}

	version, err := schemaVersion(db)
	if err != nil {
		return fail(err)
	}
	switch mode {
	case ReadOnly:
		if version != SchemaVersion {
			return fail(fmt.Errorf("%w: schema version %d, expected %d (open read-write to upgrade)",
				ErrNotContainer, version, SchemaVersion))
		}
		if _, err := db.Exec(`PRAGMA query_only = 1`); err != nil {
			return fail(err)
		}
	case ReadWrite:
		if version > SchemaVersion {
			return fail(fmt.Errorf("%w: schema version %d is newer than %d", ErrNotContainer, version, SchemaVersion))
		}
		if err := migrateUp(db); err != nil {
			return fail(err)
		}
	default:
		return fail(fmt.Errorf("unknown mode %d", mode))
	}
	return &Container{db: db, path: file, mode: mode}, nil
}

// openDB opens file on a single connection so that per-connection pragmas
// hold for every statement.
func openDB(file string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	return db, nil
}

// Path returns the file the container was opened from.
func (c *Container) Path() string { return c.path }

// Mode returns the open mode.
func (c *Container) Mode() Mode { return c.mode }

// Close releases the file. Closing twice is a no-op.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// handle returns the database, or ErrClosed.
func (c *Container) handle() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.db, nil
}

// Keys lists the names of the children of a group, sorted. "/" is the root.
func (c *Container) Keys(p string) ([]string, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	return keys(db, p)
}

// Exists reports whether a node exists at p.
func (c *Container) Exists(p string) (bool, error) {
	db, err := c.handle()
	if err != nil {
		return false, err
	}
	_, err = kind(db, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Kind returns the kind of the node at p.
func (c *Container) Kind(p string) (Kind, error) {
	db, err := c.handle()
	if err != nil {
		return "", err
	}
	return kind(db, p)
}

// Attrs returns the attributes of the node at p.
func (c *Container) Attrs(p string) (map[string]string, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	return attrs(db, p)
}

// Dataset returns a handle on the dataset at p.
func (c *Container) Dataset(p string) (*Dataset, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	p, err = cleanPath(p)
	if err != nil {
		return nil, err
	}
	var (
		k     Kind
		dtype sql.NullString
		shape sql.NullString
	)
	err = db.QueryRow(`SELECT kind, dtype, shape FROM nodes WHERE path = ?`, p).Scan(&k, &dtype, &shape)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	if k != KindDataset {
		return nil, fmt.Errorf("%s is a %s: %w", p, k, ErrWrongKind)
	}
	dims, err := decodeShape(shape.String)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", p, err)
	}
	return &Dataset{c: c, path: p, dtype: DType(dtype.String), shape: dims}, nil
}

// Update runs fn in a transaction. The changes are committed when fn returns
// nil and rolled back otherwise.
func (c *Container) Update(fn func(w *Writer) error) error {
	if c.mode != ReadWrite {
		return ErrReadOnly
	}
	db, err := c.handle()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&Writer{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			monitoring.Logf("container %s: rollback failed: %v", c.path, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// cleanPath normalises p to an absolute slash path.
func cleanPath(p string) (string, error) {
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("container: invalid path %q", p)
	}
	return path.Clean("/" + p), nil
}

func kind(q querier, p string) (Kind, error) {
	p, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	if p == "/" {
		return KindGroup, nil
	}
	var k Kind
	err = q.QueryRow(`SELECT kind FROM nodes WHERE path = ?`, p).Scan(&k)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", p, err)
	}
	return k, nil
}

func keys(q querier, p string) ([]string, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	k, err := kind(q, p)
	if err != nil {
		return nil, err
	}
	if k != KindGroup {
		return nil, fmt.Errorf("%s is a %s: %w", p, k, ErrWrongKind)
	}
	rows, err := q.Query(`SELECT name FROM nodes WHERE parent = ? ORDER BY name`, p)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func attrs(q querier, p string) (map[string]string, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if _, err := kind(q, p); err != nil {
		return nil, err
	}
	rows, err := q.Query(`SELECT key, value FROM attrs WHERE path = ?`, p)
	if err != nil {
		return nil, fmt.Errorf("attrs %s: %w", p, err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
