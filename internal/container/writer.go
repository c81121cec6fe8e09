package container

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"unicode/utf8"
)

// Writer applies changes inside an Update transaction. It must not be kept
// after the callback returns.
type Writer struct {
	tx *sql.Tx
}

// Keys lists the children of a group as seen by the transaction.
func (w *Writer) Keys(p string) ([]string, error) { return keys(w.tx, p) }

// Exists reports whether a node exists at p as seen by the transaction.
func (w *Writer) Exists(p string) (bool, error) {
	_, err := kind(w.tx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateGroup adds an empty group. Its parent must be an existing group.
func (w *Writer) CreateGroup(p string) error {
	return w.insert(p, KindGroup, "", nil, nil)
}

// CreateUint64 adds a 1-D uint64 dataset.
func (w *Writer) CreateUint64(p string, values []uint64) error {
	return w.insert(p, KindDataset, Uint64, []int{len(values)}, encodeUint64(values))
}

// CreateFloat32Rows adds a 2-D float32 dataset of shape [len(rows), width].
// All rows must have the same width.
func (w *Writer) CreateFloat32Rows(p string, rows [][]float32) error {
	data, shape, err := encodeFloat32Rows(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	return w.insert(p, KindDataset, Float32, shape, data)
}

func (w *Writer) insert(p string, k Kind, dtype DType, shape []int, data []byte) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}
	if p == "/" {
		return fmt.Errorf("/: %w", ErrExists)
	}
	parent, name := path.Split(p)
	parent = path.Clean(parent)

	pk, err := kind(w.tx, parent)
	if err != nil {
		return fmt.Errorf("create %s: parent %w", p, err)
	}
	if pk != KindGroup {
		return fmt.Errorf("create %s: parent is a %s: %w", p, pk, ErrWrongKind)
	}
	exists, err := w.Exists(p)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create %s: %w", p, ErrExists)
	}

	var dt, sh sql.NullString
	if k == KindDataset {
		dt = sql.NullString{String: string(dtype), Valid: true}
		sh = sql.NullString{String: encodeShape(shape), Valid: true}
	}
	_, err = w.tx.Exec(`INSERT INTO nodes (path, parent, name, kind, dtype, shape, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p, parent, name, string(k), dt, sh, data)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	return nil
}

// Delete removes the node at p together with everything below it and their
// attributes.
func (w *Writer) Delete(p string) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}
	if p == "/" {
		return fmt.Errorf("container: cannot delete the root")
	}
	if _, err := kind(w.tx, p); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	// substr counts characters, not bytes.
	prefix := p + "/"
	for _, table := range []string{"nodes", "attrs"} {
		_, err := w.tx.Exec(`DELETE FROM `+table+` WHERE path = ? OR substr(path, 1, ?) = ?`, p, utf8.RuneCountInString(prefix), prefix)
		if err != nil {
			return fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return nil
}

// SetAttr sets a string attribute on the node at p, replacing any previous
// value.
func (w *Writer) SetAttr(p, key, value string) error {
	p, err := cleanPath(p)
	if err != nil {
		return err
	}
	if _, err := kind(w.tx, p); err != nil {
		return fmt.Errorf("set attribute %q: %w", key, err)
	}
	_, err = w.tx.Exec(`INSERT INTO attrs (path, key, value) VALUES (?, ?, ?)
		ON CONFLICT (path, key) DO UPDATE SET value = excluded.value`, p, key, value)
	if err != nil {
		return fmt.Errorf("set attribute %q on %s: %w", key, p, err)
	}
	return nil
}

// Attrs returns the attributes of the node at p as seen by the transaction.
func (w *Writer) Attrs(p string) (map[string]string, error) { return attrs(w.tx, p) }
