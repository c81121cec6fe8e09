// Package repository stores recorded ball trajectories in a container file.
//
// Trajectories are organised in named groups; each entry of a group is
// addressed by a non-negative index and holds two datasets:
//
//	/<group>/<index>/time_stamps  uint64 microseconds, 1-D
//	/<group>/<index>/trajectory   float32 positions, [N, D]
//
// A Repository opened read-only exposes the query methods; the mutating
// methods fail with container.ErrReadOnly on such a handle. Groups are created
// whole by the bulk-add methods, inside a single transaction.
package repository

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
	"github.com/intelligent-soft-robots/balltraj/internal/ingest"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// Dataset names inside an entry.
const (
	TimeStampsKey = "time_stamps"
	TrajectoryKey = "trajectory"
)

var (
	// ErrGroupExists is returned when creating a group whose name is taken.
	ErrGroupExists = container.ErrExists
	// ErrInvalidGroup is returned for group names that cannot be stored.
	ErrInvalidGroup = errors.New("repository: invalid group name")
)

// Options configure ingestion.
type Options struct {
	Naming           ingest.Naming
	IncludeCompanion bool
	// FS is used to enumerate and read raw files; nil means the OS.
	FS fsutil.FileSystem
}

// DefaultOptions reads the file names written by the logging tools from disk.
func DefaultOptions() Options {
	return Options{Naming: ingest.DefaultNaming, FS: fsutil.OSFileSystem{}}
}

// Repository is an open trajectory container.
type Repository struct {
	c    *container.Container
	opts Options
}

// Create makes a new, empty repository file.
func Create(file string, opts Options) (*Repository, error) {
	c, err := container.Create(file)
	if err != nil {
		return nil, err
	}
	return newRepository(c, opts), nil
}

// Open opens an existing repository file.
func Open(file string, mode container.Mode, opts Options) (*Repository, error) {
	c, err := container.Open(file, mode)
	if err != nil {
		return nil, err
	}
	return newRepository(c, opts), nil
}

func newRepository(c *container.Container, opts Options) *Repository {
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	if opts.Naming == (ingest.Naming{}) {
		opts.Naming = ingest.DefaultNaming
	}
	return &Repository{c: c, opts: opts}
}

// Close releases the file. Views obtained from the repository become invalid.
func (r *Repository) Close() error { return r.c.Close() }

// Path returns the repository file.
func (r *Repository) Path() string { return r.c.Path() }

// Mode returns the open mode.
func (r *Repository) Mode() container.Mode { return r.c.Mode() }

// GetGroups returns the group names, sorted.
func (r *Repository) GetGroups() ([]string, error) {
	return r.c.Keys("/")
}

// GetIndexes returns the entry indexes of a group in increasing order.
func (r *Repository) GetIndexes(group string) ([]int, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	keys, err := r.c.Keys(groupPath(group))
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", group, err)
	}
	return parseIndexes(group, keys)
}

// GroupAttrs returns the provenance attributes recorded on a group.
func (r *Repository) GroupAttrs(group string) (map[string]string, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	a, err := r.c.Attrs(groupPath(group))
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", group, err)
	}
	return a, nil
}

// EntryAttrs returns the attributes recorded on a single entry.
func (r *Repository) EntryAttrs(group string, index int) (map[string]string, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	a, err := r.c.Attrs(entryPath(group, index))
	if err != nil {
		return nil, fmt.Errorf("group %q index %d: %w", group, index, err)
	}
	return a, nil
}

// GetStampedView returns a live view of an entry. It reads through the open
// file and fails with container.ErrClosed once the repository is closed.
func (r *Repository) GetStampedView(group string, index int) (*View, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	entry := entryPath(group, index)
	ts, err := r.c.Dataset(path.Join(entry, TimeStampsKey))
	if err != nil {
		return nil, fmt.Errorf("group %q index %d: %w", group, index, err)
	}
	pos, err := r.c.Dataset(path.Join(entry, TrajectoryKey))
	if err != nil {
		return nil, fmt.Errorf("group %q index %d: %w", group, index, err)
	}
	return &View{Group: group, Index: index, timeStamps: ts, positions: pos}, nil
}

// GetStampedTrajectory returns an independent in-memory copy of an entry.
func (r *Repository) GetStampedTrajectory(group string, index int) (trajectory.Stamped, error) {
	v, err := r.GetStampedView(group, index)
	if err != nil {
		return trajectory.Stamped{}, err
	}
	return v.Materialize()
}

// GetStampedViews returns live views of every entry of a group.
func (r *Repository) GetStampedViews(group string) (map[int]*View, error) {
	indexes, err := r.GetIndexes(group)
	if err != nil {
		return nil, err
	}
	out := make(map[int]*View, len(indexes))
	for _, i := range indexes {
		if out[i], err = r.GetStampedView(group, i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetStampedTrajectories returns in-memory copies of every entry of a group.
func (r *Repository) GetStampedTrajectories(group string) (map[int]trajectory.Stamped, error) {
	indexes, err := r.GetIndexes(group)
	if err != nil {
		return nil, err
	}
	out := make(map[int]trajectory.Stamped, len(indexes))
	for _, i := range indexes {
		if out[i], err = r.GetStampedTrajectory(group, i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func groupPath(group string) string { return "/" + group }

func entryPath(group string, index int) string {
	return "/" + group + "/" + strconv.Itoa(index)
}

// checkGroup rejects names that would not map onto a single top-level node.
func checkGroup(group string) error {
	if group == "" || group == "." || group == ".." || strings.ContainsAny(group, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, group)
	}
	return nil
}

func parseIndexes(group string, keys []string) ([]int, error) {
	out := make([]int, 0, len(keys))
	for _, k := range keys {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || strconv.Itoa(i) != k {
			return nil, fmt.Errorf("group %q: entry %q is not an index", group, k)
		}
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}
