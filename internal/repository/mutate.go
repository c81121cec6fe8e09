package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
	"github.com/intelligent-soft-robots/balltraj/internal/ingest"
	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
	"github.com/intelligent-soft-robots/balltraj/internal/security"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// Provenance attribute keys.
const (
	AttrImportID       = "import_id"
	AttrFormat         = "format"
	AttrSourceDir      = "source_dir"
	AttrSourceFile     = "source_file"
	AttrSamplingRateUS = "sampling_rate_us"
)

// Entry is one trajectory to store, with its origin.
type Entry struct {
	Trajectory trajectory.Stamped
	SourceFile string
	Format     ingest.Format
}

// AddJSONTrajectories creates group with one entry per position-only JSON
// file of dir, in file-name order. Point i of every file is stamped
// i*samplingRateUS. It returns the number of entries added.
func (r *Repository) AddJSONTrajectories(group, dir string, samplingRateUS uint64) (int, error) {
	if err := r.checkAdd(group); err != nil {
		return 0, err
	}
	files, formats, err := ingest.FormatFiles(r.opts.FS, dir, r.opts.Naming, ingest.PositionOnlyJSON)
	if err != nil {
		return 0, dirError(dir, err)
	}
	entries, err := r.parseAll(dir, files, formats, ingest.Options{SamplingRateUS: samplingRateUS})
	if err != nil {
		return 0, err
	}
	attrs := map[string]string{
		AttrFormat:         ingest.PositionOnlyJSON.String(),
		AttrSamplingRateUS: strconv.FormatUint(samplingRateUS, 10),
	}
	return r.AddGroup(group, dir, entries, attrs)
}

// AddTennicamTrajectories creates group with one entry per tracker log of
// dir, in file-name order. Structured-text logs (tennicam_*) and tabular
// ball/robot logs (o80_robot_ball_*) are both read, each with its own parser.
// It returns the number of entries added.
func (r *Repository) AddTennicamTrajectories(group, dir string) (int, error) {
	if err := r.checkAdd(group); err != nil {
		return 0, err
	}
	files, formats, err := ingest.FormatFiles(r.opts.FS, dir, r.opts.Naming, ingest.StructuredText, ingest.TabularLog)
	if err != nil {
		return 0, dirError(dir, err)
	}
	entries, err := r.parseAll(dir, files, formats, ingest.Options{IncludeCompanion: r.opts.IncludeCompanion})
	if err != nil {
		return 0, err
	}
	return r.AddGroup(group, dir, entries, map[string]string{AttrFormat: "tennicam"})
}

// AddGroup creates group holding entries at indexes 0, 1, ... in one
// transaction, with attrs and the provenance attributes recorded on the group.
// The group must not exist.
func (r *Repository) AddGroup(group, sourceDir string, entries []Entry, attrs map[string]string) (int, error) {
	if err := r.checkAdd(group); err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := e.Trajectory.ValidateNonEmpty(); err != nil {
			if e.SourceFile != "" {
				return 0, &ingest.MalformedError{Path: filepath.Join(sourceDir, e.SourceFile), Err: err}
			}
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	importID := uuid.NewString()
	if abs, err := filepath.Abs(sourceDir); err == nil && sourceDir != "" {
		sourceDir = abs
	}

	err := r.c.Update(func(w *container.Writer) error {
		gp := groupPath(group)
		if err := w.CreateGroup(gp); err != nil {
			return fmt.Errorf("group %q: %w", group, err)
		}
		if err := w.SetAttr(gp, AttrImportID, importID); err != nil {
			return err
		}
		if sourceDir != "" {
			if err := w.SetAttr(gp, AttrSourceDir, sourceDir); err != nil {
				return err
			}
		}
		for k, v := range attrs {
			if err := w.SetAttr(gp, k, v); err != nil {
				return err
			}
		}
		for i, e := range entries {
			if err := writeEntry(w, group, i, e.Trajectory); err != nil {
				return err
			}
			ep := entryPath(group, i)
			if e.SourceFile != "" {
				if err := w.SetAttr(ep, AttrSourceFile, e.SourceFile); err != nil {
					return err
				}
			}
			if e.Format != 0 {
				if err := w.SetAttr(ep, AttrFormat, e.Format.String()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	monitoring.Logf("added %d trajectories to group %q (import %s)", len(entries), group, importID)
	return len(entries), nil
}

// Overwrite replaces the datasets of an existing entry.
func (r *Repository) Overwrite(group string, index int, s trajectory.Stamped) error {
	if err := r.checkWrite(group); err != nil {
		return err
	}
	if err := s.ValidateNonEmpty(); err != nil {
		return err
	}
	return r.c.Update(func(w *container.Writer) error {
		ep := entryPath(group, index)
		ok, err := w.Exists(ep)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("group %q index %d: %w", group, index, container.ErrNotFound)
		}
		return replaceEntry(w, group, index, s)
	})
}

// RmGroup deletes a group and all its entries.
func (r *Repository) RmGroup(group string) error {
	if err := r.checkWrite(group); err != nil {
		return err
	}
	err := r.c.Update(func(w *container.Writer) error {
		return w.Delete(groupPath(group))
	})
	if err != nil {
		return fmt.Errorf("group %q: %w", group, err)
	}
	monitoring.Logf("removed group %q", group)
	return nil
}

// Translate adds offset to the leading position components of every entry of
// group and returns the number of entries changed.
func (r *Repository) Translate(group string, offset []float32) (int, error) {
	return r.rewrite(group, func(s trajectory.Stamped) error {
		return s.Translate(offset)
	})
}

// Transform applies t to the first three position components of every entry
// of group and returns the number of entries changed.
func (r *Repository) Transform(group string, t trajectory.Transform) (int, error) {
	return r.rewrite(group, func(s trajectory.Stamped) error {
		return s.Transform(t)
	})
}

// rewrite applies fn in place to every trajectory of group and stores the
// results in one transaction.
func (r *Repository) rewrite(group string, fn func(trajectory.Stamped) error) (int, error) {
	if err := r.checkWrite(group); err != nil {
		return 0, err
	}
	trajectories, err := r.GetStampedTrajectories(group)
	if err != nil {
		return 0, err
	}
	for i, s := range trajectories {
		if err := fn(s); err != nil {
			return 0, fmt.Errorf("group %q index %d: %w", group, i, err)
		}
	}
	err = r.c.Update(func(w *container.Writer) error {
		for i, s := range trajectories {
			if err := replaceEntry(w, group, i, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(trajectories), nil
}

func (r *Repository) checkWrite(group string) error {
	if r.c.Mode() != container.ReadWrite {
		return container.ErrReadOnly
	}
	return checkGroup(group)
}

// checkAdd fails early, before any file is parsed, when group cannot be
// created. The check is repeated inside the write transaction.
func (r *Repository) checkAdd(group string) error {
	if err := r.checkWrite(group); err != nil {
		return err
	}
	ok, err := r.c.Exists(groupPath(group))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("group %q: %w", group, ErrGroupExists)
	}
	return nil
}

// parseAll parses every file before anything is written, so that a
// malformed file leaves the repository untouched.
func (r *Repository) parseAll(dir string, files []string, formats []ingest.Format, opts ingest.Options) ([]Entry, error) {
	_, onDisk := r.opts.FS.(fsutil.OSFileSystem)
	entries := make([]Entry, len(files))
	for i, f := range files {
		if onDisk {
			if err := security.ValidatePathWithinDirectory(f, dir); err != nil {
				return nil, fmt.Errorf("%s: %w", f, err)
			}
		}
		s, err := formats[i].ParseFile(r.opts.FS, f, opts)
		if err != nil {
			return nil, err
		}
		monitoring.Debugf("parsed %s (%s): %d points", f, formats[i], s.Len())
		entries[i] = Entry{Trajectory: s, SourceFile: filepath.Base(f), Format: formats[i]}
	}
	return entries, nil
}

func writeEntry(w *container.Writer, group string, index int, s trajectory.Stamped) error {
	ep := entryPath(group, index)
	if err := w.CreateGroup(ep); err != nil {
		return err
	}
	if err := w.CreateUint64(path.Join(ep, TimeStampsKey), s.TimeStamps); err != nil {
		return err
	}
	return w.CreateFloat32Rows(path.Join(ep, TrajectoryKey), s.Positions)
}

// replaceEntry deletes and recreates the two datasets of an entry, keeping
// the entry node and its attributes.
func replaceEntry(w *container.Writer, group string, index int, s trajectory.Stamped) error {
	ep := entryPath(group, index)
	for _, key := range []string{TimeStampsKey, TrajectoryKey} {
		p := path.Join(ep, key)
		ok, err := w.Exists(p)
		if err != nil {
			return err
		}
		if ok {
			if err := w.Delete(p); err != nil {
				return err
			}
		}
	}
	if err := w.CreateUint64(path.Join(ep, TimeStampsKey), s.TimeStamps); err != nil {
		return err
	}
	return w.CreateFloat32Rows(path.Join(ep, TrajectoryKey), s.Positions)
}

func dirError(dir string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("directory %s: %w", dir, container.ErrNotFound)
	}
	return err
}
