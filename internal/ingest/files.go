package ingest

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
)

// ListFiles returns the paths of the regular files directly inside dir for
// which match reports true, sorted by name. Index assignment during bulk adds
// follows this order.
func ListFiles(fsys fsutil.FileSystem, dir string, match func(name string) bool) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// FormatFiles lists the files of dir that naming maps onto one of formats,
// together with their format.
func FormatFiles(fsys fsutil.FileSystem, dir string, naming Naming, formats ...Format) ([]string, []Format, error) {
	wanted := make(map[Format]bool, len(formats))
	for _, f := range formats {
		wanted[f] = true
	}
	paths, err := ListFiles(fsys, dir, func(name string) bool {
		f, ok := naming.Lookup(name)
		return ok && wanted[f]
	})
	if err != nil {
		return nil, nil, err
	}
	kinds := make([]Format, len(paths))
	for i, p := range paths {
		kinds[i], _ = naming.Lookup(p)
	}
	return paths, kinds, nil
}
