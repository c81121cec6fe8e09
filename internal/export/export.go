// Package export writes the trajectories of a group to a Parquet file, one
// row per sample, and reads such files back.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// Row is one sample of one trajectory. Components beyond the third are
// stored in Companion.
type Row struct {
	Group       string    `parquet:"group,zstd,dict"`
	Index       int32     `parquet:"index"`
	Sample      int32     `parquet:"sample"`
	TimestampUS int64     `parquet:"timestamp_us"`
	X           float32   `parquet:"x"`
	Y           float32   `parquet:"y"`
	Z           float32   `parquet:"z"`
	Companion   []float32 `parquet:"companion"`
}

// Rows flattens the trajectories of a group in index order.
func Rows(group string, trajectories map[int]trajectory.Stamped) ([]Row, error) {
	indexes := make([]int, 0, len(trajectories))
	for i := range trajectories {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var rows []Row
	for _, i := range indexes {
		s := trajectories[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		for k, p := range s.Positions {
			if len(p) < 3 {
				return nil, fmt.Errorf("index %d: %d position components, need 3", i, len(p))
			}
			row := Row{
				Group:       group,
				Index:       int32(i),
				Sample:      int32(k),
				TimestampUS: int64(s.TimeStamps[k]),
				X:           p[0],
				Y:           p[1],
				Z:           p[2],
			}
			if len(p) > 3 {
				row.Companion = append([]float32(nil), p[3:]...)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Write encodes the trajectories of a group to w and returns the number of
// rows written.
func Write(w io.Writer, group string, trajectories map[int]trajectory.Stamped) (int, error) {
	rows, err := Rows(group, trajectories)
	if err != nil {
		return 0, err
	}
	writer := parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Zstd))
	n, err := writer.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("close writer: %w", err)
	}
	return n, nil
}

// WriteFile writes the trajectories of a group to a new file at path.
func WriteFile(path, group string, trajectories map[int]trajectory.Stamped) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	n, err := Write(f, group, trajectories)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}

// ReadFile reads a file written by WriteFile back into trajectories, keyed by
// group then index.
func ReadFile(path string) (map[string]map[int]trajectory.Stamped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Row](f)
	defer reader.Close()

	rows := make([]Row, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	rows = rows[:n]

	out := map[string]map[int]trajectory.Stamped{}
	for _, r := range rows {
		group := out[r.Group]
		if group == nil {
			group = map[int]trajectory.Stamped{}
			out[r.Group] = group
		}
		s := group[int(r.Index)]
		if int(r.Sample) != s.Len() {
			return nil, fmt.Errorf("group %q index %d: sample %d out of order", r.Group, r.Index, r.Sample)
		}
		p := append([]float32{r.X, r.Y, r.Z}, r.Companion...)
		s.TimeStamps = append(s.TimeStamps, uint64(r.TimestampUS))
		s.Positions = append(s.Positions, p)
		group[int(r.Index)] = s
	}
	return out, nil
}
