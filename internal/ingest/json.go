package ingest

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

type positionFile struct {
	OB [][]float64 `json:"ob"`
}

// parsePositionJSON reads {"ob": [[x, y, z, vx, vy, vz], ...]}. Only the
// first three columns are kept; point i is stamped i*samplingRateUS.
func parsePositionJSON(path string, data []byte, samplingRateUS uint64) (trajectory.Stamped, error) {
	if samplingRateUS == 0 {
		return trajectory.Stamped{}, &MalformedError{Path: path, Err: errors.New("sampling rate must be positive")}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var f positionFile
	if err := dec.Decode(&f); err != nil {
		return trajectory.Stamped{}, &MalformedError{Path: path, Err: err}
	}
	if f.OB == nil {
		return trajectory.Stamped{}, malformed(path, 0, `missing "ob" key`)
	}

	out := trajectory.Stamped{
		TimeStamps: make([]uint64, len(f.OB)),
		Positions:  make([][]float32, len(f.OB)),
	}
	for i, row := range f.OB {
		if len(row) < 3 {
			return trajectory.Stamped{}, malformed(path, 0, "row %d has %d columns, expected at least 3", i, len(row))
		}
		out.TimeStamps[i] = uint64(i) * samplingRateUS
		out.Positions[i] = []float32{float32(row[0]), float32(row[1]), float32(row[2])}
	}
	return out, nil
}
