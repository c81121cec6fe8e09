package container

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// DType is the element type of a dataset.
type DType string

const (
	Uint64  DType = "uint64"
	Float32 DType = "float32"
)

// Dataset is a live handle on a dataset node. Reads go to the file each time.
type Dataset struct {
	c     *Container
	path  string
	dtype DType
	shape []int
}

// Path returns the dataset path.
func (d *Dataset) Path() string { return d.path }

// DType returns the element type.
func (d *Dataset) DType() DType { return d.dtype }

// Shape returns the dimensions, outermost first.
func (d *Dataset) Shape() []int { return append([]int(nil), d.shape...) }

// Len returns the outermost dimension.
func (d *Dataset) Len() int {
	if len(d.shape) == 0 {
		return 0
	}
	return d.shape[0]
}

func (d *Dataset) read(want DType) ([]byte, error) {
	if d.dtype != want {
		return nil, fmt.Errorf("%s holds %s, not %s: %w", d.path, d.dtype, want, ErrWrongKind)
	}
	db, err := d.c.handle()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	var blob []byte
	err = db.QueryRow(`SELECT data FROM nodes WHERE path = ? AND kind = 'dataset'`, d.path).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", d.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	return blob, nil
}

// ReadUint64 returns the values of a uint64 dataset.
func (d *Dataset) ReadUint64() ([]uint64, error) {
	blob, err := d.read(Uint64)
	if err != nil {
		return nil, err
	}
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("%s: payload of %d bytes is not a uint64 array", d.path, len(blob))
	}
	out := make([]uint64, len(blob)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(blob[i*8:])
	}
	return out, nil
}

// ReadFloat32 returns the values of a float32 dataset in row-major order.
func (d *Dataset) ReadFloat32() ([]float32, error) {
	blob, err := d.read(Float32)
	if err != nil {
		return nil, err
	}
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%s: payload of %d bytes is not a float32 array", d.path, len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// ReadFloat32Rows returns a 2-D float32 dataset as rows.
func (d *Dataset) ReadFloat32Rows() ([][]float32, error) {
	if len(d.shape) != 2 {
		return nil, fmt.Errorf("%s has shape %v, not 2-D: %w", d.path, d.shape, ErrWrongKind)
	}
	flat, err := d.ReadFloat32()
	if err != nil {
		return nil, err
	}
	n, width := d.shape[0], d.shape[1]
	if len(flat) != n*width {
		return nil, fmt.Errorf("%s: %d values for shape %v", d.path, len(flat), d.shape)
	}
	rows := make([][]float32, n)
	for i := range rows {
		rows[i] = flat[i*width : (i+1)*width : (i+1)*width]
	}
	return rows, nil
}

func encodeUint64(values []uint64) []byte {
	buf := make([]byte, 0, len(values)*8)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, v)
	}
	return buf
}

func encodeFloat32Rows(rows [][]float32) ([]byte, []int, error) {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	buf := make([]byte, 0, len(rows)*width*4)
	for i, r := range rows {
		if len(r) != width {
			return nil, nil, fmt.Errorf("row %d has %d values, expected %d", i, len(r), width)
		}
		for _, v := range r {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf, []int{len(rows), width}, nil
}

func encodeShape(shape []int) string {
	b, _ := json.Marshal(shape)
	return string(b)
}

func decodeShape(s string) ([]int, error) {
	var shape []int
	if err := json.Unmarshal([]byte(s), &shape); err != nil {
		return nil, fmt.Errorf("invalid shape %q: %w", s, err)
	}
	return shape, nil
}
