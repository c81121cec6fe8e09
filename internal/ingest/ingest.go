// Package ingest turns raw ball-tracking logs into stamped trajectories.
//
// Three file formats are understood. Tabular logs (o80_robot_ball_*) carry one
// (ball, robot) observation per line and are trimmed and gap-filled; structured
// text logs (tennicam_*) carry one ball observation per line and are filtered;
// position-only JSON files carry a {"ob": rows} mapping without time stamps.
// Parsing never evaluates file content: tuple lines are rewritten into JSON and
// decoded against a fixed schema.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// ErrNoDetection is returned by the tabular-log parser when no line carries a
// valid ball id.
var ErrNoDetection = errors.New("ingest: ball not detected in any record")

// MalformedError reports a file that cannot be decoded into the expected shape.
// Line is 1-based, 0 when the error is not tied to a line.
type MalformedError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func malformed(path string, line int, format string, args ...interface{}) error {
	return &MalformedError{Path: path, Line: line, Err: fmt.Errorf(format, args...)}
}

// Format is the closed set of supported raw input formats.
type Format int

const (
	// TabularLog is the composite ball/robot logger output.
	TabularLog Format = iota + 1
	// StructuredText is the ball-only streaming logger output.
	StructuredText
	// PositionOnlyJSON is a {"ob": [[x, y, z, ...], ...]} file without time.
	PositionOnlyJSON
)

var formatNames = map[Format]string{
	TabularLog:       "tabular-log",
	StructuredText:   "structured-text",
	PositionOnlyJSON: "position-json",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Options tune parsing.
type Options struct {
	// IncludeCompanion appends the robot position to every tabular-log
	// position, giving 3+k components instead of 3.
	IncludeCompanion bool
	// SamplingRateUS spaces the synthesized time stamps of position-only
	// files.
	SamplingRateUS uint64
}

// Naming maps file names onto formats.
type Naming struct {
	JSONExtension   string
	TennicamPrefix  string
	RobotBallPrefix string
}

// DefaultNaming matches the file names written by the logging tools.
var DefaultNaming = Naming{
	JSONExtension:   ".json",
	TennicamPrefix:  "tennicam_",
	RobotBallPrefix: "o80_robot_ball_",
}

// Lookup returns the format of a file from its base name, or false when the
// name matches no known convention.
func (n Naming) Lookup(name string) (Format, bool) {
	base := filepath.Base(name)
	switch {
	case n.RobotBallPrefix != "" && strings.HasPrefix(base, n.RobotBallPrefix):
		return TabularLog, true
	case n.TennicamPrefix != "" && strings.HasPrefix(base, n.TennicamPrefix):
		return StructuredText, true
	case n.JSONExtension != "" && strings.HasSuffix(base, n.JSONExtension):
		return PositionOnlyJSON, true
	}
	return 0, false
}

// Parse decodes data, read from path, in format f.
func (f Format) Parse(path string, data []byte, opts Options) (trajectory.Stamped, error) {
	switch f {
	case TabularLog:
		return parseTabular(path, data, opts.IncludeCompanion)
	case StructuredText:
		return parseStructured(path, data)
	case PositionOnlyJSON:
		return parsePositionJSON(path, data, opts.SamplingRateUS)
	}
	return trajectory.Stamped{}, fmt.Errorf("ingest: unknown format %v", f)
}

// ParseFile reads path from fsys and parses it.
func (f Format) ParseFile(fsys fsutil.FileSystem, path string, opts Options) (trajectory.Stamped, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return trajectory.Stamped{}, fmt.Errorf("read %s: %w", path, err)
	}
	return f.Parse(path, data, opts)
}
