// Package filter selects trajectories with expr-lang/expr predicates such as
//
//	points > 100 && max_speed < 12 && source_file startsWith "tennicam_"
//
// evaluated against a per-trajectory summary.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

// Env is the environment a predicate is evaluated in.
type Env struct {
	Group      string `expr:"group"`
	Index      int    `expr:"index"`
	SourceFile string `expr:"source_file"`
	Format     string `expr:"format"`

	Points   int     `expr:"points"`
	Dim      int     `expr:"dim"`
	Duration float64 `expr:"duration"` // seconds
	MeanDtUS float64 `expr:"mean_dt_us"`

	MeanSpeed float64 `expr:"mean_speed"`
	MaxSpeed  float64 `expr:"max_speed"`
	MinZ      float64 `expr:"min_z"`
	MaxZ      float64 `expr:"max_z"`

	Start struct {
		X float64 `expr:"x"`
		Y float64 `expr:"y"`
		Z float64 `expr:"z"`
	} `expr:"start"`
	End struct {
		X float64 `expr:"x"`
		Y float64 `expr:"y"`
		Z float64 `expr:"z"`
	} `expr:"end"`
}

// NewEnv fills an environment from a trajectory and its entry attributes.
func NewEnv(group string, index int, s trajectory.Stamped, attrs map[string]string) Env {
	sum := trajectory.Summarize(s)
	env := Env{
		Group:      group,
		Index:      index,
		SourceFile: attrs["source_file"],
		Format:     attrs["format"],
		Points:     sum.Points,
		Dim:        s.Dim(),
		Duration:   sum.DurationSeconds,
		MeanDtUS:   sum.MeanIntervalUS,
		MeanSpeed:  sum.MeanSpeed,
		MaxSpeed:   sum.MaxSpeed,
		MinZ:       sum.MinZ,
		MaxZ:       sum.MaxZ,
	}
	if len(sum.First) >= 3 {
		env.Start.X, env.Start.Y, env.Start.Z = float64(sum.First[0]), float64(sum.First[1]), float64(sum.First[2])
		env.End.X, env.End.Y, env.End.Z = float64(sum.Last[0]), float64(sum.Last[1]), float64(sum.Last[2])
	}
	return env
}

// Filter is a compiled predicate.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile compiles a predicate. An empty expression matches everything.
func Compile(source string) (*Filter, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter '%s': %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.source }

// Match evaluates the predicate.
func (f *Filter) Match(env Env) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter '%s': %w", f.source, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter '%s': result is %T, not bool", f.source, result)
	}
	return b, nil
}
