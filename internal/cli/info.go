package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/filter"
	"github.com/intelligent-soft-robots/balltraj/internal/observer"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func (a *app) infoCommand() *cobra.Command {
	var group, where string
	var flight flightOptions
	cmd := &cobra.Command{
		Use:   "info",
		Short: "List groups, or the trajectories of one group",
		Long: `Without --group, list every group with its number of trajectories.
With --group, list index, number of points, duration in seconds and first
position of each trajectory. --where keeps the trajectories matching an
expression over their summary, for example:

  points > 100 && max_speed < 12
  start.z > 1.0 || format == "tabular-log"

--table-height adds the landing point of each flight: the first position less
than 2 cm above the table. --target adds the closest the ball came to a
target position and the top speed, with velocities averaged over
--velocity-window samples.`,
		GroupID: "query",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.Compile(where)
			if err != nil {
				return err
			}
			r, err := a.open(container.ReadOnly)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			if group == "" {
				return listGroups(out, r, f)
			}
			flight.landing = cmd.Flags().Changed("table-height")
			if flight.target != nil && len(flight.target) != 3 {
				return fmt.Errorf("--target needs 3 values, got %d", len(flight.target))
			}
			return listGroup(out, r, group, f, flight)
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to list")
	cmd.Flags().StringVarP(&where, "where", "w", "", "expression selecting trajectories")
	cmd.Flags().Float64Var(&flight.tableHeight, "table-height", 0, "table height in meters; adds the landing point")
	cmd.Flags().Float64SliceVar(&flight.target, "target", nil, "target X,Y,Z in meters; adds the closest approach and the top speed")
	cmd.Flags().IntVar(&flight.velocityWindow, "velocity-window", 1, "samples averaged when estimating velocities for --target")
	return cmd
}

// flightOptions selects the replayed columns of a group listing.
type flightOptions struct {
	landing        bool
	tableHeight    float64
	target         []float64
	velocityWindow int
}

func (o flightOptions) enabled() bool { return o.landing || o.target != nil }

// replay runs the observers over s and returns the extra columns.
func (o flightOptions) replay(s trajectory.Stamped) []string {
	var status *observer.BallStatus
	var hit *observer.HitPoint
	if o.target != nil {
		status = observer.NewBallStatus(o.target)
	}
	if o.landing {
		hit = observer.NewHitPoint(o.tableHeight)
	}
	observer.ReplayStamped(s, o.velocityWindow, observer.InFlight, status, hit)

	var cols []string
	if hit != nil {
		if p, ok := hit.Hit(); ok {
			cols = append(cols, formatPosition(p))
		} else {
			cols = append(cols, "-")
		}
	}
	if status != nil {
		cols = append(cols, fmt.Sprintf("%.3f", status.MinDistanceBallTarget), fmt.Sprintf("%.3f", status.MaxBallVelocity))
	}
	return cols
}

func listGroups(out io.Writer, r *repository.Repository, f *filter.Filter) error {
	groups, err := r.GetGroups()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", r.Path())
	if len(groups) == 0 {
		fmt.Fprintln(out, "no group")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tTRAJECTORIES\tFORMAT\tIMPORT")
	for _, g := range groups {
		n, err := countMatching(r, g, f)
		if err != nil {
			return err
		}
		attrs, err := r.GroupAttrs(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", g, n, dash(attrs[repository.AttrFormat]), dash(attrs[repository.AttrImportID]))
	}
	return w.Flush()
}

func listGroup(out io.Writer, r *repository.Repository, group string, f *filter.Filter, flight flightOptions) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"INDEX", "POINTS", "DURATION (s)", "FIRST POSITION"}
	if flight.landing {
		header = append(header, "LANDING")
	}
	if flight.target != nil {
		header = append(header, "TARGET DISTANCE (m)", "MAX SPEED (m/s)")
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	err := eachMatching(r, group, f, func(index int, s trajectory.Stamped, sum trajectory.Summary) error {
		row := []string{
			strconv.Itoa(index),
			strconv.Itoa(sum.Points),
			fmt.Sprintf("%.3f", sum.DurationSeconds),
			formatPosition(sum.First),
		}
		if flight.enabled() {
			row = append(row, flight.replay(s)...)
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
		return nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

func countMatching(r *repository.Repository, group string, f *filter.Filter) (int, error) {
	n := 0
	err := eachMatching(r, group, f, func(int, trajectory.Stamped, trajectory.Summary) error {
		n++
		return nil
	})
	return n, err
}

// eachMatching calls fn, in index order, for the trajectories of group that
// f matches.
func eachMatching(r *repository.Repository, group string, f *filter.Filter, fn func(int, trajectory.Stamped, trajectory.Summary) error) error {
	indexes, err := r.GetIndexes(group)
	if err != nil {
		return err
	}
	for _, i := range indexes {
		s, err := r.GetStampedTrajectory(group, i)
		if err != nil {
			return err
		}
		attrs, err := r.EntryAttrs(group, i)
		if err != nil {
			return err
		}
		sum := trajectory.Summarize(s)
		ok, err := f.Match(filter.NewEnv(group, i, s, attrs))
		if err != nil {
			return fmt.Errorf("group %s index %d: %w", group, i, err)
		}
		if !ok {
			continue
		}
		if err := fn(i, s, sum); err != nil {
			return err
		}
	}
	return nil
}

func formatPosition[T float32 | float64](p []T) string {
	if len(p) == 0 {
		return "-"
	}
	s := "("
	for i, v := range p {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%.3f", v)
	}
	return s + ")"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
