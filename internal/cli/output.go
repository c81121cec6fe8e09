package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/export"
	"github.com/intelligent-soft-robots/balltraj/internal/filter"
	"github.com/intelligent-soft-robots/balltraj/internal/render"
	"github.com/intelligent-soft-robots/balltraj/internal/security"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func (a *app) plotCommand() *cobra.Command {
	var group, where, view, out string
	var html bool
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the trajectories of a group",
		Long: `Draw the trajectories of a group as a PNG projected on one view (top, side
or height), or with --html as a page holding all three views.
The output defaults to <group>.png or <group>.html in the current directory.`,
		Example: `  pam-ball-trajectories plot --group session_03 --view side
  pam-ball-trajectories plot --group session_03 --html --where 'max_z > 1.2'`,
		GroupID: "output",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pr, err := render.ProjectionByName(view)
			if err != nil {
				return err
			}
			series, err := a.selectSeries(group, where)
			if err != nil {
				return err
			}
			ext := ".png"
			if html {
				ext = ".html"
			}
			if out == "" {
				out = security.SanitizeFilename(group) + ext
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			title := fmt.Sprintf("%s (%d trajectories)", group, len(series))
			if html {
				err = render.HTML(f, title, series)
			} else {
				err = render.PNG(f, title, series, pr, 20*vg.Centimeter, 15*vg.Centimeter)
			}
			if err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to draw")
	cmd.Flags().StringVarP(&where, "where", "w", "", "expression selecting trajectories")
	cmd.Flags().StringVar(&view, "view", render.TopView.Name, "projection: top, side or height")
	cmd.Flags().BoolVar(&html, "html", false, "write an interactive HTML page instead of a PNG")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

// selectSeries reads the trajectories of group matching where.
func (a *app) selectSeries(group, where string) ([]render.Series, error) {
	f, err := filter.Compile(where)
	if err != nil {
		return nil, err
	}
	r, err := a.open(container.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var series []render.Series
	err = eachMatching(r, group, f, func(index int, s trajectory.Stamped, _ trajectory.Summary) error {
		series = append(series, render.Series{Name: strconv.Itoa(index), Trajectory: s})
		return nil
	})
	return series, err
}

func (a *app) exportCommand() *cobra.Command {
	var group, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the trajectories of a group to a Parquet file",
		Long: `Write one row per sample of every trajectory of a group: group, index,
sample, timestamp_us, x, y, z and the remaining components, if any.
The output defaults to <group>.parquet in the current directory.`,
		GroupID: "output",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(container.ReadOnly)
			if err != nil {
				return err
			}
			defer r.Close()
			trajectories, err := r.GetStampedTrajectories(group)
			if err != nil {
				return err
			}
			if out == "" {
				out = security.SanitizeFilename(group) + ".parquet"
			}
			n, err := export.WriteFile(filepath.Clean(out), group, trajectories)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows of %d trajectories to %s\n", n, len(trajectories), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
