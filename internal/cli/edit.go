package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/trajectory"
)

func (a *app) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create an empty container at the default location or --path",
		Long: `Create an empty container. Without --path the file goes under the first
configuration root that exists, and its parent directories are created.
An existing container is left untouched.`,
		GroupID: "edit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			file, err := a.containerPath(cfg)
			if err != nil {
				return err
			}
			if err := a.fs.MkdirAll(filepath.Dir(file), 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			r, err := repository.Create(file, repositoryOptions(cfg))
			if errors.Is(err, container.ErrExists) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", file)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", file)
			return r.Close()
		},
	}
}

func (a *app) addJSONCommand() *cobra.Command {
	var group, dir string
	var samplingRateUS uint64
	cmd := &cobra.Command{
		Use:   "add-json",
		Short: "Add the position-only JSON files of a directory as a new group",
		Long: `Add one trajectory per JSON file of --dir (default: the current directory),
in file name order. Point i of each file is stamped i * --sampling-rate-us.`,
		Example: `  pam-ball-trajectories add-json --group launcher --sampling-rate-us 10000 --dir ./throws`,
		GroupID: "edit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if samplingRateUS == 0 {
				return errors.New("--sampling-rate-us must be positive")
			}
			return a.add(cmd, group, func(r *repository.Repository) (int, error) {
				return r.AddJSONTrajectories(group, dir, samplingRateUS)
			})
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "name of the new group")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory holding the JSON files")
	cmd.Flags().Uint64Var(&samplingRateUS, "sampling-rate-us", 0, "interval between two points, in microseconds")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("sampling-rate-us")
	return cmd
}

func (a *app) addTennicamCommand() *cobra.Command {
	var group, dir string
	cmd := &cobra.Command{
		Use:   "add-tennicam",
		Short: "Add the tracker logs of a directory as a new group",
		Long: `Add one trajectory per tracker log of --dir (default: the current directory),
in file name order: tennicam_* structured-text logs and o80_robot_ball_*
tabular logs. Other files are ignored.`,
		GroupID: "edit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.add(cmd, group, func(r *repository.Repository) (int, error) {
				return r.AddTennicamTrajectories(group, dir)
			})
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "name of the new group")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory holding the logs")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (a *app) add(cmd *cobra.Command, group string, add func(*repository.Repository) (int, error)) error {
	r, err := a.open(container.ReadWrite)
	if err != nil {
		return err
	}
	defer r.Close()
	monitoring.Logf("recording trajectories in %s", r.Path())
	n, err := add(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %d trajectories to group %s\n", n, group)
	return r.Close()
}

func (a *app) rmCommand() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:     "rm",
		Short:   "Delete a group and its trajectories",
		GroupID: "edit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(container.ReadWrite)
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.RmGroup(group); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed group %s\n", group)
			return r.Close()
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to delete")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func (a *app) translateCommand() *cobra.Command {
	var group string
	var coords, rotation []float64
	cmd := &cobra.Command{
		Use:   "translate --group G --coords X Y Z",
		Short: "Shift, and optionally rotate, every position of a group",
		Long: `Add (X, Y, Z) to the first three components of every position of a group.
Coordinates may be given as --coords X,Y,Z or --coords X Y Z; negative values
need the comma form.

With --rotation ALPHA,BETA,GAMMA (radians, around x, y and z) positions are
rotated first, then translated.`,
		Example: `  pam-ball-trajectories translate --group session_03 --coords 0 0 0.76
  pam-ball-trajectories translate --group session_03 --coords 0.1,0,0 --rotation 0,0,1.5708`,
		GroupID: "edit",
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := translation(coords, args)
			if err != nil {
				return err
			}
			if rotation != nil && len(rotation) != 3 {
				return fmt.Errorf("--rotation needs 3 angles, got %d", len(rotation))
			}
			r, err := a.open(container.ReadWrite)
			if err != nil {
				return err
			}
			defer r.Close()

			var n int
			if rotation != nil {
				t := trajectory.NewTransform(rotation[0], rotation[1], rotation[2],
					r3.Vec{X: offset[0], Y: offset[1], Z: offset[2]})
				n, err = r.Transform(group, t)
			} else {
				n, err = r.Translate(group, []float32{float32(offset[0]), float32(offset[1]), float32(offset[2])})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "translated %d trajectories of group %s by %s\n", n, group, formatPosition(offset))
			return r.Close()
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to translate")
	cmd.Flags().Float64SliceVar(&coords, "coords", nil, "translation X,Y,Z in meters")
	cmd.Flags().Float64SliceVar(&rotation, "rotation", nil, "rotation ALPHA,BETA,GAMMA in radians, applied before the translation")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("coords")
	return cmd
}

// translation joins the --coords values with the positional arguments that
// follow them when given space separated.
func translation(coords []float64, args []string) ([]float64, error) {
	offset := append([]float64(nil), coords...)
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", arg, err)
		}
		offset = append(offset, v)
	}
	if len(offset) != 3 {
		return nil, fmt.Errorf("--coords needs 3 values, got %d", len(offset))
	}
	return offset, nil
}
