// Package cli implements the pam-ball-trajectories command tree.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/intelligent-soft-robots/balltraj/internal/config"
	"github.com/intelligent-soft-robots/balltraj/internal/container"
	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
	"github.com/intelligent-soft-robots/balltraj/internal/monitoring"
	"github.com/intelligent-soft-robots/balltraj/internal/repository"
	"github.com/intelligent-soft-robots/balltraj/internal/version"
)

// app holds the global flags shared by every command.
type app struct {
	path       string
	configPath string
	verbose    bool

	// fs resolves the default container location.
	fs fsutil.FileSystem
}

// NewRootCommand builds the command tree. Reports go to stdout.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{fs: fsutil.OSFileSystem{}}

	root := &cobra.Command{
		Use:   "pam-ball-trajectories",
		Short: "Manage the recorded ball trajectories of the PAM setup",
		Long: `pam-ball-trajectories stores recorded ball trajectories in a container file,
organised in named groups of indexed entries.

The container defaults to context/ball_trajectories.db under the first of
~/.mpi-is/pam and /opt/mpi-is/pam that exists; --path overrides it.

Examples:
  pam-ball-trajectories create
  pam-ball-trajectories add-tennicam --group session_03 --dir /data/session_03
  pam-ball-trajectories add-json --group launcher --sampling-rate-us 10000
  pam-ball-trajectories info --group session_03 --where 'duration > 0.5'
  pam-ball-trajectories plot --group session_03 --view side`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.SetVerbose(a.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.path, "path", "", "container file (default: resolved from the configuration roots)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file (default: $"+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log per-file ingest diagnostics")

	root.AddGroup(
		&cobra.Group{ID: "query", Title: "Query Commands:"},
		&cobra.Group{ID: "edit", Title: "Edit Commands:"},
		&cobra.Group{ID: "output", Title: "Output Commands:"},
	)
	root.AddCommand(
		a.infoCommand(),
		a.createCommand(),
		a.addJSONCommand(),
		a.addTennicamCommand(),
		a.rmCommand(),
		a.translateCommand(),
		a.plotCommand(),
		a.exportCommand(),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Main is the binary entry point.
func Main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[pam-ball-trajectories] ")
	os.Exit(Execute(os.Args[1:], os.Stdout, os.Stderr))
}

// config loads the configuration named by --config or the environment.
func (a *app) config() (*config.Config, error) {
	return config.LoadDefault(a.configPath)
}

// containerPath returns --path, or the default location from the
// configuration.
func (a *app) containerPath(cfg *config.Config) (string, error) {
	return config.ResolvePath(a.path, cfg.Paths, a.fs)
}

// open opens the repository in mode.
func (a *app) open(mode container.Mode) (*repository.Repository, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	file, err := a.containerPath(cfg)
	if err != nil {
		return nil, err
	}
	return repository.Open(file, mode, repositoryOptions(cfg))
}

func repositoryOptions(cfg *config.Config) repository.Options {
	return repository.Options{
		Naming:           cfg.Ingest.Naming(),
		IncludeCompanion: cfg.Ingest.GetIncludeCompanion(),
		FS:               fsutil.OSFileSystem{},
	}
}
