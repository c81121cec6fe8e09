// Package config loads the YAML configuration of the trajectory tools and
// resolves the location of the trajectory container.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/intelligent-soft-robots/balltraj/internal/fsutil"
	"github.com/intelligent-soft-robots/balltraj/internal/ingest"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "PAM_BALL_TRAJECTORIES_CONFIG"

// DefaultFile is the container location relative to a configuration root.
const DefaultFile = "context/ball_trajectories.db"

// DefaultRoots are searched in order for an installed configuration tree.
var DefaultRoots = []string{"~/.mpi-is/pam", "/opt/mpi-is/pam"}

// ErrNoRoot is returned by ResolvePath when no configuration root exists.
var ErrNoRoot = errors.New("config: no configuration root found")

// Config is the root configuration.
type Config struct {
	Paths  PathConfig   `yaml:"paths"`
	Ingest IngestConfig `yaml:"ingest"`
}

// PathConfig locates the default container.
type PathConfig struct {
	Roots []string `yaml:"roots,omitempty"`
	File  string   `yaml:"file,omitempty"`
	// Home replaces a leading "~" in Roots. It is filled from the
	// environment, never from the file.
	Home string `yaml:"-"`
}

// IngestConfig tunes file selection and parsing. Unset fields take their
// defaults through the Get methods.
type IngestConfig struct {
	JSONExtension    *string `yaml:"json_extension,omitempty"`
	TennicamPrefix   *string `yaml:"tennicam_prefix,omitempty"`
	RobotBallPrefix  *string `yaml:"robot_ball_prefix,omitempty"`
	IncludeCompanion *bool   `yaml:"include_companion,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Paths: PathConfig{
			Roots: append([]string(nil), DefaultRoots...),
			File:  DefaultFile,
			Home:  home,
		},
	}
}

const maxFileSize = 1 << 20

// Load reads a YAML configuration file. Fields omitted from the file keep
// their defaults, so partial files are fine.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have a .yaml or .yml extension, got %q", ext)
	}
	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", clean, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads explicit if set, else the file named by EnvConfigPath if
// set, else returns Default.
func LoadDefault(explicit string) (*Config, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit == "" {
		return Default(), nil
	}
	return Load(explicit)
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if len(c.Paths.Roots) == 0 {
		return errors.New("paths.roots must list at least one directory")
	}
	if c.Paths.File == "" {
		return errors.New("paths.file must be set")
	}
	if !filepath.IsLocal(c.Paths.File) {
		return fmt.Errorf("paths.file must be a relative path inside the root, got %q", c.Paths.File)
	}
	if ext := c.Ingest.GetJSONExtension(); !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return fmt.Errorf("ingest.json_extension must start with a dot, got %q", ext)
	}
	if c.Ingest.GetTennicamPrefix() == "" {
		return errors.New("ingest.tennicam_prefix must not be empty")
	}
	if c.Ingest.GetRobotBallPrefix() == "" {
		return errors.New("ingest.robot_ball_prefix must not be empty")
	}
	if c.Ingest.GetTennicamPrefix() == c.Ingest.GetRobotBallPrefix() {
		return errors.New("ingest.tennicam_prefix and ingest.robot_ball_prefix must differ")
	}
	return nil
}

// GetJSONExtension returns json_extension or ".json".
func (c IngestConfig) GetJSONExtension() string {
	if c.JSONExtension == nil {
		return ingest.DefaultNaming.JSONExtension
	}
	return *c.JSONExtension
}

// GetTennicamPrefix returns tennicam_prefix or "tennicam_".
func (c IngestConfig) GetTennicamPrefix() string {
	if c.TennicamPrefix == nil {
		return ingest.DefaultNaming.TennicamPrefix
	}
	return *c.TennicamPrefix
}

// GetRobotBallPrefix returns robot_ball_prefix or "o80_robot_ball_".
func (c IngestConfig) GetRobotBallPrefix() string {
	if c.RobotBallPrefix == nil {
		return ingest.DefaultNaming.RobotBallPrefix
	}
	return *c.RobotBallPrefix
}

// GetIncludeCompanion returns include_companion or false.
func (c IngestConfig) GetIncludeCompanion() bool {
	return c.IncludeCompanion != nil && *c.IncludeCompanion
}

// Naming returns the file naming conventions.
func (c IngestConfig) Naming() ingest.Naming {
	return ingest.Naming{
		JSONExtension:   c.GetJSONExtension(),
		TennicamPrefix:  c.GetTennicamPrefix(),
		RobotBallPrefix: c.GetRobotBallPrefix(),
	}
}

// ResolvePath returns the container location: explicit when set, otherwise
// File under the first of Roots that exists as a directory in fsys. It does
// not check that the container itself exists.
func ResolvePath(explicit string, cfg PathConfig, fsys fsutil.FileSystem) (string, error) {
	if explicit != "" {
		return expandHome(explicit, cfg.Home)
	}
	for _, root := range cfg.Roots {
		dir, err := expandHome(root, cfg.Home)
		if err != nil {
			continue
		}
		if info, err := fsys.Stat(dir); err == nil && info.IsDir() {
			return filepath.Join(dir, cfg.File), nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNoRoot, strings.Join(cfg.Roots, ", "))
}

func expandHome(p, home string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	if home == "" {
		return "", fmt.Errorf("cannot expand %q: home directory unknown", p)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
