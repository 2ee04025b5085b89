// Package cli implements flatrecordctl's command dispatcher, config
// loading, and subcommands, following the shape of the teacher's own
// internal/cli package (Command/IO/Run) generalized from ticket
// management to schema/log/ring-buffer operations.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ErrConfigInvalid wraps a config file that failed to parse as JWCC/JSON
// or whose contents failed validation.
var ErrConfigInvalid = errors.New("cli: invalid config")

// FieldDecl is a schema field as declared in config, mirroring
// record.FieldDef but with a string Kind so it round-trips through JSON.
type FieldDecl struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Length int    `json:"length"`
}

// SchemaDecl is a named schema declaration, so a schema can be defined
// once in config and reused across invocations without re-specifying
// its fields on every `append`/`schema` call.
type SchemaDecl struct {
	Name   string      `json:"name"`
	Fields []FieldDecl `json:"fields"`
}

// Config is flatrecordctl's JWCC configuration file shape.
type Config struct {
	LogPath      string       `json:"log_path"`
	RingSize     int          `json:"ring_size"`
	PoolCapacity int          `json:"pool_capacity"`
	Schemas      []SchemaDecl `json:"schemas"`
}

const (
	// DefaultConfigFileName is the project-local config file flatrecordctl
	// looks for when -c/--config isn't given.
	DefaultConfigFileName = ".flatrecordctl.json"

	defaultRingSize     = 1 << 20
	defaultPoolCapacity = 64
)

// DefaultConfig returns the configuration used when no config file is
// found and no overrides are given.
func DefaultConfig() Config {
	return Config{
		LogPath:      "flatrecord.log",
		RingSize:     defaultRingSize,
		PoolCapacity: defaultPoolCapacity,
	}
}

// SchemaByName returns the named schema declaration, if any.
func (c Config) SchemaByName(name string) (SchemaDecl, bool) {
	for _, s := range c.Schemas {
		if s.Name == name {
			return s, true
		}
	}

	return SchemaDecl{}, false
}

// LoadConfigInput holds LoadConfig's inputs.
type LoadConfigInput struct {
	WorkDir    string // defaults to os.Getwd() if empty
	ConfigPath string // -c/--config flag value; empty means default location
}

// LoadConfig loads flatrecordctl's config, starting from [DefaultConfig]
// and overlaying whatever project or explicit config file is found, the
// same precedence shape as the teacher's own config.go (defaults, then
// file, CLI flags apply on top of whatever LoadConfig returns).
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cli: LoadConfig: %w", err)
		}
	}

	cfg := DefaultConfig()

	path := input.ConfigPath
	mustExist := path != ""

	if path == "" {
		path = filepath.Join(workDir, DefaultConfigFileName)
	}

	fileCfg, loaded, err := loadConfigFile(path, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = mergeConfig(cfg, fileCfg)
	}

	return cfg, nil
}

func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled CLI input
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: reading %s: %w", ErrConfigInvalid, path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWCC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.LogPath != "" {
		base.LogPath = overlay.LogPath
	}

	if overlay.RingSize != 0 {
		base.RingSize = overlay.RingSize
	}

	if overlay.PoolCapacity != 0 {
		base.PoolCapacity = overlay.PoolCapacity
	}

	if len(overlay.Schemas) > 0 {
		base.Schemas = append(append([]SchemaDecl(nil), base.Schemas...), overlay.Schemas...)
	}

	return base
}
