package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/soup"
)

// Config holds all configurable paths, render settings and projection
// tuning.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir"`
	ModelDir  string `json:"model_dir"`
	JobsFile  string `json:"jobs_file"`
	DecalDir  string `json:"decal_dir"`
	OutputDir string `json:"output_dir"`

	// Render settings
	RenderSize  int `json:"render_size"`
	Supersample int `json:"supersample"`
	Workers     int `json:"workers"`

	// Projection
	PolygonsPerStep int     `json:"polygons_per_step"`
	MaxVertex       int     `json:"max_vertex"`
	Offset          float64 `json:"offset"`
	Backside        bool    `json:"backside"`
	Terrain         bool    `json:"terrain"`
	TickMS          int     `json:"tick_ms"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.JobsFile != "" {
		c.JobsFile = flags.JobsFile
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Backside {
		c.Backside = true
	}
	if flags.Terrain {
		c.Terrain = true
	}

	// Auto-detect base dir if still empty
	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		c.ModelDir = under(c.BaseDir, c.ModelDir, "Data")
		c.JobsFile = under(c.BaseDir, c.JobsFile, "decal_jobs.json")
		c.DecalDir = under(c.BaseDir, c.DecalDir, filepath.Join("Data", "Effect"))
		c.OutputDir = under(c.BaseDir, c.OutputDir, filepath.Join("Data", "Decal-renders"))
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	// Projection defaults
	if c.PolygonsPerStep <= 0 {
		c.PolygonsPerStep = soup.DefaultPolygonsPerStep
	}
	if c.MaxVertex <= 0 {
		c.MaxVertex = polygon.DefaultMaxVertex
	}
	if c.Offset <= 0 {
		c.Offset = decal.DefaultOffset
	}
	if c.TickMS <= 0 {
		c.TickMS = 1
	}
}

// under resolves p against base, falling back to def when p is empty.
func under(base, p, def string) string {
	switch {
	case p == "":
		return filepath.Join(base, def)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(base, p)
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	JobsFile  string
	OutputDir string
	Workers   int
	Backside  bool
	Terrain   bool
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if isClientDir(base) {
				return base
			}
		}
	}

	// Try current working directory, then its parent
	cwd, _ := os.Getwd()
	if isClientDir(cwd) {
		return cwd
	}
	if parent := filepath.Dir(cwd); isClientDir(parent) {
		return parent
	}

	return ""
}

// isClientDir reports whether dir looks like a game client root.
func isClientDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "Data"))
	return err == nil && info.IsDir()
}
