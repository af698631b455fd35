package config

import (
	"os"
	"path/filepath"
	"testing"

	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/soup"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	out := filepath.Join(dir, "out")
	data := `{
		"base_dir": "` + filepath.ToSlash(dir) + `",
		"model_dir": "models",
		"output_dir": "` + filepath.ToSlash(out) + `",
		"render_size": 128,
		"offset": 0.05,
		"terrain": true
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Resolve(Flags{Workers: 3, Backside: true})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"model dir", cfg.ModelDir, filepath.Join(dir, "models")},
		{"decal dir", cfg.DecalDir, filepath.Join(dir, "Data", "Effect")},
		{"jobs file", cfg.JobsFile, filepath.Join(dir, "decal_jobs.json")},
		{"output dir", filepath.Clean(cfg.OutputDir), out},
		{"render size", cfg.RenderSize, 128},
		{"supersample", cfg.Supersample, 2},
		{"workers", cfg.Workers, 3},
		{"polygons per step", cfg.PolygonsPerStep, soup.DefaultPolygonsPerStep},
		{"max vertex", cfg.MaxVertex, polygon.DefaultMaxVertex},
		{"offset", cfg.Offset, 0.05},
		{"terrain", cfg.Terrain, true},
		{"backside", cfg.Backside, true},
		{"tick", cfg.TickMS, 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed JSON succeeded")
	}
}

func TestResolveProjectionDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{DataDir: t.TempDir()})
	if cfg.PolygonsPerStep != soup.DefaultPolygonsPerStep {
		t.Errorf("polygons per step = %d, want %d", cfg.PolygonsPerStep, soup.DefaultPolygonsPerStep)
	}
	if cfg.MaxVertex != polygon.DefaultMaxVertex {
		t.Errorf("max vertex = %d, want %d", cfg.MaxVertex, polygon.DefaultMaxVertex)
	}
	if cfg.Offset != decal.DefaultOffset {
		t.Errorf("offset = %g, want %g", cfg.Offset, decal.DefaultOffset)
	}
}
