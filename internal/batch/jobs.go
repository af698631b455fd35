package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mu-decal-projector/internal/bmd"
	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/surface"
)

// Job is one scene: a set of receivers and the decals projected onto them.
// The preview is framed on the first decal.
type Job struct {
	Name      string     `json:"name"`
	Receivers []Receiver `json:"receivers"`
	Decals    []Decal    `json:"decals"`
}

// Receiver places a BMD model or a heightfield in the scene. Rotation is
// Euler XYZ in degrees; a zero Scale means 1.
type Receiver struct {
	Model    string       `json:"model,omitempty"`
	Skinned  bool         `json:"skinned,omitempty"`
	Terrain  *TerrainSpec `json:"terrain,omitempty"`
	Position [3]float64   `json:"position"`
	Rotation [3]float64   `json:"rotation"`
	Scale    float64      `json:"scale,omitempty"`
}

// TerrainSpec describes a heightfield receiver. Heights may be empty for a
// flat patch.
type TerrainSpec struct {
	Resolution int        `json:"resolution"`
	Size       [3]float64 `json:"size"`
	Heights    []float64  `json:"heights,omitempty"`
}

// Decal is one projection box. Normal points from the surface toward the
// projector.
type Decal struct {
	Texture string     `json:"texture"`
	Center  [3]float64 `json:"center"`
	Normal  [3]float64 `json:"normal"`
	Up      [3]float64 `json:"up"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Depth   float64    `json:"depth"`
}

// LoadJobs reads a JSON array of jobs.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("batch: parse %s: %w", path, err)
	}
	for i := range jobs {
		if err := jobs[i].Validate(); err != nil {
			return nil, fmt.Errorf("batch: job %d: %w", i, err)
		}
	}
	return jobs, nil
}

// Validate checks that the job is complete.
func (j *Job) Validate() error {
	if j.Name == "" {
		return errors.New("missing name")
	}
	if len(j.Receivers) == 0 {
		return fmt.Errorf("%s: no receivers", j.Name)
	}
	if len(j.Decals) == 0 {
		return fmt.Errorf("%s: no decals", j.Name)
	}
	for i, r := range j.Receivers {
		if (r.Model == "") == (r.Terrain == nil) {
			return fmt.Errorf("%s: receiver %d needs exactly one of model or terrain", j.Name, i)
		}
	}
	for i, d := range j.Decals {
		if d.Width <= 0 || d.Height <= 0 || d.Depth <= 0 {
			return fmt.Errorf("%s: decal %d has non-positive extents", j.Name, i)
		}
		if vec3(d.Normal).LenSq() == 0 {
			return fmt.Errorf("%s: decal %d has no normal", j.Name, i)
		}
	}
	return nil
}

// Box returns the projection box of d.
func (d Decal) Box() decal.Box {
	up := vec3(d.Up)
	if up.LenSq() == 0 {
		up = mathutil.Vec3{0, 1, 0}
	}
	return decal.LookBox(vec3(d.Center), vec3(d.Normal), up, d.Width, d.Height, d.Depth)
}

// World returns the receiver's model-to-world transform. BMD models are
// converted from Z-up first.
func (r Receiver) World() mathutil.Mat4 {
	s := r.Scale
	if s == 0 {
		s = 1
	}
	world := mathutil.FromTRS(vec3(r.Position), mathutil.EulerDegToQuat(vec3(r.Rotation)), mathutil.Vec3{s, s, s})
	if r.Model != "" {
		world = mathutil.Mat4Mul(world, mathutil.FromMat3Translation(mathutil.ModelFlip, mathutil.Vec3{}))
	}
	return world
}

// Load builds the receiver's surfaces, reading models relative to modelDir.
func (r Receiver) Load(modelDir string) ([]*surface.Surface, error) {
	if r.Terrain != nil {
		t := r.Terrain
		hf := surface.NewHeightfield(t.Resolution, vec3(t.Size))
		if len(t.Heights) > 0 {
			hf.Heights = t.Heights
		}
		s, err := surface.NewTerrain("terrain", hf, r.World())
		if err != nil {
			return nil, err
		}
		return []*surface.Surface{s}, nil
	}

	path := filepath.Join(modelDir, r.Model)
	meshes, bones, err := bmd.Parse(path)
	if err != nil {
		return nil, err
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("no meshes in %s", r.Model)
	}
	return surface.FromBMD(r.Model, meshes, bones, r.World(), r.Skinned)
}

func vec3(a [3]float64) mathutil.Vec3 { return mathutil.Vec3(a) }
