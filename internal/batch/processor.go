package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/postprocess"
	"mu-decal-projector/internal/raster"
	"mu-decal-projector/internal/soup"
	"mu-decal-projector/internal/surface"
	"mu-decal-projector/internal/texture"

	"github.com/HugoSmits86/nativewebp"
)

// Config holds all shared resources for a batch run.
type Config struct {
	ModelDir    string
	OutputDir   string
	TexResolver texture.Resolver
	RenderSize  int
	Supersample int
	Workers     int

	PolygonsPerStep int
	MaxVertex       int
	Offset          float64
	Backside        bool
	Terrain         bool
	Tick            time.Duration
}

// Result holds the outcome of processing one job.
type Result struct {
	Name      string
	Image     string // relative to the output dir
	Surfaces  int
	Triangles int
	Canceled  int // decals that ended without output
	Success   bool
	Error     string
}

// Run processes all jobs using a worker pool.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f jobs/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	workers := max(cfg.Workers, 1)
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(ctx, cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(ctx context.Context, cfg Config, job Job) Result {
	res := Result{Name: job.Name}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	var receivers []*surface.Surface
	for i, r := range job.Receivers {
		surfs, err := r.Load(cfg.ModelDir)
		if err != nil {
			return fail(fmt.Errorf("receiver %d: %w", i, err))
		}
		receivers = append(receivers, surfs...)
	}

	soups := soup.NewPool()
	meshes := decal.NewMeshPool()
	seq := decal.NewSequencer(cfg.Tick)

	for i, d := range job.Decals {
		mat := decal.NewMaterial(d.Texture, resolve(cfg.TexResolver, d.Texture))
		p, err := decal.NewProjector(decal.Params{
			Box:             d.Box(),
			Material:        mat,
			Backside:        cfg.Backside,
			Terrain:         cfg.Terrain,
			PolygonsPerStep: cfg.PolygonsPerStep,
			MaxVertex:       cfg.MaxVertex,
			Offset:          cfg.Offset,
		}, receivers, soups, meshes)
		if err != nil {
			return fail(fmt.Errorf("decal %d: %w", i, err))
		}

		pr, err := seq.Launch(ctx, p)
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		if err != nil {
			res.Canceled++
			continue
		}
		res.Triangles += pr.Triangles
	}
	res.Surfaces = meshes.Len()

	img := raster.Render(job.Decals[0].Box(), receivers, meshes.Entries(), cfg.RenderSize, cfg.Supersample)

	// Post-processing: supersample downsample
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize, cfg.RenderSize)
	}

	// Save as WebP
	res.Image = job.Name + ".webp"
	outPath := filepath.Join(cfg.OutputDir, res.Image)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fail(fmt.Errorf("WebP encode: %w", err))
	}

	res.Success = true
	return res
}

// resolve looks up a decal texture; a missing one previews as UV colours.
func resolve(r texture.Resolver, name string) *image.NRGBA {
	if r == nil || name == "" {
		return nil
	}
	return r.Resolve(name)
}
