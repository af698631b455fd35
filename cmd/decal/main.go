package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"mu-decal-projector/internal/batch"
	"mu-decal-projector/internal/config"
	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	jobsFile := flag.String("jobs", "", "Path to the jobs JSON file (default: decal_jobs.json)")
	testN := flag.Int("test", 0, "Run only the first N jobs")
	only := flag.String("job", "", "Run only the job with this name")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Path to base directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: Data/Decal-renders)")
	backside := flag.Bool("backside", false, "Project onto back-facing polygons too")
	terrain := flag.Bool("terrain", false, "Project onto heightfield receivers")
	verbose := flag.Bool("v", false, "Log projection stages to stderr")

	flag.Parse()

	if *verbose {
		decal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		JobsFile:  *jobsFile,
		OutputDir: *outputDir,
		Workers:   *workers,
		Backside:  *backside,
		Terrain:   *terrain,
	})

	if cfg.BaseDir == "" && *jobsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: cannot find Data directory. Use -data, -jobs or config.json.")
		os.Exit(1)
	}

	jobs, err := batch.LoadJobs(cfg.JobsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading jobs: %v\n", err)
		os.Exit(1)
	}

	// Filter by name
	if *only != "" {
		var filtered []batch.Job
		for _, j := range jobs {
			if j.Name == *only {
				filtered = append(filtered, j)
			}
		}
		jobs = filtered
	}

	// Limit for testing
	if *testN > 0 && *testN < len(jobs) {
		jobs = jobs[:*testN]
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs to run.")
		os.Exit(0)
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.DecalDir)
	texCache := texture.NewCache(texIndex)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	mode := ""
	if *testN > 0 {
		mode = fmt.Sprintf(" (TEST: first %d)", *testN)
	}
	fmt.Printf("Decal projector → WebP%s\n", mode)
	fmt.Printf("Jobs: %d, Workers: %d, Terrain: %v, Backside: %v\n", len(jobs), cfg.Workers, cfg.Terrain, cfg.Backside)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		ModelDir:        cfg.ModelDir,
		OutputDir:       cfg.OutputDir,
		TexResolver:     texCache,
		RenderSize:      cfg.RenderSize,
		Supersample:     cfg.Supersample,
		Workers:         cfg.Workers,
		PolygonsPerStep: cfg.PolygonsPerStep,
		MaxVertex:       cfg.MaxVertex,
		Offset:          cfg.Offset,
		Backside:        cfg.Backside,
		Terrain:         cfg.Terrain,
		Tick:            time.Duration(cfg.TickMS) * time.Millisecond,
	}

	results := batch.Run(ctx, batchCfg, jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, triangles := 0, 0
	var failures []batch.Result
	for _, r := range results {
		if r.Success {
			success++
			triangles += r.Triangles
		} else {
			failures = append(failures, r)
		}
	}

	fmt.Printf("Rendered: %d/%d (%d decal triangles)\n", success, len(jobs), triangles)

	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		for _, e := range failures[:min(len(failures), 20)] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failures) > 0 {
		os.Exit(1)
	}
}
