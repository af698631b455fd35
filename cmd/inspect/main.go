package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mu-decal-projector/internal/bmd"
	"mu-decal-projector/internal/decal"
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/soup"
	"mu-decal-projector/internal/surface"
	"mu-decal-projector/internal/texture"
)

func main() {
	boxFlag := flag.String("box", "", "Probe box as cx,cy,cz,w,h,d (looking down -Y); prints cull/clip counts")
	backside := flag.Bool("backside", false, "Admit back-facing polygons in the probe")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: inspect [-box cx,cy,cz,w,h,d] file.bmd|texture...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var probe *decal.Box
	if *boxFlag != "" {
		b, err := parseBox(*boxFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -box: %v\n", err)
			os.Exit(2)
		}
		probe = &b
	}

	failed := false
	for _, arg := range flag.Args() {
		var err error
		if strings.EqualFold(filepath.Ext(arg), ".bmd") {
			err = inspectModel(arg, probe, *backside)
		} else {
			err = inspectTexture(arg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspectModel(path string, probe *decal.Box, backside bool) error {
	meshes, bones, err := bmd.Parse(path)
	if err != nil {
		return err
	}
	fmt.Printf("\n=== %s (meshes=%d bones=%d) ===\n", path, len(meshes), len(bones))

	world := mathutil.FromMat3Translation(mathutil.ModelFlip, mathutil.Vec3{})
	surfs, err := surface.FromBMD(filepath.Base(path), meshes, bones, world, len(bones) > 0)
	if err != nil {
		return err
	}

	for _, s := range surfs {
		m := s.Mesh()
		sp, err := soup.NewBuilder(s, 0).Build()
		if err != nil {
			return err
		}
		lo, hi := m.Bounds()
		fmt.Printf("  Mesh[%d] %s: tris=%d polygons=%d (%d degenerate) tex=%q model min=(%.0f,%.0f,%.0f) max=(%.0f,%.0f,%.0f)\n",
			s.Sub, s.Kind, m.TriangleCount(), len(sp.Polygons), m.TriangleCount()-len(sp.Polygons),
			meshes[s.Sub].TexPath, lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])

		if probe != nil {
			probeSoup(sp, *probe, backside)
		}
	}
	return nil
}

// probeSoup runs the broad phase and clipper over one soup and reports
// how many polygons each stage keeps.
func probeSoup(sp *soup.Soup, box decal.Box, backside bool) {
	snap, err := sp.Surface.Snapshot()
	if err != nil {
		return
	}
	var scratch polygon.EvalScratch
	for i := range sp.Polygons {
		sp.Polygons[i].PrepareForEvaluation(snap.Snapshot)
		sp.Polygons[i].EvaluateWorldSpace(snap.Palette, &scratch)
	}

	surv := decal.Cull(box, sp.Polygons, backside, 0)
	planes := box.Planes()
	alive := decal.ClipAll(planes[:], surv.Polygons)
	var mesh decal.OutputMesh
	tris := decal.Assemble(box, surv.Polygons, &mesh, 0)
	fmt.Printf("      probe: culled=%d survivors=%d clipped=%d triangles=%d\n",
		len(sp.Polygons)-len(surv.Polygons), len(surv.Polygons), alive, tris)
}

func inspectTexture(path string) error {
	img, err := texture.LoadTexture(path)
	if err != nil {
		return err
	}
	b := img.Bounds()
	opaque, clear := 0, 0
	for i := 3; i < len(img.Pix); i += 4 {
		switch img.Pix[i] {
		case 255:
			opaque++
		case 0:
			clear++
		}
	}
	n := b.Dx() * b.Dy()
	fmt.Printf("%s: %dx%d opaque=%.1f%% transparent=%.1f%%\n",
		path, b.Dx(), b.Dy(), 100*float64(opaque)/float64(max(n, 1)), 100*float64(clear)/float64(max(n, 1)))
	return nil
}

func parseBox(s string) (decal.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return decal.Box{}, fmt.Errorf("want 6 comma-separated numbers, got %d", len(parts))
	}
	var v [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return decal.Box{}, err
		}
		v[i] = f
	}
	return decal.LookBox(mathutil.Vec3{v[0], v[1], v[2]}, mathutil.Vec3{0, 1, 0}, mathutil.Vec3{0, 0, -1}, v[3], v[4], v[5]), nil
}
