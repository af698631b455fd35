package bmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

const (
	prefix = "bmd: "

	maxMeshes   = 100
	nameLen     = 32
	triangleLen = 64
)

var (
	// ErrEncrypted is returned for XOR (v12) and LEA (v15) models, whose
	// keys are not shipped with this tool.
	ErrEncrypted = errors.New(prefix + "encrypted model")
	// ErrTruncated is returned when a record runs past the end of the data.
	ErrTruncated = errors.New(prefix + "truncated model")
)

// Parse reads a BMD file and returns meshes and bind-pose bones.
// Only unencrypted models are supported.
func Parse(path string) ([]Mesh, []Bone, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf(prefix+"read %s: %w", path, err)
	}
	return Decode(raw, path)
}

// Decode parses an in-memory BMD model. name is only used in error messages.
func Decode(raw []byte, name string) ([]Mesh, []Bone, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, nil, fmt.Errorf(prefix+"%s: invalid header", name)
	}
	switch version := raw[3]; version {
	case 12, 15:
		return nil, nil, fmt.Errorf(prefix+"%s: version %d: %w", name, version, ErrEncrypted)
	}

	d := &decoder{buf: raw[4:]}
	meshes, bones := d.model()
	if d.err != nil {
		return nil, nil, fmt.Errorf(prefix+"%s: %w", name, d.err)
	}
	return meshes, bones, nil
}

// decoder reads little-endian records. The first failure sticks; later
// reads return zero values so callers check err once at the end.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w at offset %d (+%d)", ErrTruncated, d.off+4, n)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func (d *decoder) u8() byte {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) i16() int16 { return int16(d.u16()) }

func (d *decoder) f32() float32 {
	if b := d.take(4); b != nil {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (d *decoder) vec3() [3]float32 {
	return [3]float32{d.f32(), d.f32(), d.f32()}
}

// name reads a fixed-width NUL-padded string.
func (d *decoder) name() string {
	b := d.take(nameLen)
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (d *decoder) count(what string) int {
	n := int(d.i16())
	if n < 0 {
		d.fail("negative %s count %d", what, n)
		return 0
	}
	return n
}

func (d *decoder) model() ([]Mesh, []Bone) {
	d.name() // model name
	meshCount := int(d.u16())
	boneCount := int(d.u16())
	actionCount := int(d.u16())
	if meshCount > maxMeshes {
		d.fail("invalid mesh count %d", meshCount)
	}
	if d.err != nil {
		return nil, nil
	}

	meshes := make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount && d.err == nil; i++ {
		meshes = append(meshes, d.mesh())
	}
	keys := d.actions(actionCount)

	bones := make([]Bone, 0, boneCount)
	for i := 0; i < boneCount && d.err == nil; i++ {
		bones = append(bones, d.bone(keys))
	}
	return meshes, bones
}

func (d *decoder) mesh() Mesh {
	nv := d.count("vertex")
	nn := d.count("normal")
	nt := d.count("texcoord")
	nf := d.count("triangle")
	d.i16() // texture index
	if d.err != nil {
		return Mesh{}
	}

	m := Mesh{
		Verts:   make([][3]float32, nv),
		Nodes:   make([]int16, nv),
		Normals: make([][3]float32, nn),
		UVs:     make([][2]float32, nt),
		Tris:    make([]Triangle, nf),
	}
	// node, pad, xyz
	for j := range m.Verts {
		m.Nodes[j] = d.i16()
		d.i16()
		m.Verts[j] = d.vec3()
	}
	// node, pad, xyz, bind vertex, pad
	for j := range m.Normals {
		d.take(4)
		m.Normals[j] = d.vec3()
		d.take(4)
	}
	for j := range m.UVs {
		m.UVs[j] = [2]float32{d.f32(), d.f32()}
	}
	for j := range m.Tris {
		m.Tris[j] = triangle(d.take(triangleLen))
	}
	m.TexPath = strings.ReplaceAll(d.name(), `\`, "/")
	return m
}

func triangle(rec []byte) Triangle {
	if rec == nil {
		return Triangle{}
	}
	t := Triangle{Polygon: int(rec[0])}
	for k := 0; k < 4; k++ {
		t.VI[k] = int16(binary.LittleEndian.Uint16(rec[2+k*2:]))
		t.NI[k] = int16(binary.LittleEndian.Uint16(rec[10+k*2:]))
		t.TI[k] = int16(binary.LittleEndian.Uint16(rec[18+k*2:]))
	}
	return t
}

// actions returns the key count of each action, skipping locked positions.
func (d *decoder) actions(n int) []int {
	keys := make([]int, n)
	for a := range keys {
		keys[a] = d.count("key")
		if d.u8() != 0 {
			d.take(keys[a] * 12)
		}
	}
	return keys
}

// bone reads one bone and keeps the first key of the first action as the
// bind pose.
func (d *decoder) bone(keys []int) Bone {
	if d.u8() != 0 {
		return Bone{Parent: -1, IsDummy: true}
	}
	b := Bone{Name: d.name(), Parent: int(d.i16())}
	for a, n := range keys {
		for k := 0; k < n; k++ {
			p := d.vec3()
			if a == 0 && k == 0 {
				b.BindPosition = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
			}
		}
		for k := 0; k < n; k++ {
			r := d.vec3()
			if a == 0 && k == 0 {
				b.BindRotation = [3]float64{float64(r[0]), float64(r[1]), float64(r[2])}
			}
		}
	}
	return b
}
