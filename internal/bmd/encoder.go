package bmd

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Version is the unencrypted BMD format version written by Encode.
const Version = 10

// Encode serialises meshes and bind-pose bones as an unencrypted BMD model
// with a single one-key action, so Parse recovers the same bind pose.
func Encode(name string, meshes []Mesh, bones []Bone) []byte {
	w := &writer{}
	w.buf.WriteString("BMD")
	w.buf.WriteByte(Version)
	w.str(name, 32)
	w.u16(uint16(len(meshes)))
	w.u16(uint16(len(bones)))
	w.u16(1) // action count

	for i := range meshes {
		m := &meshes[i]
		w.i16(int16(len(m.Verts)))
		w.i16(int16(len(m.Normals)))
		w.i16(int16(len(m.UVs)))
		w.i16(int16(len(m.Tris)))
		w.i16(int16(i)) // texture index

		for j, v := range m.Verts {
			var node int16
			if j < len(m.Nodes) {
				node = m.Nodes[j]
			}
			w.i16(node)
			w.i16(0)
			w.f32(v[0])
			w.f32(v[1])
			w.f32(v[2])
		}
		for _, n := range m.Normals {
			w.i16(0)
			w.i16(0)
			w.f32(n[0])
			w.f32(n[1])
			w.f32(n[2])
			w.i16(0)
			w.i16(0)
		}
		for _, uv := range m.UVs {
			w.f32(uv[0])
			w.f32(uv[1])
		}
		for _, t := range m.Tris {
			var rec [64]byte
			rec[0] = byte(t.Polygon)
			for k := 0; k < 4; k++ {
				binary.LittleEndian.PutUint16(rec[2+k*2:], uint16(t.VI[k]))
				binary.LittleEndian.PutUint16(rec[10+k*2:], uint16(t.NI[k]))
				binary.LittleEndian.PutUint16(rec[18+k*2:], uint16(t.TI[k]))
			}
			w.buf.Write(rec[:])
		}
		w.str(m.TexPath, 32)
	}

	// One action, one key, no locked positions.
	w.i16(1)
	w.buf.WriteByte(0)

	for _, b := range bones {
		if b.IsDummy {
			w.buf.WriteByte(1)
			continue
		}
		w.buf.WriteByte(0)
		w.str(b.Name, 32)
		w.i16(int16(b.Parent))
		for k := 0; k < 3; k++ {
			w.f32(float32(b.BindPosition[k]))
		}
		for k := 0; k < 3; k++ {
			w.f32(float32(b.BindRotation[k]))
		}
	}
	return w.buf.Bytes()
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) str(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf.Write(b)
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) f32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf.Write(b[:])
}
