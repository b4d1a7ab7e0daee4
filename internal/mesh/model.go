// Package mesh holds immutable triangle-mesh snapshots and the kernel boundary that produces them.
package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/talkcad/pkg/math"
)

// ErrInvalidMesh is returned when vertex, index or provenance buffers are inconsistent.
var ErrInvalidMesh = errors.New("invalid mesh")

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Model is one tessellation of a solid: a flat vertex buffer (xyz per vertex)
// and a flat index buffer (three indices per triangle). A Model never changes
// after New returns; the next kernel step produces a new one.
type Model struct {
	vertices []float32
	indices  []uint32
	faces    []int // triangle -> face id
	hasFaces bool  // set by WithProvenance, even for an empty table
	bounds   Bounds
}

// Option configures New.
type Option func(*Model)

// WithProvenance attaches the kernel's triangle -> face table. The table
// must have one entry per triangle.
func WithProvenance(faces []int) Option {
	return func(m *Model) {
		m.faces = slices.Clone(faces)
		m.hasFaces = true
	}
}

// New validates and copies the buffers into a Model.
func New(vertices []float32, indices []uint32, opts ...Option) (*Model, error) {
	if len(vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: vertex buffer length %d is not a multiple of 3", ErrInvalidMesh, len(vertices))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index buffer length %d is not a multiple of 3", ErrInvalidMesh, len(indices))
	}

	vertexCount := uint32(len(vertices) / 3)
	for i, idx := range indices {
		if idx >= vertexCount {
			return nil, fmt.Errorf("%w: index %d at position %d references vertex outside 0..%d", ErrInvalidMesh, idx, i, int(vertexCount)-1)
		}
	}

	m := &Model{
		vertices: append([]float32(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.hasFaces {
		if len(m.faces) != m.TriangleCount() {
			return nil, fmt.Errorf("%w: provenance has %d entries for %d triangles", ErrInvalidMesh, len(m.faces), m.TriangleCount())
		}
		for t, f := range m.faces {
			if f < 0 {
				return nil, fmt.Errorf("%w: triangle %d has negative face id %d", ErrInvalidMesh, t, f)
			}
		}
	}

	m.bounds = computeBounds(m.vertices)
	return m, nil
}

// VertexCount returns the number of vertices.
func (m *Model) VertexCount() int {
	return len(m.vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Model) TriangleCount() int {
	return len(m.indices) / 3
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Model) IsEmpty() bool {
	return len(m.indices) == 0
}

// Vertex returns the position of vertex i.
func (m *Model) Vertex(i int) math.Vec3 {
	return math.Vec3{X: m.vertices[3*i], Y: m.vertices[3*i+1], Z: m.vertices[3*i+2]}
}

// Triangle returns the three vertex indices of triangle t.
func (m *Model) Triangle(t int) [3]uint32 {
	return [3]uint32{m.indices[3*t], m.indices[3*t+1], m.indices[3*t+2]}
}

// Corners returns the three vertex positions of triangle t.
func (m *Model) Corners(t int) (a, b, c math.Vec3) {
	tri := m.Triangle(t)
	return m.Vertex(int(tri[0])), m.Vertex(int(tri[1])), m.Vertex(int(tri[2]))
}

// HasProvenance reports whether the kernel supplied a triangle -> face table.
func (m *Model) HasProvenance() bool {
	return m.hasFaces
}

// FaceOf returns the provenance face id of triangle t.
// ok is false when there is no table or t is out of range.
func (m *Model) FaceOf(t int) (id int, ok bool) {
	if !m.hasFaces || t < 0 || t >= len(m.faces) {
		return 0, false
	}
	return m.faces[t], true
}

// Bounds returns the axis-aligned bounding box.
func (m *Model) Bounds() Bounds {
	return m.bounds
}

// Vertices returns a copy of the flat vertex buffer.
func (m *Model) Vertices() []float32 {
	return append([]float32(nil), m.vertices...)
}

// Indices returns a copy of the flat index buffer.
func (m *Model) Indices() []uint32 {
	return append([]uint32(nil), m.indices...)
}

func computeBounds(vertices []float32) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: math.Vec3{X: 1e30, Y: 1e30, Z: 1e30},
		Max: math.Vec3{X: -1e30, Y: -1e30, Z: -1e30},
	}
	for i := 0; i+2 < len(vertices); i += 3 {
		x, y, z := vertices[i], vertices[i+1], vertices[i+2]
		b.Min.X = min(b.Min.X, x)
		b.Min.Y = min(b.Min.Y, y)
		b.Min.Z = min(b.Min.Z, z)
		b.Max.X = max(b.Max.X, x)
		b.Max.Y = max(b.Max.Y, y)
		b.Max.Z = max(b.Max.Z, z)
	}
	return b
}
