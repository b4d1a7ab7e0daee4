package mesh

import (
	"context"
	"fmt"

	"github.com/Faultbox/talkcad/pkg/math"
)

// DefaultBoxSize is the edge length of the sample cube.
const DefaultBoxSize = 10

// Box is the placeholder kernel: an axis-aligned cube centered on the origin
// with eight shared vertices and two triangles per face, emitted in the order
// front, back, top, bottom, right, left. It carries no provenance, so faces
// are recovered by index ratio.
type Box struct {
	Size float32
}

// Produce builds the cube.
func (b Box) Produce(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := boxSize(b.Size) / 2

	vertices := []float32{
		-h, -h, h, // 0
		h, -h, h, // 1
		h, h, h, // 2
		-h, h, h, // 3
		-h, -h, -h, // 4
		h, -h, -h, // 5
		h, h, -h, // 6
		-h, h, -h, // 7
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3, // front
		5, 4, 7, 5, 7, 6, // back
		3, 2, 6, 3, 6, 7, // top
		4, 5, 1, 4, 1, 0, // bottom
		1, 5, 6, 1, 6, 2, // right
		4, 0, 3, 4, 3, 7, // left
	}
	return New(vertices, indices)
}

// TopoBox emits the same cube the way a B-rep kernel triangulates it: every
// topological face gets its own vertex block and a Divisions x Divisions grid
// of quads, and the triangle -> face table is recorded alongside.
type TopoBox struct {
	Size      float32
	Divisions int
}

type boxFace struct {
	origin math.Vec3
	u, v   math.Vec3
}

// Produce builds the per-face triangulation.
func (b TopoBox) Produce(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := b.Divisions
	if d == 0 {
		d = 1
	}
	if d < 0 {
		return nil, fmt.Errorf("%w: divisions must be positive, got %d", ErrInvalidMesh, d)
	}

	s := boxSize(b.Size)
	h := s / 2
	// front, back, top, bottom, right, left
	faces := []boxFace{
		{origin: math.Vec3{X: -h, Y: -h, Z: h}, u: math.Vec3{X: s}, v: math.Vec3{Y: s}},
		{origin: math.Vec3{X: h, Y: -h, Z: -h}, u: math.Vec3{X: -s}, v: math.Vec3{Y: s}},
		{origin: math.Vec3{X: -h, Y: h, Z: h}, u: math.Vec3{X: s}, v: math.Vec3{Z: -s}},
		{origin: math.Vec3{X: -h, Y: -h, Z: -h}, u: math.Vec3{X: s}, v: math.Vec3{Z: s}},
		{origin: math.Vec3{X: h, Y: -h, Z: h}, u: math.Vec3{Z: -s}, v: math.Vec3{Y: s}},
		{origin: math.Vec3{X: -h, Y: -h, Z: -h}, u: math.Vec3{Z: s}, v: math.Vec3{Y: s}},
	}

	perSide := d + 1
	vertices := make([]float32, 0, len(faces)*perSide*perSide*3)
	indices := make([]uint32, 0, len(faces)*d*d*6)
	provenance := make([]int, 0, len(faces)*d*d*2)

	for faceID, f := range faces {
		base := uint32(len(vertices) / 3)
		for j := 0; j <= d; j++ {
			for i := 0; i <= d; i++ {
				p := f.origin.
					Add(f.u.Scale(float32(i) / float32(d))).
					Add(f.v.Scale(float32(j) / float32(d)))
				vertices = append(vertices, p.X, p.Y, p.Z)
			}
		}

		at := func(i, j int) uint32 { return base + uint32(j*perSide+i) }
		for j := 0; j < d; j++ {
			for i := 0; i < d; i++ {
				a, bb, c, dd := at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)
				indices = append(indices, a, bb, c, a, c, dd)
				provenance = append(provenance, faceID, faceID)
			}
		}
	}

	return New(vertices, indices, WithProvenance(provenance))
}

func boxSize(size float32) float32 {
	if size <= 0 {
		return DefaultBoxSize
	}
	return size
}
