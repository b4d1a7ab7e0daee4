// Package picking provides ray casting against triangle meshes.
package picking

import (
	gomath "math"

	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/pkg/math"
)

// epsilon below which a ray is treated as parallel to a triangle.
const epsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay builds a ray from origin toward direction, normalizing direction.
func NewRay(origin, direction math.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// FromBounds converts mesh bounds to an AABB.
func FromBounds(b mesh.Bounds) AABB {
	return AABB{Min: b.Min, Max: b.Max}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	for _, axis := range []math.Axis{math.AxisX, math.AxisY, math.AxisZ} {
		o := r.Origin.Component(axis)
		d := r.Direction.Component(axis)
		lo, hi := box.Min.Component(axis), box.Max.Component(axis)

		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle is the Möller–Trumbore test. Both windings hit; hits
// behind the origin do not.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = e2.Dot(q) * inv
	if t < epsilon {
		return 0, false
	}
	return t, true
}

// PickTriangle returns the index of the nearest triangle of m hit by r.
// This is what a viewer reports to the face resolver on click.
func PickTriangle(r Ray, m *mesh.Model) (index int, t float32, ok bool) {
	if m == nil || m.IsEmpty() {
		return -1, 0, false
	}
	if _, hit := r.IntersectAABB(FromBounds(m.Bounds())); !hit {
		return -1, 0, false
	}

	index = -1
	best := float32(gomath.MaxFloat32)
	for tri := 0; tri < m.TriangleCount(); tri++ {
		a, b, c := m.Corners(tri)
		if d, hit := r.IntersectTriangle(a, b, c); hit && d < best {
			best, index = d, tri
		}
	}
	if index < 0 {
		return -1, 0, false
	}
	return index, best, true
}
