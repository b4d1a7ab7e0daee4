package face

import (
	"fmt"

	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/pkg/math"
)

// Table holds the metadata record for each face of a generation.
type Table map[ID]Metadata

// axisAlignedShare is how much of a normal must point along one axis for the
// face to get a side name instead of a numbered one.
const axisAlignedShare = 0.99

// BoxTable describes the six faces of the placeholder box in kernel order.
func BoxTable() Table {
	return Table{
		0: {Name: "Front face", Normal: math.Vec3{Z: 1}},
		1: {Name: "Back face", Normal: math.Vec3{Z: -1}},
		2: {Name: "Top face", Normal: math.Vec3{Y: 1}},
		3: {Name: "Bottom face", Normal: math.Vec3{Y: -1}},
		4: {Name: "Right face", Normal: math.Vec3{X: 1}},
		5: {Name: "Left face", Normal: math.Vec3{X: -1}},
	}
}

// TableFromGeometry labels every face that mode finds in m. The normal is
// the area-weighted average of the face's triangle normals; axis-aligned
// faces are named by side, the rest "Face N". Grouping comes from mode only.
func TableFromGeometry(m *mesh.Model, mode Mode) (Table, error) {
	if err := mode.validate(m); err != nil {
		return nil, err
	}

	sums := make(map[ID]math.Vec3)
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Corners(t)
		id := mode.faceOf(m, t)
		// The unnormalized cross product is already weighted by twice the area.
		sums[id] = sums[id].Add(b.Sub(a).Cross(c.Sub(a)))
	}

	table := make(Table, len(sums))
	for id, sum := range sums {
		n := sum.Normalize()
		table[id] = Metadata{Name: sideName(id, n), Normal: n}
	}
	return table, nil
}

func sideName(id ID, n math.Vec3) string {
	axis, share := n.DominantAxis()
	if share < axisAlignedShare {
		return fmt.Sprintf("Face %d", id)
	}
	positive := n.Component(axis) > 0
	switch axis {
	case math.AxisX:
		if positive {
			return "Right face"
		}
		return "Left face"
	case math.AxisY:
		if positive {
			return "Top face"
		}
		return "Bottom face"
	default:
		if positive {
			return "Front face"
		}
		return "Back face"
	}
}
