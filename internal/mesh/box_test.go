package mesh

import (
	"testing"

	"github.com/Faultbox/talkcad/pkg/math"
)

// Expected outward normals in kernel face order.
var boxNormals = []math.Vec3{
	{Z: 1}, {Z: -1}, {Y: 1}, {Y: -1}, {X: 1}, {X: -1},
}

func triangleNormal(m *Model, t int) math.Vec3 {
	a, b, c := m.Corners(t)
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func TestBoxMatchesSampleCube(t *testing.T) {
	m, err := Box{}.Produce(t.Context())
	if err != nil {
		t.Fatalf("Produce() error: %v", err)
	}

	if m.VertexCount() != 8 {
		t.Errorf("VertexCount() = %d, want 8", m.VertexCount())
	}
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount() = %d, want 12", m.TriangleCount())
	}
	if got := m.Vertex(0); got != (math.Vec3{X: -5, Y: -5, Z: 5}) {
		t.Errorf("Vertex(0) = %v, want (-5, -5, 5)", got)
	}

	for tri := 0; tri < m.TriangleCount(); tri++ {
		want := boxNormals[tri/2]
		if got := triangleNormal(m, tri); !got.ApproxEqual(want, 1e-5) {
			t.Errorf("triangle %d normal = %v, want %v", tri, got, want)
		}
	}
}

func TestTopoBoxProvenance(t *testing.T) {
	tests := []struct {
		divisions     int
		wantTriangles int
		wantVertices  int
	}{
		{divisions: 0, wantTriangles: 12, wantVertices: 24},
		{divisions: 1, wantTriangles: 12, wantVertices: 24},
		{divisions: 3, wantTriangles: 108, wantVertices: 96},
	}

	for _, tt := range tests {
		m, err := TopoBox{Size: 10, Divisions: tt.divisions}.Produce(t.Context())
		if err != nil {
			t.Fatalf("Produce(divisions=%d) error: %v", tt.divisions, err)
		}
		if m.TriangleCount() != tt.wantTriangles {
			t.Errorf("divisions=%d TriangleCount() = %d, want %d", tt.divisions, m.TriangleCount(), tt.wantTriangles)
		}
		if m.VertexCount() != tt.wantVertices {
			t.Errorf("divisions=%d VertexCount() = %d, want %d", tt.divisions, m.VertexCount(), tt.wantVertices)
		}
		if !m.HasProvenance() {
			t.Fatalf("divisions=%d: missing provenance", tt.divisions)
		}

		perFace := tt.wantTriangles / 6
		for tri := 0; tri < m.TriangleCount(); tri++ {
			face, ok := m.FaceOf(tri)
			if !ok || face != tri/perFace {
				t.Fatalf("divisions=%d FaceOf(%d) = %d, %v; want %d", tt.divisions, tri, face, ok, tri/perFace)
			}
			if got := triangleNormal(m, tri); !got.ApproxEqual(boxNormals[face], 1e-5) {
				t.Errorf("divisions=%d triangle %d normal = %v, want %v", tt.divisions, tri, got, boxNormals[face])
			}
		}
	}
}

func TestTopoBoxRejectsNegativeDivisions(t *testing.T) {
	if _, err := (TopoBox{Divisions: -1}).Produce(t.Context()); err == nil {
		t.Error("expected error for negative divisions")
	}
}
