package face

import (
	"errors"
	"fmt"

	"github.com/Faultbox/talkcad/internal/mesh"
)

// ErrInvalidMode is returned when a resolver mode cannot serve a mesh.
var ErrInvalidMode = errors.New("invalid resolver mode")

// Mode decides how triangles group into faces. It is one of IndexRatio or
// ProvenanceMap; the set is closed.
type Mode interface {
	fmt.Stringer
	validate(m *mesh.Model) error
	faceOf(m *mesh.Model, triangle int) ID
	faceCount(m *mesh.Model) int
}

// IndexRatio groups consecutive triangles: face = triangle / TrianglesPerFace.
// It fits synthetic meshes whose kernel emits a fixed number of triangles per face.
type IndexRatio struct {
	TrianglesPerFace int
}

func (r IndexRatio) String() string {
	return fmt.Sprintf("ratio(%d)", r.TrianglesPerFace)
}

func (r IndexRatio) validate(*mesh.Model) error {
	if r.TrianglesPerFace < 1 {
		return fmt.Errorf("%w: triangles per face must be at least 1, got %d", ErrInvalidMode, r.TrianglesPerFace)
	}
	return nil
}

func (r IndexRatio) faceOf(_ *mesh.Model, triangle int) ID {
	return ID(triangle / r.TrianglesPerFace)
}

func (r IndexRatio) faceCount(m *mesh.Model) int {
	return (m.TriangleCount() + r.TrianglesPerFace - 1) / r.TrianglesPerFace
}

// ProvenanceMap reads the triangle -> face table the kernel attached to the mesh.
type ProvenanceMap struct{}

func (ProvenanceMap) String() string {
	return "provenance"
}

func (ProvenanceMap) validate(m *mesh.Model) error {
	if !m.HasProvenance() {
		return fmt.Errorf("%w: mesh carries no provenance table", ErrInvalidMode)
	}
	return nil
}

func (ProvenanceMap) faceOf(m *mesh.Model, triangle int) ID {
	id, _ := m.FaceOf(triangle)
	return ID(id)
}

func (ProvenanceMap) faceCount(m *mesh.Model) int {
	n := 0
	for t := 0; t < m.TriangleCount(); t++ {
		if id, _ := m.FaceOf(t); id+1 > n {
			n = id + 1
		}
	}
	return n
}

// ParseMode maps a config name to a Mode. ratio is only used by "ratio".
func ParseMode(name string, ratio int) (Mode, error) {
	switch name {
	case "ratio", "":
		mode := IndexRatio{TrianglesPerFace: ratio}
		if err := mode.validate(nil); err != nil {
			return nil, err
		}
		return mode, nil
	case "provenance":
		return ProvenanceMap{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, name)
	}
}
