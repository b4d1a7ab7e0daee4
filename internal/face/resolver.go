package face

import (
	"fmt"
	"maps"

	"github.com/Faultbox/talkcad/internal/mesh"
)

// Resolver answers face questions for one mesh generation.
// It holds no mutable state; build a new one for each new Model.
type Resolver struct {
	model *mesh.Model
	mode  Mode
	table Table
}

// NewResolver checks that mode can serve model and captures a copy of table.
func NewResolver(model *mesh.Model, mode Mode, table Table) (*Resolver, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrInvalidMode)
	}
	if mode == nil {
		return nil, fmt.Errorf("%w: nil mode", ErrInvalidMode)
	}
	if err := mode.validate(model); err != nil {
		return nil, err
	}
	return &Resolver{
		model: model,
		mode:  mode,
		table: maps.Clone(table),
	}, nil
}

// Resolve maps a picked triangle index to its face.
func (r *Resolver) Resolve(triangle int) (ID, error) {
	if triangle < 0 || triangle >= r.model.TriangleCount() {
		return None, &OutOfRangeError{Index: triangle, TriangleCount: r.model.TriangleCount()}
	}
	return r.mode.faceOf(r.model, triangle), nil
}

// Describe returns the metadata registered for id.
func (r *Resolver) Describe(id ID) (Metadata, error) {
	md, ok := r.table[id]
	if !ok {
		return Metadata{}, &UnknownFaceError{ID: id}
	}
	return md, nil
}

// FaceCount returns the number of logical faces in this generation.
func (r *Resolver) FaceCount() int {
	return r.mode.faceCount(r.model)
}

// Model returns the mesh this resolver was built for.
func (r *Resolver) Model() *mesh.Model {
	return r.model
}

// Mode returns the grouping policy.
func (r *Resolver) Mode() Mode {
	return r.mode
}
