package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// File reads meshes exported by an external kernel as JSON:
//
//	{"vertices": [x0,y0,z0, ...], "indices": [i0,i1,i2, ...], "faces": [f0, f1, ...]}
//
// "faces" is optional and maps each triangle to its topological face.
type File struct {
	Path string
}

type fileMesh struct {
	Vertices []float32 `json:"vertices"`
	Indices  []uint32  `json:"indices"`
	Faces    []int     `json:"faces,omitempty"`
}

// Produce reads and validates the file.
func (f File) Produce(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh %s: %w", f.Path, err)
	}
	return Decode(data)
}

// Decode parses the JSON exchange format.
func Decode(data []byte) (*Model, error) {
	var raw fileMesh
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}
	var opts []Option
	if raw.Faces != nil {
		opts = append(opts, WithProvenance(raw.Faces))
	}
	return New(raw.Vertices, raw.Indices, opts...)
}

// Encode writes m in the JSON exchange format.
func Encode(m *Model) ([]byte, error) {
	raw := fileMesh{
		Vertices: m.vertices,
		Indices:  m.indices,
		Faces:    m.faces,
	}
	return json.Marshal(raw)
}
