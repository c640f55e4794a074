// Package mesh defines the triangle mesh consumed by the graph pipeline and
// the boundary through which mesh generators hand their output over.
package mesh

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/grassfeet/pkg/geom"
)

// Mesh validation errors.
var (
	ErrNormalsMissing     = errors.New("mesh normals not computed")
	ErrTriangleIndex      = errors.New("triangle index out of range")
	ErrDegenerateTriangle = errors.New("triangle repeats a vertex")
)

// Source is implemented by mesh generators. Positions and Normals are
// parallel sequences; Normals may be nil until the generator has computed
// them. Triangles index into Positions.
type Source interface {
	Positions() []geom.Vec3
	Normals() []geom.Vec3
	Triangles() [][3]uint32
}

// Vertex is a position with its normal.
type Vertex struct {
	Position geom.Vec3
	Normal   geom.Vec3
}

// Mesh is a validated snapshot of a Source.
type Mesh struct {
	Vertices  []Vertex
	Triangles [][3]uint32
}

// FromSource copies src into a Mesh after checking that normals are present
// for every position and that every triangle references three distinct,
// in-range vertices.
func FromSource(src Source) (*Mesh, error) {
	positions := src.Positions()
	normals := src.Normals()
	if len(normals) != len(positions) {
		return nil, errors.Wrapf(ErrNormalsMissing, "%d positions, %d normals", len(positions), len(normals))
	}

	n := uint64(len(positions))
	tris := src.Triangles()
	for i, tri := range tris {
		for _, v := range tri {
			if uint64(v) >= n {
				return nil, errors.Wrapf(ErrTriangleIndex, "triangle %d references vertex %d of %d", i, v, n)
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return nil, errors.Wrapf(ErrDegenerateTriangle, "triangle %d %v", i, tri)
		}
	}

	m := &Mesh{
		Vertices:  make([]Vertex, len(positions)),
		Triangles: make([][3]uint32, len(tris)),
	}
	for i := range positions {
		m.Vertices[i] = Vertex{Position: positions[i], Normal: normals[i]}
	}
	copy(m.Triangles, tris)
	return m, nil
}

// NumVertices returns the number of vertices.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// Positions returns the vertex positions in index order.
func (m *Mesh) Positions() []geom.Vec3 {
	out := make([]geom.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}
