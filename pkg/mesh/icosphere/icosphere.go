// Package icosphere generates subdivided icosahedron meshes approximating a
// sphere.
//
// Each of the 20 faces is split into (level+1)^2 triangles on a barycentric
// grid and every grid point is pushed onto the sphere. Points on shared
// edges and corners are emitted once, so the mesh has 10*(level+1)^2+2
// vertices.
package icosphere

import (
	"math"

	"github.com/pkg/errors"

	"github.com/Faultbox/grassfeet/pkg/geom"
)

// Generator errors.
var (
	ErrInvalidRadius = errors.New("icosphere radius must be positive")
	ErrInvalidLevel  = errors.New("icosphere subdivision level must be non-negative")
	ErrTooLarge      = errors.New("icosphere vertex count exceeds 32-bit index space")
)

var phi = (1 + math.Sqrt(5)) / 2

var baseVertices = [12]geom.Vec3{
	{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
	{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
	{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
}

// Counter-clockwise when seen from outside.
var baseFaces = [20][3]uint32{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// Polyhedron is a triangulated sphere. Normals stay nil until
// ComputeNormals is called.
type Polyhedron struct {
	Radius float64
	Level  int

	positions []geom.Vec3
	normals   []geom.Vec3
	triangles [][3]uint32
}

// VertexCount returns the number of vertices New produces for level.
func VertexCount(level int) uint64 {
	f := uint64(level) + 1
	return 10*f*f + 2
}

// TriangleCount returns the number of triangles New produces for level.
func TriangleCount(level int) uint64 {
	f := uint64(level) + 1
	return 20 * f * f
}

// New builds an icosphere of the given radius and subdivision level.
func New(radius float64, level int) (*Polyhedron, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, errors.Wrapf(ErrInvalidRadius, "radius %v", radius)
	}
	if level < 0 {
		return nil, errors.Wrapf(ErrInvalidLevel, "level %d", level)
	}
	if level > 1<<16 || VertexCount(level) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrTooLarge, "level %d", level)
	}

	p := &Polyhedron{
		Radius:    radius,
		Level:     level,
		positions: make([]geom.Vec3, 0, VertexCount(level)),
		triangles: make([][3]uint32, 0, TriangleCount(level)),
	}
	p.subdivide()
	return p, nil
}

// gridKey identifies a grid point by its non-zero barycentric weights over
// base vertices, sorted by vertex. Unused slots hold -1.
type gridKey [6]int64

func makeGridKey(face [3]uint32, weights [3]int) gridKey {
	type pair struct{ v, w int64 }
	var pairs []pair
	for k := 0; k < 3; k++ {
		if weights[k] != 0 {
			pairs = append(pairs, pair{int64(face[k]), int64(weights[k])})
		}
	}
	// At most three entries, insertion sort is enough.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].v < pairs[j-1].v; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	key := gridKey{-1, -1, -1, -1, -1, -1}
	for i, pr := range pairs {
		key[2*i] = pr.v
		key[2*i+1] = pr.w
	}
	return key
}

func (p *Polyhedron) subdivide() {
	f := p.Level + 1
	seen := make(map[gridKey]uint32, VertexCount(p.Level))

	for _, face := range baseFaces {
		a, b, c := baseVertices[face[0]], baseVertices[face[1]], baseVertices[face[2]]

		point := func(i, j int) uint32 {
			weights := [3]int{f - i - j, i, j}
			key := makeGridKey(face, weights)
			if idx, ok := seen[key]; ok {
				return idx
			}
			pos := a.Mul(float64(weights[0])).
				Add(b.Mul(float64(weights[1]))).
				Add(c.Mul(float64(weights[2])))
			idx := uint32(len(p.positions))
			p.positions = append(p.positions, geom.OnSphere(pos, p.Radius))
			seen[key] = idx
			return idx
		}

		for i := 0; i < f; i++ {
			for j := 0; j < f-i; j++ {
				p.triangles = append(p.triangles, [3]uint32{point(i, j), point(i+1, j), point(i, j+1)})
				if i+j < f-1 {
					p.triangles = append(p.triangles, [3]uint32{point(i+1, j), point(i+1, j+1), point(i, j+1)})
				}
			}
		}
	}
}

// ComputeNormals sets each vertex normal to the normalized sum of the
// normals of the triangles that touch it.
func (p *Polyhedron) ComputeNormals() {
	normals := make([]geom.Vec3, len(p.positions))
	for _, tri := range p.triangles {
		n := geom.FaceNormal(p.positions[tri[0]], p.positions[tri[1]], p.positions[tri[2]])
		for _, v := range tri {
			normals[v] = normals[v].Add(n)
		}
	}
	for i := range normals {
		normals[i] = geom.Normalize(normals[i])
	}
	p.normals = normals
}

// Positions returns the vertex positions.
func (p *Polyhedron) Positions() []geom.Vec3 { return p.positions }

// Normals returns the vertex normals, or nil before ComputeNormals.
func (p *Polyhedron) Normals() []geom.Vec3 { return p.normals }

// Triangles returns the triangles as vertex index triples.
func (p *Polyhedron) Triangles() [][3]uint32 { return p.triangles }
