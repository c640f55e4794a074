package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/grassfeet/pkg/geom"
)

type staticSource struct {
	positions []geom.Vec3
	normals   []geom.Vec3
	triangles [][3]uint32
}

func (s staticSource) Positions() []geom.Vec3 { return s.positions }
func (s staticSource) Normals() []geom.Vec3 { return s.normals }
func (s staticSource) Triangles() [][3]uint32 { return s.triangles }

func triangleSource() staticSource {
	return staticSource{
		positions: []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		normals:   []geom.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		triangles: [][3]uint32{{0, 1, 2}},
	}
}

func TestFromSource(t *testing.T) {
	m, err := FromSource(triangleSource())
	if err != nil {
		t.Fatalf("FromSource failed: %v", err)
	}
	if m.NumVertices() != 3 {
		t.Errorf("expected 3 vertices, got %d", m.NumVertices())
	}
	if len(m.Triangles) != 1 {
		t.Errorf("expected 1 triangle, got %d", len(m.Triangles))
	}
	if m.Vertices[1].Position != (geom.Vec3{1, 0, 0}) {
		t.Errorf("vertex 1 position = %v", m.Vertices[1].Position)
	}
	if m.Vertices[2].Normal != (geom.Vec3{0, 0, 1}) {
		t.Errorf("vertex 2 normal = %v", m.Vertices[2].Normal)
	}

	pos := m.Positions()
	if len(pos) != 3 || pos[2] != (geom.Vec3{0, 1, 0}) {
		t.Errorf("Positions() = %v", pos)
	}
}

func TestFromSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*staticSource)
		want   error
	}{
		{
			name:   "normals not computed",
			mutate: func(s *staticSource) { s.normals = nil },
			want:   ErrNormalsMissing,
		},
		{
			name:   "index out of range",
			mutate: func(s *staticSource) { s.triangles = [][3]uint32{{0, 1, 3}} },
			want:   ErrTriangleIndex,
		},
		{
			name:   "repeated vertex",
			mutate: func(s *staticSource) { s.triangles = [][3]uint32{{0, 1, 1}} },
			want:   ErrDegenerateTriangle,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := triangleSource()
			tc.mutate(&src)
			_, err := FromSource(src)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
