package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Faultbox/grassfeet/pkg/geom"
	"github.com/Faultbox/grassfeet/pkg/graph"
	"github.com/Faultbox/grassfeet/pkg/mesh"
)

// decodedGRA mirrors what a consumer of the format reads back.
type decodedGRA struct {
	Version   uint8
	Positions [][3]float32
	Normals   [][3]float32
	Groups    []uint32
	Adjacency [][]uint32
	GroupPos  [][3]float32
	GroupNorm [][3]float32
}

// decodeGRA is a minimal reader used to check the writer's output.
func decodeGRA(t *testing.T, data []byte) *decodedGRA {
	t.Helper()
	r := bytes.NewReader(data)

	magic := make([]byte, len(GRAMagic))
	if _, err := r.Read(magic); err != nil || string(magic) != GRAMagic {
		t.Fatalf("bad magic %q: %v", magic, err)
	}

	read := func(v any) {
		t.Helper()
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			t.Fatalf("truncated GRA data: %v", err)
		}
	}

	d := &decodedGRA{}
	read(&d.Version)
	var n, m uint32
	read(&n)
	if d.Version >= 2 {
		read(&m)
	}

	for i := uint32(0); i < n; i++ {
		var pos, norm [3]float32
		read(&pos)
		read(&norm)
		d.Positions = append(d.Positions, pos)
		d.Normals = append(d.Normals, norm)
		if d.Version >= 2 {
			var grp uint32
			read(&grp)
			d.Groups = append(d.Groups, grp)
		}
		var deg uint32
		read(&deg)
		ns := make([]uint32, deg)
		read(ns)
		d.Adjacency = append(d.Adjacency, ns)
	}
	for i := uint32(0); i < m; i++ {
		var pos, norm [3]float32
		read(&pos)
		read(&norm)
		d.GroupPos = append(d.GroupPos, pos)
		d.GroupNorm = append(d.GroupNorm, norm)
	}

	if r.Len() != 0 {
		t.Fatalf("%d trailing bytes", r.Len())
	}
	return d
}

func vertex(x, y, z float64) mesh.Vertex {
	p := geom.Vec3{x, y, z}
	return mesh.Vertex{Position: p, Normal: geom.Normalize(p)}
}

// createTestGRA builds a tetrahedron graph with two groups.
func createTestGRA(version GRAVersion) *GRA {
	verts := []mesh.Vertex{
		vertex(1, 1, 1),
		vertex(1, -1, -1),
		vertex(-1, 1, -1),
		vertex(-1, -1, 1),
	}
	adj, err := graph.Build([][3]uint32{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}}, len(verts))
	if err != nil {
		panic(err)
	}
	g := &GRA{Version: version, Vertices: verts, Adjacency: adj}
	if version.HasGroups() {
		g.Groups = []uint32{0, 1, 0, 1}
		g.GroupVertices = []mesh.Vertex{vertex(0, 0, 2), vertex(0, 0, -2)}
	}
	return g
}

func TestGRA_HeaderV1(t *testing.T) {
	var buf bytes.Buffer
	n, err := createTestGRA(GRAVersion1).WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	data := buf.Bytes()
	if n != int64(len(data)) {
		t.Errorf("WriteTo reported %d bytes, buffer has %d", n, len(data))
	}

	if string(data[0:9]) != "GRASSFEET" {
		t.Errorf("expected magic GRASSFEET, got %q", data[0:9])
	}
	if data[9] != 1 {
		t.Errorf("expected version 1, got %d", data[9])
	}
	if got := binary.BigEndian.Uint32(data[10:14]); got != 4 {
		t.Errorf("expected vertex count 4, got %d", got)
	}
	// First position float follows the count directly in v1.
	x := math.Float32frombits(binary.BigEndian.Uint32(data[14:18]))
	if x != 1 {
		t.Errorf("expected first x 1, got %v", x)
	}
}

func TestGRA_HeaderV2(t *testing.T) {
	var buf bytes.Buffer
	if _, err := createTestGRA(GRAVersion2).WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	data := buf.Bytes()

	if string(data[0:9]) != GRAMagic || data[9] != 2 {
		t.Fatalf("bad header %q", data[0:10])
	}
	if got := binary.BigEndian.Uint32(data[10:14]); got != 4 {
		t.Errorf("expected vertex count 4, got %d", got)
	}
	if got := binary.BigEndian.Uint32(data[14:18]); got != 2 {
		t.Errorf("expected group count 2, got %d", got)
	}
}

func TestGRA_ExactBytes(t *testing.T) {
	g := &GRA{
		Version: GRAVersion2,
		Vertices: []mesh.Vertex{
			{Position: geom.Vec3{1, 2, 3}, Normal: geom.Vec3{0, 0, 1}},
			{Position: geom.Vec3{4, 5, 6}, Normal: geom.Vec3{0, 1, 0}},
		},
		Adjacency:     graph.Adjacency{{1}, {0}},
		Groups:        []uint32{0, 0},
		GroupVertices: []mesh.Vertex{{Position: geom.Vec3{-1, 0, 0}, Normal: geom.Vec3{-1, 0, 0}}},
	}

	want := new(bytes.Buffer)
	want.WriteString("GRASSFEET")
	want.WriteByte(2)
	binary.Write(want, binary.BigEndian, uint32(2))
	binary.Write(want, binary.BigEndian, uint32(1))
	// vertex 0
	binary.Write(want, binary.BigEndian, []float32{1, 2, 3, 0, 0, 1})
	binary.Write(want, binary.BigEndian, []uint32{0, 1, 1})
	// vertex 1
	binary.Write(want, binary.BigEndian, []float32{4, 5, 6, 0, 1, 0})
	binary.Write(want, binary.BigEndian, []uint32{0, 1, 0})
	// group 0
	binary.Write(want, binary.BigEndian, []float32{-1, 0, 0, -1, 0, 0})

	var got bytes.Buffer
	if _, err := g.WriteTo(&got); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Errorf("bytes differ\n got: % x\nwant: % x", got.Bytes(), want.Bytes())
	}
	if g.EncodedSize() != int64(want.Len()) {
		t.Errorf("EncodedSize() = %d, want %d", g.EncodedSize(), want.Len())
	}
}

func TestGRA_SizeV1(t *testing.T) {
	// Degrees vary per vertex: a fan with a hub of degree 5.
	verts := make([]mesh.Vertex, 6)
	for i := range verts {
		verts[i] = vertex(float64(i), 1, 0)
	}
	tris := [][3]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 5}}
	adj, err := graph.Build(tris, len(verts))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g := &GRA{Version: GRAVersion1, Vertices: verts, Adjacency: adj}

	want := int64(9 + 1 + 4)
	for v := range verts {
		want += 28 + 4*int64(adj.Degree(uint32(v)))
	}

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != want || int64(buf.Len()) != want {
		t.Errorf("expected %d bytes, wrote %d (buffer %d)", want, n, buf.Len())
	}
	if g.EncodedSize() != want {
		t.Errorf("EncodedSize() = %d, want %d", g.EncodedSize(), want)
	}
}

func TestGRA_Decoded(t *testing.T) {
	g := createTestGRA(GRAVersion2)
	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	d := decodeGRA(t, buf.Bytes())

	if len(d.Positions) != len(g.Vertices) {
		t.Fatalf("expected %d vertices, got %d", len(g.Vertices), len(d.Positions))
	}
	for v := range g.Vertices {
		if d.Positions[v] != geom.Float32s(g.Vertices[v].Position) {
			t.Errorf("vertex %d position %v", v, d.Positions[v])
		}
		if d.Normals[v] != geom.Float32s(g.Vertices[v].Normal) {
			t.Errorf("vertex %d normal %v", v, d.Normals[v])
		}
		if !slices.Equal(d.Adjacency[v], g.Adjacency[v]) {
			t.Errorf("vertex %d adjacency %v, want %v", v, d.Adjacency[v], g.Adjacency[v])
		}
		if !slices.IsSorted(d.Adjacency[v]) {
			t.Errorf("vertex %d adjacency not ascending", v)
		}
	}
	if !slices.Equal(d.Groups, g.Groups) {
		t.Errorf("groups %v, want %v", d.Groups, g.Groups)
	}
	if len(d.GroupPos) != 2 || d.GroupPos[1] != [3]float32{0, 0, -2} {
		t.Errorf("group positions %v", d.GroupPos)
	}
	if d.GroupNorm[0] != [3]float32{0, 0, 1} {
		t.Errorf("group normal %v", d.GroupNorm[0])
	}
}

func TestGRA_V1IgnoresGroups(t *testing.T) {
	g := createTestGRA(GRAVersion1)
	g.Groups = []uint32{9, 9, 9, 9}

	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	d := decodeGRA(t, buf.Bytes())
	if d.Groups != nil || d.GroupPos != nil {
		t.Error("v1 file should not carry group data")
	}
}

func TestCheckVertexCount(t *testing.T) {
	if err := CheckVertexCount(math.MaxUint32); err != nil {
		t.Errorf("count at 32-bit maximum should be accepted, got %v", err)
	}
	if err := CheckVertexCount(math.MaxUint32 + 1); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if err := CheckVertexCount(0); err != nil {
		t.Errorf("empty mesh should be accepted, got %v", err)
	}
}

func TestGRA_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GRA)
		want   error
	}{
		{"version 0", func(g *GRA) { g.Version = 0 }, ErrUnsupportedGRAVersion},
		{"version 3", func(g *GRA) { g.Version = 3 }, ErrUnsupportedGRAVersion},
		{"adjacency length", func(g *GRA) { g.Adjacency = g.Adjacency[:3] }, ErrInvalidGRA},
		{"neighbor out of range", func(g *GRA) { g.Adjacency[0] = []uint32{1, 7} }, ErrInvalidGRA},
		{"neighbors descending", func(g *GRA) { g.Adjacency[0] = []uint32{2, 1} }, ErrInvalidGRA},
		{"groups length", func(g *GRA) { g.Groups = g.Groups[:2] }, ErrInvalidGRA},
		{"group out of range", func(g *GRA) { g.Groups[3] = 2 }, ErrInvalidGRA},
		{"too many groups", func(g *GRA) { g.GroupVertices = append(g.GroupVertices, g.Vertices...) }, ErrInvalidGRA},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := createTestGRA(GRAVersion2)
			tc.mutate(g)

			var buf bytes.Buffer
			_, err := g.WriteTo(&buf)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if buf.Len() != 0 {
				t.Errorf("expected no bytes before validation passes, got %d", buf.Len())
			}
		})
	}
}

var errDiskFull = errors.New("disk full")

// failingWriter accepts limit bytes and then fails.
type failingWriter struct {
	limit int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errDiskFull
	}
	w.n += len(p)
	return len(p), nil
}

func TestGRA_WriteError(t *testing.T) {
	w := &failingWriter{limit: 20}
	n, err := createTestGRA(GRAVersion2).WriteTo(w)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected underlying disk error, got %v", err)
	}
	if n != 20 {
		t.Errorf("expected 20 bytes reported, got %d", n)
	}
}

func TestWriteGRAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map-sphere.gra")
	// Existing content must be truncated.
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xff}, 4096), 0644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	g := createTestGRA(GRAVersion2)
	n, err := WriteGRAFile(path, g)
	if err != nil {
		t.Fatalf("WriteGRAFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if int64(len(data)) != n || n != g.EncodedSize() {
		t.Errorf("file has %d bytes, reported %d, expected %d", len(data), n, g.EncodedSize())
	}
	decodeGRA(t, data)
}

func TestWriteGRAFile_Errors(t *testing.T) {
	dir := t.TempDir()

	// Invalid contents never create the file.
	path := filepath.Join(dir, "invalid.gra")
	g := createTestGRA(GRAVersion2)
	g.Version = 9
	if _, err := WriteGRAFile(path, g); !errors.Is(err, ErrUnsupportedGRAVersion) {
		t.Errorf("expected ErrUnsupportedGRAVersion, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file for invalid contents, stat: %v", err)
	}

	// Missing parent directory surfaces the os error.
	path = filepath.Join(dir, "missing", "out.gra")
	_, err := WriteGRAFile(path, createTestGRA(GRAVersion1))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestGRAVersion(t *testing.T) {
	tests := []struct {
		v         GRAVersion
		valid     bool
		hasGroups bool
		str       string
	}{
		{GRAVersion1, true, false, "v1"},
		{GRAVersion2, true, true, "v2"},
		{0, false, false, "v0"},
	}
	for _, tc := range tests {
		if tc.v.IsValid() != tc.valid {
			t.Errorf("%s: IsValid() = %v", tc.v, tc.v.IsValid())
		}
		if tc.v.HasGroups() != tc.hasGroups {
			t.Errorf("%s: HasGroups() = %v", tc.v, tc.v.HasGroups())
		}
		if tc.v.String() != tc.str {
			t.Errorf("String() = %q, want %q", tc.v.String(), tc.str)
		}
	}
}
