// Package formats provides writers for the sphere graph file formats.
package formats

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/grassfeet/pkg/geom"
	"github.com/Faultbox/grassfeet/pkg/graph"
	"github.com/Faultbox/grassfeet/pkg/mesh"
)

// GRAMagic opens every GRA file.
const GRAMagic = "GRASSFEET"

// GRA format errors.
var (
	ErrUnsupportedGRAVersion = errors.New("unsupported GRA version")
	ErrCapacityExceeded      = errors.New("vertex count does not fit in 32 bits")
	ErrInvalidGRA            = errors.New("inconsistent GRA contents")
)

// GRAVersion is the one-byte format version written after the magic.
type GRAVersion uint8

// Known versions. Version 2 adds the group index to every vertex record
// and a trailing table of group vertices.
const (
	GRAVersion1 GRAVersion = 1
	GRAVersion2 GRAVersion = 2
)

// String returns the version as "v1" or "v2".
func (v GRAVersion) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// IsValid returns true for versions this package can write.
func (v GRAVersion) IsValid() bool {
	return v == GRAVersion1 || v == GRAVersion2
}

// HasGroups returns true if the version carries group data.
func (v GRAVersion) HasGroups() bool {
	return v >= GRAVersion2
}

// Record sizes in bytes.
const (
	graVectorSize = 3 * 4
	graPointSize  = 2 * graVectorSize // position + normal
	graIndexSize  = 4
)

// GRA is a sphere graph ready to be written.
//
// Layout (all fields big-endian):
//
//	magic [9]byte, version u8, vertexCount u32, [v2] groupCount u32
//	vertexCount x { position 3xf32, normal 3xf32, [v2] group u32,
//	                degree u32, neighbors degree x u32 }
//	[v2] groupCount x { position 3xf32, normal 3xf32 }
type GRA struct {
	Version       GRAVersion
	Vertices      []mesh.Vertex
	Adjacency     graph.Adjacency
	Groups        []uint32      // v2: group index per vertex
	GroupVertices []mesh.Vertex // v2: one entry per group
}

// CheckVertexCount returns ErrCapacityExceeded when n cannot be stored in
// the 32-bit count field. math.MaxUint32 itself is accepted.
func CheckVertexCount(n uint64) error {
	if n > math.MaxUint32 {
		return errors.Wrapf(ErrCapacityExceeded, "%d vertices", n)
	}
	return nil
}

// Validate checks everything that would make the file unwritable or
// inconsistent. WriteTo calls it before writing any byte.
func (g *GRA) Validate() error {
	if !g.Version.IsValid() {
		return errors.Wrapf(ErrUnsupportedGRAVersion, "%d", uint8(g.Version))
	}
	n := len(g.Vertices)
	if err := CheckVertexCount(uint64(n)); err != nil {
		return err
	}
	if len(g.Adjacency) != n {
		return errors.Wrapf(ErrInvalidGRA, "%d adjacency lists for %d vertices", len(g.Adjacency), n)
	}
	for v, ns := range g.Adjacency {
		for k, u := range ns {
			if int64(u) >= int64(n) {
				return errors.Wrapf(ErrInvalidGRA, "vertex %d neighbor %d out of range", v, u)
			}
			if k > 0 && ns[k-1] >= u {
				return errors.Wrapf(ErrInvalidGRA, "vertex %d neighbors not strictly ascending", v)
			}
		}
	}

	if !g.Version.HasGroups() {
		return nil
	}
	m := len(g.GroupVertices)
	if m >= n {
		return errors.Wrapf(ErrInvalidGRA, "%d groups for %d vertices", m, n)
	}
	if len(g.Groups) != n {
		return errors.Wrapf(ErrInvalidGRA, "%d group indices for %d vertices", len(g.Groups), n)
	}
	for v, grp := range g.Groups {
		if int64(grp) >= int64(m) {
			return errors.Wrapf(ErrInvalidGRA, "vertex %d group %d out of range", v, grp)
		}
	}
	return nil
}

// headerSize returns the size of magic, version and counts.
func (g *GRA) headerSize() int64 {
	size := int64(len(GRAMagic) + 1 + graIndexSize)
	if g.Version.HasGroups() {
		size += graIndexSize
	}
	return size
}

// vertexRecordSize returns the size of the record for vertex v.
func (g *GRA) vertexRecordSize(v int) int64 {
	size := int64(graPointSize + graIndexSize + graIndexSize*len(g.Adjacency[v]))
	if g.Version.HasGroups() {
		size += graIndexSize
	}
	return size
}

// EncodedSize returns the exact number of bytes WriteTo produces.
func (g *GRA) EncodedSize() int64 {
	size := g.headerSize()
	for v := range g.Vertices {
		size += g.vertexRecordSize(v)
	}
	if g.Version.HasGroups() {
		size += int64(graPointSize * len(g.GroupVertices))
	}
	return size
}

// countingWriter counts the bytes accepted by the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func appendVec3(buf []byte, v geom.Vec3) []byte {
	for _, f := range geom.Float32s(v) {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func appendPoint(buf []byte, p mesh.Vertex) []byte {
	buf = appendVec3(buf, p.Position)
	return appendVec3(buf, p.Normal)
}

// WriteTo writes the file to w. It implements io.WriterTo. On error the
// returned count tells how much reached w; the output is then incomplete.
func (g *GRA) WriteTo(w io.Writer) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 64*1024)

	buf := make([]byte, 0, g.headerSize())
	buf = append(buf, GRAMagic...)
	buf = append(buf, byte(g.Version))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(g.Vertices)))
	if g.Version.HasGroups() {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(g.GroupVertices)))
	}
	if _, err := bw.Write(buf); err != nil {
		return cw.n, errors.Wrap(err, "writing GRA header")
	}

	for v, vert := range g.Vertices {
		buf = appendPoint(buf[:0], vert)
		if g.Version.HasGroups() {
			buf = binary.BigEndian.AppendUint32(buf, g.Groups[v])
		}
		neighbors := g.Adjacency[v]
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(neighbors)))
		for _, u := range neighbors {
			buf = binary.BigEndian.AppendUint32(buf, u)
		}
		if _, err := bw.Write(buf); err != nil {
			return cw.n, errors.Wrapf(err, "writing GRA vertex %d", v)
		}
	}

	if g.Version.HasGroups() {
		for i, grp := range g.GroupVertices {
			buf = appendPoint(buf[:0], grp)
			if _, err := bw.Write(buf); err != nil {
				return cw.n, errors.Wrapf(err, "writing GRA group %d", i)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "flushing GRA data")
	}
	return cw.n, nil
}

// WriteGRAFile creates or truncates path and writes g to it. Validation
// happens before the file is touched. A failed write may leave a partial
// file behind.
func WriteGRAFile(path string, g *GRA) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "creating GRA file")
	}

	n, err := g.WriteTo(f)
	if err != nil {
		f.Close()
		return n, errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return n, errors.Wrapf(err, "closing %s", path)
	}
	return n, nil
}
