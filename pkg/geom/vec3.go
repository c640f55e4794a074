// Package geom provides the vector helpers shared by the mesh, grouping and
// serializer packages.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D vector at source precision.
type Vec3 = mgl64.Vec3

// DistanceSquared returns |a-b|^2. It is monotonic with the true distance,
// so it can be compared without taking a square root.
func DistanceSquared(a, b Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// Float32s truncates v to single precision.
func Float32s(v Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

// FaceNormal returns the unit normal of the triangle (a, b, c) following the
// right-hand rule. Degenerate triangles yield the zero vector.
func FaceNormal(a, b, c Vec3) Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	return Normalize(n)
}

// Normalize returns a unit vector, or the zero vector when v has no length.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// OnSphere scales v so that it lies on a sphere of the given radius centered
// at the origin.
func OnSphere(v Vec3, radius float64) Vec3 {
	return Normalize(v).Mul(radius)
}
