// Package graph derives the undirected vertex adjacency of a triangle mesh.
package graph

import (
	"slices"

	"github.com/pkg/errors"
)

// Adjacency errors.
var (
	ErrIndexOutOfRange = errors.New("triangle index out of range")
	ErrSelfLoop        = errors.New("triangle repeats a vertex")
	ErrNotSymmetric    = errors.New("adjacency is not symmetric")
	ErrNotAscending    = errors.New("adjacency list is not strictly ascending")
)

// Adjacency holds, per vertex, the vertices that share a triangle edge with
// it. Each list is strictly ascending and never contains its own index.
type Adjacency [][]uint32

// Build derives the adjacency of n vertices from triangles. For every
// triangle (a, b, c), a gains {b, c}, b gains {a, c} and c gains {a, b}.
// Triangle order does not affect the result.
func Build(triangles [][3]uint32, n int) (Adjacency, error) {
	adj := make(Adjacency, n)
	for i, tri := range triangles {
		for _, v := range tri {
			if uint64(v) >= uint64(n) {
				return nil, errors.Wrapf(ErrIndexOutOfRange, "triangle %d references vertex %d of %d", i, v, n)
			}
		}
		a, b, c := tri[0], tri[1], tri[2]
		if a == b || b == c || a == c {
			return nil, errors.Wrapf(ErrSelfLoop, "triangle %d %v", i, tri)
		}
		adj[a] = append(adj[a], b, c)
		adj[b] = append(adj[b], a, c)
		adj[c] = append(adj[c], a, b)
	}

	for v := range adj {
		slices.Sort(adj[v])
		adj[v] = slices.Clip(slices.Compact(adj[v]))
	}
	return adj, nil
}

// Len returns the number of vertices.
func (a Adjacency) Len() int {
	return len(a)
}

// Neighbors returns the ascending neighbor list of v.
func (a Adjacency) Neighbors(v uint32) []uint32 {
	return a[v]
}

// Degree returns the number of neighbors of v.
func (a Adjacency) Degree(v uint32) int {
	return len(a[v])
}

// Contains reports whether u is a neighbor of v.
func (a Adjacency) Contains(v, u uint32) bool {
	_, ok := slices.BinarySearch(a[v], u)
	return ok
}

// Edges returns the number of undirected edges.
func (a Adjacency) Edges() int {
	total := 0
	for _, ns := range a {
		total += len(ns)
	}
	return total / 2
}

// MaxDegree returns the largest neighbor count over all vertices.
func (a Adjacency) MaxDegree() int {
	maxDeg := 0
	for _, ns := range a {
		maxDeg = max(maxDeg, len(ns))
	}
	return maxDeg
}

// Validate checks that every list is strictly ascending, in range, free of
// self-loops and that the relation is symmetric.
func (a Adjacency) Validate() error {
	n := uint64(len(a))
	for v, ns := range a {
		for k, u := range ns {
			switch {
			case uint64(u) >= n:
				return errors.Wrapf(ErrIndexOutOfRange, "vertex %d lists %d of %d", v, u, n)
			case u == uint32(v):
				return errors.Wrapf(ErrSelfLoop, "vertex %d", v)
			case k > 0 && ns[k-1] >= u:
				return errors.Wrapf(ErrNotAscending, "vertex %d at position %d", v, k)
			case !a.Contains(u, uint32(v)):
				return errors.Wrapf(ErrNotSymmetric, "%d lists %d but not the reverse", v, u)
			}
		}
	}
	return nil
}
