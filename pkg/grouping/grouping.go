// Package grouping assigns every vertex of a fine mesh to its nearest vertex
// of a coarser reference mesh.
package grouping

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/grassfeet/pkg/geom"
)

// ErrPrecondition is returned when the coarse mesh is empty or not strictly
// smaller than the fine mesh.
var ErrPrecondition = errors.New("coarse mesh must be non-empty and strictly smaller than fine mesh")

// minChunk is the smallest number of fine vertices handed to one worker.
const minChunk = 1024

// Options controls how the assignment is scheduled. The result does not
// depend on it.
type Options struct {
	// Workers is the number of goroutines scanning fine vertices. Values
	// below 2 run the scan on the calling goroutine.
	Workers int
}

// Assign returns, for each fine position, the index of the nearest coarse
// position by squared Euclidean distance. When several coarse positions are
// equally near, the lowest index wins.
func Assign(fine, coarse []geom.Vec3, opts Options) ([]uint32, error) {
	if len(coarse) == 0 || len(coarse) >= len(fine) {
		return nil, errors.Wrapf(ErrPrecondition, "fine %d, coarse %d", len(fine), len(coarse))
	}

	groups := make([]uint32, len(fine))
	if opts.Workers < 2 || len(fine) <= minChunk {
		assignRange(groups, fine, coarse, 0, len(fine))
		return groups, nil
	}

	chunk := max((len(fine)+opts.Workers-1)/opts.Workers, minChunk)
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for lo := 0; lo < len(fine); lo += chunk {
		hi := min(lo+chunk, len(fine))
		g.Go(func() error {
			assignRange(groups, fine, coarse, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

// Nearest returns the index of the coarse position closest to p. Ties keep
// the first candidate of the ascending scan.
func Nearest(p geom.Vec3, coarse []geom.Vec3) uint32 {
	best := uint32(0)
	bestDist := geom.DistanceSquared(p, coarse[0])
	for j := 1; j < len(coarse); j++ {
		if d := geom.DistanceSquared(p, coarse[j]); d < bestDist {
			bestDist = d
			best = uint32(j)
		}
	}
	return best
}

func assignRange(groups []uint32, fine, coarse []geom.Vec3, lo, hi int) {
	for i := lo; i < hi; i++ {
		groups[i] = Nearest(fine[i], coarse)
	}
}

// Histogram counts how many fine vertices fall into each of m groups.
func Histogram(groups []uint32, m int) []int {
	counts := make([]int, m)
	for _, g := range groups {
		if int(g) < m {
			counts[g]++
		}
	}
	return counts
}
