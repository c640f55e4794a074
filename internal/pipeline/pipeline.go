// Package pipeline runs the generator end to end: mesh generation,
// adjacency, grouping and serialization, in that order.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/grassfeet/internal/config"
	"github.com/Faultbox/grassfeet/internal/logger"
	"github.com/Faultbox/grassfeet/pkg/formats"
	"github.com/Faultbox/grassfeet/pkg/graph"
	"github.com/Faultbox/grassfeet/pkg/grouping"
	"github.com/Faultbox/grassfeet/pkg/mesh"
	"github.com/Faultbox/grassfeet/pkg/mesh/icosphere"
)

// SourceFunc produces a mesh of the given radius and subdivision level.
type SourceFunc func(radius float64, level int) (mesh.Source, error)

// Icosphere is the default SourceFunc. It generates the sphere and computes
// its normals.
func Icosphere(radius float64, level int) (mesh.Source, error) {
	p, err := icosphere.New(radius, level)
	if err != nil {
		return nil, err
	}
	p.ComputeNormals()
	return p, nil
}

// Result summarizes a finished run.
type Result struct {
	Path      string
	Version   formats.GRAVersion
	Vertices  int
	Triangles int
	Edges     int
	Groups    int
	Bytes     int64
}

// Generator holds everything a run needs.
type Generator struct {
	cfg    *config.Config
	source SourceFunc
	out    io.Writer
}

// New returns a Generator that builds meshes with source and prints the
// mesh summary to out.
func New(cfg *config.Config, source SourceFunc, out io.Writer) *Generator {
	if source == nil {
		source = Icosphere
	}
	if out == nil {
		out = io.Discard
	}
	return &Generator{cfg: cfg, source: source, out: out}
}

// Run builds the graph and writes the output file. Nothing is written when
// a capacity or precondition check fails.
func (g *Generator) Run() (*Result, error) {
	cfg := g.cfg
	version := formats.GRAVersion(cfg.Output.FormatVersion)
	if !version.IsValid() {
		return nil, errors.Wrapf(formats.ErrUnsupportedGRAVersion, "%d", cfg.Output.FormatVersion)
	}

	fine, err := g.buildMesh("fine", cfg.Mesh.FineSubdivision)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(g.out, "Triangles: %d\n", len(fine.Triangles))
	fmt.Fprintf(g.out, "Vertices: %d\n", fine.NumVertices())

	if err := formats.CheckVertexCount(uint64(fine.NumVertices())); err != nil {
		return nil, err
	}

	start := time.Now()
	adj, err := graph.Build(fine.Triangles, fine.NumVertices())
	if err != nil {
		return nil, errors.Wrap(err, "building adjacency")
	}
	logger.Info("adjacency built",
		zap.Int("vertices", adj.Len()),
		zap.Int("edges", adj.Edges()),
		zap.Int("max_degree", adj.MaxDegree()),
		zap.Duration("took", time.Since(start)))

	if cfg.Grouping.Verify {
		if err := adj.Validate(); err != nil {
			return nil, errors.Wrap(err, "verifying adjacency")
		}
		logger.Debug("adjacency verified")
	}

	gra := &formats.GRA{
		Version:   version,
		Vertices:  fine.Vertices,
		Adjacency: adj,
	}

	if version.HasGroups() {
		coarse, err := g.buildMesh("coarse", cfg.Mesh.CoarseSubdivision)
		if err != nil {
			return nil, err
		}
		if coarse.NumVertices() >= fine.NumVertices() {
			return nil, errors.Wrapf(grouping.ErrPrecondition,
				"coarse level %d has %d vertices, fine level %d has %d",
				cfg.Mesh.CoarseSubdivision, coarse.NumVertices(),
				cfg.Mesh.FineSubdivision, fine.NumVertices())
		}
		fmt.Fprintf(g.out, "Sparse vertices: %d\n", coarse.NumVertices())

		start = time.Now()
		groups, err := grouping.Assign(fine.Positions(), coarse.Positions(), grouping.Options{
			Workers: cfg.Grouping.Workers,
		})
		if err != nil {
			return nil, errors.Wrap(err, "assigning groups")
		}
		hist := grouping.Histogram(groups, coarse.NumVertices())
		smallest, largest := len(groups), 0
		for _, c := range hist {
			smallest = min(smallest, c)
			largest = max(largest, c)
		}
		logger.Info("groups assigned",
			zap.Int("groups", coarse.NumVertices()),
			zap.Int("smallest", smallest),
			zap.Int("largest", largest),
			zap.Int("workers", cfg.Grouping.Workers),
			zap.Duration("took", time.Since(start)))

		gra.Groups = groups
		gra.GroupVertices = coarse.Vertices
	}

	start = time.Now()
	n, err := formats.WriteGRAFile(cfg.Output.Path, gra)
	if err != nil {
		return nil, errors.Wrap(err, "cannot write")
	}
	logger.Info("graph written",
		zap.String("path", cfg.Output.Path),
		zap.Stringer("version", version),
		zap.Int64("bytes", n),
		zap.Duration("took", time.Since(start)))

	return &Result{
		Path:      cfg.Output.Path,
		Version:   version,
		Vertices:  fine.NumVertices(),
		Triangles: len(fine.Triangles),
		Edges:     adj.Edges(),
		Groups:    len(gra.GroupVertices),
		Bytes:     n,
	}, nil
}

func (g *Generator) buildMesh(name string, level int) (*mesh.Mesh, error) {
	start := time.Now()
	src, err := g.source(g.cfg.Mesh.Radius, level)
	if err != nil {
		return nil, errors.Wrapf(err, "generating %s mesh", name)
	}
	m, err := mesh.FromSource(src)
	if err != nil {
		return nil, errors.Wrapf(err, "generating %s mesh", name)
	}
	logger.Debug("mesh generated",
		zap.String("mesh", name),
		zap.Int("level", level),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", len(m.Triangles)),
		zap.Duration("took", time.Since(start)))
	return m, nil
}
