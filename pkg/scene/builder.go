package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
)

var (
	// ErrIndexOutOfRange is returned when a triangle or object refers past
	// the end of one of the scene arrays.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidAABB is returned for a box with Min > Max on some axis.
	ErrInvalidAABB = errors.New("invalid bounding box")
	// ErrOverlappingRange is returned when two objects share triangles.
	ErrOverlappingRange = errors.New("overlapping triangle ranges")
	// ErrInvalidCamera is returned for a camera with no pixels or samples.
	ErrInvalidCamera = errors.New("invalid camera")
)

// Builder accumulates geometry and produces a validated Scene. Objects are
// appended one at a time; each object's box is computed from the vertices
// its triangles reference.
type Builder struct {
	s Scene
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddPosition appends a vertex position and returns its index.
func (b *Builder) AddPosition(p math3d.Vec3) uint32 {
	b.s.Positions = append(b.s.Positions, p)
	return uint32(len(b.s.Positions) - 1)
}

// AddNormal appends a normal, normalizing it, and returns its index.
func (b *Builder) AddNormal(n math3d.Vec3) uint32 {
	b.s.Normals = append(b.s.Normals, n.Normalize())
	return uint32(len(b.s.Normals) - 1)
}

// AddMaterial appends a material and returns its index.
func (b *Builder) AddMaterial(m Material) uint32 {
	b.s.Materials = append(b.s.Materials, m)
	return uint32(len(b.s.Materials) - 1)
}

// AddObject appends tris as one object and bounds it. Positions referenced
// by tris must already have been added. Empty objects are skipped.
func (b *Builder) AddObject(name string, tris []Triangle) error {
	if len(tris) == 0 {
		return nil
	}
	var pts []math3d.Vec3
	for i, t := range tris {
		for _, v := range t.V {
			if int(v) >= len(b.s.Positions) {
				return fmt.Errorf("object %q triangle %d: position %d: %w", name, i, v, ErrIndexOutOfRange)
			}
			pts = append(pts, b.s.Positions[v])
		}
	}
	b.s.AABBs = append(b.s.AABBs, geom.BoundPoints(pts...))
	b.s.Objects = append(b.s.Objects, Object{
		AABB:  uint32(len(b.s.AABBs) - 1),
		Start: uint32(len(b.s.Triangles)),
		Count: uint32(len(tris)),
	})
	b.s.Triangles = append(b.s.Triangles, tris...)
	b.s.Names = append(b.s.Names, name)
	return nil
}

// Build validates and returns the scene. The Builder should not be reused.
func (b *Builder) Build() (*Scene, error) {
	s := b.s
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	return &s, nil
}

// Validate checks every cross-array index, box and triangle range so the
// tracer can index without bounds failures.
func (s *Scene) Validate() error {
	for i, t := range s.Triangles {
		for _, v := range t.V {
			if int(v) >= len(s.Positions) {
				return fmt.Errorf("triangle %d: position %d: %w", i, v, ErrIndexOutOfRange)
			}
		}
		if int(t.Normal) >= len(s.Normals) {
			return fmt.Errorf("triangle %d: normal %d: %w", i, t.Normal, ErrIndexOutOfRange)
		}
		if int(t.Material) >= len(s.Materials) {
			return fmt.Errorf("triangle %d: material %d: %w", i, t.Material, ErrIndexOutOfRange)
		}
	}
	for i, b := range s.AABBs {
		if !b.Valid() {
			return fmt.Errorf("aabb %d: %v: %w", i, b, ErrInvalidAABB)
		}
	}
	covered := make([]bool, len(s.Triangles))
	for i, o := range s.Objects {
		if int(o.AABB) >= len(s.AABBs) {
			return fmt.Errorf("object %d: aabb %d: %w", i, o.AABB, ErrIndexOutOfRange)
		}
		end := uint64(o.Start) + uint64(o.Count)
		if end > uint64(len(s.Triangles)) {
			return fmt.Errorf("object %d: triangles [%d, %d): %w", i, o.Start, end, ErrIndexOutOfRange)
		}
		for j := o.Start; j < o.Start+o.Count; j++ {
			if covered[j] {
				return fmt.Errorf("object %d: triangle %d: %w", i, j, ErrOverlappingRange)
			}
			covered[j] = true
		}
	}
	return nil
}
