package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
)

// addQuad adds a square facing -Z at depth z as a two-triangle object.
func addQuad(t *testing.T, b *Builder, name string, z float64, mat uint32) {
	t.Helper()
	p0 := b.AddPosition(math3d.V3(-1, -1, z))
	p1 := b.AddPosition(math3d.V3(1, -1, z))
	p2 := b.AddPosition(math3d.V3(1, 1, z))
	p3 := b.AddPosition(math3d.V3(-1, 1, z))
	n := b.AddNormal(math3d.V3(0, 0, -1))
	err := b.AddObject(name, []Triangle{
		{V: [3]uint32{p0, p1, p2}, Normal: n, Material: mat},
		{V: [3]uint32{p0, p2, p3}, Normal: n, Material: mat},
	})
	if err != nil {
		t.Fatalf("AddObject(%s): %v", name, err)
	}
}

func TestIntersectNearestRegardlessOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		depths []float64
	}{
		{"near first", []float64{2, 5}},
		{"far first", []float64{5, 2}},
		{"three", []float64{7, 2, 5}},
	}
	ray := geom.Ray{Origin: math3d.V3(0.1, 0.2, 0), Direction: math3d.V3(0, 0, 1)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			var nearMat uint32
			for i, z := range tt.depths {
				m := b.AddMaterial(Material{Diffuse: math3d.Splat(float64(i) / 10)})
				if z == 2 {
					nearMat = m
				}
				addQuad(t, b, "quad", z, m)
			}
			s, err := b.Build()
			if err != nil {
				t.Fatal(err)
			}
			h := s.Intersect(ray, 1e-4, math.MaxFloat64)
			if !h.OK {
				t.Fatal("expected hit")
			}
			if h.Distance != 2 {
				t.Errorf("distance = %v, want 2", h.Distance)
			}
			if h.Triangle.Material != nearMat {
				t.Errorf("material = %d, want %d", h.Triangle.Material, nearMat)
			}
			if h.Point != math3d.V3(0.1, 0.2, 2) {
				t.Errorf("point = %v", h.Point)
			}
		})
	}
}

func TestIntersectTieKeepsFirstObject(t *testing.T) {
	b := NewBuilder()
	m0 := b.AddMaterial(Material{})
	m1 := b.AddMaterial(Material{})
	addQuad(t, b, "first", 3, m0)
	addQuad(t, b, "second", 3, m1)
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	h := s.Intersect(geom.Ray{Origin: math3d.V3(0.3, -0.2, 0), Direction: math3d.V3(0, 0, 1)}, 0, math.MaxFloat64)
	if !h.OK || h.Triangle.Material != m0 {
		t.Errorf("tie resolved to material %d, want %d", h.Triangle.Material, m0)
	}
}

func TestIntersectMiss(t *testing.T) {
	b := NewBuilder()
	addQuad(t, b, "quad", 2, b.AddMaterial(Material{}))
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		ray  geom.Ray
		tMax float64
	}{
		{"away", geom.Ray{Origin: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, -1)}, math.MaxFloat64},
		{"beside", geom.Ray{Origin: math3d.V3(3, 0, 0), Direction: math3d.V3(0, 0, 1)}, math.MaxFloat64},
		{"short", geom.Ray{Origin: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := s.Intersect(tt.ray, 0, tt.tMax)
			if h.OK || h.Distance != 0 {
				t.Errorf("got %+v, want miss", h)
			}
		})
	}
}

func TestIntersectEmptyScene(t *testing.T) {
	s, err := NewBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}
	if h := s.Intersect(geom.Ray{Direction: math3d.V3(0, 0, 1)}, 0, math.MaxFloat64); h.OK {
		t.Errorf("empty scene hit: %+v", h)
	}
}

func TestIntersectObjectCulledByBox(t *testing.T) {
	b := NewBuilder()
	addQuad(t, b, "quad", 2, b.AddMaterial(Material{}))
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	// Shrink the box away from the triangles: the test must trust it.
	s.AABBs[0] = geom.NewAABB(math3d.V3(5, 5, 5), math3d.V3(6, 6, 6))
	ray := geom.Ray{Origin: math3d.V3(0, 0, 0), Direction: math3d.V3(0, 0, 1)}
	if h := s.IntersectObject(ray, s.Objects[0], 0, math.MaxFloat64); h.OK {
		t.Error("object box rejected the ray but a triangle was still tested")
	}
}

func TestBuilderComputesBoxes(t *testing.T) {
	b := NewBuilder()
	m := b.AddMaterial(Material{})
	addQuad(t, b, "a", 2, m)
	addQuad(t, b, "b", -4, m)
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) != 2 || len(s.AABBs) != 2 {
		t.Fatalf("got %d objects, %d boxes", len(s.Objects), len(s.AABBs))
	}
	if want := geom.NewAABB(math3d.V3(-1, -1, 2), math3d.V3(1, 1, 2)); s.AABBs[0] != want {
		t.Errorf("box 0 = %v, want %v", s.AABBs[0], want)
	}
	if o := s.Objects[1]; o.Start != 2 || o.Count != 2 || o.AABB != 1 {
		t.Errorf("object 1 = %+v", o)
	}
	if want := geom.NewAABB(math3d.V3(-1, -1, -4), math3d.V3(1, 1, 2)); s.Bounds() != want {
		t.Errorf("Bounds = %v, want %v", s.Bounds(), want)
	}
	if s.Names[1] != "b" {
		t.Errorf("Names = %v", s.Names)
	}
}

func TestBuilderSkipsEmptyObject(t *testing.T) {
	b := NewBuilder()
	if err := b.AddObject("empty", nil); err != nil {
		t.Fatal(err)
	}
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) != 0 {
		t.Errorf("empty object was added")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Scene {
		b := NewBuilder()
		addQuad(t, b, "q", 1, b.AddMaterial(Material{}))
		s, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	tests := []struct {
		name    string
		mutate  func(s *Scene)
		wantErr error
	}{
		{"ok", func(s *Scene) {}, nil},
		{"position", func(s *Scene) { s.Triangles[0].V[1] = 99 }, ErrIndexOutOfRange},
		{"normal", func(s *Scene) { s.Triangles[1].Normal = 3 }, ErrIndexOutOfRange},
		{"material", func(s *Scene) { s.Triangles[0].Material = 1 }, ErrIndexOutOfRange},
		{"aabb index", func(s *Scene) { s.Objects[0].AABB = 4 }, ErrIndexOutOfRange},
		{"range", func(s *Scene) { s.Objects[0].Count = 3 }, ErrIndexOutOfRange},
		{"inverted box", func(s *Scene) { s.AABBs[0].Min.X = 2 }, ErrInvalidAABB},
		{"overlap", func(s *Scene) {
			s.AABBs = append(s.AABBs, s.AABBs[0])
			s.Objects = append(s.Objects, Object{AABB: 1, Start: 1, Count: 1})
		}, ErrOverlappingRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddObjectRejectsUnknownPosition(t *testing.T) {
	b := NewBuilder()
	err := b.AddObject("bad", []Triangle{{V: [3]uint32{0, 1, 2}}})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("AddObject() = %v, want ErrIndexOutOfRange", err)
	}
}

func TestCameraValidate(t *testing.T) {
	good := Camera{InvProjection: math3d.Identity(), InvView: math3d.Identity(), Width: 4, Height: 3, SamplesPerPixel: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid camera: %v", err)
	}
	if good.Pixels() != 12 {
		t.Errorf("Pixels = %d, want 12", good.Pixels())
	}
	for name, c := range map[string]Camera{
		"no width":   {Height: 2, SamplesPerPixel: 1},
		"no samples": {Width: 2, Height: 2},
		"nan":        {Width: 2, Height: 2, SamplesPerPixel: 1, InvView: math3d.Mat4{math.NaN()}},
		"inf":        {Width: 2, Height: 2, SamplesPerPixel: 1, InvProjection: math3d.Mat4{5: math.Inf(-1)}},
	} {
		if err := c.Validate(); !errors.Is(err, ErrInvalidCamera) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidCamera", name, err)
		}
	}
}

func TestEmitters(t *testing.T) {
	b := NewBuilder()
	addQuad(t, b, "dark", 1, b.AddMaterial(Material{Diffuse: math3d.Splat(0.5)}))
	addQuad(t, b, "light", 2, b.AddMaterial(Material{Emissive: math3d.Splat(4)}))
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Emitters(); got != 2 {
		t.Errorf("Emitters = %d, want 2", got)
	}
}

func BenchmarkIntersect(b *testing.B) {
	bld := NewBuilder()
	m := bld.AddMaterial(Material{})
	for i := range 32 {
		p0 := bld.AddPosition(math3d.V3(-1, -1, float64(i)+1))
		p1 := bld.AddPosition(math3d.V3(1, -1, float64(i)+1))
		p2 := bld.AddPosition(math3d.V3(0, 1, float64(i)+1))
		n := bld.AddNormal(math3d.V3(0, 0, -1))
		_ = bld.AddObject("tri", []Triangle{{V: [3]uint32{p0, p1, p2}, Normal: n, Material: m}})
	}
	s, err := bld.Build()
	if err != nil {
		b.Fatal(err)
	}
	ray := geom.Ray{Direction: math3d.V3(0, 0, 1)}
	for b.Loop() {
		_ = s.Intersect(ray, 1e-4, math.MaxFloat64)
	}
}
