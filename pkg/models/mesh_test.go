package models

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/scene"
)

// triangleMesh returns one counter-clockwise triangle in the XY plane with
// vertex normals n.
func triangleMesh(n math3d.Vec3) *Mesh {
	m := NewMesh("tri")
	for _, p := range []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)} {
		m.Vertices = append(m.Vertices, MeshVertex{Position: p, Normal: n})
	}
	m.AddFace(Face{V: [3]int{0, 1, 2}, Material: -1})
	m.CalculateBounds()
	return m
}

func TestFaceNormal(t *testing.T) {
	tests := []struct {
		name     string
		vertex   math3d.Vec3
		override math3d.Vec3
		want     math3d.Vec3
	}{
		{"winding", math3d.Vec3{}, math3d.Vec3{}, math3d.V3(0, 0, 1)},
		{"agrees with vertex normals", math3d.V3(0, 0, 1), math3d.Vec3{}, math3d.V3(0, 0, 1)},
		{"flipped by vertex normals", math3d.V3(0, 0, -1), math3d.Vec3{}, math3d.V3(0, 0, -1)},
		{"override", math3d.V3(0, 0, 1), math3d.V3(3, 0, 0), math3d.V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := triangleMesh(tt.vertex)
			m.Faces[0].Normal = tt.override
			if got := m.FaceNormal(0); got != tt.want {
				t.Errorf("FaceNormal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroups(t *testing.T) {
	m := NewMesh("m")
	m.BeginGroup("unused")
	m.BeginGroup("a")
	m.AddFace(Face{})
	m.AddFace(Face{})
	m.BeginGroup("b")
	m.AddFace(Face{})

	want := []Group{{Name: "a", Start: 0, Count: 2}, {Name: "b", Start: 2, Count: 1}}
	if len(m.Groups) != len(want) {
		t.Fatalf("Groups = %+v, want %+v", m.Groups, want)
	}
	for i := range want {
		if m.Groups[i] != want[i] {
			t.Errorf("Groups[%d] = %+v, want %+v", i, m.Groups[i], want[i])
		}
	}
}

func TestAppend(t *testing.T) {
	a := triangleMesh(math3d.Vec3{})
	a.AddMaterial(Material{Name: "a"})
	b := triangleMesh(math3d.Vec3{})
	b.AddMaterial(Material{Name: "b"})
	b.Faces[0].Material = 0
	b.Transform(math3d.Translate(math3d.V3(0, 0, 5)))

	a.Append(b)
	if a.VertexCount() != 6 || a.TriangleCount() != 2 || a.MaterialCount() != 2 {
		t.Fatalf("got %d vertices, %d faces, %d materials", a.VertexCount(), a.TriangleCount(), a.MaterialCount())
	}
	if f := a.Faces[1]; f.V != [3]int{3, 4, 5} || f.Material != 1 {
		t.Errorf("appended face = %+v", f)
	}
	if a.Faces[0].Material != -1 {
		t.Errorf("unassigned material changed to %d", a.Faces[0].Material)
	}
	if g := a.Groups[1]; g.Start != 1 || g.Count != 1 {
		t.Errorf("appended group = %+v", g)
	}
	if a.BoundsMax.Z != 5 {
		t.Errorf("BoundsMax = %v", a.BoundsMax)
	}
}

func TestClone(t *testing.T) {
	m := triangleMesh(math3d.Vec3{})
	c := m.Clone()
	c.Vertices[0].Position = math3d.V3(9, 9, 9)
	c.Groups[0].Name = "changed"
	if m.Vertices[0].Position != (math3d.Vec3{}) || m.Groups[0].Name != "tri" {
		t.Error("Clone shares storage with the original")
	}
}

func TestFit(t *testing.T) {
	m := NewMesh("fit")
	for _, p := range []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(2, 4, 0), math3d.V3(1, 0, 6)} {
		m.Vertices = append(m.Vertices, MeshVertex{Position: p})
	}
	m.Fit(3)
	if got := m.Size().MaxComponent(); got != 3 {
		t.Errorf("largest dimension = %v, want 3", got)
	}
	if c := m.Center(); c != (math3d.Vec3{}) {
		t.Errorf("Center = %v, want origin", c)
	}
	if got := m.Size(); got != math3d.V3(1, 2, 3) {
		t.Errorf("Size = %v, want (1, 2, 3)", got)
	}
}

func TestSceneConversion(t *testing.T) {
	m := triangleMesh(math3d.V3(0, 0, -1))
	m.AddMaterial(Material{Name: "lamp", Emissive: math3d.Splat(2)})
	m.BeginGroup("second")
	m.Vertices = append(m.Vertices, MeshVertex{Position: math3d.V3(0, 0, 4)})
	m.AddFace(Face{V: [3]int{1, 2, 3}, Material: 0})

	s, err := m.Scene()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) != 2 || s.Names[0] != "tri" || s.Names[1] != "second" {
		t.Fatalf("objects = %+v, names = %v", s.Objects, s.Names)
	}
	if len(s.Materials) != 2 {
		t.Fatalf("got %d materials, want lamp plus the default", len(s.Materials))
	}
	if d := s.Materials[s.Triangles[0].Material].Diffuse; d != DefaultMaterial.Diffuse {
		t.Errorf("unassigned face diffuse = %v, want %v", d, DefaultMaterial.Diffuse)
	}
	if s.Emitters() != 1 {
		t.Errorf("Emitters = %d, want 1", s.Emitters())
	}
	if n := s.Normals[s.Triangles[0].Normal]; n != math3d.V3(0, 0, -1) {
		t.Errorf("normal = %v, want (0, 0, -1)", n)
	}
	if box := s.AABBs[s.Objects[1].AABB]; box.Max.Z != 4 {
		t.Errorf("second object box = %+v", box)
	}
}

func TestSceneConversionBadIndex(t *testing.T) {
	m := triangleMesh(math3d.Vec3{})
	m.Faces[0].V[2] = 7
	if _, err := m.Scene(); !errors.Is(err, scene.ErrIndexOutOfRange) {
		t.Errorf("err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestCornellBox(t *testing.T) {
	m := CornellBox()
	if m.TriangleCount() != 36 {
		t.Errorf("TriangleCount = %d, want 36", m.TriangleCount())
	}
	if m.BoundsMin != (math3d.Vec3{}) || m.BoundsMax != math3d.Splat(555) {
		t.Errorf("bounds = %v..%v", m.BoundsMin, m.BoundsMax)
	}

	s, err := m.Scene()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Objects) != 8 {
		t.Errorf("got %d objects, want 8", len(s.Objects))
	}
	if s.Emitters() != 2 {
		t.Errorf("Emitters = %d, want 2", s.Emitters())
	}
	for i, n := range s.Normals {
		if math.Abs(n.Len()-1) > 1e-9 {
			t.Errorf("normal %d = %v is not unit length", i, n)
		}
	}

	// Block faces stay inside the room.
	for _, name := range []string{"short block", "tall block"} {
		for i, g := range s.Names {
			if g != name {
				continue
			}
			box := s.AABBs[s.Objects[i].AABB]
			if box.Min.X < 0 || box.Min.Z < 0 || box.Max.X > 555 || box.Max.Z > 555 {
				t.Errorf("%s box %+v leaves the room", name, box)
			}
		}
	}
}

func TestAddAreaLight(t *testing.T) {
	m := triangleMesh(math3d.V3(0, 0, 1))
	top := m.BoundsMax.Y
	m.AddAreaLight(math3d.Splat(5))

	g := m.Groups[len(m.Groups)-1]
	if g.Name != "area light" || g.Count != 2 {
		t.Fatalf("last group = %+v", g)
	}
	for i := g.Start; i < g.Start+g.Count; i++ {
		f := m.Faces[i]
		if m.Materials[f.Material].Emissive != math3d.Splat(5) {
			t.Errorf("face %d material = %+v", i, m.Materials[f.Material])
		}
		if n := m.FaceNormal(i); n != math3d.V3(0, -1, 0) {
			t.Errorf("face %d normal = %v, want down", i, n)
		}
		if y := m.Vertices[f.V[0]].Position.Y; y <= top {
			t.Errorf("light at y=%v, not above %v", y, top)
		}
	}
}

func BenchmarkCornellScene(b *testing.B) {
	m := CornellBox()
	for b.Loop() {
		if _, err := m.Scene(); err != nil {
			b.Fatal(err)
		}
	}
}
