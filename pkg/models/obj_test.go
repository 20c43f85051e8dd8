package models

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/taigrr/lumen/pkg/math3d"
)

const cubeMTL = `
# two materials
newmtl grey
Kd 0.5 0.5 0.5

newmtl lamp
Kd 0 0 0
Ke 4 4 3.5
`

const sceneOBJ = `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 -2

o floor
usemtl grey
f 1//1 2//1 3//1 4//1

o lamp
usemtl lamp
f -4 -2 -1
`

func TestLoadOBJ(t *testing.T) {
	fsys := fstest.MapFS{
		"models/scene.obj": {Data: []byte(sceneOBJ)},
		"models/scene.mtl": {Data: []byte(cubeMTL)},
	}
	mesh, err := LoadOBJFS(fsys, "models/scene.obj")
	if err != nil {
		t.Fatal(err)
	}

	if mesh.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4", mesh.VertexCount())
	}
	// The quad is fan-triangulated.
	if mesh.TriangleCount() != 3 {
		t.Fatalf("TriangleCount = %d, want 3", mesh.TriangleCount())
	}
	if len(mesh.Groups) != 2 || mesh.Groups[0].Name != "floor" || mesh.Groups[1].Name != "lamp" {
		t.Fatalf("Groups = %+v", mesh.Groups)
	}
	if g := mesh.Groups[0]; g.Start != 0 || g.Count != 2 {
		t.Errorf("floor group = %+v", g)
	}
	if f := mesh.Faces[1]; f.V != [3]int{0, 2, 3} {
		t.Errorf("second fan triangle = %v, want [0 2 3]", f.V)
	}
	if f := mesh.Faces[2]; f.V != [3]int{0, 2, 3} || f.Material != 1 {
		t.Errorf("negative-index face = %+v", f)
	}
	if n := mesh.Faces[0].Normal; n != math3d.V3(0, 0, -1) {
		t.Errorf("face normal = %v, want normalized vn (0, 0, -1)", n)
	}
	if !mesh.Faces[2].Normal.IsZero() {
		t.Errorf("face without vn got normal %v", mesh.Faces[2].Normal)
	}

	lamp := mesh.GetMaterial(1)
	if lamp == nil || lamp.Name != "lamp" || lamp.Emissive != math3d.V3(4, 4, 3.5) {
		t.Errorf("lamp material = %+v", lamp)
	}
	if grey := mesh.GetMaterial(0); grey.Diffuse != math3d.Splat(0.5) || !grey.Emissive.IsZero() {
		t.Errorf("grey material = %+v", grey)
	}
	if mesh.BoundsMax != math3d.V3(1, 1, 0) {
		t.Errorf("BoundsMax = %v", mesh.BoundsMax)
	}
}

func TestLoadOBJDefaultGroup(t *testing.T) {
	fsys := fstest.MapFS{"tri.obj": {Data: []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/2 3/3\n")}}
	mesh, err := LoadOBJFS(fsys, "tri.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Groups) != 1 || mesh.Groups[0].Name != "tri.obj" || mesh.Groups[0].Count != 1 {
		t.Errorf("Groups = %+v", mesh.Groups)
	}
	if mesh.Faces[0].Material != -1 {
		t.Errorf("Material = %d, want -1", mesh.Faces[0].Material)
	}
}

func TestLoadOBJErrors(t *testing.T) {
	tests := []struct {
		name     string
		obj      string
		wantLine int
		wantErr  error
	}{
		{"unknown material", "v 0 0 0\nusemtl nope\n", 2, ErrUnknownMaterial},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", 4, nil},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", 4, nil},
		{"short face", "v 0 0 0\nf 1 1\n", 2, nil},
		{"bad float", "v 0 zero 0\n", 1, nil},
		{"short vertex", "v 0 0\n", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOBJFS(fstest.MapFS{"bad.obj": {Data: []byte(tt.obj)}}, "bad.obj")
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Line != tt.wantLine || pe.File != "bad.obj" {
				t.Errorf("error at %s:%d, want bad.obj:%d", pe.File, pe.Line, tt.wantLine)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadOBJMissingLibrary(t *testing.T) {
	_, err := LoadOBJFS(fstest.MapFS{"a.obj": {Data: []byte("mtllib missing.mtl\n")}}, "a.obj")
	if err == nil {
		t.Fatal("expected error for missing material library")
	}
}

func TestLoadOBJDuplicateMaterial(t *testing.T) {
	fsys := fstest.MapFS{
		"a.obj": {Data: []byte("mtllib a.mtl\n")},
		"a.mtl": {Data: []byte("newmtl x\nnewmtl x\n")},
	}
	var pe *ParseError
	if _, err := LoadOBJFS(fsys, "a.obj"); !errors.As(err, &pe) || pe.File != "a.mtl" || pe.Line != 2 {
		t.Errorf("err = %v, want a.mtl:2 parse error", err)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("model.fbx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.fbx) = %v, want ErrUnsupportedFormat", err)
	}
}
