package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecNear(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want Vec3
	}{
		{"unit x", V3(5, 0, 0), V3(1, 0, 0)},
		{"diagonal", V3(1, 1, 0), V3(1/math.Sqrt2, 1/math.Sqrt2, 0)},
		{"zero stays zero", V3(0, 0, 0), V3(0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); !vecNear(got, tt.want, eps) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVec3Recip(t *testing.T) {
	r := V3(2, 0, -4).Recip()
	if r.X != 0.5 || r.Z != -0.25 {
		t.Errorf("Recip = %v, want (0.5, +Inf, -0.25)", r)
	}
	if !math.IsInf(r.Y, 1) {
		t.Errorf("Recip of zero component = %v, want +Inf", r.Y)
	}
	if !math.IsInf(V3(math.Copysign(0, -1), 1, 1).Recip().X, -1) {
		t.Error("Recip of negative zero should be -Inf")
	}
}

func TestVec3Components(t *testing.T) {
	v := V3(3, -2, 7)
	if v.MinComponent() != -2 {
		t.Errorf("MinComponent = %v, want -2", v.MinComponent())
	}
	if v.MaxComponent() != 7 {
		t.Errorf("MaxComponent = %v, want 7", v.MaxComponent())
	}
	if got := v.Clamp(0, 1); got != V3(1, 0, 1) {
		t.Errorf("Clamp = %v, want (1, 0, 1)", got)
	}
	if !V3(0, 0, 0).IsZero() || v.IsZero() {
		t.Error("IsZero mismatch")
	}
	if V3(math.NaN(), 0, 0).IsFinite() || V3(0, math.Inf(1), 0).IsFinite() || !v.IsFinite() {
		t.Error("IsFinite mismatch")
	}
}

func TestMat4Inverse(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"translate", Translate(V3(1, 2, 3))},
		{"rotate scale", RotateY(0.7).Mul(Scale(V3(2, 3, 4)))},
		{"look at", LookAt(V3(0, 1, 5), V3(0, 0, 0), Up())},
		{"perspective", Perspective(math.Pi/3, 4.0/3.0, 0.1, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Mul(tt.m.Inverse())
			id := Identity()
			for i := range got {
				if math.Abs(got[i]-id[i]) > 1e-9 {
					t.Fatalf("m * m^-1 [%d] = %v, want %v", i, got[i], id[i])
				}
			}
		})
	}
}

func TestMat4InverseSingular(t *testing.T) {
	if got := (Mat4{}).Inverse(); got != Identity() {
		t.Errorf("Inverse of singular matrix = %v, want identity", got)
	}
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := V3(3, 4, 5)
	view := LookAt(eye, V3(0, 0, 0), Up())
	if got := view.MulVec3(eye); !vecNear(got, V3(0, 0, 0), eps) {
		t.Errorf("view * eye = %v, want origin", got)
	}
	// The camera looks down -Z in view space.
	fwd := view.MulVec3Dir(V3(0, 0, 0).Sub(eye).Normalize())
	if !vecNear(fwd, V3(0, 0, -1), eps) {
		t.Errorf("view * forward = %v, want (0, 0, -1)", fwd)
	}
}

func TestPerspectiveUnprojectsFarPlaneCorner(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 1, 10)
	p := proj.Inverse().MulVec4(V4(1, 1, 1, 1)).PerspectiveDivide()
	if !vecNear(p, V3(10, 10, -10), 1e-6) {
		t.Errorf("unprojected far corner = %v, want (10, 10, -10)", p)
	}
}
