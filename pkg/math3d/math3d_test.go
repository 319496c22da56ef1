package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecNear(a, b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestVec3Axis(t *testing.T) {
	v := V3(1, 2, 3)
	for i, want := range []float64{1, 2, 3} {
		if got := v.Axis(i); got != want {
			t.Errorf("Axis(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestVec3Reflect(t *testing.T) {
	d := V3(1, -1, 0).Normalize()
	r := d.Reflect(V3(0, 1, 0))
	want := V3(1, 1, 0).Normalize()
	if !vecNear(r, want, eps) {
		t.Errorf("Reflect = %v, want %v", r, want)
	}
}

func TestVec3InvZero(t *testing.T) {
	inv := V3(0, 2, -0.5).Inv()
	if !math.IsInf(inv.X, 1) {
		t.Errorf("Inv of 0 should be +Inf, got %v", inv.X)
	}
	if inv.Y != 0.5 || inv.Z != -2 {
		t.Errorf("Inv = %v", inv)
	}
}

func TestVec3Clamp(t *testing.T) {
	got := V3(-1, 0.5, 4).Clamp(0, 1)
	if got != V3(0, 0.5, 1) {
		t.Errorf("Clamp = %v", got)
	}
}

func TestRayNormalizes(t *testing.T) {
	r := NewRay(V3(1, 1, 1), V3(0, 0, 10))
	if r.Direction != V3(0, 0, 1) {
		t.Errorf("Direction = %v, want unit +Z", r.Direction)
	}
	if !math.IsInf(r.InvDirection.X, 1) || r.InvDirection.Z != 1 {
		t.Errorf("InvDirection = %v", r.InvDirection)
	}
	if p := r.At(2); p != V3(1, 1, 3) {
		t.Errorf("At(2) = %v", p)
	}
}

func TestFromQuatRotatesAboutY(t *testing.T) {
	angle := math.Pi / 3
	q := FromQuat(0, math.Sin(angle/2), 0, math.Cos(angle/2))

	c, s := math.Cos(angle), math.Sin(angle)
	v := V3(1, 2, 3)
	want := V3(c*v.X+s*v.Z, v.Y, -s*v.X+c*v.Z)
	if got := q.MulVec3(v); !vecNear(got, want, 1e-9) {
		t.Errorf("quat rotation %v, want %v", got, want)
	}
}

func TestTRS(t *testing.T) {
	m := TRS(V3(10, 0, 0), [4]float64{0, 0, 0, 1}, V3(2, 2, 2))
	if got := m.MulVec3(V3(1, 1, 1)); !vecNear(got, V3(12, 2, 2), eps) {
		t.Errorf("TRS point = %v", got)
	}
	if got := m.MulVec3Dir(V3(1, 0, 0)); !vecNear(got, V3(2, 0, 0), eps) {
		t.Errorf("TRS dir = %v", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(FromQuat(math.Sin(0.35), 0, 0, math.Cos(0.35))).Mul(Scale(V3(1, 2, 4)))
	id := m.Mul(m.Inverse())
	for i := range 16 {
		if math.Abs(id[i]-Identity()[i]) > 1e-9 {
			t.Fatalf("m * inv(m) = %v", id)
		}
	}
}

func TestNormalMatrix(t *testing.T) {
	// A plane stretched along X keeps its Y normal.
	m := Scale(V3(4, 1, 1))
	n := m.NormalMatrix().MulVec3Dir(V3(0, 1, 0)).Normalize()
	if !vecNear(n, V3(0, 1, 0), eps) {
		t.Errorf("normal = %v", n)
	}
}

func TestBarycentric(t *testing.T) {
	got := Barycentric(V2(0, 0), V2(1, 0), V2(0, 1), 0.25, 0.5)
	if math.Abs(got.X-0.25) > eps || math.Abs(got.Y-0.5) > eps {
		t.Errorf("Barycentric = %v", got)
	}
}
