package chunkmap

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMat4(t *testing.T, name string, got, want Mat4) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestMat4IdentityInverse(t *testing.T) {
	inv, ok := Identity4.Invert()
	if !ok {
		t.Fatal("identity reported singular")
	}
	assertMat4(t, "inverse", inv, Identity4)
}

func TestMat4TranslatePoint(t *testing.T) {
	m := Identity4.Translate(10, 20, 30)
	x, y, z := m.TransformPoint(1, 2, 3)
	assertNear(t, "x", x, 11)
	assertNear(t, "y", y, 22)
	assertNear(t, "z", z, 33)
}

func TestMat4ComposeOrder(t *testing.T) {
	// Scale applies first, then the translation.
	m := Identity4.Translate(5, 0, 0).Scale(2, 2, 1)
	x, _, _ := m.TransformPoint(1, 0, 0)
	assertNear(t, "x", x, 7)
}

func TestMat4RotateZ90(t *testing.T) {
	x, y, _ := Identity4.RotateZ(90).TransformPoint(1, 0, 0)
	assertNear(t, "x", x, 0)
	assertNear(t, "y", y, 1)
}

func TestMat4InvertRoundTrip(t *testing.T) {
	m := Identity4.
		Translate(400, 300, 0).
		RotateX(35).
		RotateY(-12).
		RotateZ(20).
		Translate(-400, -300, 0).
		Translate(-120, 45, 0).
		Scale(0.25, 0.25, 1)
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert reported singular")
	}
	assertMat4(t, "m*inv", m.Mul(inv), Identity4)
	assertMat4(t, "inv*m", inv.Mul(m), Identity4)
}

func TestMat4SingularScale(t *testing.T) {
	if _, ok := Identity4.Scale(0, 1, 1).Invert(); ok {
		t.Error("zero scale inverted, want singular")
	}
}
