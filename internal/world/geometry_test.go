package world

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func vecsClose(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < epsilon &&
		math.Abs(a.Y-b.Y) < epsilon &&
		math.Abs(a.Z-b.Z) < epsilon
}

func TestVec3ComponentWiseProduct(t *testing.T) {
	got := Vec3{X: 2, Y: 1, Z: 2}.Mul(Vec3{X: 3, Y: 3, Z: 3})
	want := Vec3{X: 6, Y: 3, Z: 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestVec3NormalizedZero(t *testing.T) {
	if got := (Vec3{}).Normalized(); got != (Vec3{}) {
		t.Fatalf("expected zero vector to stay zero, got %v", got)
	}
	unit := Vec3{X: 3, Y: 0, Z: 4}.Normalized()
	if math.Abs(unit.Length()-1) > epsilon {
		t.Fatalf("expected unit length, got %v", unit.Length())
	}
}

func TestQuatRotateAboutY(t *testing.T) {
	q := FromAxisAngle(Vec3{Y: 1}, math.Pi/2)
	got := q.Rotate(Vec3{X: 1})
	want := Vec3{Z: -1}
	if !vecsClose(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestQuatMulComposes(t *testing.T) {
	quarter := FromAxisAngle(Vec3{Y: 1}, math.Pi/2)
	half := quarter.Mul(quarter)
	got := half.Rotate(Vec3{X: 1})
	want := Vec3{X: -1}
	if !vecsClose(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestQuatConjugateInverts(t *testing.T) {
	q := FromAxisAngle(Vec3{X: 0.3, Y: 1, Z: -0.2}, 1.1)
	v := Vec3{X: 2, Y: -1, Z: 0.5}
	restored := q.Conjugate().Rotate(q.Rotate(v))
	if !vecsClose(restored, v) {
		t.Fatalf("expected %v after round trip, got %v", v, restored)
	}
}

func TestQuatNormalizedDegenerate(t *testing.T) {
	if got := (Quat{}).Normalized(); got != Identity() {
		t.Fatalf("expected identity for zero quaternion, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{"below", -2, 0, 10, 0},
		{"inside", 5, 0, 10, 5},
		{"above", 12, 0, 10, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clamp(tc.value, tc.min, tc.max); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
