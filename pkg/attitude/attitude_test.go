package attitude

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

func TestIsRotationMatrix(t *testing.T) {
	tests := []struct {
		name string
		m    mat.Matrix
		want bool
	}{
		{name: "identity", m: Identity(), want: true},
		{name: "flip x", m: FlipX(), want: true},
		{name: "composed", m: EulerToRotationMatrix(Euler{Roll: 0.3, Pitch: -0.7, Yaw: 2.1}), want: true},
		{name: "scaled", m: mat.NewDense(3, 3, []float64{2, 0, 0, 0, 2, 0, 0, 0, 2}), want: false},
		{name: "sheared", m: mat.NewDense(3, 3, []float64{1, 0.01, 0, 0, 1, 0, 0, 0, 1}), want: false},
		{name: "wrong shape", m: mat.NewDense(2, 2, []float64{1, 0, 0, 1}), want: false},
		{name: "nan", m: mat.NewDense(3, 3, []float64{math.NaN(), 0, 0, 0, 1, 0, 0, 0, 1}), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRotationMatrix(tc.m); got != tc.want {
				t.Errorf("IsRotationMatrix: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRotationMatrixToEuler_Identity(t *testing.T) {
	e := RotationMatrixToEuler(Identity())
	if e.Roll != 0 || e.Pitch != 0 || e.Yaw != 0 {
		t.Errorf("identity: got %+v, want zeros", e)
	}
}

func TestRotationMatrixToEuler_RoundTrip(t *testing.T) {
	angles := []Euler{
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -2.5, Pitch: 1.2, Yaw: -0.4},
		{Roll: 3.0, Pitch: -1.5, Yaw: 3.1},
		{Roll: 0, Pitch: 0, Yaw: -math.Pi / 2},
		{Roll: math.Pi / 4, Pitch: 0, Yaw: 0},
	}

	for _, in := range angles {
		t.Run(in.String(), func(t *testing.T) {
			r := EulerToRotationMatrix(in)
			out := RotationMatrixToEuler(r)

			if !mat.EqualApprox(EulerToRotationMatrix(out), r, tol) {
				t.Errorf("reconstruction differs:\n%v\nvs\n%v", mat.Formatted(EulerToRotationMatrix(out)), mat.Formatted(r))
			}
			if math.Abs(out.Roll-in.Roll) > tol || math.Abs(out.Pitch-in.Pitch) > tol || math.Abs(out.Yaw-in.Yaw) > tol {
				t.Errorf("angles: got %+v, want %+v", out, in)
			}
		})
	}
}

func TestRotationMatrixToEuler_GimbalLock(t *testing.T) {
	// Exact 90° pitch: the secondary-axis projection is exactly zero.
	r := mat.NewDense(3, 3, []float64{
		0, 0, 1,
		0, 1, 0,
		-1, 0, 0,
	})
	e := RotationMatrixToEuler(r)
	if e.Yaw != 0 {
		t.Errorf("yaw: got %v, want exactly 0", e.Yaw)
	}
	if e.Roll != math.Atan2(-r.At(1, 2), r.At(1, 1)) {
		t.Errorf("roll: got %v, want alternate-branch value", e.Roll)
	}
	if math.Abs(e.Pitch-math.Pi/2) > tol {
		t.Errorf("pitch: got %v, want π/2", e.Pitch)
	}

	// Pitch at the singularity with a roll component: roll absorbs it.
	in := Euler{Roll: 0.6, Pitch: math.Pi / 2}
	r = EulerToRotationMatrix(in)
	e = RotationMatrixToEuler(r)
	if e.Yaw != 0 {
		t.Errorf("yaw: got %v, want exactly 0", e.Yaw)
	}
	if math.Abs(e.Roll-0.6) > tol {
		t.Errorf("roll: got %v, want 0.6", e.Roll)
	}
	if !mat.EqualApprox(EulerToRotationMatrix(e), r, 1e-6) {
		t.Error("gimbal lock reconstruction differs")
	}
}

func TestRotationMatrixToEuler_PanicsOnNonRotation(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic for non-orthonormal matrix")
		}
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrNotRotation) {
			t.Errorf("panic value: got %v, want ErrNotRotation", rec)
		}
	}()

	RotationMatrixToEuler(mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}))
}

func TestRodrigues(t *testing.T) {
	tests := []struct {
		name string
		rvec [3]float64
		want *mat.Dense
	}{
		{name: "zero", rvec: [3]float64{}, want: Identity()},
		{name: "quarter turn z", rvec: [3]float64{0, 0, math.Pi / 2}, want: EulerToRotationMatrix(Euler{Yaw: math.Pi / 2})},
		{name: "half turn x", rvec: [3]float64{math.Pi, 0, 0}, want: FlipX()},
		{name: "small y", rvec: [3]float64{0, 0.25, 0}, want: EulerToRotationMatrix(Euler{Pitch: 0.25})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Rodrigues(tc.rvec)
			if !mat.EqualApprox(got, tc.want, tol) {
				t.Errorf("got\n%v\nwant\n%v", mat.Formatted(got), mat.Formatted(tc.want))
			}
			if !IsRotationMatrix(got) {
				t.Error("result is not a rotation matrix")
			}
		})
	}
}

func TestEulerDegrees(t *testing.T) {
	r, p, y := Euler{Roll: math.Pi, Pitch: -math.Pi / 2, Yaw: math.Pi / 4}.Degrees()
	if math.Abs(r-180) > tol || math.Abs(p+90) > tol || math.Abs(y-45) > tol {
		t.Errorf("Degrees: got (%v, %v, %v)", r, p, y)
	}
}
