// Package attitude converts between the rotation representations used by
// the marker pose pipeline: Rodrigues vectors, rotation matrices and
// roll/pitch/yaw Euler angles (XYZ convention, R = Rz·Ry·Rx).
package attitude

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// OrthonormalTolerance bounds ‖I - RᵀR‖ (Frobenius) for a rotation matrix.
	OrthonormalTolerance = 1e-6

	// SingularTolerance is the secondary-axis projection below which the
	// matrix is treated as gimbal locked.
	SingularTolerance = 1e-6
)

// ErrNotRotation is the panic value of RotationMatrixToEuler when its
// precondition fails.
var ErrNotRotation = errors.New("attitude: not a rotation matrix")

// Euler holds roll, pitch and yaw in radians.
type Euler struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Degrees returns the three angles converted to degrees.
func (e Euler) Degrees() (roll, pitch, yaw float64) {
	return toDegrees(e.Roll), toDegrees(e.Pitch), toDegrees(e.Yaw)
}

// String formats the angles in degrees.
func (e Euler) String() string {
	r, p, y := e.Degrees()
	return fmt.Sprintf("r=%.1f° p=%.1f° y=%.1f°", r, p, y)
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// IsRotationMatrix reports whether r is a 3x3 matrix whose transpose
// product deviates from identity by less than OrthonormalTolerance.
func IsRotationMatrix(r mat.Matrix) bool {
	rows, cols := r.Dims()
	if rows != 3 || cols != 3 {
		return false
	}

	var rtr mat.Dense
	rtr.Mul(r.T(), r)

	var diff mat.Dense
	diff.Sub(Identity(), &rtr)

	// NaN entries fail the comparison as well.
	return mat.Norm(&diff, 2) < OrthonormalTolerance
}

// RotationMatrixToEuler recovers roll, pitch and yaw from a rotation matrix.
//
// r must satisfy IsRotationMatrix; anything else is a programming error and
// panics with ErrNotRotation. Near gimbal lock the yaw is fixed to zero and
// the roll absorbs the remaining rotation.
func RotationMatrixToEuler(r mat.Matrix) Euler {
	if !IsRotationMatrix(r) {
		panic(fmt.Errorf("%w:\n%v", ErrNotRotation, mat.Formatted(r)))
	}

	sy := math.Hypot(r.At(0, 0), r.At(1, 0))
	if sy < SingularTolerance {
		return Euler{
			Roll:  math.Atan2(-r.At(1, 2), r.At(1, 1)),
			Pitch: math.Atan2(-r.At(2, 0), sy),
			Yaw:   0,
		}
	}

	return Euler{
		Roll:  math.Atan2(r.At(2, 1), r.At(2, 2)),
		Pitch: math.Atan2(-r.At(2, 0), sy),
		Yaw:   math.Atan2(r.At(1, 0), r.At(0, 0)),
	}
}

// EulerToRotationMatrix composes Rz(yaw)·Ry(pitch)·Rx(roll).
func EulerToRotationMatrix(e Euler) *mat.Dense {
	sr, cr := math.Sincos(e.Roll)
	sp, cp := math.Sincos(e.Pitch)
	sy, cy := math.Sincos(e.Yaw)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})

	var r mat.Dense
	r.Product(rz, ry, rx)
	return &r
}

// Rodrigues converts an axis-angle rotation vector to a rotation matrix.
// A zero vector maps to identity.
func Rodrigues(rvec [3]float64) *mat.Dense {
	theta := math.Sqrt(rvec[0]*rvec[0] + rvec[1]*rvec[1] + rvec[2]*rvec[2])
	if theta < 1e-12 {
		return Identity()
	}

	kx, ky, kz := rvec[0]/theta, rvec[1]/theta, rvec[2]/theta
	s, c := math.Sincos(theta)
	v := 1 - c

	return mat.NewDense(3, 3, []float64{
		c + kx*kx*v, kx*ky*v - kz*s, kx*kz*v + ky*s,
		ky*kx*v + kz*s, c + ky*ky*v, ky*kz*v - kx*s,
		kz*kx*v - ky*s, kz*ky*v + kx*s, c + kz*kz*v,
	})
}

// FlipX is the 180° rotation about the x axis. It maps the OpenCV camera
// axes (y down, z forward) onto the body axes the attitude is reported in.
func FlipX() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, -1, 0,
		0, 0, -1,
	})
}

// Identity returns a fresh 3x3 identity matrix.
func Identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
