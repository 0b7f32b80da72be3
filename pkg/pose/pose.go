// Package pose turns a solved marker pose into the position and attitude
// of the marker seen from the camera, and of the camera seen from the
// marker.
package pose

import (
	"math"

	"github.com/teslashibe/go-aruco/pkg/attitude"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"gonum.org/v1/gonum/mat"
)

// Estimate is the geometry derived from one marker pose.
type Estimate struct {
	MarkerID int

	// MarkerPosition is the marker origin in the camera frame (tvec).
	MarkerPosition [3]float64

	// MarkerAttitude is the marker orientation, Euler(R_flip · R_tc).
	// Zero when the marker squarely faces the camera.
	MarkerAttitude attitude.Euler

	// CameraPosition is the camera origin in the marker frame.
	CameraPosition [3]float64

	// CameraAttitude is the camera orientation in the marker frame. It is
	// read from the same flipped rotation as MarkerAttitude.
	CameraAttitude attitude.Euler
}

// Distance returns the camera-to-marker range.
func (e Estimate) Distance() float64 {
	p := e.MarkerPosition
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

// Solve derives an Estimate from the marker's rotation and translation.
//
//	R_ct = Rodrigues(rvec), R_tc = R_ctᵀ
//	camera position = -R_tc · tvec
//	attitude        = Euler(R_flip · R_tc)
func Solve(id int, p marker.Pose) Estimate {
	rct := attitude.Rodrigues(p.RVec)
	rtc := mat.DenseCopyOf(rct.T())
	flip := attitude.FlipX()

	var rot mat.Dense
	rot.Mul(flip, rtc)
	att := attitude.RotationMatrixToEuler(&rot)

	var camPos mat.VecDense
	camPos.MulVec(rtc, mat.NewVecDense(3, []float64{p.TVec[0], p.TVec[1], p.TVec[2]}))
	camPos.ScaleVec(-1, &camPos)

	return Estimate{
		MarkerID:       id,
		MarkerPosition: p.TVec,
		MarkerAttitude: att,
		CameraPosition: [3]float64{camPos.AtVec(0), camPos.AtVec(1), camPos.AtVec(2)},
		CameraAttitude: att,
	}
}
