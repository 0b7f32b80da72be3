package marker

import (
	"fmt"

	"github.com/teslashibe/go-aruco/pkg/calibration"
	"gocv.io/x/gocv"
)

// solvePnPIPPESquare selects OpenCV's SOLVEPNP_IPPE_SQUARE, the method
// meant for the four corners of a square marker.
const solvePnPIPPESquare = 7

// Estimator solves single-marker poses against a fixed calibration.
type Estimator struct {
	size       float64
	cameraMat  gocv.Mat
	distortion gocv.Mat
	object     [4]calibration.Point3
}

// NewEstimator prepares the OpenCV matrices for calib and a marker side
// length of size (any unit; translations come back in the same unit).
func NewEstimator(calib *calibration.Calibration, size float64) (*Estimator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSize, size)
	}

	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			k.SetDoubleAt(r, c, calib.CameraMatrix.At(r, c))
		}
	}

	dist := gocv.NewMatWithSize(1, len(calib.Distortion), gocv.MatTypeCV64F)
	for i, v := range calib.Distortion {
		dist.SetDoubleAt(0, i, v)
	}

	return &Estimator{
		size:       size,
		cameraMat:  k,
		distortion: dist,
		object:     ObjectPoints(size),
	}, nil
}

// Size returns the marker side length.
func (e *Estimator) Size() float64 {
	return e.size
}

// Estimate solves the pose of one detected marker.
func (e *Estimator) Estimate(det Detection) (Pose, error) {
	objPts := make([]gocv.Point3f, 4)
	imgPts := make([]gocv.Point2f, 4)
	for i := 0; i < 4; i++ {
		objPts[i] = gocv.Point3f{X: float32(e.object[i].X), Y: float32(e.object[i].Y), Z: float32(e.object[i].Z)}
		imgPts[i] = gocv.Point2f{X: float32(det.Corners[i].X), Y: float32(det.Corners[i].Y)}
	}

	objVec := gocv.NewPoint3fVectorFromPoints(objPts)
	defer objVec.Close()
	imgVec := gocv.NewPoint2fVectorFromPoints(imgPts)
	defer imgVec.Close()

	rvec := gocv.NewMat()
	defer rvec.Close()
	tvec := gocv.NewMat()
	defer tvec.Close()

	if ok := gocv.SolvePnP(objVec, imgVec, e.cameraMat, e.distortion, &rvec, &tvec, false, solvePnPIPPESquare); !ok {
		return Pose{}, fmt.Errorf("%w: marker %d", ErrPoseNotFound, det.ID)
	}
	if rvec.Total() < 3 || tvec.Total() < 3 {
		return Pose{}, fmt.Errorf("%w: marker %d: short result", ErrPoseNotFound, det.ID)
	}

	var p Pose
	for i := 0; i < 3; i++ {
		p.RVec[i] = rvec.GetDoubleAt(i, 0)
		p.TVec[i] = tvec.GetDoubleAt(i, 0)
	}
	return p, nil
}

// Close releases the OpenCV matrices.
func (e *Estimator) Close() error {
	e.cameraMat.Close()
	e.distortion.Close()
	return nil
}
