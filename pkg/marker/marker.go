// Package marker detects ArUco markers and solves their pose relative to
// the camera. Detection and PnP are delegated to OpenCV through gocv.
package marker

import (
	"github.com/teslashibe/go-aruco/pkg/calibration"
	"gocv.io/x/gocv"
)

// Detection is one marker found in a frame.
type Detection struct {
	ID int

	// Corners in OpenCV order: top-left, top-right, bottom-right,
	// bottom-left, in pixels.
	Corners [4]calibration.Point2
}

// Center returns the mean of the four corners.
func (d Detection) Center() calibration.Point2 {
	var c calibration.Point2
	for _, p := range d.Corners {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= 4
	c.Y /= 4
	return c
}

// Pose is a marker's rotation (Rodrigues vector) and translation in the
// camera frame. Translation is in the unit of the marker size.
type Pose struct {
	RVec [3]float64
	TVec [3]float64
}

// Detector is the interface for marker detection backends
type Detector interface {
	// Detect finds markers in a grayscale (or BGR) image
	Detect(img gocv.Mat) []Detection

	// Close releases resources
	Close() error
}

// Find returns the first detection with the given id, or nil.
func Find(dets []Detection, id int) *Detection {
	for i := range dets {
		if dets[i].ID == id {
			return &dets[i]
		}
	}
	return nil
}

// IDs returns the ids of all detections in order.
func IDs(dets []Detection) []int {
	ids := make([]int, len(dets))
	for i, d := range dets {
		ids[i] = d.ID
	}
	return ids
}

// ObjectPoints returns the marker corners in the marker frame for a marker
// of the given side length: centered on the origin, z = 0, x right and
// y up, in the same order as Detection.Corners.
func ObjectPoints(size float64) [4]calibration.Point3 {
	h := size / 2
	return [4]calibration.Point3{
		{X: -h, Y: h, Z: 0},
		{X: h, Y: h, Z: 0},
		{X: h, Y: -h, Z: 0},
		{X: -h, Y: -h, Z: 0},
	}
}
