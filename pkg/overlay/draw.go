package overlay

import (
	"image"
	"image/color"

	"github.com/teslashibe/go-aruco/pkg/attitude"
	"github.com/teslashibe/go-aruco/pkg/calibration"
	"github.com/teslashibe/go-aruco/pkg/marker"
	"gocv.io/x/gocv"
)

// Text layout: banner at the top, first pose line at y=100,
// 50 px apart.
const (
	lineStartY  = 100
	lineSpacing = 50
	bannerY     = 30
	fontScale   = 1.0
	thickness   = 2

	targetRadius = 8
)

var (
	textColor    = color.RGBA{0, 255, 0, 0}
	bannerColor  = color.RGBA{255, 255, 255, 0}
	outlineColor = gocv.NewScalar(0, 255, 0, 0)
	axisColors   = [3]color.RGBA{
		{0, 0, 255, 0}, // x red (BGR)
		{0, 255, 0, 0}, // y green
		{255, 0, 0, 0}, // z blue
	}
)

// Markers outlines every detection with its id.
func Markers(img *gocv.Mat, dets []marker.Detection) {
	if len(dets) == 0 {
		return
	}
	corners, ids := marker.GoCVCorners(dets)
	gocv.ArucoDrawDetectedMarkers(*img, corners, ids, outlineColor)
}

// Target marks the center of the locked detection.
func Target(img *gocv.Mat, det marker.Detection) {
	c := toImage(det.Center())
	gocv.Circle(img, c, targetRadius, textColor, thickness)
	gocv.Line(img, image.Pt(c.X-targetRadius, c.Y), image.Pt(c.X+targetRadius, c.Y), textColor, 1)
	gocv.Line(img, image.Pt(c.X, c.Y-targetRadius), image.Pt(c.X, c.Y+targetRadius), textColor, 1)
}

// Axes draws the marker frame axes, length units long, using points
// projected by calib. Axes behind the camera are skipped.
func Axes(img *gocv.Mat, calib *calibration.Calibration, p marker.Pose, length float64) {
	pts, err := calib.Project(attitude.Rodrigues(p.RVec), p.TVec, []calibration.Point3{
		{},
		{X: length},
		{Y: length},
		{Z: length},
	})
	if err != nil {
		return
	}

	origin := toImage(pts[0])
	for i := 0; i < 3; i++ {
		gocv.Line(img, origin, toImage(pts[i+1]), axisColors[i], 3)
	}
}

// Text draws the banner and the pose lines.
func Text(img *gocv.Mat, banner string, lines []string) {
	gocv.PutTextWithParams(img, banner, image.Pt(0, bannerY), gocv.FontHersheyPlain, fontScale, bannerColor, thickness, gocv.LineAA, false)
	for i, line := range lines {
		y := lineStartY + i*lineSpacing
		gocv.PutTextWithParams(img, line, image.Pt(0, y), gocv.FontHersheyPlain, fontScale, textColor, thickness, gocv.LineAA, false)
	}
}

func toImage(p calibration.Point2) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}
