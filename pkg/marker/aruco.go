package marker

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-aruco/pkg/calibration"
	"github.com/teslashibe/go-aruco/pkg/debug"
	"gocv.io/x/gocv"
)

// ArucoDetector uses OpenCV's ArucoDetector for marker detection
type ArucoDetector struct {
	detector gocv.ArucoDetector
	mu       sync.Mutex // Protects detection
}

// NewAruco creates a detector for the named dictionary with OpenCV's
// default detector parameters.
func NewAruco(dictionary string) (*ArucoDetector, error) {
	code, err := LookupDictionary(dictionary)
	if err != nil {
		return nil, err
	}

	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()

	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
	}, nil
}

// Detect finds markers in img
func (d *ArucoDetector) Detect(img gocv.Mat) []Detection {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil
	}

	corners, ids, _ := d.detector.DetectMarkers(img)

	dets := make([]Detection, 0, len(ids))
	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		det := Detection{ID: id}
		for j, p := range corners[i] {
			det.Corners[j] = calibration.Point2{X: float64(p.X), Y: float64(p.Y)}
		}
		dets = append(dets, det)
	}

	if len(dets) > 0 {
		debug.FrameLog("markers detected", "count", len(dets), "ids", fmt.Sprint(IDs(dets)))
	}

	return dets
}

// Close releases the detector resources
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}

// GoCVCorners converts detections back to the gocv corner layout used by
// the drawing functions.
func GoCVCorners(dets []Detection) ([][]gocv.Point2f, []int) {
	corners := make([][]gocv.Point2f, len(dets))
	ids := make([]int, len(dets))
	for i, d := range dets {
		ids[i] = d.ID
		corners[i] = make([]gocv.Point2f, 4)
		for j, p := range d.Corners {
			corners[i][j] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
		}
	}
	return corners, ids
}
