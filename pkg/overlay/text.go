// Package overlay renders pose estimates onto camera frames.
package overlay

import (
	"fmt"

	"github.com/teslashibe/go-aruco/pkg/pose"
)

// Lines formats the four pose lines drawn under the stage banner.
// Positions are in marker-size units, attitudes in degrees.
func Lines(est pose.Estimate) []string {
	mr, mp, my := est.MarkerAttitude.Degrees()
	cr, cp, cy := est.CameraAttitude.Degrees()
	m, c := est.MarkerPosition, est.CameraPosition

	return []string{
		fmt.Sprintf("MARKER Position x=%4.0f  y=%4.0f  z=%4.0f", m[0], m[1], m[2]),
		fmt.Sprintf("MARKER Attitude r=%4.0f  p=%4.0f  y=%4.0f", mr, mp, my),
		fmt.Sprintf("CAMERA Position x=%4.0f  y=%4.0f  z=%4.0f", c[0], c[1], c[2]),
		fmt.Sprintf("CAMERA Attitude r=%4.0f  p=%4.0f  y=%4.0f", cr, cp, cy),
	}
}

// Banner is the top line naming the mission stage and its target.
func Banner(stage string, targetID int, locked bool) string {
	state := "searching"
	if locked {
		state = "locked"
	}
	return fmt.Sprintf("%s: marker %d (%s)  [q] next  [esc] abort", stage, targetID, state)
}
