// Package telemetry carries pose estimates out of the frame loop to the
// recorder and the dashboard.
package telemetry

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-aruco/pkg/pose"
)

// Vec3 is a position in marker-size units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Attitude is roll, pitch and yaw in degrees.
type Attitude struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Sample is one pose estimate, stamped with where it came from.
type Sample struct {
	Session        string    `json:"session"`
	Stage          string    `json:"stage"`
	MarkerID       int       `json:"marker_id"`
	Frame          int       `json:"frame"`
	Time           time.Time `json:"time"`
	MarkerPosition Vec3      `json:"marker_position"`
	MarkerAttitude Attitude  `json:"marker_attitude"`
	CameraPosition Vec3      `json:"camera_position"`
	CameraAttitude Attitude  `json:"camera_attitude"`
}

// NewSession returns a fresh session id.
func NewSession() string {
	return uuid.NewString()
}

// FromEstimate builds a Sample from a pose estimate.
func FromEstimate(session, stage string, frame int, est pose.Estimate, at time.Time) Sample {
	mr, mp, my := est.MarkerAttitude.Degrees()
	cr, cp, cy := est.CameraAttitude.Degrees()
	m, c := est.MarkerPosition, est.CameraPosition

	return Sample{
		Session:        session,
		Stage:          stage,
		MarkerID:       est.MarkerID,
		Frame:          frame,
		Time:           at,
		MarkerPosition: Vec3{X: m[0], Y: m[1], Z: m[2]},
		MarkerAttitude: Attitude{Roll: mr, Pitch: mp, Yaw: my},
		CameraPosition: Vec3{X: c[0], Y: c[1], Z: c[2]},
		CameraAttitude: Attitude{Roll: cr, Pitch: cp, Yaw: cy},
	}
}

// Publisher receives samples from the frame loop. Publish is called on the
// frame loop goroutine and must not block for long.
type Publisher interface {
	Publish(s Sample) error
}

// Multi fans a sample out to several publishers.
type Multi []Publisher

// Publish sends s to every publisher and joins their errors.
func (m Multi) Publish(s Sample) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Sample) error

// Publish calls f(s).
func (f PublisherFunc) Publish(s Sample) error {
	return f(s)
}
